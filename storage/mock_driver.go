package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDriver implements the Driver interface for testing
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDriver) Auth() string {
	args := m.Called()
	return args.String(0)
}

// ListFolders implements the Driver interface
func (m *MockDriver) ListFolders(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDriver) Create(ctx context.Context, folder string) error {
	args := m.Called(ctx, folder)
	return args.Error(0)
}

func (m *MockDriver) Delete(ctx context.Context, folder string) error {
	args := m.Called(ctx, folder)
	return args.Error(0)
}

func (m *MockDriver) Rename(ctx context.Context, oldName, newName string) error {
	args := m.Called(ctx, oldName, newName)
	return args.Error(0)
}

// ListAnnotation implements the Driver interface
func (m *MockDriver) ListAnnotation(ctx context.Context, annotation string) (map[string]string, error) {
	args := m.Called(ctx, annotation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockDriver) GetAnnotation(ctx context.Context, folder, annotation string) (string, error) {
	args := m.Called(ctx, folder, annotation)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) SetAnnotation(ctx context.Context, folder, annotation, value string) error {
	args := m.Called(ctx, folder, annotation, value)
	return args.Error(0)
}

func (m *MockDriver) Namespace(ctx context.Context) (*Namespace, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Namespace), args.Error(1)
}
