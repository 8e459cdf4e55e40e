// Package storage abstracts the IMAP style backend that holds Kolab folders.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FolderTypeAnnotation holds the Kolab type of a folder.
const FolderTypeAnnotation = "/shared/vendor/kolab/folder-type"

// Driver connects to the folder backend of a single user.
type Driver interface {
	// ID returns a unique id of the connection, used as cache key.
	ID() string
	// Auth returns the authenticated user.
	Auth() string
	// ListFolders returns all folders visible to the user.
	ListFolders(ctx context.Context) ([]string, error)
	// Create creates a folder.
	Create(ctx context.Context, folder string) error
	// Delete removes a folder.
	Delete(ctx context.Context, folder string) error
	// Rename moves a folder.
	Rename(ctx context.Context, oldName, newName string) error
	// ListAnnotation returns the values of the annotation for all folders
	// that carry it.
	ListAnnotation(ctx context.Context, annotation string) (map[string]string, error)
	// GetAnnotation returns the annotation value or "" if it is unset.
	GetAnnotation(ctx context.Context, folder, annotation string) (string, error)
	// SetAnnotation stores an annotation value.
	SetAnnotation(ctx context.Context, folder, annotation, value string) error
	// Namespace returns the namespace configuration of the backend.
	Namespace(ctx context.Context) (*Namespace, error)
}

var (
	// ErrNotFound is returned when a folder doesn't exist
	ErrNotFound = errors.New("folder not found")
	// ErrAlreadyExists is returned when creating a folder that exists
	ErrAlreadyExists = errors.New("folder already exists")
	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input parameters")
	// ErrPermissionDenied is returned when the operation is not allowed
	ErrPermissionDenied = errors.New("permission denied")
	// ErrStorageUnavailable is returned when the backend is unavailable
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error describes a failed driver operation.
type Error struct {
	Op     string
	Folder string
	Err    error
}

func (e *Error) Error() string {
	if e.Folder == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Folder, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FolderType is the parsed value of FolderTypeAnnotation.
type FolderType struct {
	Type    string
	Default bool
}

// String returns the annotation value.
func (t FolderType) String() string {
	if t.Default {
		return t.Type + ".default"
	}
	return t.Type
}

// ParseFolderType splits an annotation value like "event.default". Sub
// types other than "default" (e.g. "mail.sentitems") are dropped. Folders
// without annotation are mail folders.
func ParseFolderType(value string) FolderType {
	value = strings.TrimSpace(value)
	if value == "" {
		return FolderType{Type: "mail"}
	}
	t, sub, _ := strings.Cut(value, ".")
	return FolderType{Type: t, Default: sub == "default"}
}
