package list

import (
	"context"
	"errors"
	"testing"

	"github.com/cyp0633/libkolab/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMockDriver(folders []string, types map[string]string) *storage.MockDriver {
	driver := new(storage.MockDriver)
	driver.On("ListFolders", mock.Anything).Return(folders, nil).Once()
	driver.On("ListAnnotation", mock.Anything, storage.FolderTypeAnnotation).Return(types, nil).Once()
	driver.On("Namespace", mock.Anything).Return(storage.NewFixedNamespace("test"), nil).Once()
	return driver
}

// seededCache returns a cache that already holds a namespace and folders.
func seededCache(t *testing.T, folders []string, types map[string]string) *Cache {
	t.Helper()
	cache := NewCache(nil, "test@mock:0")
	cache.SetNamespace(storage.NewFixedNamespace("test"))
	cache.Store(folders, types)
	return cache
}

func TestSynchronize(t *testing.T) {
	ctx := context.Background()
	driver := newMockDriver([]string{"INBOX/Test"}, map[string]string{"INBOX/Test": "a.default"})
	backend := NewMemoryBackend()
	cache := NewCache(backend, "test@mock:0")
	s := NewSynchronization(driver, cache, NewBailDefaults(), nil)

	require.NoError(t, s.Synchronize(ctx))
	driver.AssertExpectations(t)

	assert.NotNil(t, cache.Namespace())
	assert.Equal(t, []string{"INBOX/Test"}, cache.Folders())
	assert.Equal(t, map[string]string{"INBOX/Test": "a.default"}, cache.FolderTypes())

	want := FolderData{
		Folder:    "INBOX/Test",
		Type:      "a",
		Default:   true,
		Owner:     "test",
		Name:      "Test",
		Subpath:   "Test",
		Parent:    "INBOX",
		Namespace: storage.NamespacePersonal,
		Prefix:    "INBOX/",
		Delimiter: "/",
	}
	q := cache.queries()
	require.NotNil(t, q)
	assert.Equal(t, map[string]string{"INBOX/Test": "a"}, q.Types)
	assert.Equal(t, map[string]FolderData{"INBOX/Test": want}, q.Folders)
	assert.Equal(t, map[string]string{"INBOX/Test": "test"}, q.Owners)
	assert.Equal(t, map[string]map[string]FolderData{"a": {"INBOX/Test": want}}, q.ByType)
	assert.Equal(t, map[string]map[string]string{"test": {"a": "INBOX/Test"}}, q.Defaults)
	assert.Equal(t, map[string]string{"a": "INBOX/Test"}, q.PersonalDefaults)

	// The payload was persisted
	assert.Equal(t, []string{"test@mock:0"}, backend.IDs())
	restored := NewCache(backend, "test@mock:0")
	ok, err := restored.IsInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"INBOX/Test"}, restored.Folders())
}

func TestSynchronizeDriverError(t *testing.T) {
	driver := new(storage.MockDriver)
	driver.On("ListFolders", mock.Anything).Return(nil, storage.ErrStorageUnavailable)
	s := NewSynchronization(driver, NewCache(nil, "x"), nil, nil)

	err := s.Synchronize(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}

func TestUpdateWithoutNamespace(t *testing.T) {
	ctx := context.Background()
	driver := new(storage.MockDriver)
	cache := NewCache(nil, "test@mock:0")
	s := NewSynchronization(driver, cache, nil, nil)

	require.NoError(t, s.UpdateAfterCreateFolder(ctx, "INBOX/FooBar", ""))
	require.NoError(t, s.UpdateAfterDeleteFolder(ctx, "INBOX/FooBar"))
	require.NoError(t, s.UpdateAfterRenameFolder(ctx, "INBOX/Foo", "INBOX/FooBar"))
	require.NoError(t, s.SetDefault(ctx, FolderData{Folder: "INBOX/Foo", Namespace: storage.NamespacePersonal, Type: "contact"}, ""))

	assert.Empty(t, cache.Folders())
	driver.AssertNotCalled(t, "SetAnnotation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateAfterCreateFolder(t *testing.T) {
	ctx := context.Background()
	types := map[string]string{"INBOX/Foo": "contact", "INBOX/Bar": "note"}

	cache := seededCache(t, []string{"INBOX/Foo", "INBOX/Bar"}, types)
	s := NewSynchronization(new(storage.MockDriver), cache, nil, nil)
	require.NoError(t, s.UpdateAfterCreateFolder(ctx, "INBOX/FooBar", ""))
	assert.Equal(t, []string{"INBOX/Foo", "INBOX/Bar", "INBOX/FooBar"}, cache.Folders())
	assert.Equal(t, types, cache.FolderTypes())
	assert.Equal(t, "mail", cache.queries().Types["INBOX/FooBar"])

	cache = seededCache(t, []string{"INBOX/Foo", "INBOX/Bar"}, types)
	s = NewSynchronization(new(storage.MockDriver), cache, nil, nil)
	require.NoError(t, s.UpdateAfterCreateFolder(ctx, "INBOX/FooBar", "note"))
	assert.Equal(t, map[string]string{"INBOX/Foo": "contact", "INBOX/Bar": "note", "INBOX/FooBar": "note"}, cache.FolderTypes())
}

func TestUpdateAfterDeleteFolder(t *testing.T) {
	cache := seededCache(t, []string{"INBOX/Foo", "INBOX/Bar"}, map[string]string{"INBOX/Foo": "contact", "INBOX/Bar": "note"})
	s := NewSynchronization(new(storage.MockDriver), cache, nil, nil)

	require.NoError(t, s.UpdateAfterDeleteFolder(context.Background(), "INBOX/Bar"))
	assert.Equal(t, []string{"INBOX/Foo"}, cache.Folders())
	assert.Equal(t, map[string]string{"INBOX/Foo": "contact"}, cache.FolderTypes())
	assert.NotContains(t, cache.queries().Folders, "INBOX/Bar")
}

func TestUpdateAfterRenameFolder(t *testing.T) {
	cache := seededCache(t, []string{"INBOX/Foo", "INBOX/Bar"}, map[string]string{"INBOX/Foo": "contact", "INBOX/Bar": "note"})
	s := NewSynchronization(new(storage.MockDriver), cache, nil, nil)

	require.NoError(t, s.UpdateAfterRenameFolder(context.Background(), "INBOX/Bar", "INBOX/FooBar"))
	assert.Equal(t, []string{"INBOX/Foo", "INBOX/FooBar"}, cache.Folders())
	assert.Equal(t, map[string]string{"INBOX/Foo": "contact", "INBOX/FooBar": "note"}, cache.FolderTypes())
	assert.Equal(t, "FooBar", cache.queries().Folders["INBOX/FooBar"].Name)
}

func TestSetDefault(t *testing.T) {
	ctx := context.Background()
	driver := new(storage.MockDriver)
	driver.On("SetAnnotation", mock.Anything, "INBOX/Foo", storage.FolderTypeAnnotation, "contact.default").Return(nil).Once()

	cache := seededCache(t, []string{"INBOX/Foo"}, map[string]string{"INBOX/Foo": "contact"})
	s := NewSynchronization(driver, cache, nil, nil)

	err := s.SetDefault(ctx, FolderData{Folder: "INBOX/Foo", Namespace: storage.NamespacePersonal, Type: "contact"}, "")
	require.NoError(t, err)
	driver.AssertExpectations(t)
	assert.Equal(t, map[string]string{"INBOX/Foo": "contact.default"}, cache.FolderTypes())
	assert.Equal(t, map[string]string{"contact": "INBOX/Foo"}, cache.queries().PersonalDefaults)
}

func TestSetDefaultResetPreviousDefault(t *testing.T) {
	ctx := context.Background()
	driver := new(storage.MockDriver)
	driver.On("SetAnnotation", mock.Anything, "INBOX/Foo", storage.FolderTypeAnnotation, "event.default").Return(nil).Once()
	driver.On("SetAnnotation", mock.Anything, "INBOX/Bar", storage.FolderTypeAnnotation, "event").Return(nil).Once()

	cache := seededCache(t, []string{"INBOX/Foo", "INBOX/Bar"}, map[string]string{"INBOX/Foo": "event", "INBOX/Bar": "event.default"})
	s := NewSynchronization(driver, cache, nil, nil)

	err := s.SetDefault(ctx, FolderData{Folder: "INBOX/Foo", Namespace: storage.NamespacePersonal, Type: "event"}, "INBOX/Bar")
	require.NoError(t, err)
	driver.AssertExpectations(t)
	assert.Equal(t, map[string]string{"INBOX/Foo": "event.default", "INBOX/Bar": "event"}, cache.FolderTypes())
}

func TestSetDefaultFailures(t *testing.T) {
	ctx := context.Background()
	driver := new(storage.MockDriver)
	cache := seededCache(t, []string{"INBOX/FooBar"}, map[string]string{"INBOX/FooBar": "contact"})
	s := NewSynchronization(driver, cache, nil, nil)

	err := s.SetDefault(ctx, FolderData{Folder: "INBOX/Foo", Namespace: storage.NamespacePersonal, Type: "contact"}, "")
	assert.ErrorIs(t, err, ErrNoFolderType)

	err = s.SetDefault(ctx, FolderData{Folder: "INBOX/FooBar", Namespace: storage.NamespaceShared, Type: "contact"}, "")
	assert.ErrorIs(t, err, ErrNotPersonal)
	var listErr *Error
	require.ErrorAs(t, err, &listErr)
	assert.Equal(t, "INBOX/FooBar", listErr.Folder)

	driver.AssertNotCalled(t, "SetAnnotation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetDefaultDriverError(t *testing.T) {
	driver := new(storage.MockDriver)
	driver.On("SetAnnotation", mock.Anything, "INBOX/Foo", storage.FolderTypeAnnotation, "note.default").Return(storage.ErrPermissionDenied)
	cache := seededCache(t, []string{"INBOX/Foo"}, map[string]string{"INBOX/Foo": "note"})
	s := NewSynchronization(driver, cache, nil, nil)

	err := s.SetDefault(context.Background(), FolderData{Folder: "INBOX/Foo", Namespace: storage.NamespacePersonal, Type: "note"}, "")
	assert.True(t, errors.Is(err, storage.ErrPermissionDenied))
	assert.Equal(t, "note", cache.FolderTypes()["INBOX/Foo"])
}

func TestDuplicateDefaults(t *testing.T) {
	ctx := context.Background()
	folders := []string{"INBOX/A", "INBOX/B"}
	types := map[string]string{"INBOX/A": "event.default", "INBOX/B": "event.default"}

	s := NewSynchronization(newMockDriver(folders, types), NewCache(nil, "x"), NewBailDefaults(), nil)
	err := s.Synchronize(ctx)
	assert.ErrorIs(t, err, ErrDuplicateDefault)

	cache := NewCache(nil, "y")
	s = NewSynchronization(newMockDriver(folders, types), cache, NewLogDefaults(nil), nil)
	require.NoError(t, s.Synchronize(ctx))
	assert.Equal(t, map[string]map[string][]string{"test": {"event": {"INBOX/A", "INBOX/B"}}}, s.DuplicateDefaults())
	assert.Equal(t, "INBOX/A", cache.queries().PersonalDefaults["event"])
}

func TestStaleCacheVersion(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Store(ctx, "x", []byte(`{"version":0,"folders":["INBOX/Old"]}`)))

	cache := NewCache(backend, "x")
	ok, err := cache.IsInitialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, cache.Folders())
}

func TestFailedRecomputeKeepsCache(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	cache := NewCache(backend, "x")
	good := map[string]string{"INBOX/A": "event.default"}
	s := NewSynchronization(newMockDriver([]string{"INBOX/A"}, good), cache, NewBailDefaults(), nil)
	require.NoError(t, s.Synchronize(ctx))

	folders := []string{"INBOX/A", "INBOX/B"}
	bad := map[string]string{"INBOX/A": "event.default", "INBOX/B": "event.default"}
	s = NewSynchronization(newMockDriver(folders, bad), cache, NewBailDefaults(), nil)
	assert.ErrorIs(t, s.Synchronize(ctx), ErrDuplicateDefault)

	assert.Equal(t, []string{"INBOX/A"}, cache.Folders())
	assert.Equal(t, good, cache.FolderTypes())
	require.NotNil(t, cache.queries())
	assert.Equal(t, map[string]string{"INBOX/A": "event"}, cache.queries().Types)

	err := s.UpdateAfterCreateFolder(ctx, "INBOX/C", "event.default")
	assert.ErrorIs(t, err, ErrDuplicateDefault)
	assert.Equal(t, []string{"INBOX/A"}, cache.Folders())
	assert.NotContains(t, cache.queries().Folders, "INBOX/C")

	restored := NewCache(backend, "x")
	ok, err := restored.IsInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"INBOX/A"}, restored.Folders())
}
