package list

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cyp0633/libkolab/storage"
)

var (
	// ErrNotPersonal is returned when setting a default outside the
	// personal namespace.
	ErrNotPersonal = errors.New("setting a default folder is only possible within your personal namespace")
	// ErrNoFolderType is returned when setting a default on a folder that
	// has no Kolab type.
	ErrNoFolderType = errors.New("folder has no Kolab type")
)

// Synchronization keeps a Cache in line with the driver.
type Synchronization struct {
	mu       sync.Mutex
	driver   storage.Driver
	cache    *Cache
	defaults Defaults
	logger   *slog.Logger
}

// NewSynchronization creates a synchronization for the cache. A nil
// defaults policy selects BailDefaults.
func NewSynchronization(driver storage.Driver, cache *Cache, defaults Defaults, logger *slog.Logger) *Synchronization {
	if defaults == nil {
		defaults = NewBailDefaults()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synchronization{driver: driver, cache: cache, defaults: defaults, logger: logger}
}

// Synchronize reads the folder list, the folder types and the namespace
// from the driver and rebuilds the cache.
func (s *Synchronization) Synchronize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	folders, err := s.driver.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	types, err := s.driver.ListAnnotation(ctx, storage.FolderTypeAnnotation)
	if err != nil {
		return fmt.Errorf("failed to list folder types: %w", err)
	}
	ns, err := s.driver.Namespace(ctx)
	if err != nil {
		return fmt.Errorf("failed to read namespace: %w", err)
	}

	if err := s.cache.load(ctx); err != nil {
		return err
	}
	q, err := s.recompute(ns, folders, types)
	if err != nil {
		return err
	}
	s.cache.commit(ns, folders, types, q)
	s.logger.Debug("synchronized folder list", "id", s.cache.ID(), "folders", len(folders))
	return s.cache.Save(ctx)
}

// UpdateAfterCreateFolder adds a folder created through this connection.
// folderType may be empty.
func (s *Synchronization) UpdateAfterCreateFolder(ctx context.Context, folder, folderType string) error {
	return s.update(ctx, func(folders []string, types map[string]string) ([]string, map[string]string) {
		folders = append(folders, folder)
		if folderType != "" {
			types[folder] = folderType
		}
		return folders, types
	})
}

// UpdateAfterDeleteFolder removes a folder.
func (s *Synchronization) UpdateAfterDeleteFolder(ctx context.Context, folder string) error {
	return s.update(ctx, func(folders []string, types map[string]string) ([]string, map[string]string) {
		delete(types, folder)
		return without(folders, folder), types
	})
}

// UpdateAfterRenameFolder moves a folder and its type.
func (s *Synchronization) UpdateAfterRenameFolder(ctx context.Context, oldName, newName string) error {
	return s.update(ctx, func(folders []string, types map[string]string) ([]string, map[string]string) {
		folders = append(without(folders, oldName), newName)
		if t, ok := types[oldName]; ok {
			delete(types, oldName)
			types[newName] = t
		}
		return folders, types
	})
}

// SetDefault marks the folder as default of its type. previous names the
// current default folder that loses the flag, or is empty.
func (s *Synchronization) SetDefault(ctx context.Context, data FolderData, previous string) error {
	ok, err := s.cache.HasNamespace(ctx)
	if err != nil || !ok {
		return err
	}
	if data.Namespace != storage.NamespacePersonal {
		return &Error{Op: "set default", Folder: data.Folder, Err: ErrNotPersonal}
	}
	types := s.cache.FolderTypes()
	if _, ok := types[data.Folder]; !ok {
		return &Error{Op: "set default", Folder: data.Folder, Err: ErrNoFolderType}
	}

	value := storage.FolderType{Type: data.Type, Default: true}.String()
	if err := s.driver.SetAnnotation(ctx, data.Folder, storage.FolderTypeAnnotation, value); err != nil {
		return err
	}
	if previous != "" && previous != data.Folder {
		if err := s.driver.SetAnnotation(ctx, previous, storage.FolderTypeAnnotation, data.Type); err != nil {
			return err
		}
	}

	return s.update(ctx, func(folders []string, types map[string]string) ([]string, map[string]string) {
		types[data.Folder] = value
		if previous != "" && previous != data.Folder {
			types[previous] = data.Type
		}
		return folders, types
	})
}

// DuplicateDefaults reports owners with more than one default folder of a
// type, as found by the last synchronization.
func (s *Synchronization) DuplicateDefaults() map[string]map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults.Duplicates()
}

// update patches the cached folder list. It is a no-op on caches that were
// never synchronized.
func (s *Synchronization) update(ctx context.Context, patch func([]string, map[string]string) ([]string, map[string]string)) error {
	ok, err := s.cache.HasNamespace(ctx)
	if err != nil || !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.cache.Namespace()
	folders, types := patch(s.cache.Folders(), s.cache.FolderTypes())
	q, err := s.recompute(ns, folders, types)
	if err != nil {
		return err
	}
	s.cache.commit(ns, folders, types, q)
	return s.cache.Save(ctx)
}

// recompute derives all queries from the folders and types. The cache is
// left untouched.
func (s *Synchronization) recompute(ns *storage.Namespace, folders []string, types map[string]string) (*queries, error) {
	if ns == nil {
		return nil, fmt.Errorf("%w: no namespace", storage.ErrInvalidInput)
	}
	q := &queries{
		Types:   map[string]string{},
		Folders: map[string]FolderData{},
		Owners:  map[string]string{},
		ByType:  map[string]map[string]FolderData{},
	}

	s.defaults.Reset()
	for _, folder := range folders {
		folderType := storage.ParseFolderType(types[folder])
		owner := ns.Owner(folder)
		element, _ := ns.Match(folder)
		data := FolderData{
			Folder:    folder,
			Type:      folderType.Type,
			Default:   folderType.Default,
			Owner:     owner,
			Name:      ns.Title(folder),
			Subpath:   ns.Subpath(folder),
			Parent:    ns.Parent(folder),
			Namespace: element.Type,
			Prefix:    element.Prefix,
			Delimiter: element.Delimiter,
		}

		q.Types[folder] = data.Type
		q.Folders[folder] = data
		q.Owners[folder] = owner
		if q.ByType[data.Type] == nil {
			q.ByType[data.Type] = map[string]FolderData{}
		}
		q.ByType[data.Type][folder] = data

		if data.Default {
			personal := element.Type == storage.NamespacePersonal
			if err := s.defaults.Remember(folder, data.Type, owner, personal); err != nil {
				return nil, err
			}
		}
	}
	q.Defaults = s.defaults.Defaults()
	q.PersonalDefaults = s.defaults.PersonalDefaults()
	return q, nil
}

func without(folders []string, folder string) []string {
	out := folders[:0:0]
	for _, f := range folders {
		if f != folder {
			out = append(out, f)
		}
	}
	return out
}
