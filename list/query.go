package list

import (
	"context"
	"sort"

	"github.com/cyp0633/libkolab/storage"
	"github.com/samber/mo"
)

// Query answers folder list questions from the cache, synchronizing first
// if the cache is empty.
type Query struct {
	sync  *Synchronization
	cache *Cache
}

// NewQuery creates a query over the synchronized cache.
func NewQuery(sync *Synchronization) *Query {
	return &Query{sync: sync, cache: sync.cache}
}

func (q *Query) current(ctx context.Context) (*queries, error) {
	ok, err := q.cache.IsInitialized(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := q.sync.Synchronize(ctx); err != nil {
			return nil, err
		}
	}
	return q.cache.queries(), nil
}

// ListTypes returns folder to type for every folder.
func (q *Query) ListTypes(ctx context.Context) (map[string]string, error) {
	data, err := q.current(ctx)
	if err != nil {
		return nil, err
	}
	return copyStrings(data.Types), nil
}

// ListFolderTypeAnnotations returns the raw folder type annotations.
func (q *Query) ListFolderTypeAnnotations(ctx context.Context) (map[string]string, error) {
	if _, err := q.current(ctx); err != nil {
		return nil, err
	}
	return q.cache.FolderTypes(), nil
}

// ListByType returns the sorted folders of a type.
func (q *Query) ListByType(ctx context.Context, folderType string) ([]string, error) {
	data, err := q.current(ctx)
	if err != nil {
		return nil, err
	}
	folders := make([]string, 0, len(data.ByType[folderType]))
	for folder := range data.ByType[folderType] {
		folders = append(folders, folder)
	}
	sort.Strings(folders)
	return folders, nil
}

// DataByType returns folder to data for the folders of a type.
func (q *Query) DataByType(ctx context.Context, folderType string) (map[string]FolderData, error) {
	data, err := q.current(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]FolderData, len(data.ByType[folderType]))
	for folder, d := range data.ByType[folderType] {
		result[folder] = d
	}
	return result, nil
}

// FolderData returns the data of one folder.
func (q *Query) FolderData(ctx context.Context, folder string) (FolderData, error) {
	data, err := q.current(ctx)
	if err != nil {
		return FolderData{}, err
	}
	d, ok := data.Folders[folder]
	if !ok {
		return FolderData{}, &Error{Op: "get folder data", Folder: folder, Err: storage.ErrNotFound}
	}
	return d, nil
}

// ListOwners returns folder to owner.
func (q *Query) ListOwners(ctx context.Context) (map[string]string, error) {
	data, err := q.current(ctx)
	if err != nil {
		return nil, err
	}
	return copyStrings(data.Owners), nil
}

// GetDefault returns the personal default folder of a type.
func (q *Query) GetDefault(ctx context.Context, folderType string) (mo.Option[string], error) {
	data, err := q.current(ctx)
	if err != nil {
		return mo.None[string](), err
	}
	if folder, ok := data.PersonalDefaults[folderType]; ok {
		return mo.Some(folder), nil
	}
	return mo.None[string](), nil
}

// GetForeignDefault returns the default folder of a type owned by owner.
func (q *Query) GetForeignDefault(ctx context.Context, owner, folderType string) (mo.Option[string], error) {
	data, err := q.current(ctx)
	if err != nil {
		return mo.None[string](), err
	}
	if folder, ok := data.Defaults[owner][folderType]; ok {
		return mo.Some(folder), nil
	}
	return mo.None[string](), nil
}

// ListPersonalDefaults returns type to default folder for the current user.
func (q *Query) ListPersonalDefaults(ctx context.Context) (map[string]string, error) {
	data, err := q.current(ctx)
	if err != nil {
		return nil, err
	}
	return copyStrings(data.PersonalDefaults), nil
}

// ListDefaults returns owner to type to default folder.
func (q *Query) ListDefaults(ctx context.Context) (map[string]map[string]string, error) {
	data, err := q.current(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]map[string]string, len(data.Defaults))
	for owner, byType := range data.Defaults {
		result[owner] = copyStrings(byType)
	}
	return result, nil
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
