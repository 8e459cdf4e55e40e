package list

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cyp0633/libkolab/storage"
)

// Config configures a List.
type Config struct {
	// Backend stores the cache. If nil, the cache lives in memory.
	Backend Backend
	// Defaults selects how duplicate default folders are handled. If nil,
	// duplicates are an error.
	Defaults Defaults
	Logger   *slog.Logger
}

// List manipulates the folders of a driver and keeps the cache current.
type List struct {
	driver storage.Driver
	sync   *Synchronization
	query  *Query
	logger *slog.Logger
}

// New creates the list of a driver.
func New(driver storage.Driver, cfg Config) *List {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cache := NewCache(cfg.Backend, driver.ID())
	sync := NewSynchronization(driver, cache, cfg.Defaults, logger)
	return &List{
		driver: driver,
		sync:   sync,
		query:  NewQuery(sync),
		logger: logger,
	}
}

// Query returns the query interface of the list.
func (l *List) Query() *Query {
	return l.query
}

// Synchronize rebuilds the cache from the driver.
func (l *List) Synchronize(ctx context.Context) error {
	return l.sync.Synchronize(ctx)
}

// DuplicateDefaults reports conflicting default folders.
func (l *List) DuplicateDefaults() map[string]map[string][]string {
	return l.sync.DuplicateDefaults()
}

// CreateFolder creates a folder, annotating it with folderType unless it is
// empty.
func (l *List) CreateFolder(ctx context.Context, folder, folderType string) error {
	if folder == "" {
		return fmt.Errorf("%w: empty folder name", storage.ErrInvalidInput)
	}
	if err := l.driver.Create(ctx, folder); err != nil {
		return err
	}
	if folderType != "" {
		if err := l.driver.SetAnnotation(ctx, folder, storage.FolderTypeAnnotation, folderType); err != nil {
			return err
		}
	}
	l.logger.Info("created folder", "folder", folder, "type", folderType)
	return l.sync.UpdateAfterCreateFolder(ctx, folder, folderType)
}

// DeleteFolder removes a folder.
func (l *List) DeleteFolder(ctx context.Context, folder string) error {
	if err := l.driver.Delete(ctx, folder); err != nil {
		return err
	}
	l.logger.Info("deleted folder", "folder", folder)
	return l.sync.UpdateAfterDeleteFolder(ctx, folder)
}

// RenameFolder moves a folder.
func (l *List) RenameFolder(ctx context.Context, oldName, newName string) error {
	if newName == "" {
		return fmt.Errorf("%w: empty folder name", storage.ErrInvalidInput)
	}
	if err := l.driver.Rename(ctx, oldName, newName); err != nil {
		return err
	}
	l.logger.Info("renamed folder", "from", oldName, "to", newName)
	return l.sync.UpdateAfterRenameFolder(ctx, oldName, newName)
}

// SetDefault makes folder the personal default of its type.
func (l *List) SetDefault(ctx context.Context, folder string) error {
	data, err := l.query.FolderData(ctx, folder)
	if err != nil {
		return err
	}
	previous, err := l.query.GetDefault(ctx, data.Type)
	if err != nil {
		return err
	}
	if err := l.sync.SetDefault(ctx, data, previous.OrEmpty()); err != nil {
		return err
	}
	l.logger.Info("set default folder", "folder", folder, "type", data.Type)
	return nil
}
