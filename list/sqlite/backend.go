// Package sqlite stores folder list caches in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cyp0633/libkolab/list"
)

const schema = `create table if not exists folder_list_cache (
	id text not null primary key,
	payload blob not null,
	updated_at datetime not null default current_timestamp
);`

// Backend implements list.Backend on a SQLite database.
type Backend struct {
	db *sql.DB
}

// Open opens or creates the database at path. The special path ":memory:"
// keeps the database in memory.
func Open(path string) (*Backend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Load(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `select payload from folder_list_cache where id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", id, err)
	}
	return payload, nil
}

func (b *Backend) Store(ctx context.Context, id string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`insert into folder_list_cache (id, payload, updated_at) values (?, ?, current_timestamp)
		on conflict(id) do update set payload = excluded.payload, updated_at = excluded.updated_at`,
		id, data)
	if err != nil {
		return fmt.Errorf("failed to write cache %s: %w", id, err)
	}
	return nil
}

// Delete drops the cache of a connection.
func (b *Backend) Delete(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, `delete from folder_list_cache where id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cache %s: %w", id, err)
	}
	return nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

var _ list.Backend = (*Backend)(nil)
