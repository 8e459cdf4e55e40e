// Package list keeps a cache of the folder list of a Kolab storage
// connection and answers queries about folder types, owners and defaults.
package list

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cyp0633/libkolab/storage"
)

// cacheVersion is bumped whenever the stored payload changes shape.
const cacheVersion = 1

// Backend persists the cache payload of a connection.
type Backend interface {
	// Load returns the stored payload, or nil if there is none.
	Load(ctx context.Context, id string) ([]byte, error)
	Store(ctx context.Context, id string, data []byte) error
}

// FolderData describes one folder.
type FolderData struct {
	Folder    string                `json:"folder" yaml:"folder"`
	Type      string                `json:"type" yaml:"type"`
	Default   bool                  `json:"default" yaml:"default"`
	Owner     string                `json:"owner" yaml:"owner"`
	Name      string                `json:"name" yaml:"name"`
	Subpath   string                `json:"subpath" yaml:"subpath"`
	Parent    string                `json:"parent" yaml:"parent"`
	Namespace storage.NamespaceType `json:"namespace" yaml:"namespace"`
	Prefix    string                `json:"prefix" yaml:"prefix"`
	Delimiter string                `json:"delimiter" yaml:"delimiter"`
}

// queries are derived from the folder list and its types.
type queries struct {
	Types            map[string]string                `json:"types"`
	Folders          map[string]FolderData            `json:"folders"`
	Owners           map[string]string                `json:"owners"`
	ByType           map[string]map[string]FolderData `json:"by_type"`
	Defaults         map[string]map[string]string     `json:"defaults"`
	PersonalDefaults map[string]string                `json:"personal_defaults"`
}

type payload struct {
	Version     int                `json:"version"`
	Namespace   *storage.Namespace `json:"namespace,omitempty"`
	Folders     []string           `json:"folders"`
	FolderTypes map[string]string  `json:"folder_types"`
	Queries     *queries           `json:"queries,omitempty"`
	Synced      time.Time          `json:"synced"`
}

// Cache holds the folder list data of one connection.
type Cache struct {
	mu      sync.RWMutex
	id      string
	backend Backend
	data    payload
	loaded  bool
}

// NewCache returns the cache for the connection id.
func NewCache(backend Backend, id string) *Cache {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Cache{id: id, backend: backend, data: emptyPayload()}
}

func emptyPayload() payload {
	return payload{Version: cacheVersion, FolderTypes: map[string]string{}}
}

// ID returns the connection id.
func (c *Cache) ID() string {
	return c.id
}

// load reads the payload from the backend once.
func (c *Cache) load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	raw, err := c.backend.Load(ctx, c.id)
	if err != nil {
		return fmt.Errorf("failed to load list cache: %w", err)
	}
	c.loaded = true
	if raw == nil {
		return nil
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || p.Version != cacheVersion {
		// Stale or unreadable payloads are rebuilt on the next sync.
		return nil
	}
	if p.FolderTypes == nil {
		p.FolderTypes = map[string]string{}
	}
	c.data = p
	return nil
}

// Save writes the payload to the backend.
func (c *Cache) Save(ctx context.Context) error {
	c.mu.RLock()
	raw, err := json.Marshal(c.data)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode list cache: %w", err)
	}
	if err := c.backend.Store(ctx, c.id, raw); err != nil {
		return fmt.Errorf("failed to store list cache: %w", err)
	}
	return nil
}

// IsInitialized reports whether the cache holds synchronized data.
func (c *Cache) IsInitialized(ctx context.Context) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Queries != nil, nil
}

// HasNamespace reports whether a namespace was stored.
func (c *Cache) HasNamespace(ctx context.Context) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Namespace != nil, nil
}

// Namespace returns the stored namespace or nil.
func (c *Cache) Namespace() *storage.Namespace {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Namespace
}

// SetNamespace stores the namespace.
func (c *Cache) SetNamespace(ns *storage.Namespace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Namespace = ns
}

// Folders returns a copy of the folder list.
func (c *Cache) Folders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.data.Folders...)
}

// FolderTypes returns a copy of the folder type annotations.
func (c *Cache) FolderTypes() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make(map[string]string, len(c.data.FolderTypes))
	for k, v := range c.data.FolderTypes {
		types[k] = v
	}
	return types
}

// Store replaces the folder list and type annotations.
func (c *Cache) Store(folders []string, types map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(folders, types)
}

// commit replaces the namespace, the folders and the derived queries at once.
func (c *Cache) commit(ns *storage.Namespace, folders []string, types map[string]string, q *queries) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Namespace = ns
	c.store(folders, types)
	c.data.Queries = q
}

func (c *Cache) store(folders []string, types map[string]string) {
	c.data.Folders = append([]string{}, folders...)
	c.data.FolderTypes = make(map[string]string, len(types))
	for k, v := range types {
		c.data.FolderTypes[k] = v
	}
	c.data.Synced = time.Now()
}

func (c *Cache) queries() *queries {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Queries
}

// Reset drops all data.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = emptyPayload()
}

// MemoryBackend keeps cache payloads in memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (b *MemoryBackend) Load(_ context.Context, id string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	raw, ok := b.data[id]
	if !ok {
		return nil, nil
	}
	return append([]byte{}, raw...), nil
}

func (b *MemoryBackend) Store(_ context.Context, id string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[id] = append([]byte{}, data...)
	return nil
}

// IDs returns the ids with stored payloads.
func (b *MemoryBackend) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.data))
	for id := range b.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
