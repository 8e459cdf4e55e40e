// memory based implementation for testing purposes
package memory

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/cyp0633/libkolab/storage"
)

// Store implements storage.Driver using in-memory maps. Folders are kept
// under their server side names, so the INBOX of the user is stored as
// "user/<name>".
type Store struct {
	mu          sync.RWMutex
	user        string
	folders     map[string]struct{}
	annotations map[string]map[string]string // key: internal folder name
	namespace   *storage.Namespace
	logger      *slog.Logger
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNamespace replaces the default Kolab namespace.
func WithNamespace(ns *storage.Namespace) Option {
	return func(s *Store) {
		s.namespace = ns
	}
}

// WithFolder adds a folder with an optional folder type annotation.
func WithFolder(folder, folderType string) Option {
	return func(s *Store) {
		internal := s.toInternal(folder)
		s.folders[internal] = struct{}{}
		if folderType != "" {
			s.annotationsOf(internal)[storage.FolderTypeAnnotation] = folderType
		}
	}
}

// New creates a new in-memory driver for user.
func New(user string, opts ...Option) *Store {
	s := &Store{
		user:        user,
		folders:     make(map[string]struct{}),
		annotations: make(map[string]map[string]string),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	s.folders[s.toInternal("INBOX")] = struct{}{}
	for _, opt := range opts {
		opt(s)
	}
	if s.namespace == nil {
		s.namespace = storage.NewFixedNamespace(user)
	}
	return s
}

func (s *Store) localPart() string {
	name, _, _ := strings.Cut(s.user, "@")
	return name
}

// toInternal converts an INBOX based folder name to the server side name.
func (s *Store) toInternal(folder string) string {
	if rest, ok := strings.CutPrefix(folder, "INBOX"); ok {
		return "user/" + s.localPart() + rest
	}
	return folder
}

// toExternal converts a server side folder name to the user's view.
func (s *Store) toExternal(folder string) string {
	if rest, ok := strings.CutPrefix(folder, "user/"+s.localPart()); ok && (rest == "" || strings.HasPrefix(rest, "/")) {
		return "INBOX" + rest
	}
	return folder
}

func (s *Store) annotationsOf(internal string) map[string]string {
	a, ok := s.annotations[internal]
	if !ok {
		a = make(map[string]string)
		s.annotations[internal] = a
	}
	return a
}

func (s *Store) ID() string {
	return s.user + "@mock:0"
}

func (s *Store) Auth() string {
	return s.user
}

func (s *Store) ListFolders(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folders := make([]string, 0, len(s.folders))
	for folder := range s.folders {
		folders = append(folders, s.toExternal(folder))
	}
	sort.Strings(folders)
	return folders, nil
}

func (s *Store) Create(_ context.Context, folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	internal := s.toInternal(folder)
	if _, exists := s.folders[internal]; exists {
		return &storage.Error{Op: "create", Folder: folder, Err: storage.ErrAlreadyExists}
	}
	s.folders[internal] = struct{}{}
	s.logger.Debug("created folder", "folder", folder)
	return nil
}

func (s *Store) Delete(_ context.Context, folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	internal := s.toInternal(folder)
	if _, exists := s.folders[internal]; !exists {
		return &storage.Error{Op: "delete", Folder: folder, Err: storage.ErrNotFound}
	}
	delete(s.folders, internal)
	delete(s.annotations, internal)
	s.logger.Debug("deleted folder", "folder", folder)
	return nil
}

func (s *Store) Rename(_ context.Context, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldInternal, newInternal := s.toInternal(oldName), s.toInternal(newName)
	if _, exists := s.folders[oldInternal]; !exists {
		return &storage.Error{Op: "rename", Folder: oldName, Err: storage.ErrNotFound}
	}
	if _, exists := s.folders[newInternal]; exists {
		return &storage.Error{Op: "rename", Folder: newName, Err: storage.ErrAlreadyExists}
	}
	delete(s.folders, oldInternal)
	s.folders[newInternal] = struct{}{}
	if a, ok := s.annotations[oldInternal]; ok {
		s.annotations[newInternal] = a
		delete(s.annotations, oldInternal)
	}
	s.logger.Debug("renamed folder", "from", oldName, "to", newName)
	return nil
}

func (s *Store) ListAnnotation(_ context.Context, annotation string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]string)
	for folder, a := range s.annotations {
		if value, ok := a[annotation]; ok {
			result[s.toExternal(folder)] = value
		}
	}
	return result, nil
}

func (s *Store) GetAnnotation(_ context.Context, folder, annotation string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	internal := s.toInternal(folder)
	if _, exists := s.folders[internal]; !exists {
		return "", &storage.Error{Op: "get annotation", Folder: folder, Err: storage.ErrNotFound}
	}
	return s.annotations[internal][annotation], nil
}

func (s *Store) SetAnnotation(_ context.Context, folder, annotation, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	internal := s.toInternal(folder)
	if _, exists := s.folders[internal]; !exists {
		return &storage.Error{Op: "set annotation", Folder: folder, Err: storage.ErrNotFound}
	}
	s.annotationsOf(internal)[annotation] = value
	return nil
}

func (s *Store) Namespace(_ context.Context) (*storage.Namespace, error) {
	return s.namespace, nil
}

var _ storage.Driver = (*Store)(nil)
