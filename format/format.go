// Package format reads and writes Kolab XML groupware objects.
//
// Every object kind is described by an ordered table of fields. Loading
// walks the table and collects the values below the root element into an
// Object, saving writes them back in table order.
package format

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// ProductID is written into the product-id element of every saved object.
const ProductID = "libkolab-go"

// Version is the root element version written on save.
const Version = "1.0"

// Format converts one object kind between Kolab XML and Object.
type Format interface {
	// Load parses a Kolab XML document.
	Load(r io.Reader) (Object, error)
	// Save serializes obj.
	Save(obj Object, opts ...SaveOption) ([]byte, error)
	// Kind returns the normalized object kind, e.g. "distribution-list".
	Kind() string
	// Name returns the attachment name of the XML part.
	Name() string
	// MimeType returns the MIME type of the XML part.
	MimeType() string
	// Disposition returns the content disposition of the XML part.
	Disposition() string
}

// Config holds the settings shared by all formats created by New.
type Config struct {
	// Relaxed tolerates missing required values, unreadable values and
	// newer document versions.
	Relaxed bool
	// ProductID overrides the product-id written on save.
	ProductID string
	// Now is the clock used for creation and modification dates.
	Now func() time.Time
	// ExtraFields are appended to the field table of the kind.
	ExtraFields []Field
	// Logger receives warnings about skipped values. If nil, logging is
	// disabled.
	Logger *slog.Logger
}

// Option modifies Config.
type Option func(*Config)

// WithRelaxed enables relaxed parsing.
func WithRelaxed(relaxed bool) Option {
	return func(c *Config) {
		c.Relaxed = relaxed
	}
}

// WithProductID sets the product id written on save.
func WithProductID(id string) Option {
	return func(c *Config) {
		c.ProductID = id
	}
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithExtraFields adds custom fields, e.g. client specific XML blobs.
func WithExtraFields(fields ...Field) Option {
	return func(c *Config) {
		c.ExtraFields = append(c.ExtraFields, fields...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// SaveOption modifies a single Save call.
type SaveOption func(*saveConfig)

type saveConfig struct {
	previous []byte
}

// WithPrevious updates the given document instead of creating a new one,
// so elements unknown to the field table survive.
func WithPrevious(xml []byte) SaveOption {
	return func(c *saveConfig) {
		c.previous = xml
	}
}

// kind describes one object kind.
type kind struct {
	name   string
	root   string
	fields []Field
}

var kinds = map[string]kind{}

var kindAliases = map[string]string{
	"distributionlist": "distribution-list",
	"hprefs":           "h-prefs",
}

func registerKind(k kind) {
	kinds[k.name] = k
}

// Kinds returns the supported object kinds in alphabetical order.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the format for the given object kind.
func New(name string, opts ...Option) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := kindAliases[normalized]; ok {
		normalized = alias
	}
	k, ok := kinds[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}

	cfg := Config{
		ProductID: ProductID,
		Now:       time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	fields := append([]Field{}, k.fields...)
	fields = append(fields, cfg.ExtraFields...)

	return &xmlFormat{
		kind:   k.name,
		root:   k.root,
		fields: fields,
		env: &env{
			relaxed:   cfg.Relaxed,
			now:       cfg.Now,
			productID: cfg.ProductID,
			logger:    cfg.Logger.With("kind", k.name),
		},
	}, nil
}
