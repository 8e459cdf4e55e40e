package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/libkolab/format"
	"github.com/cyp0633/libkolab/list"
	"github.com/cyp0633/libkolab/recurrence"
	"github.com/cyp0633/libkolab/storage"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kolab.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	conf := Default()
	require.NoError(t, conf.Validate())
	assert.Equal(t, "memory", conf.Driver)
	assert.Equal(t, format.ProductID, conf.Format.ProductID)
	assert.Equal(t, "folders.db", filepath.Base(conf.Cache.Path))
	assert.Nil(t, conf.Namespace("john"))

	level, err := conf.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	engine, err := conf.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, recurrence.DefaultEngineConfig, engine)
	assert.IsType(t, &list.BailDefaults{}, conf.Defaults(nil))
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
driver = "imap"

[format]
relaxed = true
product_id = "test-suite"

[imap]
host = "imap.example.org"
user = "john@example.org"
password = "secret"
tls = false

[[namespace]]
type = "personal"
prefix = "INBOX."
delimiter = "."

[[namespace]]
type = "other"
prefix = "Other Users."
delimiter = "."

[cache]
path = ":memory:"
defaults = "log"

[recurrence]
preset = "low-memory"
cache_ttl = "1m30s"
max_occurrences = 20
`)
	conf, err := Load(path)
	require.NoError(t, err)

	level, err := conf.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
	assert.True(t, conf.Format.Relaxed)
	assert.Len(t, conf.FormatOptions(slog.Default()), 3)

	imapConf := conf.IMAPDriverConfig(nil)
	assert.Equal(t, "imap.example.org", imapConf.Host)
	assert.False(t, imapConf.TLS)
	require.NotNil(t, imapConf.Namespace)
	assert.Equal(t, "john@example.org", imapConf.Namespace.Owner("INBOX.Calendar"))
	assert.Equal(t, "jane@example.org", imapConf.Namespace.Owner("Other Users.jane.Calendar"))
	assert.Equal(t, storage.NamespaceOther, imapConf.Namespace.Elements[1].Type)

	assert.IsType(t, &list.LogDefaults{}, conf.Defaults(nil))

	engine, err := conf.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, engine.CacheConfig.TTL)
	assert.Equal(t, 20, engine.Expansion.MaxOccurrences)
	assert.Equal(t, recurrence.LowMemoryConfig.CacheConfig.MaxEntries, engine.CacheConfig.MaxEntries)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":            `log_level = `,
		"log level":         `log_level = "loud"`,
		"driver":            `driver = "carrier-pigeon"`,
		"defaults":          "[cache]\ndefaults = \"ignore\"",
		"preset":            "[recurrence]\npreset = \"turbo\"",
		"duration":          "[recurrence]\ncache_ttl = \"soon\"",
		"namespace type":    "[[namespace]]\ntype = \"public\"",
		"imap without host": `driver = "imap"`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
