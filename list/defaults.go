package list

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// ErrDuplicateDefault is returned by BailDefaults when an owner has more
// than one default folder of a type.
var ErrDuplicateDefault = errors.New("duplicate default folder")

// Defaults collects the default folders found during a synchronization.
type Defaults interface {
	Reset()
	// Remember records folder as default of folderType for owner.
	Remember(folder, folderType, owner string, personal bool) error
	// Defaults returns owner to type to folder.
	Defaults() map[string]map[string]string
	// PersonalDefaults returns type to folder for the current user.
	PersonalDefaults() map[string]string
	// Duplicates returns owner to type to all conflicting folders.
	Duplicates() map[string]map[string][]string
}

type defaultsBase struct {
	defaults   map[string]map[string]string
	personal   map[string]string
	duplicates map[string]map[string][]string
}

func newDefaultsBase() defaultsBase {
	var b defaultsBase
	b.Reset()
	return b
}

func (b *defaultsBase) Reset() {
	b.defaults = make(map[string]map[string]string)
	b.personal = make(map[string]string)
	b.duplicates = make(map[string]map[string][]string)
}

// remember returns the folder already known as default, or "".
func (b *defaultsBase) remember(folder, folderType, owner string, personal bool) string {
	byType, ok := b.defaults[owner]
	if !ok {
		byType = make(map[string]string)
		b.defaults[owner] = byType
	}
	if previous, ok := byType[folderType]; ok && previous != folder {
		dups, ok := b.duplicates[owner]
		if !ok {
			dups = make(map[string][]string)
			b.duplicates[owner] = dups
		}
		if len(dups[folderType]) == 0 {
			dups[folderType] = []string{previous}
		}
		dups[folderType] = append(dups[folderType], folder)
		sort.Strings(dups[folderType])
		return previous
	}
	byType[folderType] = folder
	if personal {
		b.personal[folderType] = folder
	}
	return ""
}

func (b *defaultsBase) Defaults() map[string]map[string]string { return b.defaults }

func (b *defaultsBase) PersonalDefaults() map[string]string { return b.personal }

func (b *defaultsBase) Duplicates() map[string]map[string][]string { return b.duplicates }

// BailDefaults fails on the first duplicate default.
type BailDefaults struct {
	defaultsBase
}

// NewBailDefaults creates an empty BailDefaults.
func NewBailDefaults() *BailDefaults {
	return &BailDefaults{defaultsBase: newDefaultsBase()}
}

func (d *BailDefaults) Remember(folder, folderType, owner string, personal bool) error {
	if previous := d.remember(folder, folderType, owner, personal); previous != "" {
		return fmt.Errorf("%w: both %s and %s are default %s folders of %s",
			ErrDuplicateDefault, previous, folder, folderType, owner)
	}
	return nil
}

// LogDefaults keeps the first default and logs duplicates.
type LogDefaults struct {
	defaultsBase
	logger *slog.Logger
}

// NewLogDefaults creates an empty LogDefaults. A nil logger discards the
// messages.
func NewLogDefaults(logger *slog.Logger) *LogDefaults {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogDefaults{defaultsBase: newDefaultsBase(), logger: logger}
}

func (d *LogDefaults) Remember(folder, folderType, owner string, personal bool) error {
	if previous := d.remember(folder, folderType, owner, personal); previous != "" {
		d.logger.Warn("ignoring duplicate default folder",
			"owner", owner, "type", folderType, "default", previous, "duplicate", folder)
	}
	return nil
}
