// Package recurrence expands Kolab recurrence rules into occurrences.
package recurrence

import (
	"time"
)

// Occurrence is a single instance of a recurring event or task.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// ExpansionOptions controls how recurrence expansion behaves
type ExpansionOptions struct {
	MaxOccurrences int           // Maximum number of occurrences to expand (0 = unlimited)
	MaxTimeSpan    time.Duration // Maximum time span to expand (0 = unlimited)
}

// DefaultExpansionOptions provides sensible defaults for expansion
var DefaultExpansionOptions = ExpansionOptions{
	MaxOccurrences: 1000,
	MaxTimeSpan:    365 * 24 * time.Hour * 2, // 2 years
}
