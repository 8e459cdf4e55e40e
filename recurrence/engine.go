package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyp0633/libkolab/format"
	"github.com/teambition/rrule-go"
)

// ErrNoRecurrence is returned by ExpandObject for objects without a
// recurrence or start date.
var ErrNoRecurrence = errors.New("object does not recur")

// Engine expands Kolab recurrences
type Engine struct {
	cache  *Cache
	config EngineConfig
}

// NewEngine creates an engine with DefaultEngineConfig
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// Close releases the cache of the engine.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// Expand returns the occurrences of a series starting at start and ending
// at end that overlap [from, to].
func (e *Engine) Expand(start, end time.Time, rule Rule, from, to time.Time) ([]Occurrence, error) {
	if span := e.config.Expansion.MaxTimeSpan; span > 0 && to.Sub(from) > span {
		to = from.Add(span)
	}
	if end.Before(start) {
		end = start
	}

	var key string
	if e.cache != nil {
		key = cacheKey(start, end, rule, from, to)
		if occurrences, ok := e.cache.get(key); ok {
			return occurrences, nil
		}
	}

	occurrences, err := e.expand(start, end, rule, from, to)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.set(key, occurrences)
	}
	return occurrences, nil
}

func (e *Engine) expand(start, end time.Time, rule Rule, from, to time.Time) ([]Occurrence, error) {
	rruleStr, err := rule.RRule()
	if err != nil {
		return nil, err
	}
	dtstart := start.UTC().Format("20060102T150405Z")
	set, err := rrule.StrToRRuleSet(fmt.Sprintf("DTSTART:%s\nRRULE:%s", dtstart, rruleStr))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE '%s': %w", rruleStr, err)
	}

	duration := end.Sub(start)
	var occurrences []Occurrence
	for _, t := range set.Between(from.Add(-duration), to, true) {
		if isExcluded(t, rule.Exceptions) {
			continue
		}
		o := Occurrence{Start: t, End: t.Add(duration)}
		// The occurrence overlaps if start <= to and end >= from.
		if o.Start.After(to) || o.End.Before(from) {
			continue
		}
		occurrences = append(occurrences, o)
		if limit := e.config.Expansion.MaxOccurrences; limit > 0 && len(occurrences) >= limit {
			break
		}
	}
	return occurrences, nil
}

// HasOccurrenceInRange reports whether any occurrence overlaps [from, to].
func (e *Engine) HasOccurrenceInRange(start, end time.Time, rule Rule, from, to time.Time) (bool, error) {
	limited := to
	if limit := e.config.LargeRangeLimit; limit > 0 && to.Sub(from) > limit {
		limited = from.Add(limit)
	}
	occurrences, err := e.Expand(start, end, rule, from, limited)
	if err != nil {
		return false, err
	}
	if len(occurrences) > 0 || !limited.Before(to) {
		return len(occurrences) > 0, nil
	}
	occurrences, err = e.Expand(start, end, rule, limited, to)
	if err != nil {
		return false, err
	}
	return len(occurrences) > 0, nil
}

// ExpandObject expands a loaded event or task. Tasks without a start date
// recur from their due date.
func (e *Engine) ExpandObject(obj format.Object, from, to time.Time) ([]Occurrence, error) {
	rec, ok := obj["recurrence"].(format.Object)
	if !ok || rec == nil {
		return nil, ErrNoRecurrence
	}
	start, startDateOnly, ok := objectTime(obj["start-date"])
	if !ok {
		if start, startDateOnly, ok = objectTime(obj["due-date"]); !ok {
			return nil, ErrNoRecurrence
		}
	}
	end, endDateOnly, ok := objectTime(obj["end-date"])
	if !ok {
		end, endDateOnly = start, startDateOnly
	}
	if endDateOnly {
		// All day events end at the close of their last day.
		end = end.AddDate(0, 0, 1)
	}

	rule, err := FromObject(rec)
	if err != nil {
		return nil, err
	}
	return e.Expand(start, end, rule, from, to)
}

func objectTime(v any) (time.Time, bool, bool) {
	switch t := v.(type) {
	case format.DateTime:
		return t.Time, t.DateOnly, true
	case time.Time:
		return t, false, true
	}
	return time.Time{}, false, false
}

// isExcluded reports whether t falls on one of the exception days.
func isExcluded(t time.Time, exceptions []time.Time) bool {
	for _, day := range exceptions {
		if t.Year() == day.Year() && t.Month() == day.Month() && t.Day() == day.Day() {
			return true
		}
	}
	return false
}
