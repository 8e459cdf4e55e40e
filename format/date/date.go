// Package date converts between Go times and the date representations used
// by the Kolab XML format.
package date

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the Kolab date format, e.g. 2011-03-27.
	DateLayout = "2006-01-02"
	// DateTimeLayout is the Kolab datetime format, always in UTC.
	DateTimeLayout = "2006-01-02T15:04:05Z"
	// dateTimeFractionLayout accepts milliseconds as written by some clients.
	dateTimeFractionLayout = "2006-01-02T15:04:05.999999999Z"
)

// DecodeDate parses a Kolab date value. The result is midnight UTC.
func DecodeDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// DecodeDateTime parses a Kolab datetime value.
func DecodeDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layout := DateTimeLayout
	if strings.Contains(value, ".") {
		layout = dateTimeFractionLayout
	}
	t, err := time.ParseInLocation(layout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime %q: %w", value, err)
	}
	return t, nil
}

// DecodeDateOrDateTime parses either a date or a datetime. The boolean
// reports whether the value only carried a date.
func DecodeDateOrDateTime(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if len(value) == len(DateLayout) {
		t, err := DecodeDate(value)
		return t, true, err
	}
	t, err := DecodeDateTime(value)
	return t, false, err
}

// EncodeDate formats the date part of t.
func EncodeDate(t time.Time) string {
	return t.Format(DateLayout)
}

// EncodeDateTime formats t in UTC, dropping sub-second precision.
func EncodeDateTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(DateTimeLayout)
}
