package recurrence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/libkolab/format"
)

var weekdays = map[string]string{
	"monday":    "MO",
	"tuesday":   "TU",
	"wednesday": "WE",
	"thursday":  "TH",
	"friday":    "FR",
	"saturday":  "SA",
	"sunday":    "SU",
}

var months = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

// Rule is a Kolab recurrence as read from the recurrence field of an event
// or task.
type Rule struct {
	Cycle     string // daily, weekly, monthly or yearly
	Type      string // daynumber, weekday, monthday or yearday
	Interval  int
	Days      []string
	Daynumber int
	Month     string
	// Count limits the number of occurrences if positive.
	Count int
	// Until is the last day with an occurrence if not zero.
	Until time.Time
	// Exceptions are the days without an occurrence.
	Exceptions []time.Time
}

// FromObject converts the recurrence field of a loaded object.
func FromObject(rec format.Object) (Rule, error) {
	r := Rule{
		Cycle: str(rec["cycle"]),
		Type:  str(rec["type"]),
		Month: strings.ToLower(str(rec["month"])),
	}
	var err error
	if r.Interval, err = integer(rec["interval"]); err != nil {
		return Rule{}, fmt.Errorf("interval: %w", err)
	}
	if r.Daynumber, err = integer(rec["daynumber"]); err != nil {
		return Rule{}, fmt.Errorf("daynumber: %w", err)
	}
	for _, d := range list(rec["day"]) {
		if day := strings.ToLower(str(d)); day != "" {
			r.Days = append(r.Days, day)
		}
	}

	switch str(rec["range-type"]) {
	case format.RangeNumber:
		if r.Count, err = integer(rec["range"]); err != nil {
			return Rule{}, fmt.Errorf("range: %w", err)
		}
	case format.RangeDate:
		switch t := rec["range"].(type) {
		case time.Time:
			r.Until = t
		case format.DateTime:
			r.Until = t.Time
		default:
			return Rule{}, fmt.Errorf("range: expected a date, got %T", rec["range"])
		}
	}

	for _, e := range list(rec["exceptions"]) {
		day, err := time.Parse("20060102", str(e))
		if err != nil {
			return Rule{}, fmt.Errorf("exceptions: %w", err)
		}
		r.Exceptions = append(r.Exceptions, day)
	}
	return r, nil
}

// RRule returns the rule in iCalendar RRULE form, without the "RRULE:"
// prefix.
func (r Rule) RRule() (string, error) {
	parts := []string{}
	interval := r.Interval
	if interval < 1 {
		interval = 1
	}

	switch r.Cycle {
	case "daily":
		parts = append(parts, "FREQ=DAILY")
	case "weekly":
		days, err := r.byDay(0)
		if err != nil {
			return "", err
		}
		parts = append(parts, "FREQ=WEEKLY", "BYDAY="+days)
	case "monthly":
		parts = append(parts, "FREQ=MONTHLY")
		switch r.Type {
		case "daynumber":
			parts = append(parts, "BYMONTHDAY="+strconv.Itoa(r.Daynumber))
		case "weekday":
			days, err := r.byDay(r.Daynumber)
			if err != nil {
				return "", err
			}
			parts = append(parts, "BYDAY="+days)
		default:
			return "", fmt.Errorf("unsupported monthly recurrence type %q", r.Type)
		}
	case "yearly":
		parts = append(parts, "FREQ=YEARLY")
		switch r.Type {
		case "daynumber", "yearday":
			parts = append(parts, "BYYEARDAY="+strconv.Itoa(r.Daynumber))
		case "monthday":
			month, ok := months[r.Month]
			if !ok {
				return "", fmt.Errorf("invalid month %q", r.Month)
			}
			parts = append(parts, "BYMONTH="+strconv.Itoa(month), "BYMONTHDAY="+strconv.Itoa(r.Daynumber))
		case "weekday":
			if month, ok := months[r.Month]; ok {
				parts = append(parts, "BYMONTH="+strconv.Itoa(month))
			}
			days, err := r.byDay(r.Daynumber)
			if err != nil {
				return "", err
			}
			parts = append(parts, "BYDAY="+days)
		default:
			return "", fmt.Errorf("unsupported yearly recurrence type %q", r.Type)
		}
	default:
		return "", fmt.Errorf("unsupported recurrence cycle %q", r.Cycle)
	}

	if interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(interval))
	}
	if r.Count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(r.Count))
	} else if !r.Until.IsZero() {
		// The range date is inclusive.
		until := time.Date(r.Until.Year(), r.Until.Month(), r.Until.Day(), 23, 59, 59, 0, time.UTC)
		parts = append(parts, "UNTIL="+until.Format("20060102T150405Z"))
	}
	return strings.Join(parts, ";"), nil
}

// byDay renders the days of the rule. A positive nth selects the nth
// weekday of the period, with 5 meaning the last one.
func (r Rule) byDay(nth int) (string, error) {
	if len(r.Days) == 0 {
		return "", fmt.Errorf("no days in %s recurrence", r.Cycle)
	}
	prefix := ""
	switch {
	case nth >= 5:
		prefix = "-1"
	case nth > 0:
		prefix = strconv.Itoa(nth)
	}
	days := make([]string, 0, len(r.Days))
	for _, d := range r.Days {
		code, ok := weekdays[d]
		if !ok {
			return "", fmt.Errorf("invalid day %q", d)
		}
		days = append(days, prefix+code)
	}
	sort.Strings(days)
	return strings.Join(days, ","), nil
}

// key identifies the rule in the cache.
func (r Rule) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%d|%s|%d|%s|%d|%s", r.Cycle, r.Type, r.Interval,
		strings.Join(r.Days, ","), r.Daynumber, r.Month, r.Count, r.Until.Format(time.RFC3339))
	for _, e := range r.Exceptions {
		b.WriteString("|" + e.Format("20060102"))
	}
	return b.String()
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	return fmt.Sprint(v)
}

func integer(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		if strings.TrimSpace(n) == "" {
			return 0, nil
		}
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func list(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	}
	return nil
}
