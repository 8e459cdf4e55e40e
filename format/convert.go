package format

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/libkolab/format/date"
)

// toSlice accepts the slice types callers commonly build values with.
func toSlice(v any) ([]any, error) {
	switch s := v.(type) {
	case []any:
		return s, nil
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, nil
	case []Object:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = Object(item)
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// toObject accepts both Object and plain maps.
func toObject(v any) (Object, error) {
	switch m := v.(type) {
	case Object:
		return m, nil
	case map[string]any:
		return Object(m), nil
	}
	return nil, fmt.Errorf("expected a composite value, got %T", v)
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

// toInt converts integer-like values, including whole JSON numbers.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected an integer, got %v", f)
	}
	return int(f), nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return parseBool(b)
	}
	if n, err := toInt(v); err == nil {
		return n != 0, nil
	}
	return false, fmt.Errorf("expected a boolean, got %T", v)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// toTime accepts time.Time, DateTime and strings in Kolab or RFC 3339 form.
func toTime(v any) (t time.Time, dateOnly bool, err error) {
	switch tv := v.(type) {
	case time.Time:
		return tv, false, nil
	case *time.Time:
		if tv == nil {
			return time.Time{}, false, fmt.Errorf("nil time")
		}
		return *tv, false, nil
	case DateTime:
		return tv.Time, tv.DateOnly, nil
	case *DateTime:
		if tv == nil {
			return time.Time{}, false, fmt.Errorf("nil time")
		}
		return tv.Time, tv.DateOnly, nil
	case string:
		if t, dateOnly, err := date.DecodeDateOrDateTime(tv); err == nil {
			return t, dateOnly, nil
		}
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(tv))
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid time %q", tv)
		}
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("expected a time, got %T", v)
}
