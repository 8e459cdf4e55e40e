package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/cyp0633/libkolab/format/date"
	kxml "github.com/cyp0633/libkolab/internal/xml"
)

// Recurrence range types.
const (
	RangeNone   = "none"
	RangeNumber = "number"
	RangeDate   = "date"
)

// recurrenceCodec handles the <recurrence> element. Besides the plain
// children it reads the cycle and type attributes, the type attribute of
// <range> and exposes exclusions and completions in YYYYMMDD form.
type recurrenceCodec struct {
	env *env
}

func newRecurrenceCodec(_ Field, e *env) (valueCodec, error) {
	return &recurrenceCodec{env: e}, nil
}

func (c *recurrenceCodec) decode(node *etree.Element) (any, error) {
	rec := Object{}
	strict := *c.env
	strict.relaxed = false
	if err := loadFields(node, recurrenceFields, rec, &strict); err != nil {
		return nil, err
	}

	rec["cycle"] = node.SelectAttrValue("cycle", "")
	if t := node.SelectAttrValue("type", ""); t != "" {
		rec["type"] = t
	}

	if v, ok := rec["exclusion"]; ok {
		days, err := compactDays(v)
		if err != nil {
			return nil, err
		}
		rec["exceptions"] = days
	}
	if v, ok := rec["complete"]; ok {
		days, err := compactDays(v)
		if err != nil {
			return nil, err
		}
		rec["completions"] = days
	}

	rangeType := RangeNone
	if r := kxml.FindChild(node, "range"); r != nil {
		rangeType = r.SelectAttrValue("type", RangeNone)
	}
	rec["range-type"] = rangeType
	raw := strings.TrimSpace(toString(rec["range"]))
	switch rangeType {
	case RangeDate:
		t, err := date.DecodeDate(raw)
		if err != nil {
			return nil, recurrenceErrorf("invalid range date %q", raw)
		}
		rec["range"] = t
	case RangeNumber:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, recurrenceErrorf("invalid range count %q", raw)
		}
		rec["range"] = n
	}

	if err := validateRecurrence(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *recurrenceCodec) encode(node *etree.Element, value any) error {
	in, err := toObject(value)
	if err != nil {
		return err
	}
	rec := make(Object, len(in))
	for k, v := range in {
		rec[k] = v
	}

	if v, ok := rec["exceptions"]; ok {
		days, err := expandDays(v)
		if err != nil {
			return err
		}
		rec["exclusion"] = days
	}
	if v, ok := rec["completions"]; ok {
		days, err := expandDays(v)
		if err != nil {
			return err
		}
		rec["complete"] = days
	}

	rangeType := toString(rec["range-type"])
	if rec["range-type"] == nil || rangeType == "" {
		rangeType = RangeNone
	}
	if rangeType == RangeDate && rec["range"] != nil {
		t, _, err := toTime(rec["range"])
		if err != nil {
			return fmt.Errorf("range: %w", err)
		}
		rec["range"] = date.EncodeDate(t)
	}

	if err := saveFields(node, rec, recurrenceFields, c.env); err != nil {
		return err
	}

	cycle := toString(rec["cycle"])
	if rec["cycle"] == nil || cycle == "" {
		return recurrenceErrorf("cycle attribute missing")
	}
	node.CreateAttr("cycle", cycle)
	if t, ok := rec["type"]; ok && t != nil && toString(t) != "" {
		node.CreateAttr("type", toString(t))
	}
	if r := kxml.FindChild(node, "range"); r != nil {
		r.CreateAttr("type", rangeType)
	}

	// Reading the element back applies the same checks as loading.
	_, err = c.decode(node)
	return err
}

// compactDays converts YYYY-MM-DD values to YYYYMMDD, skipping empty ones.
func compactDays(v any) ([]any, error) {
	values, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(values))
	for _, value := range values {
		s := strings.TrimSpace(toString(value))
		if s == "" {
			continue
		}
		t, err := date.DecodeDate(s)
		if err != nil {
			return nil, recurrenceErrorf("invalid date %q", s)
		}
		out = append(out, t.Format("20060102"))
	}
	return out, nil
}

// expandDays converts YYYYMMDD values to YYYY-MM-DD, skipping empty ones.
func expandDays(v any) ([]any, error) {
	values, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(values))
	for _, value := range values {
		s := strings.TrimSpace(toString(value))
		if s == "" {
			continue
		}
		t, err := time.Parse("20060102", s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", s)
		}
		out = append(out, date.EncodeDate(t))
	}
	return out, nil
}

func validateRecurrence(rec Object) error {
	cycle := toString(rec["cycle"])
	if cycle == "" {
		return recurrenceErrorf("cycle attribute missing")
	}

	rawInterval, ok := rec["interval"]
	if !ok {
		return recurrenceErrorf("interval tag missing")
	}
	interval, err := toInt(rawInterval)
	if err != nil {
		return recurrenceErrorf("invalid interval %v", rawInterval)
	}
	if interval < 0 {
		return recurrenceErrorf("interval cannot be below zero: %d", interval)
	}

	days, _ := toSlice(rec["day"])
	if cycle == "weekly" && len(days) == 0 {
		return recurrenceErrorf("day tag missing for weekly recurrence")
	}

	if cycle != "monthly" && cycle != "yearly" {
		return nil
	}

	subType, _ := rec["type"].(string)
	if subType == "" {
		return recurrenceErrorf("type attribute missing")
	}

	rawDaynumber, ok := rec["daynumber"]
	if !ok {
		return recurrenceErrorf("daynumber tag missing")
	}
	daynumber, err := toInt(rawDaynumber)
	if err != nil {
		return recurrenceErrorf("invalid daynumber %v", rawDaynumber)
	}
	if daynumber < 0 {
		return recurrenceErrorf("daynumber cannot be below zero: %d", daynumber)
	}

	switch subType {
	case "daynumber":
		if cycle == "yearly" && daynumber > 366 {
			return recurrenceErrorf("daynumber cannot be larger than 366 for yearly recurrences: %d", daynumber)
		}
		if cycle == "monthly" && daynumber > 31 {
			return recurrenceErrorf("daynumber cannot be larger than 31 for monthly recurrences: %d", daynumber)
		}
	case "weekday":
		if daynumber > 5 {
			return recurrenceErrorf("daynumber cannot be larger than 5 for type weekday: %d", daynumber)
		}
		if len(days) == 0 {
			return recurrenceErrorf("day tag missing for type weekday")
		}
	case "monthday", "yearday":
		if cycle == "monthly" {
			return recurrenceErrorf("type monthday/yearday is only allowed for yearly recurrences")
		}
	}

	if cycle == "yearly" {
		switch subType {
		case "monthday":
			if month, ok := rec["month"]; !ok || toString(month) == "" {
				return recurrenceErrorf("month tag missing for type monthday")
			}
			if daynumber > 31 {
				return recurrenceErrorf("daynumber cannot be larger than 31 for type monthday: %d", daynumber)
			}
		case "yearday":
			if daynumber > 366 {
				return recurrenceErrorf("daynumber cannot be larger than 366 for type yearday: %d", daynumber)
			}
		}
	}
	return nil
}
