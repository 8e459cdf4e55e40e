package format

import (
	"fmt"
	"time"

	"github.com/cyp0633/libkolab/format/date"
)

// Object is the data of a Kolab groupware object, keyed by XML element name.
type Object map[string]any

// DateTime is a point in time that may only carry a date. It is produced by
// fields that accept either form, e.g. the start date of an all-day event.
type DateTime struct {
	Time     time.Time
	DateOnly bool
}

// String returns the Kolab representation of the value.
func (d DateTime) String() string {
	if d.DateOnly {
		return date.EncodeDate(d.Time)
	}
	return date.EncodeDateTime(d.Time)
}

// MarshalText implements encoding.TextMarshaler.
func (d DateTime) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DateTime) UnmarshalText(text []byte) error {
	t, dateOnly, err := date.DecodeDateOrDateTime(string(text))
	if err != nil {
		return err
	}
	d.Time, d.DateOnly = t, dateOnly
	return nil
}

// Type selects the handler used for a field.
type Type int

const (
	TypeString Type = iota
	TypeInteger
	TypeBoolean
	TypeDate
	TypeDateTime
	TypeDateOrDateTime
	TypeColor
	TypeComposite
	TypeMultiple
	TypeXML
	TypeUID
	TypeCreationDate
	TypeModificationDate
	TypeProductID
	TypeRecurrence
)

var typeNames = map[Type]string{
	TypeString:           "string",
	TypeInteger:          "integer",
	TypeBoolean:          "boolean",
	TypeDate:             "date",
	TypeDateTime:         "datetime",
	TypeDateOrDateTime:   "date-or-datetime",
	TypeColor:            "color",
	TypeComposite:        "composite",
	TypeMultiple:         "multiple",
	TypeXML:              "xml",
	TypeUID:              "uid",
	TypeCreationDate:     "creation-date",
	TypeModificationDate: "modification-date",
	TypeProductID:        "product-id",
	TypeRecurrence:       "recurrence",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Policy decides what happens to a field without a value.
type Policy int

const (
	// PolicyDefault substitutes Field.Default for a missing value.
	PolicyDefault Policy = iota
	// PolicyMaybeMissing omits the key on load and the element on save.
	PolicyMaybeMissing
	// PolicyNotEmpty fails with a MissingValueError unless parsing is relaxed.
	PolicyNotEmpty
)

// Field declares one element of a Kolab object.
type Field struct {
	Name    string
	Type    Type
	Policy  Policy
	Default any
	// Fields holds the children of a composite field.
	Fields []Field
	// Element describes the values of a multiple field.
	Element *Field
}

// named returns a copy of f with another element name.
func (f Field) named(name string) Field {
	f.Name = name
	return f
}

func stringField(name, def string) Field {
	return Field{Name: name, Type: TypeString, Default: def}
}

func optionalField(name string, t Type) Field {
	return Field{Name: name, Type: t, Policy: PolicyMaybeMissing}
}

func requiredField(name string, t Type) Field {
	return Field{Name: name, Type: t, Policy: PolicyNotEmpty}
}

func stringList(name string) Field {
	return Field{
		Name:    name,
		Type:    TypeMultiple,
		Policy:  PolicyMaybeMissing,
		Element: &Field{Type: TypeString, Policy: PolicyMaybeMissing},
	}
}

// basicFields are present in every Kolab object, in Kolab element order.
var basicFields = []Field{
	{Name: "uid", Type: TypeUID},
	stringField("body", ""),
	stringField("categories", ""),
	{Name: "creation-date", Type: TypeCreationDate},
	{Name: "last-modification-date", Type: TypeModificationDate},
	stringField("sensitivity", "public"),
	stringList("inline-attachment"),
	stringList("link-attachment"),
	{Name: "product-id", Type: TypeProductID},
}

// simplePerson is used for organizers, creators and list members.
var simplePerson = Field{
	Type:   TypeComposite,
	Policy: PolicyMaybeMissing,
	Fields: []Field{
		stringField("display-name", ""),
		stringField("smtp-address", ""),
		stringField("uid", ""),
	},
}

var attendee = Field{
	Type:    TypeMultiple,
	Default: []any{},
	Element: &Field{
		Type:   TypeComposite,
		Policy: PolicyMaybeMissing,
		Fields: []Field{
			stringField("display-name", ""),
			stringField("smtp-address", ""),
			stringField("status", "none"),
			{Name: "request-response", Type: TypeBoolean, Default: true},
			stringField("role", "required"),
		},
	},
}

// recurrenceFields are the children of <recurrence>. The cycle and type
// attributes of the element itself are handled by the recurrence codec.
var recurrenceFields = []Field{
	optionalField("interval", TypeInteger),
	stringList("day"),
	optionalField("daynumber", TypeInteger),
	optionalField("month", TypeString),
	stringField("range", ""),
	stringList("exclusion"),
	stringList("complete"),
}

// cloneDefault keeps loaded objects from sharing mutable defaults.
func cloneDefault(v any) any {
	switch d := v.(type) {
	case []any:
		return append([]any{}, d...)
	case Object:
		c := make(Object, len(d))
		for k, val := range d {
			c[k] = cloneDefault(val)
		}
		return c
	default:
		return v
	}
}
