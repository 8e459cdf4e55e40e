package format

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/beevik/etree"
	kxml "github.com/cyp0633/libkolab/internal/xml"
)

// env carries the options shared by all handlers of one load or save run.
type env struct {
	relaxed   bool
	now       func() time.Time
	productID string
	logger    *slog.Logger
}

// Handler loads one named field from a parent element into an Object and
// saves it back.
type Handler interface {
	Load(name string, obj Object, parent *etree.Element) error
	Save(name string, obj Object, parent *etree.Element) error
}

// valueCodec converts between the content of a single element and a value.
type valueCodec interface {
	decode(node *etree.Element) (any, error)
	encode(node *etree.Element, value any) error
}

type codecFactory func(f Field, e *env) (valueCodec, error)

type handlerFactory func(f Field, e *env) (Handler, error)

// codecs maps plain value types to their element codecs.
var codecs map[Type]codecFactory

// handlers maps types that need more than one element or computed values.
var handlers map[Type]handlerFactory

func init() {
	codecs = map[Type]codecFactory{
		TypeString:         func(Field, *env) (valueCodec, error) { return stringCodec{}, nil },
		TypeColor:          func(Field, *env) (valueCodec, error) { return colorCodec{}, nil },
		TypeInteger:        func(Field, *env) (valueCodec, error) { return integerCodec{}, nil },
		TypeBoolean:        func(Field, *env) (valueCodec, error) { return booleanCodec{}, nil },
		TypeDate:           func(Field, *env) (valueCodec, error) { return dateCodec{}, nil },
		TypeDateTime:       func(Field, *env) (valueCodec, error) { return dateTimeCodec{}, nil },
		TypeDateOrDateTime: func(Field, *env) (valueCodec, error) { return dateOrDateTimeCodec{}, nil },
		TypeXML:            func(Field, *env) (valueCodec, error) { return xmlCodec{}, nil },
		TypeComposite:      newCompositeCodec,
		TypeRecurrence:     newRecurrenceCodec,
	}
	handlers = map[Type]handlerFactory{
		TypeMultiple:         newMultipleHandler,
		TypeUID:              newUIDHandler,
		TypeCreationDate:     newCreationDateHandler,
		TypeModificationDate: newModificationDateHandler,
		TypeProductID:        newProductIDHandler,
	}
}

func newCodec(f Field, e *env) (valueCodec, error) {
	factory, ok := codecs[f.Type]
	if !ok {
		return nil, fmt.Errorf("no codec for field type %s", f.Type)
	}
	return factory(f, e)
}

func newHandler(f Field, e *env) (Handler, error) {
	if factory, ok := handlers[f.Type]; ok {
		return factory(f, e)
	}
	codec, err := newCodec(f, e)
	if err != nil {
		return nil, err
	}
	return &valueHandler{field: f, codec: codec, env: e}, nil
}

// loadFields populates obj from the children of parent.
func loadFields(parent *etree.Element, fields []Field, obj Object, e *env) error {
	for _, f := range fields {
		h, err := newHandler(f, e)
		if err != nil {
			return err
		}
		if err := h.Load(f.Name, obj, parent); err != nil {
			return err
		}
	}
	return nil
}

// saveFields writes the values of obj below parent.
func saveFields(parent *etree.Element, obj Object, fields []Field, e *env) error {
	for _, f := range fields {
		h, err := newHandler(f, e)
		if err != nil {
			return err
		}
		if err := h.Save(f.Name, obj, parent); err != nil {
			return err
		}
	}
	return nil
}

// missingOnLoad applies the value policy to an absent element.
func missingOnLoad(f Field, name string, obj Object, e *env) error {
	switch f.Policy {
	case PolicyMaybeMissing:
		return nil
	case PolicyNotEmpty:
		if e.relaxed {
			e.logger.Warn("missing required value", "field", name)
			return nil
		}
		return &MissingValueError{Name: name}
	default:
		if f.Default != nil {
			obj[name] = cloneDefault(f.Default)
		}
		return nil
	}
}

// valueOnSave resolves the value to write. ok is false if nothing should be
// written.
func valueOnSave(f Field, name string, obj Object, e *env) (value any, ok bool, err error) {
	if v, present := obj[name]; present && v != nil {
		return v, true, nil
	}
	switch f.Policy {
	case PolicyMaybeMissing:
		return nil, false, nil
	case PolicyNotEmpty:
		if e.relaxed {
			return nil, false, nil
		}
		return nil, false, &MissingValueError{Name: name}
	default:
		return f.Default, f.Default != nil, nil
	}
}

// decodeFailed turns a codec error into a ParseError, or drops the field in
// relaxed mode.
func decodeFailed(name string, err error, e *env) error {
	if e.relaxed {
		e.logger.Warn("ignoring unreadable value", "field", name, "error", err)
		return nil
	}
	if isFieldError(err) {
		return err
	}
	return &ParseError{Field: name, Err: err}
}

func encodeFailed(name string, err error) error {
	if isFieldError(err) {
		return err
	}
	return &EncodeError{Field: name, Err: err}
}

// valueHandler handles fields stored in exactly one element.
type valueHandler struct {
	field Field
	codec valueCodec
	env   *env
}

func (h *valueHandler) Load(name string, obj Object, parent *etree.Element) error {
	node := kxml.FindChild(parent, name)
	if node == nil {
		return missingOnLoad(h.field, name, obj, h.env)
	}
	value, err := h.codec.decode(node)
	if err != nil {
		return decodeFailed(name, err, h.env)
	}
	obj[name] = value
	return nil
}

func (h *valueHandler) Save(name string, obj Object, parent *etree.Element) error {
	value, ok, err := valueOnSave(h.field, name, obj, h.env)
	kxml.RemoveChildren(parent, name)
	if err != nil || !ok {
		return err
	}
	node := kxml.CreateChild(parent, name)
	if err := h.codec.encode(node, value); err != nil {
		return encodeFailed(name, err)
	}
	return nil
}

// multipleHandler handles fields repeated once per value.
type multipleHandler struct {
	field   Field
	element valueCodec
	env     *env
}

func newMultipleHandler(f Field, e *env) (Handler, error) {
	if f.Element == nil {
		return nil, fmt.Errorf("multiple field %q has no element definition", f.Name)
	}
	element, err := newCodec(*f.Element, e)
	if err != nil {
		return nil, err
	}
	return &multipleHandler{field: f, element: element, env: e}, nil
}

func (h *multipleHandler) Load(name string, obj Object, parent *etree.Element) error {
	nodes := kxml.FindChildren(parent, name)
	if len(nodes) == 0 {
		return missingOnLoad(h.field, name, obj, h.env)
	}
	values := make([]any, 0, len(nodes))
	for _, node := range nodes {
		value, err := h.element.decode(node)
		if err != nil {
			if err := decodeFailed(name, err, h.env); err != nil {
				return err
			}
			continue
		}
		values = append(values, value)
	}
	obj[name] = values
	return nil
}

func (h *multipleHandler) Save(name string, obj Object, parent *etree.Element) error {
	value, ok, err := valueOnSave(h.field, name, obj, h.env)
	kxml.RemoveChildren(parent, name)
	if err != nil || !ok {
		return err
	}
	values, err := toSlice(value)
	if err != nil {
		return encodeFailed(name, err)
	}
	for _, v := range values {
		node := kxml.CreateChild(parent, name)
		if err := h.element.encode(node, v); err != nil {
			return encodeFailed(name, err)
		}
	}
	return nil
}
