package format

import (
	"time"

	"github.com/beevik/etree"
	"github.com/cyp0633/libkolab/format/date"
	kxml "github.com/cyp0633/libkolab/internal/xml"
)

// uidHandler requires a non empty uid.
type uidHandler struct {
	env *env
}

func newUIDHandler(_ Field, e *env) (Handler, error) {
	return &uidHandler{env: e}, nil
}

func (h *uidHandler) Load(name string, obj Object, parent *etree.Element) error {
	node := kxml.FindChild(parent, name)
	uid := kxml.Content(node)
	if uid == "" {
		if h.env.relaxed {
			h.env.logger.Warn("object without uid")
			return nil
		}
		return &MissingValueError{Name: name}
	}
	obj[name] = uid
	return nil
}

func (h *uidHandler) Save(name string, obj Object, parent *etree.Element) error {
	uid := ""
	if v, ok := obj[name]; ok && v != nil {
		uid = toString(v)
	}
	if uid == "" {
		return &MissingValueError{Name: name}
	}
	kxml.FindOrCreateChild(parent, name).SetText(uid)
	return nil
}

// creationDateHandler keeps the creation date once set.
type creationDateHandler struct {
	env *env
}

func newCreationDateHandler(_ Field, e *env) (Handler, error) {
	return &creationDateHandler{env: e}, nil
}

func (h *creationDateHandler) Load(name string, obj Object, parent *etree.Element) error {
	return loadTimestamp(h.env, name, obj, parent)
}

func (h *creationDateHandler) Save(name string, obj Object, parent *etree.Element) error {
	created := h.env.now()
	if v, ok := obj[name]; ok && v != nil {
		t, _, err := toTime(v)
		if err != nil {
			return encodeFailed(name, err)
		}
		created = t
	}
	kxml.FindOrCreateChild(parent, name).SetText(date.EncodeDateTime(created))
	return nil
}

// modificationDateHandler stamps every save with the current time.
type modificationDateHandler struct {
	env *env
}

func newModificationDateHandler(_ Field, e *env) (Handler, error) {
	return &modificationDateHandler{env: e}, nil
}

func (h *modificationDateHandler) Load(name string, obj Object, parent *etree.Element) error {
	return loadTimestamp(h.env, name, obj, parent)
}

func (h *modificationDateHandler) Save(name string, _ Object, parent *etree.Element) error {
	kxml.FindOrCreateChild(parent, name).SetText(date.EncodeDateTime(h.env.now()))
	return nil
}

// loadTimestamp reads a datetime, substituting the current time for a
// missing element.
func loadTimestamp(e *env, name string, obj Object, parent *etree.Element) error {
	node := kxml.FindChild(parent, name)
	if node == nil || kxml.Content(node) == "" {
		obj[name] = e.now().UTC().Truncate(time.Second)
		return nil
	}
	t, err := date.DecodeDateTime(kxml.Content(node))
	if err != nil {
		return decodeFailed(name, err, e)
	}
	obj[name] = t
	return nil
}

// productIDHandler always writes the product id of this library.
type productIDHandler struct {
	env *env
}

func newProductIDHandler(_ Field, e *env) (Handler, error) {
	return &productIDHandler{env: e}, nil
}

func (h *productIDHandler) Load(name string, obj Object, parent *etree.Element) error {
	obj[name] = kxml.Content(kxml.FindChild(parent, name))
	return nil
}

func (h *productIDHandler) Save(name string, _ Object, parent *etree.Element) error {
	kxml.FindOrCreateChild(parent, name).SetText(h.env.productID)
	return nil
}
