package format

import (
	"fmt"

	"github.com/beevik/etree"
)

// compositeCodec maps an element with named children to a nested Object.
type compositeCodec struct {
	fields []Field
	env    *env
}

func newCompositeCodec(f Field, e *env) (valueCodec, error) {
	if len(f.Fields) == 0 {
		return nil, fmt.Errorf("composite field %q has no sub fields", f.Name)
	}
	return &compositeCodec{fields: f.Fields, env: e}, nil
}

func (c *compositeCodec) decode(node *etree.Element) (any, error) {
	obj := Object{}
	if err := loadFields(node, c.fields, obj, c.env); err != nil {
		return nil, err
	}
	return obj, nil
}

func (c *compositeCodec) encode(node *etree.Element, value any) error {
	obj, err := toObject(value)
	if err != nil {
		return err
	}
	return saveFields(node, obj, c.fields, c.env)
}
