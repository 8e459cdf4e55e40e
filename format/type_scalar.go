package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/cyp0633/libkolab/format/date"
	kxml "github.com/cyp0633/libkolab/internal/xml"
)

// stringCodec returns the content as is.
type stringCodec struct{}

func (stringCodec) decode(node *etree.Element) (any, error) {
	return kxml.Content(node), nil
}

func (stringCodec) encode(node *etree.Element, value any) error {
	node.SetText(toString(value))
	return nil
}

// colorCodec stores colors as #rrggbb strings.
type colorCodec struct{}

func (colorCodec) decode(node *etree.Element) (any, error) {
	return strings.TrimSpace(kxml.Content(node)), nil
}

func (colorCodec) encode(node *etree.Element, value any) error {
	color := toString(value)
	if color != "" && !isColor(color) {
		return fmt.Errorf("invalid color %q", color)
	}
	node.SetText(color)
	return nil
}

func isColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 32)
	return err == nil
}

type integerCodec struct{}

func (integerCodec) decode(node *etree.Element) (any, error) {
	content := strings.TrimSpace(kxml.Content(node))
	n, err := strconv.Atoi(content)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", content)
	}
	return n, nil
}

func (integerCodec) encode(node *etree.Element, value any) error {
	n, err := toInt(value)
	if err != nil {
		return err
	}
	node.SetText(strconv.Itoa(n))
	return nil
}

type booleanCodec struct{}

func (booleanCodec) decode(node *etree.Element) (any, error) {
	return parseBool(kxml.Content(node))
}

func (booleanCodec) encode(node *etree.Element, value any) error {
	b, err := toBool(value)
	if err != nil {
		return err
	}
	node.SetText(strconv.FormatBool(b))
	return nil
}

type dateCodec struct{}

func (dateCodec) decode(node *etree.Element) (any, error) {
	return date.DecodeDate(kxml.Content(node))
}

func (dateCodec) encode(node *etree.Element, value any) error {
	t, _, err := toTime(value)
	if err != nil {
		return err
	}
	node.SetText(date.EncodeDate(t))
	return nil
}

type dateTimeCodec struct{}

func (dateTimeCodec) decode(node *etree.Element) (any, error) {
	return date.DecodeDateTime(kxml.Content(node))
}

func (dateTimeCodec) encode(node *etree.Element, value any) error {
	t, _, err := toTime(value)
	if err != nil {
		return err
	}
	node.SetText(date.EncodeDateTime(t))
	return nil
}

// dateOrDateTimeCodec keeps track of whether the value was a plain date.
type dateOrDateTimeCodec struct{}

func (dateOrDateTimeCodec) decode(node *etree.Element) (any, error) {
	t, dateOnly, err := date.DecodeDateOrDateTime(kxml.Content(node))
	if err != nil {
		return nil, err
	}
	return DateTime{Time: t, DateOnly: dateOnly}, nil
}

func (dateOrDateTimeCodec) encode(node *etree.Element, value any) error {
	t, dateOnly, err := toTime(value)
	if err != nil {
		return err
	}
	node.SetText(DateTime{Time: t, DateOnly: dateOnly}.String())
	return nil
}

// xmlCodec keeps the children of an element as raw XML.
type xmlCodec struct{}

func (xmlCodec) decode(node *etree.Element) (any, error) {
	return kxml.InnerXML(node)
}

func (xmlCodec) encode(node *etree.Element, value any) error {
	return kxml.AppendFragment(node, toString(value))
}
