package xml

import (
	"strings"

	"github.com/beevik/etree"
)

// FindChild returns the first child element with the given tag or nil.
func FindChild(parent *etree.Element, name string) *etree.Element {
	if parent == nil {
		return nil
	}
	for _, child := range parent.ChildElements() {
		if child.Tag == name {
			return child
		}
	}
	return nil
}

// FindChildren returns all child elements with the given tag in document order.
func FindChildren(parent *etree.Element, name string) []*etree.Element {
	if parent == nil {
		return nil
	}
	var result []*etree.Element
	for _, child := range parent.ChildElements() {
		if child.Tag == name {
			result = append(result, child)
		}
	}
	return result
}

// RemoveChildren drops every child element with the given tag.
func RemoveChildren(parent *etree.Element, name string) {
	for _, child := range FindChildren(parent, name) {
		parent.RemoveChild(child)
	}
}

// CreateChild appends a new empty element.
func CreateChild(parent *etree.Element, name string) *etree.Element {
	return parent.CreateElement(name)
}

// FindOrCreateChild returns the named child, creating it when missing.
func FindOrCreateChild(parent *etree.Element, name string) *etree.Element {
	if child := FindChild(parent, name); child != nil {
		return child
	}
	return CreateChild(parent, name)
}

// Content returns the concatenated character data of the element and all of
// its descendants.
func Content(elem *etree.Element) string {
	if elem == nil {
		return ""
	}
	var b strings.Builder
	collectText(elem, &b)
	return b.String()
}

func collectText(elem *etree.Element, b *strings.Builder) {
	for _, token := range elem.Child {
		switch t := token.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			collectText(t, b)
		}
	}
}

// InnerXML serializes the children of elem. Whitespace between child
// elements is indentation and is dropped.
func InnerXML(elem *etree.Element) (string, error) {
	doc := etree.NewDocument()
	mixed := hasChildElements(elem)
	for _, token := range elem.Child {
		switch t := token.(type) {
		case *etree.Element:
			c := t.Copy()
			stripIndent(c)
			doc.AddChild(c)
		case *etree.CharData:
			if mixed && strings.TrimSpace(t.Data) == "" {
				continue
			}
			doc.CreateText(t.Data)
		}
	}
	s, err := doc.WriteToString()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// AppendFragment parses an XML fragment and appends its nodes to parent.
func AppendFragment(parent *etree.Element, fragment string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromString("<fragment>" + fragment + "</fragment>"); err != nil {
		return err
	}
	for _, token := range doc.Root().Child {
		switch t := token.(type) {
		case *etree.Element:
			parent.AddChild(t.Copy())
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				parent.CreateText(t.Data)
			}
		}
	}
	return nil
}

func hasChildElements(elem *etree.Element) bool {
	return len(elem.ChildElements()) > 0
}

// stripIndent removes whitespace-only text from elements that hold child
// elements. Text of leaf elements is kept as is.
func stripIndent(elem *etree.Element) {
	if !hasChildElements(elem) {
		return
	}
	for _, token := range append([]etree.Token(nil), elem.Child...) {
		switch t := token.(type) {
		case *etree.CharData:
			if strings.TrimSpace(t.Data) == "" {
				elem.RemoveChild(t)
			}
		case *etree.Element:
			stripIndent(t)
		}
	}
}
