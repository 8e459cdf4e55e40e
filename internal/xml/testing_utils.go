package xml

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

var (
	declarationPattern = regexp.MustCompile(`<\?xml[^>]*\?>`)
	interTagSpace      = regexp.MustCompile(`>\s+<`)
	selfClosingSpace   = regexp.MustCompile(`\s+/>`)
)

// NormalizeXML removes the declaration and whitespace between elements so
// documents can be compared in tests.
func NormalizeXML(s string) string {
	s = declarationPattern.ReplaceAllString(s, "")
	s = interTagSpace.ReplaceAllString(s, "><")
	s = selfClosingSpace.ReplaceAllString(s, "/>")
	return strings.TrimSpace(s)
}

// ElementToString converts an element to a string without declaration.
func ElementToString(elem *etree.Element) string {
	doc := etree.NewDocument()
	doc.AddChild(elem.Copy())
	s, _ := doc.WriteToString()
	return NormalizeXML(s)
}
