package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(`<?xml version="1.0" encoding="UTF-8"?><note version="1.0"><summary>Grüße</summary></note>`))
	require.NoError(t, err)
	assert.Equal(t, "note", doc.Root().Tag)
	assert.Equal(t, "Grüße", Content(FindChild(doc.Root(), "summary")))
}

func TestParseLatin1Fallback(t *testing.T) {
	// "Grüße" encoded as ISO-8859-1 while the declaration claims UTF-8.
	data := append([]byte(`<?xml version="1.0" encoding="UTF-8"?><note><summary>Gr`), 0xfc, 0xdf)
	data = append(data, []byte(`e</summary></note>`)...)

	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Grüße", Content(FindChild(doc.Root(), "summary")))
}

func TestParseDeclaredCharset(t *testing.T) {
	data := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><note><summary>`), 0xe9)
	data = append(data, []byte(`</summary></note>`)...)

	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "é", Content(FindChild(doc.Root(), "summary")))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(""))
	assert.Error(t, err)

	_, err = Parse([]byte("<note><summary></note>"))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	doc := NewDocument()
	root := doc.CreateElement("note")
	root.CreateAttr("version", "1.0")
	CreateChild(root, "summary").SetText("a & b")

	out, err := Write(doc)
	require.NoError(t, err)
	assert.Equal(t,
		`<note version="1.0"><summary>a &amp; b</summary></note>`,
		NormalizeXML(string(out)))
	assert.Contains(t, string(out), `<?xml version="1.0" encoding="UTF-8"?>`)
}
