package xml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrEmptyDocument is returned when the input holds no root element.
var ErrEmptyDocument = errors.New("empty document")

// Declaration is the processing instruction written on top of every document.
const Declaration = `version="1.0" encoding="UTF-8"`

// Parse reads an XML document. Kolab clients in the wild sometimes wrote
// ISO-8859-1 data while declaring UTF-8, so a failed parse of invalid UTF-8
// input is retried after converting it from ISO-8859-1.
func Parse(data []byte) (*etree.Document, error) {
	doc, err := read(data)
	if err != nil && !utf8.Valid(data) {
		converted, convErr := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if convErr != nil {
			return nil, fmt.Errorf("failed to convert input to UTF-8: %w", convErr)
		}
		doc, err = read(converted)
	}
	if err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

func read(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// charsetReader decodes documents that declare a non UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// NewDocument creates an empty document carrying the XML declaration.
func NewDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", Declaration)
	return doc
}

// Write serializes the document with two space indentation.
func Write(doc *etree.Document) ([]byte, error) {
	doc.Indent(2)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	return buf.Bytes(), nil
}
