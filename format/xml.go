package format

import (
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"
	kxml "github.com/cyp0633/libkolab/internal/xml"
)

// xmlFormat is the table driven Format implementation.
type xmlFormat struct {
	kind   string
	root   string
	fields []Field
	env    *env
}

func (f *xmlFormat) Kind() string        { return f.kind }
func (f *xmlFormat) Name() string        { return "kolab.xml" }
func (f *xmlFormat) MimeType() string    { return "application/x-vnd.kolab." + f.root }
func (f *xmlFormat) Disposition() string { return "attachment" }

func (f *xmlFormat) Load(r io.Reader) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := kxml.Parse(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	root, err := f.loadRoot(doc)
	if err != nil {
		return nil, err
	}

	obj := Object{}
	if err := loadFields(root, basicFields, obj, f.env); err != nil {
		return nil, err
	}
	if err := loadFields(root, f.fields, obj, f.env); err != nil {
		return nil, err
	}
	return obj, nil
}

func (f *xmlFormat) Save(obj Object, opts ...SaveOption) ([]byte, error) {
	var cfg saveConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var doc *etree.Document
	if cfg.previous != nil {
		var err error
		doc, err = kxml.Parse(cfg.previous)
		if err != nil {
			return nil, &ParseError{Err: fmt.Errorf("previous document: %w", err)}
		}
	} else {
		doc = kxml.NewDocument()
	}
	root, err := f.saveRoot(doc)
	if err != nil {
		return nil, err
	}

	if err := saveFields(root, obj, basicFields, f.env); err != nil {
		return nil, err
	}
	if err := saveFields(root, obj, f.fields, f.env); err != nil {
		return nil, err
	}
	return kxml.Write(doc)
}

// loadRoot checks the root element name and version.
func (f *xmlFormat) loadRoot(doc *etree.Document) (*etree.Element, error) {
	root := doc.Root()
	if root.Tag != f.root {
		return nil, fmt.Errorf("%w: expected <%s>, got <%s>", ErrInvalidRoot, f.root, root.Tag)
	}
	version := root.SelectAttrValue("version", "")
	if version != "" && newerVersion(version, Version) {
		if !f.env.relaxed {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
		}
		f.env.logger.Warn("loading document of newer version", "version", version)
	}
	return root, nil
}

// saveRoot returns the root element, creating it in empty documents.
func (f *xmlFormat) saveRoot(doc *etree.Document) (*etree.Element, error) {
	root := doc.Root()
	if root == nil {
		root = doc.CreateElement(f.root)
	} else if _, err := f.loadRoot(doc); err != nil {
		return nil, err
	}
	root.CreateAttr("version", Version)
	return root, nil
}

// newerVersion reports whether version v is above than.
func newerVersion(v, than string) bool {
	a, errA := strconv.ParseFloat(v, 64)
	b, errB := strconv.ParseFloat(than, 64)
	if errA != nil || errB != nil {
		return v != than
	}
	return a > b
}
