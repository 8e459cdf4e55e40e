package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cyp0633/libkolab/format"
	"github.com/google/uuid"
)

// Object is a Kolab groupware object stored in a folder.
type Object struct {
	codec    format.Format
	data     format.Object
	previous []byte
}

// NewObject wraps data for the given format.
func NewObject(f format.Format, data format.Object) *Object {
	if data == nil {
		data = format.Object{}
	}
	return &Object{codec: f, data: data}
}

// LoadObject parses the Kolab XML part of a stored message.
func LoadObject(f format.Format, r io.Reader) (*Object, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	data, err := f.Load(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &Object{codec: f, data: data, previous: raw}, nil
}

// UID returns the uid of the object, generating one if it has none.
func (o *Object) UID() string {
	if uid, ok := o.data["uid"].(string); ok && uid != "" {
		return uid
	}
	uid := uuid.NewString()
	o.data["uid"] = uid
	return uid
}

// Data returns the object values.
func (o *Object) Data() format.Object {
	return o.data
}

// Set replaces the object values keeping the uid.
func (o *Object) Set(data format.Object) {
	uid := o.UID()
	if data == nil {
		data = format.Object{}
	}
	o.data = data
	if _, ok := o.data["uid"]; !ok {
		o.data["uid"] = uid
	}
}

// Content serializes the object. Objects read from storage are written
// over their previous XML so elements unknown to the format survive.
func (o *Object) Content() ([]byte, error) {
	o.UID()
	var opts []format.SaveOption
	if o.previous != nil {
		opts = append(opts, format.WithPrevious(o.previous))
	}
	content, err := o.codec.Save(o.data, opts...)
	if err != nil {
		return nil, err
	}
	o.previous = content
	return content, nil
}

// MimeType returns the MIME type of the XML part.
func (o *Object) MimeType() string {
	return o.codec.MimeType()
}
