package imap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/cyp0633/libkolab/storage"
	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataHandler(t *testing.T) {
	h := &metadataHandler{entry: storage.FolderTypeAnnotation, values: map[string]string{}}

	resp := &goimap.DataResp{Fields: []interface{}{
		"METADATA",
		"INBOX/Calendar",
		[]interface{}{storage.FolderTypeAnnotation, "event.default"},
	}}
	require.NoError(t, h.Handle(resp))

	resp = &goimap.DataResp{Fields: []interface{}{
		"METADATA",
		"INBOX/Kalender &AOQ-",
		[]interface{}{storage.FolderTypeAnnotation, "event"},
	}}
	require.NoError(t, h.Handle(resp))

	// NIL values mean the entry is unset
	resp = &goimap.DataResp{Fields: []interface{}{
		"METADATA",
		"INBOX/Mail",
		[]interface{}{storage.FolderTypeAnnotation, nil},
	}}
	require.NoError(t, h.Handle(resp))

	assert.Equal(t, map[string]string{
		"INBOX/Calendar":   "event.default",
		"INBOX/Kalender ä": "event",
	}, h.values)

	other := &goimap.DataResp{Fields: []interface{}{"FLAGS", []interface{}{}}}
	assert.Equal(t, responses.ErrUnhandled, h.Handle(other))
}

func TestWrap(t *testing.T) {
	d := &Driver{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	assert.NoError(t, d.wrap("create", "INBOX/Foo", nil))

	err := d.wrap("create", "INBOX/Foo", errors.New("Mailbox already exists"))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	err = d.wrap("delete", "INBOX/Foo", errors.New("Mailbox does not exist"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = d.wrap("set annotation", "user/bob", errors.New("Permission denied"))
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)

	err = d.wrap("list", "", errors.New("connection reset"))
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}

func TestDialValidatesConfig(t *testing.T) {
	_, err := Dial(context.Background(), Config{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestNamespace(t *testing.T) {
	d := &Driver{cfg: Config{User: "test", Host: "imap.example.org", Port: 993}}
	ns, err := d.Namespace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", ns.Owner("INBOX/Calendar"))
	assert.Equal(t, "test@imap.example.org:993", d.ID())
}
