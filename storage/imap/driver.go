// Package imap implements storage.Driver on top of an IMAP server with the
// METADATA extension (RFC 5464).
package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/cyp0633/libkolab/storage"
	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/responses"
	"github.com/emersion/go-imap/utf7"
)

// Config describes the server connection.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	// TLS selects implicit TLS. Otherwise the connection is plain text.
	TLS bool
	// InsecureSkipVerify disables certificate checks.
	InsecureSkipVerify bool
	// Namespace overrides the default Kolab namespace layout.
	Namespace *storage.Namespace
	Logger    *slog.Logger
}

// Driver talks to a Kolab IMAP server. It serializes all commands on one
// connection.
type Driver struct {
	mu     sync.Mutex
	cfg    Config
	c      *client.Client
	logger *slog.Logger
}

// Dial connects and logs in.
func Dial(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.Host == "" || cfg.User == "" {
		return nil, fmt.Errorf("%w: host and user are required", storage.ErrInvalidInput)
	}
	if cfg.Port == 0 {
		cfg.Port = 143
		if cfg.TLS {
			cfg.Port = 993
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	type result struct {
		c   *client.Client
		err error
	}
	done := make(chan result, 1)
	go func() {
		var c *client.Client
		var err error
		if cfg.TLS {
			c, err = client.DialTLS(addr, &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: cfg.InsecureSkipVerify})
		} else {
			c, err = client.Dial(addr)
		}
		if err == nil {
			if err = c.Login(cfg.User, cfg.Password); err != nil {
				_ = c.Logout()
				err = &storage.Error{Op: "login", Err: fmt.Errorf("%w: %v", storage.ErrPermissionDenied, err)}
			}
		} else {
			err = &storage.Error{Op: "dial", Err: fmt.Errorf("%w: %v", storage.ErrStorageUnavailable, err)}
		}
		done <- result{c, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.c != nil {
				_ = r.c.Logout()
			}
		}()
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		logger.Info("connected to IMAP server", "addr", addr, "user", cfg.User)
		return &Driver{cfg: cfg, c: r.c, logger: logger}, nil
	}
}

// Close logs out.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.c.Logout()
}

func (d *Driver) ID() string {
	return fmt.Sprintf("%s@%s:%d", d.cfg.User, d.cfg.Host, d.cfg.Port)
}

func (d *Driver) Auth() string {
	return d.cfg.User
}

func (d *Driver) ListFolders(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	mailboxes := make(chan *goimap.MailboxInfo, 16)
	done := make(chan error, 1)
	go func() {
		done <- d.c.List("", "*", mailboxes)
	}()

	var folders []string
	for m := range mailboxes {
		folders = append(folders, m.Name)
	}
	if err := <-done; err != nil {
		return nil, d.wrap("list", "", err)
	}
	return folders, nil
}

func (d *Driver) Create(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap("create", folder, d.c.Create(folder))
}

func (d *Driver) Delete(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap("delete", folder, d.c.Delete(folder))
}

func (d *Driver) Rename(ctx context.Context, oldName, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap("rename", oldName, d.c.Rename(oldName, newName))
}

func (d *Driver) ListAnnotation(ctx context.Context, annotation string) (map[string]string, error) {
	return d.getMetadata(ctx, "*", annotation)
}

func (d *Driver) GetAnnotation(ctx context.Context, folder, annotation string) (string, error) {
	values, err := d.getMetadata(ctx, folder, annotation)
	if err != nil {
		return "", err
	}
	return values[folder], nil
}

func (d *Driver) SetAnnotation(ctx context.Context, folder, annotation, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mailbox, err := utf7.Encoding.NewEncoder().String(folder)
	if err != nil {
		return d.wrap("set annotation", folder, err)
	}
	cmd := &goimap.Command{
		Name:      "SETMETADATA",
		Arguments: []interface{}{mailbox, []interface{}{goimap.RawString(annotation), value}},
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	status, err := d.c.Execute(cmd, nil)
	if err == nil {
		err = status.Err()
	}
	return d.wrap("set annotation", folder, err)
}

func (d *Driver) Namespace(_ context.Context) (*storage.Namespace, error) {
	if d.cfg.Namespace != nil {
		return d.cfg.Namespace, nil
	}
	return storage.NewFixedNamespace(d.cfg.User), nil
}

func (d *Driver) getMetadata(ctx context.Context, mailbox, annotation string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	arg := mailbox
	if mailbox != "*" {
		encoded, err := utf7.Encoding.NewEncoder().String(mailbox)
		if err != nil {
			return nil, d.wrap("get annotation", mailbox, err)
		}
		arg = encoded
	}
	cmd := &goimap.Command{
		Name:      "GETMETADATA",
		Arguments: []interface{}{arg, goimap.RawString(annotation)},
	}
	h := &metadataHandler{entry: annotation, values: make(map[string]string)}

	d.mu.Lock()
	defer d.mu.Unlock()
	status, err := d.c.Execute(cmd, h)
	if err == nil {
		err = status.Err()
	}
	if err != nil {
		return nil, d.wrap("get annotation", mailbox, err)
	}
	d.logger.Debug("fetched metadata", "mailbox", mailbox, "entry", annotation, "count", len(h.values))
	return h.values, nil
}

// metadataHandler collects untagged METADATA responses:
//
//	S: * METADATA "INBOX/Calendar" (/shared/vendor/kolab/folder-type "event.default")
type metadataHandler struct {
	entry  string
	values map[string]string
}

func (h *metadataHandler) Handle(resp goimap.Resp) error {
	data, ok := resp.(*goimap.DataResp)
	if !ok || len(data.Fields) < 3 {
		return responses.ErrUnhandled
	}
	if name, ok := data.Fields[0].(string); !ok || !strings.EqualFold(name, "METADATA") {
		return responses.ErrUnhandled
	}

	mailbox, err := goimap.ParseString(data.Fields[1])
	if err != nil {
		return err
	}
	if decoded, err := utf7.Encoding.NewDecoder().String(mailbox); err == nil {
		mailbox = decoded
	}

	entries, ok := data.Fields[2].([]interface{})
	if !ok {
		return errors.New("METADATA: entry list expected")
	}
	for i := 0; i+1 < len(entries); i += 2 {
		key, err := goimap.ParseString(entries[i])
		if err != nil || !strings.EqualFold(key, h.entry) {
			continue
		}
		if entries[i+1] == nil {
			continue
		}
		value, err := goimap.ParseString(entries[i+1])
		if err != nil {
			return err
		}
		h.values[mailbox] = value
	}
	return nil
}

// wrap maps IMAP errors to storage errors.
func (d *Driver) wrap(op, folder string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	kind := storage.ErrStorageUnavailable
	switch {
	case strings.Contains(msg, "already exists"):
		kind = storage.ErrAlreadyExists
	case strings.Contains(msg, "nonexistent"), strings.Contains(msg, "does not exist"), strings.Contains(msg, "not found"):
		kind = storage.ErrNotFound
	case strings.Contains(msg, "permission"), strings.Contains(msg, "denied"):
		kind = storage.ErrPermissionDenied
	}
	d.logger.Warn("IMAP command failed", "op", op, "folder", folder, "error", err)
	return &storage.Error{Op: op, Folder: folder, Err: fmt.Errorf("%w: %v", kind, err)}
}

var _ storage.Driver = (*Driver)(nil)
