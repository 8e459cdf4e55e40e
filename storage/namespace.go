package storage

import (
	"strings"
)

// NamespaceType classifies the folders of a namespace.
type NamespaceType string

const (
	NamespacePersonal NamespaceType = "personal"
	NamespaceOther    NamespaceType = "other"
	NamespaceShared   NamespaceType = "shared"
)

// NamespaceElement is one namespace announced by the server, e.g. the
// folders of other users below "user/".
type NamespaceElement struct {
	Type NamespaceType `json:"type" toml:"type"`
	// Prefix is the namespace name including the trailing delimiter, or ""
	// for a namespace at the root.
	Prefix    string `json:"prefix" toml:"prefix"`
	Delimiter string `json:"delimiter" toml:"delimiter"`
}

// matches reports whether folder lives in the namespace.
func (e NamespaceElement) matches(folder string) bool {
	if e.Prefix == "" {
		return true
	}
	return strings.HasPrefix(folder, e.Prefix) || folder+e.Delimiter == e.Prefix
}

// Namespace maps folder paths of one user to owners and titles.
type Namespace struct {
	User     string             `json:"user"`
	Elements []NamespaceElement `json:"elements"`
}

// NewFixedNamespace returns the namespace layout of a default Kolab server.
func NewFixedNamespace(user string) *Namespace {
	return NewNamespace(user,
		NamespaceElement{Type: NamespacePersonal, Prefix: "INBOX/", Delimiter: "/"},
		NamespaceElement{Type: NamespaceOther, Prefix: "user/", Delimiter: "/"},
		NamespaceElement{Type: NamespaceShared, Prefix: "", Delimiter: "/"},
	)
}

// NewNamespace builds a namespace from configured elements.
func NewNamespace(user string, elements ...NamespaceElement) *Namespace {
	return &Namespace{User: user, Elements: append([]NamespaceElement{}, elements...)}
}

// Match returns the element with the longest prefix matching folder.
func (n *Namespace) Match(folder string) (NamespaceElement, bool) {
	var best NamespaceElement
	found := false
	for _, e := range n.Elements {
		if !e.matches(folder) {
			continue
		}
		if !found || len(e.Prefix) > len(best.Prefix) {
			best, found = e, true
		}
	}
	return best, found
}

// Owner returns the owner of a folder. Folders of other users carry the
// domain of the current user if they lack one.
func (n *Namespace) Owner(folder string) string {
	e, ok := n.Match(folder)
	if !ok {
		return ""
	}
	switch e.Type {
	case NamespacePersonal:
		return n.User
	case NamespaceOther:
		segments := n.segments(e, folder)
		if len(segments) == 0 || segments[0] == "" {
			return ""
		}
		owner := segments[0]
		if !strings.Contains(owner, "@") {
			if _, domain, ok := strings.Cut(n.User, "@"); ok {
				owner += "@" + domain
			}
		}
		return owner
	default:
		return "anonymous"
	}
}

// Subpath returns the path of the folder below its namespace and owner.
func (n *Namespace) Subpath(folder string) string {
	e, ok := n.Match(folder)
	if !ok {
		return folder
	}
	segments := n.segments(e, folder)
	if e.Type == NamespaceOther && len(segments) > 0 {
		segments = segments[1:]
	}
	return strings.Join(segments, e.Delimiter)
}

// Title returns a display name for the folder, with path segments joined
// by ":".
func (n *Namespace) Title(folder string) string {
	e, ok := n.Match(folder)
	if !ok {
		return folder
	}
	subpath := n.Subpath(folder)
	if subpath == "" {
		return folder
	}
	return strings.ReplaceAll(subpath, e.Delimiter, ":")
}

// Parent returns the folder one level up, or "" for top level folders.
func (n *Namespace) Parent(folder string) string {
	delimiter := "/"
	if e, ok := n.Match(folder); ok && e.Delimiter != "" {
		delimiter = e.Delimiter
	}
	idx := strings.LastIndex(folder, delimiter)
	if idx < 0 {
		return ""
	}
	return folder[:idx]
}

// segments splits the folder path after the namespace prefix.
func (n *Namespace) segments(e NamespaceElement, folder string) []string {
	rest := strings.TrimPrefix(folder, e.Prefix)
	if folder+e.Delimiter == e.Prefix {
		rest = ""
	}
	if rest == "" {
		return nil
	}
	if e.Delimiter == "" {
		return []string{rest}
	}
	return strings.Split(rest, e.Delimiter)
}
