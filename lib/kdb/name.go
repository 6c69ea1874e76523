package kdb

import (
	"strings"
)

// KeyName is a namespace plus a normalized hierarchical path.
//
// The path is stored as a list of unescaped parts. A part is never empty and
// is never interpreted as "." or "..": those only act as path operators while
// parsing, a literal part with that content is written escaped ("\." or "\..").
//
// Mutators never share the backing array of the parts with another KeyName, so
// a KeyName copied by value is safe to modify independently.
type KeyName struct {
	namespace Namespace
	parts     []string
}

const (
	namespaceSeparator = ':'
	pathSeparator      = '/'
	escapeChar         = '\\'
)

// RootName returns the root name of the given namespace ("<ns>:/")
func RootName(ns Namespace) KeyName {
	return KeyName{namespace: ns}
}

// NewKeyName builds a name from already unescaped parts. Empty parts are rejected.
func NewKeyName(ns Namespace, parts ...string) (KeyName, error) {
	for _, p := range parts {
		if p == "" {
			return KeyName{}, Errorf(RetCInvalidName, "empty part in %q", parts)
		}
	}
	return KeyName{namespace: ns, parts: append([]string(nil), parts...)}, nil
}

// ParseKeyName parses the canonical textual form "<namespace>:/<path>".
// The text is split on the first ':'. A missing separator, an empty namespace
// token, an empty path or a path that does not start with '/' are invalid.
// Unknown namespace tokens fall back to the cascading namespace.
func ParseKeyName(text string) (KeyName, error) {
	idx := strings.IndexByte(text, namespaceSeparator)
	if idx < 0 {
		return KeyName{}, Errorf(RetCInvalidName, "missing namespace separator in %q", text)
	}
	token, path := text[:idx], text[idx+1:]
	if token == "" {
		return KeyName{}, Errorf(RetCInvalidName, "empty namespace in %q", text)
	}
	if path == "" || path[0] != pathSeparator {
		return KeyName{}, Errorf(RetCInvalidName, "path of %q must start with '/'", text)
	}
	ns, _ := NamespaceFromToken(token)

	parts, err := appendPath(nil, path)
	if err != nil {
		return KeyName{}, err
	}
	return KeyName{namespace: ns, parts: parts}, nil
}

// MustParseKeyName is like ParseKeyName but panics on error. Only meant for constants and tests.
func MustParseKeyName(text string) KeyName {
	n, err := ParseKeyName(text)
	if err != nil {
		panic(err)
	}
	return n
}

// appendPath parses an escaped, '/'-separated path and applies it to parts.
// Empty and "." segments are dropped, ".." removes the last part (never above root).
func appendPath(parts []string, path string) ([]string, error) {
	var seg strings.Builder
	escaped := false

	flush := func() {
		s := seg.String()
		switch {
		case escaped:
			parts = append(parts, s)
		case s == "", s == ".":
		case s == "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, s)
		}
		seg.Reset()
		escaped = false
	}

	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case escapeChar:
			if i+1 >= len(path) {
				return nil, Errorf(RetCInvalidName, "dangling escape at end of %q", path)
			}
			i++
			seg.WriteByte(path[i])
			escaped = true
		case pathSeparator:
			flush()
		default:
			seg.WriteByte(c)
		}
	}
	flush()
	return parts, nil
}

// escapePart writes a single unescaped part in its escaped form
func escapePart(sb *strings.Builder, part string) {
	if part == "." || part == ".." {
		sb.WriteByte(escapeChar)
		sb.WriteString(part)
		return
	}
	for i := 0; i < len(part); i++ {
		c := part[i]
		if c == escapeChar || c == pathSeparator {
			sb.WriteByte(escapeChar)
		}
		sb.WriteByte(c)
	}
}

// --------------------------------------------------------------------------
// Formatting
// --------------------------------------------------------------------------

// String returns the canonical form, the inverse of ParseKeyName
func (n KeyName) String() string {
	var sb strings.Builder
	sb.WriteString(n.namespace.String())
	sb.WriteByte(namespaceSeparator)
	sb.WriteString(n.Path())
	return sb.String()
}

// Path returns the escaped path without the namespace, always starting with '/'
func (n KeyName) Path() string {
	if len(n.parts) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, p := range n.parts {
		sb.WriteByte(pathSeparator)
		escapePart(&sb, p)
	}
	return sb.String()
}

// Unescaped returns the unescaped binary form: the namespace byte, a NUL,
// then every part followed by a NUL. The root name is [ns, 0, 0].
func (n KeyName) Unescaped() []byte {
	size := 2
	for _, p := range n.parts {
		size += len(p) + 1
	}
	if len(n.parts) == 0 {
		size++
	}
	buf := make([]byte, 0, size)
	buf = append(buf, byte(n.namespace), 0)
	if len(n.parts) == 0 {
		return append(buf, 0)
	}
	for _, p := range n.parts {
		buf = append(buf, p...)
		buf = append(buf, 0)
	}
	return buf
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Namespace returns the namespace of the name
func (n KeyName) Namespace() Namespace { return n.namespace }

// Parts returns a copy of the unescaped parts
func (n KeyName) Parts() []string { return append([]string(nil), n.parts...) }

// Depth returns the number of parts
func (n KeyName) Depth() int { return len(n.parts) }

// IsRoot reports whether the path has no parts
func (n KeyName) IsRoot() bool { return len(n.parts) == 0 }

// BaseName returns the last part. The root has no base name.
func (n KeyName) BaseName() (string, bool) {
	if len(n.parts) == 0 {
		return "", false
	}
	return n.parts[len(n.parts)-1], true
}

// Parent returns the name with the last part removed. The parent of the root is the root.
func (n KeyName) Parent() KeyName {
	c := n.Clone()
	_ = c.RemoveBaseName()
	return c
}

// Clone returns a deep copy
func (n KeyName) Clone() KeyName {
	return KeyName{namespace: n.namespace, parts: append([]string(nil), n.parts...)}
}

// --------------------------------------------------------------------------
// Mutators
// --------------------------------------------------------------------------

// SetNamespace replaces the namespace. The path is not revalidated.
func (n *KeyName) SetNamespace(ns Namespace) {
	n.namespace = ns
}

// SetBaseName replaces the last part with the literal base. On the root it appends.
func (n *KeyName) SetBaseName(base string) error {
	if base == "" {
		return Errorf(RetCInvalidName, "empty base name")
	}
	parts := n.Parts()
	if len(parts) == 0 {
		parts = append(parts, base)
	} else {
		parts[len(parts)-1] = base
	}
	n.parts = parts
	return nil
}

// AddBaseName appends the literal base as a new part
func (n *KeyName) AddBaseName(base string) error {
	if base == "" {
		return Errorf(RetCInvalidName, "empty base name")
	}
	n.parts = append(n.Parts(), base)
	return nil
}

// RemoveBaseName drops the last part. It reports false on the root.
func (n *KeyName) RemoveBaseName() bool {
	if len(n.parts) == 0 {
		return false
	}
	n.parts = append([]string(nil), n.parts[:len(n.parts)-1]...)
	return true
}

// AddName appends an escaped relative path. The leading '/' is optional,
// ".." may climb into the existing parts but never above the root.
func (n *KeyName) AddName(rel string) error {
	parts, err := appendPath(n.Parts(), rel)
	if err != nil {
		return err
	}
	n.parts = parts
	return nil
}

// --------------------------------------------------------------------------
// Comparison
// --------------------------------------------------------------------------

// ComparePaths orders two names segment-wise by their parts. A name sorts
// before all of its descendants, and the namespace takes no part in it.
func ComparePaths(a, b KeyName) int {
	for i := 0; i < len(a.parts) && i < len(b.parts); i++ {
		if c := strings.Compare(a.parts[i], b.parts[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.parts) < len(b.parts):
		return -1
	case len(a.parts) > len(b.parts):
		return 1
	default:
		return 0
	}
}

// hasPrefix reports whether the parts of n start with all parts of prefix
func (n KeyName) hasPrefix(prefix KeyName) bool {
	if len(prefix.parts) > len(n.parts) {
		return false
	}
	for i, p := range prefix.parts {
		if n.parts[i] != p {
			return false
		}
	}
	return true
}
