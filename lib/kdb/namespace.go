package kdb

// Namespace identifies the logical root a key belongs to. The integer values
// are part of the foreign layout and must never change.
type Namespace int32

const (
	NamespaceNone Namespace = iota
	NamespaceCascading
	NamespaceMeta
	NamespaceSpec
	NamespaceProc
	NamespaceDir
	NamespaceUser
	NamespaceSystem
	NamespaceDefault
)

// namespaceTokens is indexed by the integer value of the namespace
var namespaceTokens = [...]string{
	NamespaceNone:      "none",
	NamespaceCascading: "cascading",
	NamespaceMeta:      "meta",
	NamespaceSpec:      "spec",
	NamespaceProc:      "proc",
	NamespaceDir:       "dir",
	NamespaceUser:      "user",
	NamespaceSystem:    "system",
	NamespaceDefault:   "default",
}

// Namespaces lists every namespace in integer order
func Namespaces() []Namespace {
	out := make([]Namespace, len(namespaceTokens))
	for i := range namespaceTokens {
		out[i] = Namespace(i)
	}
	return out
}

// Valid reports whether ns is one of the nine known namespaces
func (ns Namespace) Valid() bool {
	return ns >= NamespaceNone && ns <= NamespaceDefault
}

// String returns the token used in the canonical name form
func (ns Namespace) String() string {
	if !ns.Valid() {
		return "invalid"
	}
	return namespaceTokens[ns]
}

// NamespaceFromInt decodes the integer encoding. Unknown values yield NamespaceNone and false.
func NamespaceFromInt(i int) (Namespace, bool) {
	ns := Namespace(i)
	if !ns.Valid() {
		return NamespaceNone, false
	}
	return ns, true
}

// NamespaceFromToken maps a token to its namespace. Unknown tokens fall back
// to NamespaceCascading and report false; callers decide whether that is an error.
func NamespaceFromToken(token string) (Namespace, bool) {
	for i, t := range namespaceTokens {
		if t == token {
			return Namespace(i), true
		}
	}
	return NamespaceCascading, false
}
