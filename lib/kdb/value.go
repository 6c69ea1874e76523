package kdb

// ValueKind is the explicit tag of a Value
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueText
	ValueBinary
)

// String returns the name of the kind
func (k ValueKind) String() string {
	switch k {
	case ValueText:
		return "text"
	case ValueBinary:
		return "binary"
	default:
		return "none"
	}
}

// Value is the optional payload of a key. Text and binary values are kept
// apart by their kind, never by inspecting the bytes.
// The zero Value holds nothing.
type Value struct {
	kind ValueKind
	data []byte
}

// TextValue creates a text value
func TextValue(s string) Value {
	return Value{kind: ValueText, data: []byte(s)}
}

// BinaryValue creates a binary value holding a copy of b. A nil b is an empty binary value.
func BinaryValue(b []byte) Value {
	return Value{kind: ValueBinary, data: append([]byte{}, b...)}
}

// Kind returns the tag
func (v Value) Kind() ValueKind { return v.kind }

// IsNone reports whether the value is absent
func (v Value) IsNone() bool { return v.kind == ValueNone }

// IsText reports whether the value is text
func (v Value) IsText() bool { return v.kind == ValueText }

// IsBinary reports whether the value is binary
func (v Value) IsBinary() bool { return v.kind == ValueBinary }

// Bytes returns a copy of the payload without any terminator
func (v Value) Bytes() []byte {
	if v.kind == ValueNone {
		return nil
	}
	return append([]byte{}, v.data...)
}

// String returns the payload as a string. Binary payloads are returned as is.
func (v Value) String() string {
	return string(v.data)
}

// Len returns the number of payload bytes
func (v Value) Len() int { return len(v.data) }

// Size returns the size the value occupies in foreign memory:
// text is NUL-terminated, binary is exactly its length, no value is 0.
func (v Value) Size() int {
	switch v.kind {
	case ValueText:
		return len(v.data) + 1
	case ValueBinary:
		return len(v.data)
	default:
		return 0
	}
}

// Equal compares kind and payload
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && string(v.data) == string(o.data)
}

// Clone returns a copy that shares no memory with v
func (v Value) Clone() Value {
	if v.kind == ValueNone {
		return Value{}
	}
	return Value{kind: v.kind, data: append([]byte{}, v.data...)}
}
