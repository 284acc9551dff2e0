package schema

import "sync"

// FieldKind is the tag for the type of a schema field.
type FieldKind string

const (
	// KindBool is a boolean-valued field.
	KindBool FieldKind = "bool"
	// KindInt is an integer-valued field.
	KindInt FieldKind = "int"
	// KindString is a string-valued field.
	KindString FieldKind = "string"
	// KindList is an ordered-sequence field, optionally with a declared
	// element kind.
	KindList FieldKind = "list"
	// KindDict is a string-keyed mapping field.
	KindDict FieldKind = "dict"
	// KindEmbedded is a structured-document field carrying an EmbeddedType
	// tag (a label variant or sample metadata).
	KindEmbedded FieldKind = "embedded"
)

// Valid reports whether k is a recognized field kind.
func (k FieldKind) Valid() bool {
	switch k {
	case KindBool, KindInt, KindString, KindList, KindDict, KindEmbedded:
		return true
	default:
		return false
	}
}

// EmbeddedType tags the concrete document type stored in an embedded field.
// Types form a simple subtype tree registered via RegisterEmbeddedType;
// EmbeddedFields filtering matches a descriptor whose tag is the filter type
// or any of its subtypes.
type EmbeddedType string

// EmbeddedAny matches every embedded type when used as a filter.
const EmbeddedAny EmbeddedType = ""

var (
	embeddedMu      sync.RWMutex
	embeddedParents = map[EmbeddedType]EmbeddedType{}
)

// RegisterEmbeddedType declares an embedded document type and its parent
// type. Packages defining embedded documents call this from init; a root
// type registers with EmbeddedAny as its parent. Re-registration with the
// same parent is a no-op.
func RegisterEmbeddedType(t, parent EmbeddedType) {
	embeddedMu.Lock()
	defer embeddedMu.Unlock()
	embeddedParents[t] = parent
}

// IsA reports whether t is the filter type or a subtype of it. Every type
// is an EmbeddedAny.
func (t EmbeddedType) IsA(filter EmbeddedType) bool {
	if filter == EmbeddedAny {
		return true
	}

	embeddedMu.RLock()
	defer embeddedMu.RUnlock()

	for cur := t; cur != EmbeddedAny; {
		if cur == filter {
			return true
		}
		parent, ok := embeddedParents[cur]
		if !ok {
			return false
		}
		cur = parent
	}
	return false
}

// EmbeddedDocument is implemented by every structured value that may be
// stored in an embedded field (label variants, image metadata). The returned
// tag drives type inference and embedded-field filtering.
type EmbeddedDocument interface {
	EmbeddedType() EmbeddedType
}
