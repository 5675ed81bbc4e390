// Package itemmeta holds the well-known metadata key table referenced by
// original_source's common.h / metadata_keys.h. spec.md treats well-known
// metadata keys as "table lookups" and excludes MIME sniffing from scope;
// this package supplies exactly the lookup table, nothing more.
package itemmeta

import "github.com/gridbox/provider/internal/item"

// Well-known metadata keys. Back-ends are not required to set any of
// these, but if they do, the value type must match ValueKind below —
// enforced by Validate, which internal/providerservice calls before an
// Item crosses the RPC boundary.
const (
	KeySizeInBytes      = "size_in_bytes"       // int64, >= 0
	KeyCreationTime     = "creation_time"       // string, ISO-8601
	KeyLastModifiedTime = "last_modified_time"  // string, ISO-8601
	KeyAll              = "__ALL__"             // sentinel: "return every key"
)

// ValueKind describes the expected Go-level representation for a
// recognized metadata key.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
)

var wellKnown = map[string]ValueKind{
	KeySizeInBytes:      KindInt,
	KeyCreationTime:     KindString,
	KeyLastModifiedTime: KindString,
}

// Validate checks that every recognized key in md carries a value of the
// expected kind. Unrecognized keys are passed through unchecked — back-ends
// are free to attach provider-specific metadata.
func Validate(md map[string]item.MetadataValue) error {
	for key, kind := range wellKnown {
		v, ok := md[key]
		if !ok {
			continue
		}
		switch kind {
		case KindInt:
			if !v.IsInt {
				return &kindMismatchError{key: key, want: "int64"}
			}
			if key == KeySizeInBytes && v.Int < 0 {
				return &kindMismatchError{key: key, want: "non-negative int64"}
			}
		case KindString:
			if v.IsInt {
				return &kindMismatchError{key: key, want: "string"}
			}
		}
	}
	return nil
}

type kindMismatchError struct {
	key  string
	want string
}

func (e *kindMismatchError) Error() string {
	return "itemmeta: key " + e.key + " must be " + e.want
}
