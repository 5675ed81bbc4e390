// Package item defines the Item value type and the Provider contract that
// every storage back-end implements. This is the data model described in
// spec.md section 3 — a tagged item plus a common header, replacing the
// source's diamond-inherited File/Folder/Root hierarchy.
package item

import "fmt"

// Type enumerates what kind of filesystem object an Item represents.
type Type string

const (
	TypeFile   Type = "file"
	TypeFolder Type = "folder"
	TypeRoot   Type = "root"
)

// MetadataValue holds either a string or an int64, matching spec.md's
// "mapping from string key to value-of-either-string-or-int64". A tagged
// union keeps zero values unambiguous (an empty string and an unset int64
// both decode to the zero Go value, so a bool discriminant is needed).
type MetadataValue struct {
	IsInt bool
	Str   string
	Int   int64
}

func StringValue(s string) MetadataValue { return MetadataValue{Str: s} }
func IntValue(i int64) MetadataValue     { return MetadataValue{IsInt: true, Int: i} }

// Item identifies one file, folder or root within a provider.
//
// Invariant: a root has empty ParentIDs; a non-root has at least one parent
// id. Items are surfaced only across RPC replies — the runtime never holds
// one between calls (see Validate, called at every boundary crossing).
type Item struct {
	ItemID    string
	ParentIDs []string
	Name      string
	ETag      string
	Type      Type
	Metadata  map[string]MetadataValue
}

// Validate checks an Item against the validation contract in spec.md
// section 4.1: non-empty id, root/non-root parent-id shape, non-empty name,
// a known type. Metadata value-type checking against the well-known key
// table lives in internal/itemmeta, since that table is provider-facing
// and item must not import it (kept dependency-free for back-ends).
func (it Item) Validate() error {
	if it.ItemID == "" {
		return fmt.Errorf("item: empty item_id")
	}
	switch it.Type {
	case TypeFile, TypeFolder, TypeRoot:
	default:
		return fmt.Errorf("item: unknown type %q", it.Type)
	}
	if it.Type == TypeRoot {
		if len(it.ParentIDs) != 0 {
			return fmt.Errorf("item: root %q has non-empty parent_ids", it.ItemID)
		}
	} else if len(it.ParentIDs) == 0 {
		return fmt.Errorf("item: non-root %q has empty parent_ids", it.ItemID)
	}
	if it.Name == "" {
		return fmt.Errorf("item: empty name for %q", it.ItemID)
	}
	return nil
}
