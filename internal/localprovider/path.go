package localprovider

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gridbox/provider/internal/providererr"
)

// validateName enforces spec.md section 4.9's name-safety rule: names
// containing '/' or equal to "." or ".." are rejected. Leading-dot (hidden)
// names are passed through.
func validateName(name string) error {
	if name == "" {
		return providererr.New(providererr.KindInvalidArgument, "name must not be empty")
	}
	if strings.Contains(name, "/") {
		return providererr.New(providererr.KindInvalidArgument, "name %q must not contain '/'", name)
	}
	if name == "." || name == ".." {
		return providererr.New(providererr.KindInvalidArgument, "name %q is reserved", name)
	}
	return nil
}

// itemIDForPath is the Item.ItemID for a filesystem entry: its canonical
// absolute path, per spec.md section 4.9's "Identity" rule.
func (p *Provider) itemIDForPath(path string) string {
	return path
}

// pathForItemID is the inverse of itemIDForPath, with a containment check:
// an itemID that resolves outside the provider's root (e.g. via a crafted
// "../" id) is rejected as NotExists rather than followed.
func (p *Provider) pathForItemID(itemID string) (string, error) {
	clean := filepath.Clean(itemID)
	if clean != p.root && !strings.HasPrefix(clean, p.root+string(filepath.Separator)) {
		return "", providererr.New(providererr.KindNotExists, "item %q not found", itemID)
	}
	return clean, nil
}

// isReserved reports whether path is, or is inside, the server-owned
// reserved temp directory — such entries are never surfaced in listings.
func (p *Provider) isReserved(path string) bool {
	return path == p.reserved || strings.HasPrefix(path, p.reserved+string(filepath.Separator))
}

// etagForInfo derives the opaque ETag for a filesystem entry: its
// last-modification time, per spec.md section 4.9. Folders have an empty
// ETag.
func etagForInfo(info os.FileInfo) string {
	if info.IsDir() {
		return ""
	}
	return strconv.FormatInt(info.ModTime().UnixNano(), 10)
}

// isDescendant reports whether candidate is path itself or nested under
// it — used by Move/Copy's recursion guard (spec.md section 4.9: "a
// recursion guard prevents a folder being copied into its own
// descendant").
func isDescendant(path, candidate string) bool {
	if candidate == path {
		return true
	}
	return strings.HasPrefix(candidate, path+string(filepath.Separator))
}
