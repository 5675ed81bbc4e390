package localprovider

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/providererr"
)

// uploadSink is the item.UploadSink LocalProvider hands back from
// CreateFile/Update. It implements spec.md section 4.9's atomic-update
// rule: the already-drained temp file (owned by jobs.TempfileUploadJob
// until this point) is materialized over destPath via linkat, falling back
// to rename, with an mtime-based conflict check when oldETag is set.
type uploadSink struct {
	provider *Provider
	destPath string
	parentID string
	oldETag  string
}

// FinalizeUpload materializes tmpPath over destPath. If oldETag was set at
// Update time, the destination's current mtime is compared first and a
// Conflict error is raised on mismatch, leaving the destination untouched.
func (s *uploadSink) FinalizeUpload(ctx context.Context, tmpPath string) (item.Item, error) {
	if s.oldETag != "" {
		info, err := os.Stat(s.destPath)
		if err != nil {
			return item.Item{}, providererr.Resource(0, "stat %q: %v", s.destPath, err)
		}
		if etagForInfo(info) != s.oldETag {
			return item.Item{}, providererr.New(providererr.KindConflict, "%q was modified since etag %q was observed", s.destPath, s.oldETag)
		}
	}

	// Captured before materialize so that an ENOENT-of-dest right after a
	// successful linkat (spec.md section 4.9: "the operation is considered
	// complete") still has something to build the returned Item from.
	preInfo, err := os.Stat(tmpPath)
	if err != nil {
		return item.Item{}, providererr.Resource(0, "stat %q: %v", tmpPath, err)
	}

	if err := s.materialize(tmpPath); err != nil {
		return item.Item{}, providererr.Resource(0, "materializing %q: %v", s.destPath, err)
	}

	info, err := os.Stat(s.destPath)
	if err != nil {
		if os.IsNotExist(err) {
			return s.provider.itemForEntry(s.destPath, preInfo, s.parentID), nil
		}
		return item.Item{}, providererr.Resource(0, "stat finalized upload: %v", err)
	}
	return s.provider.itemForEntry(s.destPath, info, s.parentID), nil
}

// materialize replaces destPath with the content at tmpPath, preferring
// linkat (atomic, no window where destPath is missing) and falling back to
// rename. destPath is never pre-removed: linkat is attempted directly and,
// if destPath already exists (EEXIST), tmpPath is linked to a fresh sibling
// name next to destPath and that sibling is renamed over destPath — rename
// is the atomic replace step, never a Remove followed by a link.
func (s *uploadSink) materialize(tmpPath string) error {
	err := unix.Linkat(unix.AT_FDCWD, tmpPath, unix.AT_FDCWD, s.destPath, 0)
	if err == nil {
		os.Remove(tmpPath)
		return nil
	}
	if errors.Is(err, unix.EEXIST) {
		return s.replaceViaSibling(tmpPath)
	}
	if !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EXDEV) && !errors.Is(err, unix.EPERM) && !errors.Is(err, unix.EOPNOTSUPP) {
		return err
	}
	// linkat unsupported (EXDEV across filesystems, EPERM/EOPNOTSUPP on
	// filesystems that disallow hardlinks) or the destination vanished
	// mid-link — fall back to rename, which is still atomic on a single
	// filesystem.
	return os.Rename(tmpPath, s.destPath)
}

// replaceViaSibling materializes tmpPath over an already-existing destPath.
// linkat cannot overwrite, so tmpPath is linked to a fresh sibling name in
// destPath's directory first; the sibling is then renamed over destPath,
// which is the operation that actually provides atomic replace.
func (s *uploadSink) replaceViaSibling(tmpPath string) error {
	siblingFile, err := os.CreateTemp(filepath.Dir(s.destPath), ".gridbox-replace-*")
	if err != nil {
		return err
	}
	sibling := siblingFile.Name()
	siblingFile.Close()
	os.Remove(sibling)

	if err := unix.Linkat(unix.AT_FDCWD, tmpPath, unix.AT_FDCWD, sibling, 0); err != nil {
		if errors.Is(err, unix.EXDEV) || errors.Is(err, unix.EPERM) || errors.Is(err, unix.EOPNOTSUPP) {
			return os.Rename(tmpPath, s.destPath)
		}
		return err
	}
	os.Remove(tmpPath)
	if err := os.Rename(sibling, s.destPath); err != nil {
		os.Remove(sibling)
		return err
	}
	return nil
}

// AbortUpload discards the in-flight temp file; tmpPath may already be
// gone if the job never started draining.
func (s *uploadSink) AbortUpload(ctx context.Context, tmpPath string) {
	_ = os.Remove(tmpPath)
}
