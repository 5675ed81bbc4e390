package localprovider

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/providererr"
)

// CreateFolder creates a new directory under parentID named name.
func (p *Provider) CreateFolder(ctx context.Context, pctx item.Context, parentID, name string) (item.Item, error) {
	if err := validateName(name); err != nil {
		return item.Item{}, err
	}
	dir, err := p.pathForItemID(parentID)
	if err != nil {
		return item.Item{}, err
	}
	childPath := filepath.Join(dir, name)
	if _, err := os.Stat(childPath); err == nil {
		return item.Item{}, providererr.New(providererr.KindExists, "%q already exists", name)
	}
	if err := os.Mkdir(childPath, 0o755); err != nil {
		return item.Item{}, providererr.Resource(0, "mkdir %q: %v", childPath, err)
	}
	info, err := os.Stat(childPath)
	if err != nil {
		return item.Item{}, providererr.Resource(0, "stat new folder: %v", err)
	}
	return p.itemForEntry(childPath, info, parentID), nil
}

// CreateFile opens a new upload for parentID/name. It returns an
// item.UploadSink; internal/providerservice wraps it in a
// jobs.TempfileUploadJob that owns draining the transfer stream.
func (p *Provider) CreateFile(ctx context.Context, pctx item.Context, parentID, name string, size int64, contentType string, allowOverwrite bool) (item.UploadSink, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if size < -1 {
		return nil, providererr.New(providererr.KindInvalidArgument, "size must be >= -1, got %d", size)
	}
	dir, err := p.pathForItemID(parentID)
	if err != nil {
		return nil, err
	}
	destPath := filepath.Join(dir, name)
	if !allowOverwrite {
		if _, err := os.Stat(destPath); err == nil {
			return nil, providererr.New(providererr.KindExists, "%q already exists", name)
		}
	}
	return &uploadSink{provider: p, destPath: destPath, parentID: parentID}, nil
}

// Update opens an upload that replaces itemID's content. An empty oldETag
// disables conflict detection.
func (p *Provider) Update(ctx context.Context, pctx item.Context, itemID string, size int64, oldETag string) (item.UploadSink, error) {
	if size < -1 {
		return nil, providererr.New(providererr.KindInvalidArgument, "size must be >= -1, got %d", size)
	}
	destPath, err := p.pathForItemID(itemID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(destPath); err != nil {
		if os.IsNotExist(err) {
			return nil, providererr.New(providererr.KindNotExists, "item %q not found", itemID)
		}
		return nil, providererr.Resource(0, "stat %q: %v", destPath, err)
	}
	return &uploadSink{provider: p, destPath: destPath, parentID: p.itemIDForPath(filepath.Dir(destPath)), oldETag: oldETag}, nil
}

// Delete removes itemID. Root deletion always fails.
func (p *Provider) Delete(ctx context.Context, pctx item.Context, itemID string) error {
	path, err := p.pathForItemID(itemID)
	if err != nil {
		return err
	}
	if path == p.root {
		return providererr.New(providererr.KindPermissionDenied, "cannot delete root")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return providererr.New(providererr.KindNotExists, "item %q not found", itemID)
		}
		return providererr.Resource(0, "stat %q: %v", path, err)
	}
	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return providererr.Resource(0, "delete %q: %v", path, err)
	}
	return nil
}

// Move relocates itemID to newParentID under newName. Same-parent rename is
// permitted.
func (p *Provider) Move(ctx context.Context, pctx item.Context, itemID, newParentID, newName string) (item.Item, error) {
	return p.relocate(ctx, itemID, newParentID, newName, true)
}

// Copy duplicates itemID into newParentID as newName.
func (p *Provider) Copy(ctx context.Context, pctx item.Context, itemID, newParentID, newName string) (item.Item, error) {
	return p.relocate(ctx, itemID, newParentID, newName, false)
}

func (p *Provider) relocate(ctx context.Context, itemID, newParentID, newName string, move bool) (item.Item, error) {
	if err := validateName(newName); err != nil {
		return item.Item{}, err
	}
	srcPath, err := p.pathForItemID(itemID)
	if err != nil {
		return item.Item{}, err
	}
	if srcPath == p.root {
		return item.Item{}, providererr.New(providererr.KindPermissionDenied, "cannot relocate root")
	}
	destDir, err := p.pathForItemID(newParentID)
	if err != nil {
		return item.Item{}, err
	}
	destPath := filepath.Join(destDir, newName)

	if isDescendant(srcPath, destDir) {
		return item.Item{}, providererr.New(providererr.KindInvalidArgument, "cannot relocate %q into its own descendant", itemID)
	}
	if _, err := os.Stat(destPath); err == nil {
		return item.Item{}, providererr.New(providererr.KindExists, "%q already exists", newName)
	}

	if move {
		if err := os.Rename(srcPath, destPath); err != nil {
			return item.Item{}, providererr.Resource(0, "rename %q -> %q: %v", srcPath, destPath, err)
		}
	} else {
		info, err := os.Stat(srcPath)
		if err != nil {
			return item.Item{}, providererr.Resource(0, "stat %q: %v", srcPath, err)
		}
		if info.IsDir() {
			if err := copyDir(srcPath, destPath); err != nil {
				return item.Item{}, providererr.Resource(0, "copy %q -> %q: %v", srcPath, destPath, err)
			}
		} else {
			if err := copyFile(srcPath, destPath, info.Mode()); err != nil {
				return item.Item{}, providererr.Resource(0, "copy %q -> %q: %v", srcPath, destPath, err)
			}
		}
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return item.Item{}, providererr.Resource(0, "stat relocated entry: %v", err)
	}
	return p.itemForEntry(destPath, info, newParentID), nil
}
