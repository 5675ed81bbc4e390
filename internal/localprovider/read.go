package localprovider

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/itemmeta"
	"github.com/gridbox/provider/internal/providererr"
)

func (p *Provider) itemForEntry(path string, info os.FileInfo, parentID string) item.Item {
	typ := item.TypeFile
	if info.IsDir() {
		typ = item.TypeFolder
	}
	it := item.Item{
		ItemID:    p.itemIDForPath(path),
		Name:      filepath.Base(path),
		ETag:      etagForInfo(info),
		Type:      typ,
		Metadata:  map[string]item.MetadataValue{},
	}
	if path != p.root {
		it.ParentIDs = []string{parentID}
	}
	if !info.IsDir() {
		it.Metadata[itemmeta.KeySizeInBytes] = item.IntValue(info.Size())
	}
	it.Metadata[itemmeta.KeyLastModifiedTime] = item.StringValue(info.ModTime().UTC().Format(time.RFC3339))
	return it
}

// Roots returns exactly one item for the provider's root directory, per
// spec.md section 8 scenario 1.
func (p *Provider) Roots(ctx context.Context, pctx item.Context) ([]item.Item, error) {
	if _, err := os.Stat(p.root); err != nil {
		return nil, providererr.Resource(0, "stat root: %v", err)
	}
	it := item.Item{
		ItemID:    p.itemIDForPath(p.root),
		ParentIDs: nil,
		Name:      filepath.Base(p.root),
		ETag:      "",
		Type:      item.TypeRoot,
		Metadata:  map[string]item.MetadataValue{},
	}
	return []item.Item{it}, nil
}

// List returns the children of itemID. Pagination is not needed for a
// local directory listing at the scale this reference back-end targets, so
// the full listing is returned in one page (empty next_page_token).
func (p *Provider) List(ctx context.Context, pctx item.Context, itemID string, pageToken item.PageToken) ([]item.Item, item.PageToken, error) {
	dir, err := p.pathForItemID(itemID)
	if err != nil {
		return nil, "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", providererr.New(providererr.KindNotExists, "item %q not found", itemID)
		}
		return nil, "", providererr.Resource(0, "reading directory: %v", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	items := make([]item.Item, 0, len(entries))
	for _, e := range entries {
		childPath := filepath.Join(dir, e.Name())
		if p.isReserved(childPath) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, p.itemForEntry(childPath, info, itemID))
	}
	return items, "", nil
}

// Lookup returns the single child of parentID named name, if any.
func (p *Provider) Lookup(ctx context.Context, pctx item.Context, parentID, name string) ([]item.Item, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	dir, err := p.pathForItemID(parentID)
	if err != nil {
		return nil, err
	}
	childPath := filepath.Join(dir, name)
	info, err := os.Stat(childPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, providererr.Resource(0, "stat %q: %v", childPath, err)
	}
	return []item.Item{p.itemForEntry(childPath, info, parentID)}, nil
}

// Metadata returns the Item for itemID.
func (p *Provider) Metadata(ctx context.Context, pctx item.Context, itemID string) (item.Item, error) {
	path, err := p.pathForItemID(itemID)
	if err != nil {
		return item.Item{}, err
	}
	if p.isReserved(path) {
		return item.Item{}, providererr.New(providererr.KindNotExists, "item %q not found", itemID)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return item.Item{}, providererr.New(providererr.KindNotExists, "item %q not found", itemID)
		}
		return item.Item{}, providererr.Resource(0, "stat %q: %v", path, err)
	}
	if path == p.root {
		roots, err := p.Roots(ctx, pctx)
		if err != nil {
			return item.Item{}, err
		}
		return roots[0], nil
	}
	parentID := p.itemIDForPath(filepath.Dir(path))
	return p.itemForEntry(path, info, parentID), nil
}
