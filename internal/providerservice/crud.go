package providerservice

import (
	"context"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/rpcapi"
)

func (s *Server) Roots(ctx context.Context, req *rpcapi.RootsRequest) (*rpcapi.RootsResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	items, err := runSync(s, func() ([]item.Item, error) {
		return s.session.Provider.Roots(ctx, pctx)
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	if err := validateItems(items); err != nil {
		return nil, statusFromErr(err)
	}

	resp := &rpcapi.RootsResponse{Items: make([]rpcapi.Item, len(items))}
	for i, it := range items {
		resp.Items[i] = rpcapi.FromItem(it)
	}
	return resp, nil
}

func (s *Server) List(ctx context.Context, req *rpcapi.ListRequest) (*rpcapi.ListResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	type page struct {
		items []item.Item
		next  item.PageToken
	}
	p, err := runSync(s, func() (page, error) {
		items, next, err := s.session.Provider.List(ctx, pctx, req.ItemID, item.PageToken(req.PageToken))
		return page{items, next}, err
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	if err := validateItems(p.items); err != nil {
		return nil, statusFromErr(err)
	}

	resp := &rpcapi.ListResponse{Items: make([]rpcapi.Item, len(p.items)), NextPageToken: string(p.next)}
	for i, it := range p.items {
		resp.Items[i] = rpcapi.FromItem(it)
	}
	return resp, nil
}

func (s *Server) Lookup(ctx context.Context, req *rpcapi.LookupRequest) (*rpcapi.LookupResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	items, err := runSync(s, func() ([]item.Item, error) {
		return s.session.Provider.Lookup(ctx, pctx, req.ParentID, req.Name)
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	if err := validateItems(items); err != nil {
		return nil, statusFromErr(err)
	}

	resp := &rpcapi.LookupResponse{Items: make([]rpcapi.Item, len(items))}
	for i, it := range items {
		resp.Items[i] = rpcapi.FromItem(it)
	}
	return resp, nil
}

func (s *Server) Metadata(ctx context.Context, req *rpcapi.MetadataRequest) (*rpcapi.MetadataResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	it, err := runSync(s, func() (item.Item, error) {
		return s.session.Provider.Metadata(ctx, pctx, req.ItemID)
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	if err := validateItem(it); err != nil {
		return nil, statusFromErr(err)
	}
	return &rpcapi.MetadataResponse{Item: rpcapi.FromItem(it)}, nil
}

func (s *Server) CreateFolder(ctx context.Context, req *rpcapi.CreateFolderRequest) (*rpcapi.CreateFolderResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	it, err := runSync(s, func() (item.Item, error) {
		return s.session.Provider.CreateFolder(ctx, pctx, req.ParentID, req.Name)
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	if err := validateItem(it); err != nil {
		return nil, statusFromErr(err)
	}
	return &rpcapi.CreateFolderResponse{Item: rpcapi.FromItem(it)}, nil
}

func (s *Server) Delete(ctx context.Context, req *rpcapi.DeleteRequest) (*rpcapi.DeleteResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	_, err = runSync(s, func() (struct{}, error) {
		return struct{}{}, s.session.Provider.Delete(ctx, pctx, req.ItemID)
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	return &rpcapi.DeleteResponse{}, nil
}

func (s *Server) Move(ctx context.Context, req *rpcapi.MoveRequest) (*rpcapi.MoveResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	it, err := runSync(s, func() (item.Item, error) {
		return s.session.Provider.Move(ctx, pctx, req.ItemID, req.NewParentID, req.NewName)
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	if err := validateItem(it); err != nil {
		return nil, statusFromErr(err)
	}
	return &rpcapi.MoveResponse{Item: rpcapi.FromItem(it)}, nil
}

func (s *Server) Copy(ctx context.Context, req *rpcapi.CopyRequest) (*rpcapi.CopyResponse, error) {
	pctx, release, err := s.begin(ctx)
	defer release()
	if err != nil {
		return nil, statusFromErr(err)
	}

	it, err := runSync(s, func() (item.Item, error) {
		return s.session.Provider.Copy(ctx, pctx, req.ItemID, req.NewParentID, req.NewName)
	})
	if err != nil {
		return nil, statusFromErr(err)
	}
	if err := validateItem(it); err != nil {
		return nil, statusFromErr(err)
	}
	return &rpcapi.CopyResponse{Item: rpcapi.FromItem(it)}, nil
}
