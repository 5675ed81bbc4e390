package registrystore

import (
	"context"

	"github.com/gridbox/provider/internal/rpcapi"
)

// Service implements rpcapi.RegistryServiceServer directly over a Store.
// Per spec.md section 6, Registry is a lookup service only — it never
// routes a ProviderService call, so there is nothing here beyond List.
type Service struct {
	rpcapi.UnimplementedRegistryServiceServer
	store *Store
}

// NewService builds a Service over store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, _ *rpcapi.RegistryListRequest) (*rpcapi.RegistryListResponse, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return &rpcapi.RegistryListResponse{Accounts: accounts}, nil
}
