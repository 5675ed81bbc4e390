package providerservice

import (
	"fmt"

	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/itemmeta"
	"github.com/gridbox/provider/internal/providererr"
)

// validateItem enforces spec.md section 4.1's "every Item is validated at
// the boundary" rule before one is marshalled onto the wire. A violation is
// the back-end's fault, never the caller's — it is reported as
// KindResource so it lands on codes.Internal rather than being attributed
// to the request that happened to surface it.
func validateItem(it item.Item) error {
	if err := it.Validate(); err != nil {
		return providererr.New(providererr.KindResource, "back-end returned invalid item: %v", err)
	}
	if err := itemmeta.Validate(it.Metadata); err != nil {
		return providererr.New(providererr.KindResource, "back-end returned invalid metadata: %v", err)
	}
	return nil
}

func validateItems(items []item.Item) error {
	for i, it := range items {
		if err := validateItem(it); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
