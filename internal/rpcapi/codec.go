// Package rpcapi defines the gRPC wire contract for ProviderService and
// RegistryService (spec.md sections 4.1 and 6). Messages are plain Go
// structs marshalled as JSON rather than protobuf: grpc-go's codec
// interface is pluggable by design (encoding.RegisterCodec keyed by
// content-subtype), and a JSON codec lets this module exercise the real
// google.golang.org/grpc transport, stats-handler, and interceptor stack
// without depending on generated protoc-gen-go code that cannot be
// compiled to verify in this environment.
package rpcapi

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// ContentSubtype is the gRPC content-subtype this codec registers under
// ("application/grpc+json" on the wire). Pass it via
// grpc.CallContentSubtype on the client and it is used automatically on
// the server once registered.
const ContentSubtype = "json"

// jsonCodec implements google.golang.org/grpc/encoding.Codec on top of
// encoding/json. Registered globally in init() — grpc-go looks codecs up
// by name, not by import, so registering is the entire integration point.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpcapi: marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpcapi: unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string { return ContentSubtype }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
