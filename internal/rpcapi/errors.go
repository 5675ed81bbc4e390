package rpcapi

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func grpcUnimplemented(fullMethod string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", fullMethod)
}
