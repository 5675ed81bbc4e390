package providerservice

import (
	"google.golang.org/grpc/codes"

	"github.com/gridbox/provider/internal/providererr"
)

// codeFor maps providererr.Kind to the gRPC status code reported to the
// peer, per spec.md section 7's wire error taxonomy.
func codeFor(err error) codes.Code {
	switch providererr.KindOf(err) {
	case providererr.KindNotExists:
		return codes.NotFound
	case providererr.KindExists:
		return codes.AlreadyExists
	case providererr.KindConflict:
		return codes.Aborted
	case providererr.KindPermissionDenied:
		return codes.PermissionDenied
	case providererr.KindQuota:
		return codes.ResourceExhausted
	case providererr.KindUnauthorized:
		return codes.Unauthenticated
	case providererr.KindInvalidArgument:
		return codes.InvalidArgument
	case providererr.KindLogicError:
		return codes.FailedPrecondition
	case providererr.KindResource:
		return codes.Internal
	case providererr.KindRemoteComms:
		return codes.Unavailable
	case providererr.KindCancelled:
		return codes.Canceled
	default:
		return codes.Unknown
	}
}
