// Package providererr defines the wire-visible error taxonomy that every
// back-end exception is mapped to before it crosses the RPC boundary.
//
// Back-ends raise a *Error with one of the Kind values below;
// internal/providerservice translates it to a gRPC status before replying. Errors that are not a *Error are treated as KindUnknown and
// never attributed to the caller.
package providererr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a provider-level error. The set is closed
// and matches the wire error taxonomy exactly — adding a case here is a
// protocol change.
type Kind string

const (
	KindNotExists        Kind = "not_exists"
	KindExists           Kind = "exists"
	KindConflict         Kind = "conflict"
	KindPermissionDenied Kind = "permission_denied"
	KindQuota            Kind = "quota"
	KindUnauthorized     Kind = "unauthorized"
	KindInvalidArgument  Kind = "invalid_argument"
	KindLogicError       Kind = "logic_error"
	KindResource         Kind = "resource"
	KindRemoteComms      Kind = "remote_comms"
	KindCancelled        Kind = "cancelled"
	KindUnknown          Kind = "unknown"
)

// Error is the typed exception every Provider method and job terminator
// raises. Message is safe to show to the calling peer; Errno is only
// meaningful when Kind == KindResource.
type Error struct {
	Kind    Kind
	Message string
	Errno   int
}

func (e *Error) Error() string {
	if e.Kind == KindResource && e.Errno != 0 {
		return fmt.Sprintf("%s: %s (errno %d)", e.Kind, e.Message, e.Errno)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Resource builds a KindResource error carrying an errno-like sub-code.
func Resource(errno int, format string, args ...any) *Error {
	return &Error{Kind: KindResource, Message: fmt.Sprintf(format, args...), Errno: errno}
}

// KindOf extracts the Kind from err, defaulting to KindUnknown for any
// error that was not raised as a *Error — per spec, unclassified back-end
// exceptions are never attributed to the caller.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// Is allows errors.Is(err, providererr.New(KindNotExists, "")) style checks
// by comparing kinds only, ignoring message/errno.
func (e *Error) Is(target error) bool {
	var pe *Error
	if !errors.As(target, &pe) {
		return false
	}
	return e.Kind == pe.Kind
}
