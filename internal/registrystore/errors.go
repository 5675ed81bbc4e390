package registrystore

import "errors"

// ErrNotFound mirrors arkeep's repositories.ErrNotFound: returned when a
// requested account or provider row does not exist.
var ErrNotFound = errors.New("registrystore: record not found")

// ErrConflict is returned when an insert would violate a unique
// constraint (a duplicate account_id or provider_id).
var ErrConflict = errors.New("registrystore: record already exists")
