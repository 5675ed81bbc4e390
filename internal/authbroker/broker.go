// Package authbroker defines the boundary between the core and the
// authentication broker named in spec.md section 1's non-goals: "the core
// does not itself store credentials; it calls out to an authentication
// broker." This runtime never parses, stores, or validates a password, an
// OAuth1 token, or an OAuth2 token itself — it asks Broker for an Account
// list at startup and for fresh Credentials when a back-end reports
// Unauthorized, the way server/internal/auth separates token issuance from
// the rest of the teacher's API surface.
package authbroker

import (
	"context"
	"errors"

	"github.com/gridbox/provider/internal/item"
)

// Sentinel errors a Broker implementation should return via errors.Is.
var (
	// ErrUnavailable means the broker could not be reached at all. Per
	// spec.md section 7, it makes Server startup fatal (RESOURCE). Server.Run
	// does not single it out: any ListAccounts error, and any account that
	// fails to bind, ends startup; no account is skipped.
	ErrUnavailable = errors.New("authbroker: broker unavailable")

	// ErrAccountNotFound means the requested account id has no broker entry.
	ErrAccountNotFound = errors.New("authbroker: account not found")

	// ErrReauthRequired means the broker holds no usable credentials for the
	// account and interactive reauthentication is needed before any
	// Provider call can succeed.
	ErrReauthRequired = errors.New("authbroker: reauthentication required")
)

// Account describes one broker-managed account available to this runtime.
type Account struct {
	AccountID   string
	ProviderID  string
	DisplayName string
}

// Broker is the client-side contract for the external authentication
// broker. Implementations may talk to a local daemon, a REST service, or
// (in tests) an in-memory fixture — the core is agnostic.
type Broker interface {
	// ListAccounts enumerates every account the broker currently manages.
	// Called at Server startup (spec.md section 4.10), where a failure is
	// the RESOURCE-fatal broker-unavailable case; cmd/providerd also calls
	// it once beforehand to list the directories housekeeping sweeps.
	ListAccounts(ctx context.Context) ([]Account, error)

	// Credentials fetches the current credentials for accountID. Called
	// lazily by AccountSession, and again after a back-end reports
	// Unauthorized, so the broker can hand back freshly refreshed tokens.
	Credentials(ctx context.Context, accountID string) (item.Credentials, error)
}

// StaticBroker is an in-memory Broker fixture: accounts and credentials are
// fixed at construction time. It never contacts anything external, which
// makes it suitable for tests and for a single-user deployment where
// credentials are supplied once via configuration rather than through a
// running broker daemon.
type StaticBroker struct {
	accounts    []Account
	credentials map[string]item.Credentials
}

// NewStaticBroker builds a StaticBroker from the given accounts, keyed by
// AccountID for credential lookup. Every account must have a matching entry
// in credentials or Credentials will return ErrReauthRequired for it.
func NewStaticBroker(accounts []Account, credentials map[string]item.Credentials) *StaticBroker {
	cp := make(map[string]item.Credentials, len(credentials))
	for k, v := range credentials {
		cp[k] = v
	}
	return &StaticBroker{accounts: append([]Account(nil), accounts...), credentials: cp}
}

func (b *StaticBroker) ListAccounts(ctx context.Context) ([]Account, error) {
	return append([]Account(nil), b.accounts...), nil
}

func (b *StaticBroker) Credentials(ctx context.Context, accountID string) (item.Credentials, error) {
	for _, a := range b.accounts {
		if a.AccountID == accountID {
			creds, ok := b.credentials[accountID]
			if !ok {
				return item.Credentials{}, ErrReauthRequired
			}
			return creds, nil
		}
	}
	return item.Credentials{}, ErrAccountNotFound
}
