// Package account implements AccountSession (spec.md section 3): the
// (Provider back-end, user-account) pair that a RequestHandler invokes
// through. Everything an incoming call needs to reach a back-end method —
// credentials, the peer cache, the inactivity timer, the job registry — is
// reached through one AccountSession.
package account

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/authbroker"
	"github.com/gridbox/provider/internal/inactivity"
	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/jobs"
	"github.com/gridbox/provider/internal/peercache"
)

// Session is a (Provider back-end, user account) pair, created once per
// enumerated account at Server startup and held for the process lifetime.
type Session struct {
	AccountID string
	Provider  item.Provider

	broker authbroker.Broker
	logger *zap.Logger

	PeerCache *peercache.Cache
	Idle      *inactivity.Timer
	Jobs      *jobs.Registry

	mu          sync.RWMutex
	credentials item.Credentials
	credsLoaded bool
}

// New builds a Session. The peer cache lookup function, idle timeout, and
// disconnect-cancellation wiring are the caller's (Server's) responsibility
// to supply — Session only holds the resulting components.
func New(accountID string, provider item.Provider, broker authbroker.Broker, peerCache *peercache.Cache, idle *inactivity.Timer, logger *zap.Logger) *Session {
	l := logger.Named("account").With(zap.String("account_id", accountID))
	return &Session{
		AccountID: accountID,
		Provider:  provider,
		broker:    broker,
		logger:    l,
		PeerCache: peerCache,
		Idle:      idle,
		Jobs:      jobs.NewRegistry(l),
	}
}

// Credentials returns the cached credentials, fetching them from the broker
// on first use or after Invalidate. Per spec.md section 5's "not cached
// across authentication refreshes" policy, a caller that observes an
// Unauthorized error from the back-end should call Invalidate before
// retrying so the next Credentials call re-fetches.
func (s *Session) Credentials(ctx context.Context) (item.Credentials, error) {
	s.mu.RLock()
	if s.credsLoaded {
		defer s.mu.RUnlock()
		return s.credentials, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credsLoaded {
		return s.credentials, nil
	}
	creds, err := s.broker.Credentials(ctx, s.AccountID)
	if err != nil {
		return item.Credentials{}, err
	}
	s.credentials = creds
	s.credsLoaded = true
	return creds, nil
}

// Invalidate drops any cached credentials, forcing the next Credentials
// call to re-fetch from the broker.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credsLoaded = false
	s.credentials = item.Credentials{}
}
