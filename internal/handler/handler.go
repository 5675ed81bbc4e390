// Package handler implements RequestHandler (spec.md section 4.2): the
// per-call pipeline Created -> AwaitingCredentials -> AwaitingProvider ->
// Replying -> Done. As SPEC_FULL.md notes, Go's defer already gives the
// "guaranteed release on all exit paths" spec.md section 9 calls for, so
// the state enum collapses into straight-line control flow rather than a
// state-machine type — Begin plus its deferred release is the whole pipeline.
package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/gridbox/provider/internal/inactivity"
	"github.com/gridbox/provider/internal/item"
	"github.com/gridbox/provider/internal/peercache"
	"github.com/gridbox/provider/internal/providererr"
)

// Handler runs the per-call pipeline for one AccountSession. It is stateless
// and safe to share across concurrent calls; all call-scoped state lives on
// the stack of Begin's caller.
type Handler struct {
	PeerCache *peercache.Cache
	Idle      *inactivity.Timer
	Logger    *zap.Logger
}

// New builds a Handler bound to the given peer cache and inactivity timer.
func New(peerCache *peercache.Cache, idle *inactivity.Timer, logger *zap.Logger) *Handler {
	return &Handler{PeerCache: peerCache, Idle: idle, Logger: logger.Named("handler")}
}

// Begin starts the pipeline for one call: it acquires the inactivity timer
// slot and resolves the peer's credentials. The caller MUST invoke the
// returned release func exactly once, on every exit path (success or
// error) — pair it with defer immediately, per spec.md section 9's scoped
// activity-counting contract.
//
// A credential-lookup failure short-circuits with a Resource-kind error,
// matching spec.md section 4.2's AwaitingCredentials failure path; the
// caller should map it straight to a reply without invoking the provider.
func (h *Handler) Begin(ctx context.Context, peerID string, credentials item.Credentials) (pctx item.Context, release func(), err error) {
	h.Idle.RequestStarted()
	release = h.Idle.RequestFinished

	peer, err := h.PeerCache.Get(ctx, peerID)
	if err != nil {
		h.Logger.Warn("credential lookup failed", zap.String("peer_id", peerID), zap.Error(err))
		return item.Context{}, release, providererr.New(providererr.KindResource, "peer credential lookup failed: %v", err)
	}

	return item.Context{Peer: peer, Credentials: credentials}, release, nil
}
