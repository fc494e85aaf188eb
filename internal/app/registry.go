package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
)

// SessionPolicy decides what happens when an identity that already holds a
// live connection authenticates again.
type SessionPolicy string

const (
	// PolicyReplace is last-writer-wins: the old transport is closed and the
	// new one takes over. The identity never goes offline in between, so no
	// presence event is emitted.
	PolicyReplace SessionPolicy = "replace"
	// PolicyReject refuses the new connection with ErrDuplicateAuthentication.
	PolicyReject SessionPolicy = "reject"
)

// PresenceSink receives registry churn. Every unregister fires UserOffline
// here, whichever path reported the disconnect, so teardown work (presence
// fan-out, call termination) hangs off this sink rather than off callers.
type PresenceSink interface {
	UserOnline(domain.UserID)
	UserOffline(domain.UserID)
}

type connEntry struct {
	user     *domain.User
	conn     core.SignalConnection
	cancel   context.CancelFunc
	lastSeen time.Time
}

// Registry maps authenticated identities to their live transports.
// It is the single owner of connection liveness.
type Registry struct {
	mu       sync.RWMutex
	policy   SessionPolicy
	conns    map[domain.UserID]*connEntry
	presence PresenceSink
}

func NewRegistry(policy SessionPolicy) *Registry {
	if policy != PolicyReject {
		policy = PolicyReplace
	}
	return &Registry{
		policy: policy,
		conns:  make(map[domain.UserID]*connEntry),
	}
}

// SetPresenceSink wires the presence tracker after construction; the sink
// itself broadcasts through the router, which looks connections up here.
func (r *Registry) SetPresenceSink(s PresenceSink) {
	r.mu.Lock()
	r.presence = s
	r.mu.Unlock()
}

// Register admits an authenticated identity with its transport. Under
// PolicyReject a second live connection fails with ErrDuplicateAuthentication;
// under PolicyReplace the old transport is dropped without a presence event.
// onAdmit, if set, runs only after admission succeeded and before the online
// event fires, so a refused duplicate leaves no trace and the presence
// broadcast still reaches whatever onAdmit set up.
func (r *Registry) Register(user *domain.User, conn core.SignalConnection, cancel context.CancelFunc, onAdmit func()) error {
	r.mu.Lock()
	old, exists := r.conns[user.ID]
	if exists && r.policy == PolicyReject {
		r.mu.Unlock()
		log.Warn().Str("module", "app.registry").Str("user", string(user.ID)).Msg("duplicate authentication rejected")
		return core.ErrDuplicateAuthentication
	}
	r.conns[user.ID] = &connEntry{
		user:     user,
		conn:     conn,
		cancel:   cancel,
		lastSeen: time.Now(),
	}
	sink := r.presence
	r.mu.Unlock()

	if onAdmit != nil {
		onAdmit()
	}

	if exists {
		if old.cancel != nil {
			old.cancel()
		}
		old.conn.Close()
		log.Info().Str("module", "app.registry").Str("user", string(user.ID)).Msg("session replaced")
		return nil
	}

	log.Info().Str("module", "app.registry").Str("user", string(user.ID)).Msg("registered")
	if sink != nil {
		sink.UserOnline(user.ID)
	}
	return nil
}

// Unregister removes the identity's connection and emits exactly one
// offline event. It is idempotent: a stale handle (already replaced or
// already removed) is a no-op. An abrupt transport error and an explicit
// close both land here.
func (r *Registry) Unregister(id domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	e, ok := r.conns[id]
	if !ok || (conn != nil && e.conn != conn) {
		r.mu.Unlock()
		return
	}
	delete(r.conns, id)
	sink := r.presence
	r.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}
	e.conn.Close()
	log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("unregistered")
	if sink != nil {
		sink.UserOffline(id)
	}
}

// Lookup returns the live transport for an identity, if any.
func (r *Registry) Lookup(id domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

func (r *Registry) IsOnline(id domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

// Owns reports whether conn is still the live transport for id. Pumps of a
// replaced connection use this to skip the disconnect cascade.
func (r *Registry) Owns(id domain.UserID, conn core.SignalConnection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	return ok && e.conn == conn
}

// Touch records inbound activity for an identity.
func (r *Registry) Touch(id domain.UserID) {
	r.mu.Lock()
	if e, ok := r.conns[id]; ok {
		e.lastSeen = time.Now()
	}
	r.mu.Unlock()
}

func (r *Registry) User(id domain.UserID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.user, true
}
