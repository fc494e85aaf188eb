package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
)

type pairKey struct {
	a, b domain.UserID
}

func pairOf(x, y domain.UserID) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

type bufferedFrame struct {
	to    domain.UserID
	frame core.Frame
}

type callEntry struct {
	call       *domain.Call
	ringTimer  *time.Timer
	pendingICE []bufferedFrame
}

// CallCoordinator owns the lifecycle state machine for every call. It is a
// pure router: it forwards SDP and ICE payloads verbatim between exactly the
// two registered parties and rejects everything out of state or from the
// wrong identity. It holds no media.
type CallCoordinator struct {
	registry    *Registry
	router      *Router
	ringTimeout time.Duration

	mu    sync.Mutex
	calls map[domain.CallID]*callEntry
	pairs map[pairKey]domain.CallID
}

func NewCallCoordinator(registry *Registry, router *Router, ringTimeout time.Duration) *CallCoordinator {
	return &CallCoordinator{
		registry:    registry,
		router:      router,
		ringTimeout: ringTimeout,
		calls:       make(map[domain.CallID]*callEntry),
		pairs:       make(map[pairKey]domain.CallID),
	}
}

// Initiate creates a call in Ringing and notifies the callee. The call id is
// client-generated; a duplicate id or a second non-terminal call for the
// same pair is rejected rather than collapsed.
func (cc *CallCoordinator) Initiate(id domain.CallID, caller, callee domain.UserID, kind domain.CallKind) error {
	if caller == callee {
		return core.ErrInvalidCallTransition
	}
	if !cc.registry.IsOnline(callee) {
		return core.ErrCalleeUnreachable
	}

	cc.mu.Lock()
	if _, dup := cc.calls[id]; dup {
		cc.mu.Unlock()
		return core.ErrInvalidCallTransition
	}
	if _, busy := cc.pairs[pairOf(caller, callee)]; busy {
		cc.mu.Unlock()
		return core.ErrCallInProgress
	}
	e := &callEntry{
		call: &domain.Call{
			ID:        id,
			Caller:    caller,
			Callee:    callee,
			Kind:      kind,
			State:     domain.CallRinging,
			CreatedAt: time.Now(),
		},
	}
	e.ringTimer = time.AfterFunc(cc.ringTimeout, func() { cc.onRingTimeout(id) })
	cc.calls[id] = e
	cc.pairs[pairOf(caller, callee)] = id
	cc.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("caller", string(caller)).Str("callee", string(callee)).Str("kind", string(kind)).Msg("call initiated")

	err := cc.router.SendJSON(callee, protocol.IncomingCall{
		Type:     protocol.TypeIncomingCall,
		CallID:   string(id),
		CallerID: string(caller),
		CallType: string(kind),
	})
	if err != nil {
		// Callee vanished between the online check and delivery.
		cc.remove(id)
		return core.ErrCalleeUnreachable
	}
	return nil
}

// Accept moves Ringing to Connecting. Only the designated callee may accept.
// Candidates buffered while ringing are flushed afterwards.
func (cc *CallCoordinator) Accept(id domain.CallID, by domain.UserID) error {
	cc.mu.Lock()
	e, ok := cc.calls[id]
	if !ok || by != e.call.Callee || e.call.State != domain.CallRinging {
		cc.mu.Unlock()
		return core.ErrInvalidCallTransition
	}
	e.ringTimer.Stop()
	e.call.State = domain.CallConnecting
	pending := e.pendingICE
	e.pendingICE = nil
	caller := e.call.Caller
	cc.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(id)).Msg("call accepted")
	_ = cc.router.SendJSON(caller, protocol.CallControl{Type: protocol.TypeCallAccepted, CallID: string(id)})
	for _, p := range pending {
		_ = cc.router.SendFrame(p.to, p.frame)
	}
	return nil
}

// Reject is terminal; only the designated callee may reject.
func (cc *CallCoordinator) Reject(id domain.CallID, by domain.UserID) error {
	cc.mu.Lock()
	e, ok := cc.calls[id]
	if !ok || by != e.call.Callee || e.call.State != domain.CallRinging {
		cc.mu.Unlock()
		return core.ErrInvalidCallTransition
	}
	e.call.State = domain.CallRejected
	caller := e.call.Caller
	cc.removeLocked(id, e)
	cc.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(id)).Msg("call rejected")
	_ = cc.router.SendJSON(caller, protocol.CallControl{Type: protocol.TypeCallRejected, CallID: string(id)})
	return nil
}

// End terminates a non-terminal call from either party. This also covers a
// caller cancelling its own ring; the counterpart is always notified.
func (cc *CallCoordinator) End(id domain.CallID, by domain.UserID) error {
	cc.mu.Lock()
	e, ok := cc.calls[id]
	if !ok || !e.call.Party(by) || e.call.State.Terminal() {
		cc.mu.Unlock()
		return core.ErrInvalidCallTransition
	}
	e.call.State = domain.CallEnded
	other := e.call.Counterpart(by)
	cc.removeLocked(id, e)
	cc.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("by", string(by)).Msg("call ended")
	_ = cc.router.SendJSON(other, protocol.CallControl{Type: protocol.TypeCallEnded, CallID: string(id)})
	return nil
}

// Offer forwards a caller's SDP offer verbatim to the callee. Offers are
// only valid while Connecting.
func (cc *CallCoordinator) Offer(id domain.CallID, from domain.UserID, frame core.Frame) error {
	cc.mu.Lock()
	e, ok := cc.calls[id]
	if !ok || from != e.call.Caller || e.call.State != domain.CallConnecting {
		cc.mu.Unlock()
		return core.ErrInvalidCallTransition
	}
	callee := e.call.Callee
	cc.mu.Unlock()
	return cc.router.SendFrame(callee, frame)
}

// Answer forwards the callee's SDP answer verbatim to the caller and moves
// the call to Connected.
func (cc *CallCoordinator) Answer(id domain.CallID, from domain.UserID, frame core.Frame) error {
	cc.mu.Lock()
	e, ok := cc.calls[id]
	if !ok || from != e.call.Callee || e.call.State != domain.CallConnecting {
		cc.mu.Unlock()
		return core.ErrInvalidCallTransition
	}
	e.call.State = domain.CallConnected
	caller := e.call.Caller
	cc.mu.Unlock()
	return cc.router.SendFrame(caller, frame)
}

// ICECandidate forwards a candidate verbatim to the other party. While the
// call is still ringing the counterpart has not completed accept, so the
// candidate is buffered and flushed on Accept.
func (cc *CallCoordinator) ICECandidate(id domain.CallID, from domain.UserID, frame core.Frame) error {
	cc.mu.Lock()
	e, ok := cc.calls[id]
	if !ok || !e.call.Party(from) || e.call.State.Terminal() {
		cc.mu.Unlock()
		return core.ErrInvalidCallTransition
	}
	to := e.call.Counterpart(from)
	if e.call.State == domain.CallRinging {
		e.pendingICE = append(e.pendingICE, bufferedFrame{to: to, frame: frame})
		cc.mu.Unlock()
		return nil
	}
	cc.mu.Unlock()
	return cc.router.SendFrame(to, frame)
}

// EndAllFor force-terminates every non-terminal call the identity is part
// of; the registry cascade calls this when a party disconnects. The
// remaining party, if still connected, receives call_ended.
func (cc *CallCoordinator) EndAllFor(uid domain.UserID) {
	cc.mu.Lock()
	type notice struct {
		id    domain.CallID
		other domain.UserID
	}
	var notify []notice
	for id, e := range cc.calls {
		if !e.call.Party(uid) || e.call.State.Terminal() {
			continue
		}
		e.call.State = domain.CallEnded
		notify = append(notify, notice{id: id, other: e.call.Counterpart(uid)})
		cc.removeLocked(id, e)
	}
	cc.mu.Unlock()

	for _, n := range notify {
		log.Info().Str("module", "app.calls").Str("call", string(n.id)).Str("user", string(uid)).Msg("call ended by disconnect")
		_ = cc.router.SendJSON(n.other, protocol.CallControl{Type: protocol.TypeCallEnded, CallID: string(n.id)})
	}
}

// Lookup returns a snapshot of a live call, mainly for tests and the REST
// surface.
func (cc *CallCoordinator) Lookup(id domain.CallID) (domain.Call, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	e, ok := cc.calls[id]
	if !ok {
		return domain.Call{}, false
	}
	return *e.call, true
}

func (cc *CallCoordinator) onRingTimeout(id domain.CallID) {
	cc.mu.Lock()
	e, ok := cc.calls[id]
	if !ok || e.call.State != domain.CallRinging {
		cc.mu.Unlock()
		return
	}
	e.call.State = domain.CallTimedOut
	caller, callee := e.call.Caller, e.call.Callee
	cc.removeLocked(id, e)
	cc.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(id)).Msg("call timed out")
	// The caller sees a missed call; the callee's ring UI is told to stop.
	_ = cc.router.SendJSON(caller, protocol.CallControl{Type: protocol.TypeCallTimeout, CallID: string(id)})
	_ = cc.router.SendJSON(callee, protocol.CallControl{Type: protocol.TypeCallEnded, CallID: string(id)})
}

func (cc *CallCoordinator) remove(id domain.CallID) {
	cc.mu.Lock()
	if e, ok := cc.calls[id]; ok {
		cc.removeLocked(id, e)
	}
	cc.mu.Unlock()
}

// removeLocked drops a call that reached a terminal state. Any later frame
// for the id fails the lookup and comes back as an invalid transition, so a
// terminal call can never regress.
func (cc *CallCoordinator) removeLocked(id domain.CallID, e *callEntry) {
	e.ringTimer.Stop()
	delete(cc.calls, id)
	delete(cc.pairs, pairOf(e.call.Caller, e.call.Callee))
}
