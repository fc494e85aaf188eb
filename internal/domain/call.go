package domain

import (
	"errors"
	"time"
)

type CallID string

// CallKind is the media kind requested by the caller.
// Keep values stable because they are part of the public API.
type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

var ErrUnknownCallKind = errors.New("unknown call kind")

func ParseCallKind(s string) (CallKind, error) {
	switch CallKind(s) {
	case CallAudio, CallVideo:
		return CallKind(s), nil
	}
	return "", ErrUnknownCallKind
}

// CallState is the lifecycle state of a signaling session.
type CallState string

const (
	CallRinging    CallState = "ringing"
	CallConnecting CallState = "connecting"
	CallConnected  CallState = "connected"
	CallEnded      CallState = "ended"
	CallRejected   CallState = "rejected"
	CallTimedOut   CallState = "timed_out"
)

// Terminal reports whether no further transition is accepted.
func (s CallState) Terminal() bool {
	switch s {
	case CallEnded, CallRejected, CallTimedOut:
		return true
	}
	return false
}

// Call is a point-to-point signaling session between caller and callee.
// The coordinator arbitrates every state transition.
type Call struct {
	ID        CallID
	Caller    UserID
	Callee    UserID
	Kind      CallKind
	State     CallState
	CreatedAt time.Time
}

// Party reports whether id is the caller or the callee.
func (c *Call) Party(id UserID) bool {
	return id == c.Caller || id == c.Callee
}

// Counterpart returns the other side of the call.
func (c *Call) Counterpart(id UserID) UserID {
	if id == c.Caller {
		return c.Callee
	}
	return c.Caller
}
