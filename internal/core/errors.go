package core

import "errors"

// Protocol-level violations are reported back to the offending connection
// as an error frame; they never crash the hub.
var (
	ErrAuthenticationFailure   = errors.New("authentication failure")
	ErrDuplicateAuthentication = errors.New("duplicate authentication")
	ErrCalleeUnreachable       = errors.New("callee unreachable")
	ErrInvalidCallTransition   = errors.New("invalid call transition")
	ErrCallInProgress          = errors.New("call already in progress for this pair")
	ErrBackpressure            = errors.New("backpressure")
	ErrConnectionClosed        = errors.New("connection closed")
)
