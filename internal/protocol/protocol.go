// Package protocol defines the tagged-union wire format: JSON text frames
// with a "type" discriminator, multiplexed over one socket per client.
package protocol

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
)

// Frame type discriminators.
const (
	TypeAuthenticate  = "authenticate"
	TypeAuthenticated = "authenticated"

	TypeJoinRoom  = "join_room"
	TypeLeaveRoom = "leave_room"

	TypeSendMessage = "send_message"
	TypeNewMessage  = "new_message"

	TypeTypingStart = "typing_start"
	TypeTypingStop  = "typing_stop"

	TypeUserOnline  = "user_online"
	TypeUserOffline = "user_offline"

	TypeGroupMembersUpdated = "group_members_updated"
	TypeUserJoinedGroup     = "user_joined_group"
	TypeUserLeftGroup       = "user_left_group"

	TypeInitiateCall = "initiate_call"
	TypeIncomingCall = "incoming_call"
	TypeAcceptCall   = "accept_call"
	TypeCallAccepted = "call_accepted"
	TypeRejectCall   = "reject_call"
	TypeCallRejected = "call_rejected"
	TypeEndCall      = "end_call"
	TypeCallEnded    = "call_ended"
	TypeCallTimeout  = "call_timeout"

	TypeWebRTCOffer        = "webrtc_offer"
	TypeWebRTCAnswer       = "webrtc_answer"
	TypeWebRTCICECandidate = "webrtc_ice_candidate"

	TypePing  = "ping"
	TypePong  = "pong"
	TypeError = "error"
)

// Error codes carried by Error frames.
const (
	CodeAuthenticationFailure   = "authentication_failure"
	CodeDuplicateAuthentication = "duplicate_authentication"
	CodeCalleeUnreachable       = "callee_unreachable"
	CodeInvalidCallTransition   = "invalid_call_transition"
	CodeCallInProgress          = "call_in_progress"
	CodeRateLimited             = "rate_limited"
	CodeBadPayload              = "bad_payload"
)

// Envelope is the minimal view used to demultiplex an inbound frame.
type Envelope struct {
	Type string `json:"type"`
}

type Authenticate struct {
	Type     string   `json:"type"`
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Rooms    []string `json:"rooms"`
}

type Authenticated struct {
	Type   string   `json:"type"`
	UserID string   `json:"userId"`
	Rooms  []string `json:"rooms"`
}

type RoomRef struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type SendMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId"`
	Content    string `json:"content"`
	Sender     string `json:"sender"`
	SenderName string `json:"senderName"`
	IsGroup    bool   `json:"isGroup"`
}

type NewMessage struct {
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	Content    string    `json:"content"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"senderName"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
}

// Typing covers typing_start and typing_stop; both are relayed verbatim.
// The receiver is responsible for expiring a stale start.
type Typing struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	UserID  string `json:"userId"`
	IsGroup bool   `json:"isGroup"`
}

type Presence struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type GroupMembersUpdated struct {
	Type    string   `json:"type"`
	GroupID string   `json:"groupId"`
	Members []string `json:"members"`
}

// GroupMembership covers user_joined_group and user_left_group.
type GroupMembership struct {
	Type    string `json:"type"`
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type InitiateCall struct {
	Type     string `json:"type"`
	CallID   string `json:"callId"`
	CallerID string `json:"callerId"`
	CalleeID string `json:"calleeId"`
	CallType string `json:"callType"`
}

type IncomingCall struct {
	Type     string `json:"type"`
	CallID   string `json:"callId"`
	CallerID string `json:"callerId"`
	CallType string `json:"callType"`
}

// CallControl covers accept_call, reject_call, end_call and their
// call_accepted / call_rejected / call_ended / call_timeout counterparts.
type CallControl struct {
	Type   string `json:"type"`
	CallID string `json:"callId"`
}

type WebRTCOffer struct {
	Type   string                    `json:"type"`
	CallID string                    `json:"callId"`
	Offer  webrtc.SessionDescription `json:"offer"`
}

type WebRTCAnswer struct {
	Type   string                    `json:"type"`
	CallID string                    `json:"callId"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type WebRTCICECandidate struct {
	Type      string                  `json:"type"`
	CallID    string                  `json:"callId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Marshal encodes any frame struct for the wire.
func Marshal(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}

// MustMarshal is for frames built entirely from our own types, where a
// marshal failure is a programming error.
func MustMarshal(v any) core.Frame {
	f, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return f
}

// ErrorFrame maps a hub error onto the wire taxonomy.
func ErrorFrame(err error) Error {
	code := CodeBadPayload
	switch {
	case errors.Is(err, core.ErrAuthenticationFailure):
		code = CodeAuthenticationFailure
	case errors.Is(err, core.ErrDuplicateAuthentication):
		code = CodeDuplicateAuthentication
	case errors.Is(err, core.ErrCalleeUnreachable):
		code = CodeCalleeUnreachable
	case errors.Is(err, core.ErrInvalidCallTransition):
		code = CodeInvalidCallTransition
	case errors.Is(err, core.ErrCallInProgress):
		code = CodeCallInProgress
	}
	return Error{Type: TypeError, Code: code, Message: err.Error()}
}

// NewMessageFrame builds the broadcast counterpart of a relayed message.
func NewMessageFrame(m *domain.Message) NewMessage {
	return NewMessage{
		Type:       TypeNewMessage,
		ID:         m.ID,
		RoomID:     string(m.RoomID),
		Content:    m.Content,
		Sender:     string(m.Sender),
		SenderName: m.SenderName,
		Timestamp:  m.Timestamp,
		Status:     m.Status,
	}
}
