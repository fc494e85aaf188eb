package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
)

func (ctl *Controller) handleInitiateCall(uid domain.UserID, conn *WsConn, data []byte) {
	var p protocol.InitiateCall
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" || p.CalleeID == "" {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	if p.CallerID != "" && p.CallerID != string(uid) {
		ctl.sendErr(conn, core.ErrInvalidCallTransition)
		return
	}
	kind, err := domain.ParseCallKind(p.CallType)
	if err != nil {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	if err := ctl.Orch.Calls.Initiate(domain.CallID(p.CallID), uid, domain.UserID(p.CalleeID), kind); err != nil {
		ctl.sendErr(conn, err)
	}
}

func (ctl *Controller) handleCallControl(uid domain.UserID, conn *WsConn, typ string, data []byte) {
	var p protocol.CallControl
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	id := domain.CallID(p.CallID)
	var err error
	switch typ {
	case protocol.TypeAcceptCall:
		err = ctl.Orch.Calls.Accept(id, uid)
	case protocol.TypeRejectCall:
		err = ctl.Orch.Calls.Reject(id, uid)
	case protocol.TypeEndCall:
		err = ctl.Orch.Calls.End(id, uid)
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("call", p.CallID).Str("user", string(uid)).Str("type", typ).Msg("call control rejected")
		ctl.sendErr(conn, err)
	}
}

// handleCallPayload routes SDP offers/answers and ICE candidates. The raw
// inbound frame is forwarded, so the counterpart receives the payload
// byte-for-byte as sent.
func (ctl *Controller) handleCallPayload(uid domain.UserID, conn *WsConn, typ string, data []byte) {
	var p protocol.CallControl
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	id := domain.CallID(p.CallID)
	var err error
	switch typ {
	case protocol.TypeWebRTCOffer:
		err = ctl.Orch.Calls.Offer(id, uid, data)
	case protocol.TypeWebRTCAnswer:
		err = ctl.Orch.Calls.Answer(id, uid, data)
	case protocol.TypeWebRTCICECandidate:
		err = ctl.Orch.Calls.ICECandidate(id, uid, data)
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("call", p.CallID).Str("user", string(uid)).Str("type", typ).Msg("signaling payload rejected")
		ctl.sendErr(conn, err)
	}
}
