package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
)

func (ctl *Controller) handleJoinRoom(uid domain.UserID, conn *WsConn, data []byte) {
	var p protocol.RoomRef
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("room", p.RoomID).Msg("join room")
	ctl.Orch.JoinRoom(uid, domain.RoomID(p.RoomID))
}

func (ctl *Controller) handleLeaveRoom(uid domain.UserID, conn *WsConn, data []byte) {
	var p protocol.RoomRef
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("room", p.RoomID).Msg("leave room")
	ctl.Orch.LeaveRoom(uid, domain.RoomID(p.RoomID))
}

func (ctl *Controller) handleSendMessage(uid domain.UserID, conn *WsConn, data []byte) {
	if !ctl.limiter.Allow(uid) {
		ctl.sendJSON(conn, protocol.Error{Type: protocol.TypeError, Code: protocol.CodeRateLimited, Message: "too many messages"})
		return
	}
	var p protocol.SendMessage
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.Content == "" {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	// The authenticated identity is authoritative, whatever the frame says.
	p.Sender = string(uid)
	if p.SenderName == "" {
		if u, ok := ctl.Orch.Registry.User(uid); ok {
			p.SenderName = u.Username
		}
	}
	ctl.Orch.SendChat(context.Background(), p)
}

func (ctl *Controller) handleTyping(uid domain.UserID, conn *WsConn, data []byte) {
	var p protocol.Typing
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	if p.UserID != string(uid) {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	ctl.Orch.Typing(p, data)
}

func (ctl *Controller) handleGroupMembersUpdated(uid domain.UserID, conn *WsConn, data []byte) {
	var p protocol.GroupMembersUpdated
	if err := json.Unmarshal(data, &p); err != nil || p.GroupID == "" {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	members := make([]domain.UserID, 0, len(p.Members))
	for _, m := range p.Members {
		if m != "" {
			members = append(members, domain.UserID(m))
		}
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("group", p.GroupID).Int("members", len(members)).Msg("group members updated")
	ctl.Orch.UpdateGroupMembers(domain.RoomID(p.GroupID), members)
}

func (ctl *Controller) handleGroupMembership(uid domain.UserID, conn *WsConn, typ string, data []byte) {
	var p protocol.GroupMembership
	if err := json.Unmarshal(data, &p); err != nil || p.GroupID == "" {
		ctl.sendErr(conn, errBadPayload)
		return
	}
	subject := domain.UserID(p.UserID)
	if subject == "" {
		subject = uid
	}
	if typ == protocol.TypeUserJoinedGroup {
		ctl.Orch.JoinGroup(subject, domain.RoomID(p.GroupID))
	} else {
		ctl.Orch.LeaveGroup(subject, domain.RoomID(p.GroupID))
	}
}
