package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/store"
)

// Orchestrator ties the registry, room index, presence tracker, message
// router and call coordinator together and owns the disconnect cascade.
// One instance serves all connections.
type Orchestrator struct {
	Registry *Registry
	Rooms    *RoomIndex
	Router   *Router
	Presence *Presence
	Calls    *CallCoordinator
	Store    store.MessageStore
}

// disconnectCascade is the registry sink: it force-terminates the
// identity's calls before announcing the offline transition. Hanging the
// cascade off the registry keeps every disconnect path on it, including the
// router's backpressure kick.
type disconnectCascade struct {
	presence *Presence
	calls    *CallCoordinator
}

func (d *disconnectCascade) UserOnline(uid domain.UserID) {
	d.presence.UserOnline(uid)
}

func (d *disconnectCascade) UserOffline(uid domain.UserID) {
	d.calls.EndAllFor(uid)
	d.presence.UserOffline(uid)
}

func NewOrchestrator(policy SessionPolicy, ringTimeout time.Duration, st store.MessageStore) *Orchestrator {
	registry := NewRegistry(policy)
	rooms := NewRoomIndex()
	router := NewRouter(registry, rooms)
	presence := NewPresence(rooms, router)
	calls := NewCallCoordinator(registry, router, ringTimeout)
	registry.SetPresenceSink(&disconnectCascade{presence: presence, calls: calls})
	return &Orchestrator{
		Registry: registry,
		Rooms:    rooms,
		Router:   router,
		Presence: presence,
		Calls:    calls,
		Store:    st,
	}
}

// Connect registers the identity and joins its declared rooms. The joins
// run between admission and the online event: a refused duplicate must not
// touch the membership index, while an admitted connection needs its rooms
// in place before the online broadcast goes out.
func (o *Orchestrator) Connect(user *domain.User, rooms []domain.RoomID, conn core.SignalConnection, cancel context.CancelFunc) error {
	return o.Registry.Register(user, conn, cancel, func() {
		for _, room := range rooms {
			o.Rooms.Join(user.ID, room)
		}
	})
}

// OnDisconnect handles both clean closes and abrupt transport errors.
// Pumps of a connection that was already replaced skip the teardown so a
// last-writer-wins takeover neither ends calls nor flaps presence. Call
// termination and the offline broadcast happen inside the registry sink.
func (o *Orchestrator) OnDisconnect(uid domain.UserID, conn core.SignalConnection) {
	if !o.Registry.Owns(uid, conn) {
		conn.Close()
		return
	}
	o.Registry.Unregister(uid, conn)
}

// SendChat relays a chat message to the room and hands it to the store.
// Store failures are logged but do not block delivery; the client recovers
// gaps from the store's history endpoint, not from the hub.
func (o *Orchestrator) SendChat(ctx context.Context, p protocol.SendMessage) *domain.Message {
	msg := &domain.Message{
		ID:         uuid.NewString(),
		RoomID:     domain.RoomID(p.RoomID),
		Sender:     domain.UserID(p.Sender),
		SenderName: p.SenderName,
		Content:    p.Content,
		Timestamp:  time.Now(),
		Status:     "sent",
		IsGroup:    p.IsGroup,
	}
	if err := o.Store.SaveMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("room", p.RoomID).Msg("save message")
	}
	o.Router.PublishJSON(msg.RoomID, protocol.NewMessageFrame(msg))
	return msg
}

// Typing relays a typing_start/typing_stop frame verbatim to the room. The
// hub does not expire indicators; receivers clear stale ones themselves.
func (o *Orchestrator) Typing(p protocol.Typing, frame core.Frame) {
	o.Router.Publish(domain.RoomID(p.RoomID), frame)
}

func (o *Orchestrator) JoinRoom(uid domain.UserID, room domain.RoomID) {
	o.Rooms.Join(uid, room)
}

func (o *Orchestrator) LeaveRoom(uid domain.UserID, room domain.RoomID) {
	o.Rooms.Leave(uid, room)
}

// UpdateGroupMembers replaces a group's membership and notifies the room.
func (o *Orchestrator) UpdateGroupMembers(group domain.RoomID, members []domain.UserID) {
	o.Rooms.SetMembers(group, members)
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = string(m)
	}
	o.Router.PublishJSON(group, protocol.GroupMembersUpdated{
		Type:    protocol.TypeGroupMembersUpdated,
		GroupID: string(group),
		Members: ids,
	})
}

func (o *Orchestrator) JoinGroup(uid domain.UserID, group domain.RoomID) {
	o.Rooms.Join(uid, group)
	o.Router.PublishJSON(group, protocol.GroupMembership{
		Type:    protocol.TypeUserJoinedGroup,
		GroupID: string(group),
		UserID:  string(uid),
	})
}

func (o *Orchestrator) LeaveGroup(uid domain.UserID, group domain.RoomID) {
	o.Router.PublishJSON(group, protocol.GroupMembership{
		Type:    protocol.TypeUserLeftGroup,
		GroupID: string(group),
		UserID:  string(uid),
	})
	o.Rooms.Leave(uid, group)
}
