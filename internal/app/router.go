package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
)

// Router fans room-scoped events out to every member with a live
// connection. Offline members receive nothing; catch-up is the external
// store's job. Delivery is FIFO per room: a per-room mutex is held across
// the enqueue to every member, and each member's send channel preserves
// order from there.
type Router struct {
	registry *Registry
	rooms    *RoomIndex

	mu        sync.Mutex
	roomLocks map[domain.RoomID]*sync.Mutex
}

func NewRouter(registry *Registry, rooms *RoomIndex) *Router {
	return &Router{
		registry:  registry,
		rooms:     rooms,
		roomLocks: make(map[domain.RoomID]*sync.Mutex),
	}
}

func (rt *Router) lockFor(room domain.RoomID) *sync.Mutex {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	lk, ok := rt.roomLocks[room]
	if !ok {
		lk = &sync.Mutex{}
		rt.roomLocks[room] = lk
	}
	return lk
}

type dropped struct {
	uid  domain.UserID
	conn core.SignalConnection
}

// Publish delivers the frame to every live member of the room. A member
// whose send buffer stays full is disconnected; that cascades into the
// normal offline path.
func (rt *Router) Publish(room domain.RoomID, frame core.Frame) {
	lk := rt.lockFor(room)
	lk.Lock()
	sent := 0
	var slow []dropped
	for _, uid := range rt.rooms.Members(room) {
		conn, ok := rt.registry.Lookup(uid)
		if !ok {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			slow = append(slow, dropped{uid: uid, conn: conn})
			continue
		}
		sent++
	}
	lk.Unlock()

	// Kick outside the room lock: unregistering triggers a presence
	// broadcast, which publishes back into rooms.
	for _, d := range slow {
		log.Warn().Str("module", "app.router").Str("room", string(room)).Str("user", string(d.uid)).Msg("send buffer full, dropping member")
		rt.registry.Unregister(d.uid, d.conn)
	}
	log.Debug().Str("module", "app.router").Str("room", string(room)).Int("sent_to", sent).Int("dropped", len(slow)).Msg("publish")
}

// PublishJSON marshals v and publishes it to the room.
func (rt *Router) PublishJSON(room domain.RoomID, v any) {
	frame, err := protocol.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("publish marshal")
		return
	}
	rt.Publish(room, frame)
}

// SendFrame delivers a frame to a single identity's live connection.
func (rt *Router) SendFrame(uid domain.UserID, frame core.Frame) error {
	conn, ok := rt.registry.Lookup(uid)
	if !ok {
		return core.ErrConnectionClosed
	}
	if err := conn.TrySend(frame); err != nil {
		rt.registry.Unregister(uid, conn)
		return err
	}
	return nil
}

// SendJSON marshals v and delivers it to a single identity.
func (rt *Router) SendJSON(uid domain.UserID, v any) error {
	frame, err := protocol.Marshal(v)
	if err != nil {
		return err
	}
	return rt.SendFrame(uid, frame)
}
