package app

import (
	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
)

// Presence derives online/offline transitions from registry churn and
// announces them to every room the identity belongs to. Events are
// broadcast only, never persisted.
type Presence struct {
	rooms  *RoomIndex
	router *Router
}

func NewPresence(rooms *RoomIndex, router *Router) *Presence {
	return &Presence{rooms: rooms, router: router}
}

func (p *Presence) UserOnline(uid domain.UserID) {
	p.announce(uid, protocol.TypeUserOnline)
}

func (p *Presence) UserOffline(uid domain.UserID) {
	p.announce(uid, protocol.TypeUserOffline)
}

func (p *Presence) announce(uid domain.UserID, typ string) {
	frame := protocol.MustMarshal(protocol.Presence{Type: typ, UserID: string(uid)})
	rooms := p.rooms.RoomsOf(uid)
	for _, room := range rooms {
		p.router.Publish(room, frame)
	}
	log.Debug().Str("module", "app.presence").Str("user", string(uid)).Str("event", typ).Int("rooms", len(rooms)).Msg("presence announced")
}
