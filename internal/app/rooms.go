package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
)

type roomEntry struct {
	room    *domain.Room
	members map[domain.UserID]struct{}
}

// RoomIndex maps a room to the identities considered joined, whether or not
// each of them is currently connected. Rooms are created on first reference
// and never merged.
type RoomIndex struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomEntry
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{rooms: make(map[domain.RoomID]*roomEntry)}
}

func (x *RoomIndex) getOrCreate(id domain.RoomID, isGroup bool) *roomEntry {
	e, ok := x.rooms[id]
	if !ok {
		e = &roomEntry{
			room:    &domain.Room{ID: id, IsGroup: isGroup},
			members: make(map[domain.UserID]struct{}),
		}
		x.rooms[id] = e
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	}
	return e
}

func (x *RoomIndex) Join(uid domain.UserID, room domain.RoomID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.getOrCreate(room, false).members[uid] = struct{}{}
}

func (x *RoomIndex) Leave(uid domain.UserID, room domain.RoomID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if e, ok := x.rooms[room]; ok {
		delete(e.members, uid)
	}
}

// SetMembers replaces a group room's membership wholesale, the shape a
// group-membership change notification arrives in.
func (x *RoomIndex) SetMembers(room domain.RoomID, members []domain.UserID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	e := x.getOrCreate(room, true)
	e.members = make(map[domain.UserID]struct{}, len(members))
	for _, m := range members {
		e.members[m] = struct{}{}
	}
}

func (x *RoomIndex) IsMember(uid domain.UserID, room domain.RoomID) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.rooms[room]
	if !ok {
		return false
	}
	_, ok = e.members[uid]
	return ok
}

func (x *RoomIndex) Members(room domain.RoomID) []domain.UserID {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.rooms[room]
	if !ok {
		return nil
	}
	out := make([]domain.UserID, 0, len(e.members))
	for m := range e.members {
		out = append(out, m)
	}
	return out
}

func (x *RoomIndex) RoomsOf(uid domain.UserID) []domain.RoomID {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []domain.RoomID
	for id, e := range x.rooms {
		if _, ok := e.members[uid]; ok {
			out = append(out, id)
		}
	}
	return out
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	IsGroup     bool          `json:"isGroup"`
	MemberCount int           `json:"memberCount"`
}

func (x *RoomIndex) List() []RoomInfo {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]RoomInfo, 0, len(x.rooms))
	for id, e := range x.rooms {
		out = append(out, RoomInfo{ID: id, IsGroup: e.room.IsGroup, MemberCount: len(e.members)})
	}
	return out
}

func (x *RoomIndex) Drop(room domain.RoomID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.rooms, room)
}
