// Package store is the hub's view of the external message store. The hub
// only relays; durability and history replay belong here.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
)

// MessageFilters narrows a history query.
type MessageFilters struct {
	RoomID domain.RoomID
	Before time.Time
	Limit  int
}

// MessageStore is the narrow interface the hub consumes.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *domain.Message) error
	GetMessages(ctx context.Context, f MessageFilters) ([]*domain.Message, error)
	MarkAsRead(ctx context.Context, room domain.RoomID, uid domain.UserID) error
}

// maxHistorySize bounds the per-room history kept by the in-memory store.
const maxHistorySize = 500

type readKey struct {
	room domain.RoomID
	uid  domain.UserID
}

// MemoryStore is a bounded in-memory MessageStore for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byRoom map[domain.RoomID][]*domain.Message
	reads  map[readKey]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byRoom: make(map[domain.RoomID][]*domain.Message),
		reads:  make(map[readKey]time.Time),
	}
}

func (s *MemoryStore) SaveMessage(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.byRoom[msg.RoomID], msg)
	if len(msgs) > maxHistorySize {
		msgs = msgs[len(msgs)-maxHistorySize:]
	}
	s.byRoom[msg.RoomID] = msgs
	return nil
}

func (s *MemoryStore) GetMessages(_ context.Context, f MessageFilters) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Message
	for _, m := range s.byRoom[f.RoomID] {
		if !f.Before.IsZero() && !m.Timestamp.Before(f.Before) {
			continue
		}
		out = append(out, m)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

func (s *MemoryStore) MarkAsRead(_ context.Context, room domain.RoomID, uid domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[readKey{room: room, uid: uid}] = time.Now()
	return nil
}

// LastRead reports when the user last marked the room read.
func (s *MemoryStore) LastRead(room domain.RoomID, uid domain.UserID) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.reads[readKey{room: room, uid: uid}]
	return t, ok
}
