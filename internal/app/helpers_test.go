package app

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
)

// fakeConn records every frame enqueued to it. Setting full simulates a
// receiver whose send buffer never drains.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (f *fakeConn) TrySend(frame core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrConnectionClosed
	}
	if f.full {
		return core.ErrBackpressure
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// types decodes the discriminator of every recorded frame, in order.
func (f *fakeConn) types(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.frames))
	for _, fr := range f.frames {
		var env protocol.Envelope
		if err := json.Unmarshal(fr, &env); err != nil {
			t.Fatalf("bad frame %q: %v", fr, err)
		}
		out = append(out, env.Type)
	}
	return out
}

func (f *fakeConn) hasType(t *testing.T, typ string) bool {
	t.Helper()
	for _, got := range f.types(t) {
		if got == typ {
			return true
		}
	}
	return false
}

func (f *fakeConn) last(t *testing.T) core.Frame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		t.Fatal("no frames recorded")
	}
	return f.frames[len(f.frames)-1]
}

// recordingSink captures presence churn emitted by the registry.
type recordingSink struct {
	mu      sync.Mutex
	online  []domain.UserID
	offline []domain.UserID
}

func (s *recordingSink) UserOnline(id domain.UserID) {
	s.mu.Lock()
	s.online = append(s.online, id)
	s.mu.Unlock()
}

func (s *recordingSink) UserOffline(id domain.UserID) {
	s.mu.Lock()
	s.offline = append(s.offline, id)
	s.mu.Unlock()
}

func (s *recordingSink) counts() (online, offline int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.online), len(s.offline)
}

func mustUser(t *testing.T, id, name string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(domain.UserID(id), name)
	if err != nil {
		t.Fatalf("NewUser(%q, %q): %v", id, name, err)
	}
	return u
}
