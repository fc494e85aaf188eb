package app

import (
	"errors"
	"testing"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry(PolicyReplace)
	sink := &recordingSink{}
	r.SetPresenceSink(sink)

	alice := mustUser(t, "alice", "Alice")
	conn := &fakeConn{}
	if err := r.Register(alice, conn, nil, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !r.IsOnline(alice.ID) {
		t.Fatal("alice should be online")
	}
	got, ok := r.Lookup(alice.ID)
	if !ok || got != core.SignalConnection(conn) {
		t.Fatal("Lookup should return the registered connection")
	}
	if !r.Owns(alice.ID, conn) {
		t.Fatal("Owns should report the live connection")
	}
	if on, off := sink.counts(); on != 1 || off != 0 {
		t.Fatalf("want 1 online / 0 offline events, got %d/%d", on, off)
	}
}

func TestRegistryReplacePolicy(t *testing.T) {
	r := NewRegistry(PolicyReplace)
	sink := &recordingSink{}
	r.SetPresenceSink(sink)

	alice := mustUser(t, "alice", "Alice")
	old := &fakeConn{}
	if err := r.Register(alice, old, nil, nil); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	fresh := &fakeConn{}
	if err := r.Register(alice, fresh, nil, nil); err != nil {
		t.Fatalf("replace Register: %v", err)
	}

	if !old.isClosed() {
		t.Fatal("replaced connection should be closed")
	}
	if !r.Owns(alice.ID, fresh) {
		t.Fatal("new connection should own the identity")
	}
	if r.Owns(alice.ID, old) {
		t.Fatal("old connection must not own the identity anymore")
	}
	// The identity never went offline, so a takeover is presence-silent.
	if on, off := sink.counts(); on != 1 || off != 0 {
		t.Fatalf("takeover must not flap presence, got %d online / %d offline", on, off)
	}
}

func TestRegistryRejectPolicy(t *testing.T) {
	r := NewRegistry(PolicyReject)

	alice := mustUser(t, "alice", "Alice")
	old := &fakeConn{}
	if err := r.Register(alice, old, nil, nil); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	err := r.Register(alice, &fakeConn{}, nil, nil)
	if !errors.Is(err, core.ErrDuplicateAuthentication) {
		t.Fatalf("want ErrDuplicateAuthentication, got %v", err)
	}
	// The original session survives untouched.
	if old.isClosed() || !r.Owns(alice.ID, old) {
		t.Fatal("existing session must remain live under reject policy")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry(PolicyReplace)
	sink := &recordingSink{}
	r.SetPresenceSink(sink)

	alice := mustUser(t, "alice", "Alice")
	conn := &fakeConn{}
	if err := r.Register(alice, conn, nil, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	r.Unregister(alice.ID, conn)
	r.Unregister(alice.ID, conn)

	if r.IsOnline(alice.ID) {
		t.Fatal("alice should be offline")
	}
	if _, off := sink.counts(); off != 1 {
		t.Fatalf("want exactly one offline event, got %d", off)
	}
}

func TestRegistryUnregisterStaleHandle(t *testing.T) {
	r := NewRegistry(PolicyReplace)
	sink := &recordingSink{}
	r.SetPresenceSink(sink)

	alice := mustUser(t, "alice", "Alice")
	old := &fakeConn{}
	fresh := &fakeConn{}
	if err := r.Register(alice, old, nil, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(alice, fresh, nil, nil); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// The dying pump of the replaced connection must not tear down the
	// takeover session.
	r.Unregister(alice.ID, old)

	if !r.IsOnline(alice.ID) {
		t.Fatal("stale unregister must not drop the live session")
	}
	if _, off := sink.counts(); off != 0 {
		t.Fatalf("stale unregister must not emit offline, got %d", off)
	}
}
