package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
)

func TestIssueVerifyRoundtrip(t *testing.T) {
	v := NewVerifier("secret", "hub-test")
	alice := &domain.User{ID: "alice", Username: "Alice"}

	token, err := v.Issue(alice, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.ID != alice.ID || got.Username != alice.Username {
		t.Fatalf("identity mismatch: %+v", got)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a", "hub-test").Issue(&domain.User{ID: "alice", Username: "Alice"}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewVerifier("secret-b", "hub-test").Verify(token)
	if !errors.Is(err, core.ErrAuthenticationFailure) {
		t.Fatalf("want ErrAuthenticationFailure, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	v := NewVerifier("secret", "hub-test")
	token, err := v.Issue(&domain.User{ID: "alice", Username: "Alice"}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	_, err = v.Verify(token)
	if !errors.Is(err, core.ErrAuthenticationFailure) {
		t.Fatalf("want ErrAuthenticationFailure, got %v", err)
	}
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("want ErrExpiredToken, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	v := NewVerifier("secret", "hub-test")
	for _, token := range []string{"", "not-a-jwt", "aaaa.bbbb.cccc"} {
		if _, err := v.Verify(token); !errors.Is(err, core.ErrAuthenticationFailure) {
			t.Fatalf("token %q: want ErrAuthenticationFailure, got %v", token, err)
		}
	}
}
