package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/app"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/auth"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/config"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Mode:            "release",
		ReadLimit:       32768,
		PingPeriod:      50 * time.Second,
		Secret:          "test-secret",
		SessionPolicy:   "replace",
		RingTimeout:     5 * time.Second,
		SendBuffer:      32,
		MsgRateLimit:    100,
		MsgRateInterval: time.Second,
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *auth.Verifier) {
	t.Helper()
	cfg := testConfig()
	verifier := auth.NewVerifier(cfg.Secret, "hub-test")
	orch := app.NewOrchestrator(app.SessionPolicy(cfg.SessionPolicy), cfg.RingTimeout, store.NewMemoryStore())
	ctl := NewController(orch, verifier, cfg)

	r := gin.New()
	ctx, cancel := context.WithCancel(context.Background())
	r.GET("/ws", func(c *gin.Context) { ctl.HandleWS(ctx, c) })

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, verifier
}

func issue(t *testing.T, v *auth.Verifier, id, name string) string {
	t.Helper()
	token, err := v.Issue(&domain.User{ID: domain.UserID(id), Username: name}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// readUntil reads frames until one carries the wanted discriminator,
// skipping interleaved presence and typing traffic.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", typ, err)
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame %q: %v", data, err)
		}
		if env.Type == typ {
			return data
		}
	}
}

func connect(t *testing.T, srv *httptest.Server, v *auth.Verifier, id, name string, rooms []string) *websocket.Conn {
	t.Helper()
	conn := dial(t, srv, issue(t, v, id, name))
	writeFrame(t, conn, protocol.Authenticate{
		Type:     protocol.TypeAuthenticate,
		UserID:   id,
		Username: name,
		Rooms:    rooms,
	})
	readUntil(t, conn, protocol.TypeAuthenticated)
	return conn
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	srv, _ := newTestServer(t)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatal("dial with a bad token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 before upgrade, got %+v", resp)
	}
}

func TestAuthenticateIdentityMismatch(t *testing.T) {
	srv, verifier := newTestServer(t)

	conn := dial(t, srv, issue(t, verifier, "alice", "Alice"))
	writeFrame(t, conn, protocol.Authenticate{
		Type:   protocol.TypeAuthenticate,
		UserID: "mallory",
	})

	var e protocol.Error
	if err := json.Unmarshal(readUntil(t, conn, protocol.TypeError), &e); err != nil {
		t.Fatal(err)
	}
	if e.Code != protocol.CodeAuthenticationFailure {
		t.Fatalf("want %q, got %q", protocol.CodeAuthenticationFailure, e.Code)
	}
}

func TestChatBroadcast(t *testing.T) {
	srv, verifier := newTestServer(t)

	alice := connect(t, srv, verifier, "alice", "Alice", []string{"r1"})
	bob := connect(t, srv, verifier, "bob", "Bob", []string{"r1"})

	writeFrame(t, alice, protocol.SendMessage{
		Type:    protocol.TypeSendMessage,
		RoomID:  "r1",
		Content: "hello bob",
		Sender:  "spoofed-identity", // hub must overwrite with the token identity
	})

	for name, conn := range map[string]*websocket.Conn{"alice": alice, "bob": bob} {
		var got protocol.NewMessage
		if err := json.Unmarshal(readUntil(t, conn, protocol.TypeNewMessage), &got); err != nil {
			t.Fatal(err)
		}
		if got.Content != "hello bob" {
			t.Fatalf("%s: unexpected content %q", name, got.Content)
		}
		if got.Sender != "alice" {
			t.Fatalf("%s: sender must be the authenticated identity, got %q", name, got.Sender)
		}
	}
}

func TestTypingRelay(t *testing.T) {
	srv, verifier := newTestServer(t)

	alice := connect(t, srv, verifier, "alice", "Alice", []string{"r1"})
	bob := connect(t, srv, verifier, "bob", "Bob", []string{"r1"})

	writeFrame(t, alice, protocol.Typing{
		Type:   protocol.TypeTypingStart,
		RoomID: "r1",
		UserID: "alice",
	})

	var got protocol.Typing
	if err := json.Unmarshal(readUntil(t, bob, protocol.TypeTypingStart), &got); err != nil {
		t.Fatal(err)
	}
	if got.RoomID != "r1" || got.UserID != "alice" {
		t.Fatalf("unexpected relay: %+v", got)
	}
}

func TestCallSignalingOverSocket(t *testing.T) {
	srv, verifier := newTestServer(t)

	alice := connect(t, srv, verifier, "alice", "Alice", nil)
	bob := connect(t, srv, verifier, "bob", "Bob", nil)

	writeFrame(t, alice, protocol.InitiateCall{
		Type:     protocol.TypeInitiateCall,
		CallID:   "c1",
		CallerID: "alice",
		CalleeID: "bob",
		CallType: "video",
	})

	var incoming protocol.IncomingCall
	if err := json.Unmarshal(readUntil(t, bob, protocol.TypeIncomingCall), &incoming); err != nil {
		t.Fatal(err)
	}
	if incoming.CallID != "c1" || incoming.CallerID != "alice" || incoming.CallType != "video" {
		t.Fatalf("unexpected incoming_call: %+v", incoming)
	}

	writeFrame(t, bob, protocol.CallControl{Type: protocol.TypeAcceptCall, CallID: "c1"})
	readUntil(t, alice, protocol.TypeCallAccepted)

	sdp := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 fake-offer"}
	writeFrame(t, alice, protocol.WebRTCOffer{
		Type:   protocol.TypeWebRTCOffer,
		CallID: "c1",
		Offer:  sdp,
	})

	var offer protocol.WebRTCOffer
	if err := json.Unmarshal(readUntil(t, bob, protocol.TypeWebRTCOffer), &offer); err != nil {
		t.Fatal(err)
	}
	if offer.CallID != "c1" || offer.Offer.SDP != sdp.SDP {
		t.Fatalf("offer not forwarded intact: %+v", offer)
	}

	writeFrame(t, bob, protocol.CallControl{Type: protocol.TypeEndCall, CallID: "c1"})
	readUntil(t, alice, protocol.TypeCallEnded)
}

func TestCalleeOfflineError(t *testing.T) {
	srv, verifier := newTestServer(t)

	alice := connect(t, srv, verifier, "alice", "Alice", nil)

	writeFrame(t, alice, protocol.InitiateCall{
		Type:     protocol.TypeInitiateCall,
		CallID:   "c1",
		CallerID: "alice",
		CalleeID: "nobody",
		CallType: "audio",
	})

	var e protocol.Error
	if err := json.Unmarshal(readUntil(t, alice, protocol.TypeError), &e); err != nil {
		t.Fatal(err)
	}
	if e.Code != protocol.CodeCalleeUnreachable {
		t.Fatalf("want %q, got %q", protocol.CodeCalleeUnreachable, e.Code)
	}
}

func TestPingPong(t *testing.T) {
	srv, verifier := newTestServer(t)

	alice := connect(t, srv, verifier, "alice", "Alice", nil)
	writeFrame(t, alice, protocol.Envelope{Type: protocol.TypePing})
	readUntil(t, alice, protocol.TypePong)
}
