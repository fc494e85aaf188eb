// Package client is the hub's client-side supervisor: it keeps one socket
// open, re-authenticates and re-joins rooms after any disconnect, and never
// gives up. The hub is stateless from the client's perspective, so a
// reconnect re-derives everything instead of resuming.
package client

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
)

type Config struct {
	URL      string // ws:// or wss:// endpoint
	Token    string
	UserID   string
	Username string
	Rooms    []string

	// Capped exponential backoff with full jitter between reconnect
	// attempts; retries forever.
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// TypingExpiry bounds how long a typing indicator survives a lost
	// typing_stop. The hub only relays discrete start/stop signals.
	TypingExpiry time.Duration
}

// FrameHandler receives every inbound frame.
type FrameHandler func(frame core.Frame)

type typingKey struct {
	room, user string
}

type Client struct {
	cfg             Config
	onFrame         FrameHandler
	onTypingExpired func(roomID, userID string)

	mu     sync.Mutex
	conn   *websocket.Conn
	rooms  map[string]struct{}
	typing map[typingKey]*time.Timer
}

func New(cfg Config, onFrame FrameHandler) *Client {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if cfg.BackoffCap < cfg.BackoffBase {
		cfg.BackoffCap = 15 * time.Second
	}
	if cfg.TypingExpiry <= 0 {
		cfg.TypingExpiry = 6 * time.Second
	}
	c := &Client{
		cfg:     cfg,
		onFrame: onFrame,
		rooms:   make(map[string]struct{}),
		typing:  make(map[typingKey]*time.Timer),
	}
	for _, r := range cfg.Rooms {
		c.rooms[r] = struct{}{}
	}
	return c
}

// OnTypingExpired sets the callback fired when a typing indicator goes
// stale without a typing_stop.
func (c *Client) OnTypingExpired(fn func(roomID, userID string)) {
	c.mu.Lock()
	c.onTypingExpired = fn
	c.mu.Unlock()
}

// Run keeps the transport alive until ctx is cancelled. Every session
// re-authenticates and re-joins the rooms the client considers joined;
// events missed during the gap come from the store's history endpoint, not
// from here.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		authed, err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if authed {
			attempt = 0
		}
		attempt++
		wait := Backoff(c.cfg.BackoffBase, c.cfg.BackoffCap, attempt)
		log.Warn().Err(err).Str("module", "client").Dur("retry_in", wait).Msg("transport lost, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) runOnce(ctx context.Context) (authed bool, err error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return false, err
	}
	q := u.Query()
	q.Set("token", c.cfg.Token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.conn = conn
	roomList := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		roomList = append(roomList, r)
	}
	c.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		_ = conn.Close()
	}()

	if err := c.send(protocol.Authenticate{
		Type:     protocol.TypeAuthenticate,
		UserID:   c.cfg.UserID,
		Username: c.cfg.Username,
		Rooms:    roomList,
	}); err != nil {
		return false, err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return authed, err
		}
		if c.dispatch(data) {
			authed = true
		}
	}
}

// dispatch runs the client-side bookkeeping for a frame before handing it
// to the application. It reports whether the frame was `authenticated`.
func (c *Client) dispatch(data []byte) bool {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "client").Msg("bad frame")
		return false
	}

	switch env.Type {
	case protocol.TypeTypingStart, protocol.TypeTypingStop:
		var p protocol.Typing
		if err := json.Unmarshal(data, &p); err == nil {
			c.trackTyping(env.Type, p)
		}
	}

	if c.onFrame != nil {
		c.onFrame(core.Frame(data))
	}
	return env.Type == protocol.TypeAuthenticated
}

// trackTyping clears a stale indicator after TypingExpiry; the hub must
// tolerate a lost typing_stop, so the receiver enforces the bound.
func (c *Client) trackTyping(typ string, p protocol.Typing) {
	key := typingKey{room: p.RoomID, user: p.UserID}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.typing[key]; ok {
		t.Stop()
		delete(c.typing, key)
	}
	if typ != protocol.TypeTypingStart {
		return
	}
	// Stop does not cover a callback already fired and waiting on the
	// mutex, so the callback checks it is still the installed timer before
	// expiring the indicator.
	var timer *time.Timer
	timer = time.AfterFunc(c.cfg.TypingExpiry, func() {
		c.mu.Lock()
		if c.typing[key] != timer {
			c.mu.Unlock()
			return
		}
		delete(c.typing, key)
		fn := c.onTypingExpired
		c.mu.Unlock()
		if fn != nil {
			fn(p.RoomID, p.UserID)
		}
	})
	c.typing[key] = timer
}

// TypingActive reports whether a typing indicator is currently shown.
func (c *Client) TypingActive(roomID, userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.typing[typingKey{room: roomID, user: userID}]
	return ok
}

func (c *Client) send(v any) error {
	frame, err := protocol.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return core.ErrConnectionClosed
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// JoinRoom marks the room joined (so reconnects replay it) and tells the
// hub if a transport is up.
func (c *Client) JoinRoom(roomID string) error {
	c.mu.Lock()
	c.rooms[roomID] = struct{}{}
	c.mu.Unlock()
	return c.send(protocol.RoomRef{Type: protocol.TypeJoinRoom, RoomID: roomID})
}

func (c *Client) LeaveRoom(roomID string) error {
	c.mu.Lock()
	delete(c.rooms, roomID)
	c.mu.Unlock()
	return c.send(protocol.RoomRef{Type: protocol.TypeLeaveRoom, RoomID: roomID})
}

func (c *Client) SendChat(roomID, content string, isGroup bool) error {
	return c.send(protocol.SendMessage{
		Type:       protocol.TypeSendMessage,
		RoomID:     roomID,
		Content:    content,
		Sender:     c.cfg.UserID,
		SenderName: c.cfg.Username,
		IsGroup:    isGroup,
	})
}

// Send transmits any protocol frame, for the call-signaling flows the
// application drives directly.
func (c *Client) Send(v any) error {
	return c.send(v)
}
