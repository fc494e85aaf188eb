// Package signal is the WebSocket transport adapter: it upgrades
// connections, authenticates them, and demultiplexes inbound frames to the
// message router and call coordinator. One socket per client carries all
// event families; no handler may block another.
package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/app"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/auth"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/config"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/protocol"
)

type Controller struct {
	Orch    *app.Orchestrator
	Auth    *auth.Verifier
	Cfg     *config.Config
	limiter *MessageRateLimiter
}

func NewController(orch *app.Orchestrator, verifier *auth.Verifier, cfg *config.Config) *Controller {
	return &Controller{
		Orch:    orch,
		Auth:    verifier,
		Cfg:     cfg,
		limiter: NewMessageRateLimiter(cfg.MsgRateLimit, cfg.MsgRateInterval),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func bearerToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// HandleWS verifies the bearer token, upgrades, and starts the pumps. A bad
// token is refused with 401 before the registry ever sees the connection.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	user, err := ctl.Auth.Verify(bearerToken(c))
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("connect refused")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failure"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := NewWsConn(ws, ctl.Cfg.SendBuffer)
	connCtx, cancel := context.WithCancel(ctx)

	log.Info().Str("module", "signal").Str("user", string(user.ID)).Msg("new WS connection")
	go ctl.writePump(connCtx, conn)
	go ctl.serve(connCtx, cancel, user, conn)
}

// serve runs the authenticate handshake and then the per-connection read
// loop. Each connection's inbound stream is processed sequentially here;
// connections run concurrently with each other.
func (ctl *Controller) serve(ctx context.Context, cancel context.CancelFunc, user *domain.User, conn *WsConn) {
	defer cancel()
	defer conn.Close()

	data, err := ctl.readFrame(conn)
	if err != nil {
		return
	}

	var p protocol.Authenticate
	if err := json.Unmarshal(data, &p); err != nil || p.Type != protocol.TypeAuthenticate {
		ctl.sendErr(conn, core.ErrAuthenticationFailure)
		return
	}
	// The first frame must carry the same identity as the token.
	if p.UserID != string(user.ID) {
		log.Warn().Str("module", "signal").Str("token_user", string(user.ID)).Str("frame_user", p.UserID).Msg("authenticate identity mismatch")
		ctl.sendErr(conn, core.ErrAuthenticationFailure)
		return
	}
	if p.Username != "" {
		if err := user.SetUsername(p.Username); err != nil {
			ctl.sendErr(conn, core.ErrAuthenticationFailure)
			return
		}
	}

	rooms := make([]domain.RoomID, 0, len(p.Rooms))
	for _, r := range p.Rooms {
		if r != "" {
			rooms = append(rooms, domain.RoomID(r))
		}
	}

	if err := ctl.Orch.Connect(user, rooms, conn, cancel); err != nil {
		ctl.sendErr(conn, err)
		return
	}
	defer ctl.Orch.OnDisconnect(user.ID, conn)

	ctl.sendJSON(conn, protocol.Authenticated{
		Type:   protocol.TypeAuthenticated,
		UserID: p.UserID,
		Rooms:  p.Rooms,
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("user", string(user.ID)).Msg("read loop ctx done")
			return
		default:
			data, err := ctl.readFrame(conn)
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("user", string(user.ID)).Msg("read loop closing")
				return
			}
			ctl.handleFrame(user.ID, conn, data)
		}
	}
}

func (ctl *Controller) handleFrame(uid domain.UserID, conn *WsConn, data []byte) {
	ctl.Orch.Registry.Touch(uid)

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendErr(conn, errBadPayload)
		return
	}

	switch env.Type {
	case protocol.TypePing:
		ctl.sendJSON(conn, protocol.Envelope{Type: protocol.TypePong})
	case protocol.TypeJoinRoom:
		ctl.handleJoinRoom(uid, conn, data)
	case protocol.TypeLeaveRoom:
		ctl.handleLeaveRoom(uid, conn, data)
	case protocol.TypeSendMessage:
		ctl.handleSendMessage(uid, conn, data)
	case protocol.TypeTypingStart, protocol.TypeTypingStop:
		ctl.handleTyping(uid, conn, data)
	case protocol.TypeGroupMembersUpdated:
		ctl.handleGroupMembersUpdated(uid, conn, data)
	case protocol.TypeUserJoinedGroup, protocol.TypeUserLeftGroup:
		ctl.handleGroupMembership(uid, conn, env.Type, data)
	case protocol.TypeInitiateCall:
		ctl.handleInitiateCall(uid, conn, data)
	case protocol.TypeAcceptCall, protocol.TypeRejectCall, protocol.TypeEndCall:
		ctl.handleCallControl(uid, conn, env.Type, data)
	case protocol.TypeWebRTCOffer, protocol.TypeWebRTCAnswer, protocol.TypeWebRTCICECandidate:
		ctl.handleCallPayload(uid, conn, env.Type, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown frame type")
		ctl.sendErr(conn, errBadPayload)
	}
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	frame, err := protocol.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(frame)
}

func (ctl *Controller) sendErr(c *WsConn, err error) {
	ctl.sendJSON(c, protocol.ErrorFrame(err))
}
