package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/adapters/signal"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/app"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/config"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/store"
)

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// SetupRouter wires HTTP routes (REST + WS) with the orchestrator.
// The realtime endpoint lives at /api/ws; REST is the thin surface the
// dashboard polls for rooms and history.
func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, ctl *signal.Controller, st store.MessageStore) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HubSessions", cookieStore))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// GET /api/rooms — membership index snapshot
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": orch.Rooms.List()})
	})

	// GET /api/rooms/:id/messages?limit=n — history via the external store;
	// the hub never replays history over the socket.
	api.GET("/rooms/:id/messages", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		msgs, err := st.GetMessages(c.Request.Context(), store.MessageFilters{
			RoomID: domain.RoomID(c.Param("id")),
			Limit:  limit,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	})

	// POST /api/rooms/:id/read — mark the room read for a user
	api.POST("/rooms/:id/read", func(c *gin.Context) {
		var req struct {
			UserID string `json:"userId"`
		}
		if err := c.BindJSON(&req); err != nil || req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		if err := st.MarkAsRead(c.Request.Context(), domain.RoomID(c.Param("id")), domain.UserID(req.UserID)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "mark read failed"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})

	return r
}
