package http

import (
	"context"
	"net/http"

	"github.com/dkeye/cowork/internal/adapters/signal"
	"github.com/dkeye/cowork/internal/app/orch"
	"github.com/dkeye/cowork/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "client_token"

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware keeps one token per browser in the session cookie.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// SignalOptions maps config onto the WebSocket adapter.
func SignalOptions(cfg *config.Config) signal.Options {
	return signal.Options{
		ReadLimit:    cfg.ReadLimit,
		PingPeriod:   cfg.PingPeriod,
		PongWait:     cfg.PongWait,
		WriteWait:    cfg.WriteWait,
		SendBuffer:   cfg.SendBuffer,
		RateEvents:   cfg.RateLimit.Events,
		EditEvents:   cfg.RateLimit.EditEvents,
		RateInterval: cfg.RateLimit.Interval,
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CoworkSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctrl := signal.NewSignalWSController(o, SignalOptions(cfg))
	h := &handlers{orch: o}

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str(clientTokenKey, c.GetString(clientTokenKey)).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})
	api.GET("/rooms", h.listRooms)
	api.DELETE("/rooms/:room", h.evictRoom)
	api.GET("/rooms/:room/users", h.listUsers)
	api.GET("/rooms/:room/resources", h.listResources)
	api.GET("/resources/:id/permissions", h.resourcePermissions)
	api.DELETE("/sessions/:sid", h.kickSession)

	return r
}
