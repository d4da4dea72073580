package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/adapters/signal"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/app"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/config"
)

// Deps are the collaborators the router dispatches to. Archive may be nil.
type Deps struct {
	Registry *app.Registry
	Signal   *signal.SignalWSController
	Limiter  *CallerLimiter
	Archive  ArchiveReader
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("SessionLink", store))
	r.Use(IdentityMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": deps.Registry.Len()})
	})

	h := &sessionHandler{reg: deps.Registry, archive: deps.Archive}
	api := r.Group("/api")

	limit := func(c *gin.Context) { c.Next() }
	if deps.Limiter != nil {
		limit = deps.Limiter.Middleware()
	}
	api.POST("/sessions", limit, h.create)
	api.POST("/sessions/join", limit, h.join)
	api.GET("/sessions/:code", h.status)
	api.PATCH("/sessions/:code/participants/:user_id", h.updateParticipant)
	api.POST("/sessions/:code/end", h.end)

	if deps.Signal != nil {
		api.GET("/sessions/:code/ws", func(c *gin.Context) {
			deps.Signal.HandleStream(ctx, c, callerID(c))
		})
	}
	if deps.Archive != nil {
		api.GET("/archive/sessions", h.archivedList)
		api.GET("/archive/sessions/:id", h.archived)
	}

	log.Info().Str("module", "adapters.http").Bool("archive", deps.Archive != nil).Msg("router setup")
	return r
}
