package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/p2parena/lobbyd/internal/adapters/signal"
	"github.com/p2parena/lobbyd/internal/config"
)

// AuthMiddleware gates the API behind the shared secret. A correct
// token marks the cookie session, so a reconnecting client may omit
// it; everything else is rejected before any event is processed.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if authed, ok := sess.Get("authed").(bool); ok && authed {
			c.Next()
			return
		}
		if cfg.Token == "" || c.Query("token") == cfg.Token {
			sess.Set("authed", true)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication error"})
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctrl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Token))
	r.Use(sessions.Sessions("lobbySession", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	api := r.Group("/api", AuthMiddleware(cfg))

	api.GET("/ws", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})
	api.GET("/connections", func(c *gin.Context) {
		c.JSON(http.StatusOK, ctrl.Lobby.Conns.Peers())
	})
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, ctrl.Lobby.Rooms.List())
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
