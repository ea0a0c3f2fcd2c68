// Package httpapi assembles the gin router: session cookies, the client
// token that identifies a browser across reconnects, the small REST surface
// for room discovery, and the websocket endpoint.
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ovenbird/gingerhaus/internal/app"
	"github.com/ovenbird/gingerhaus/internal/config"
	"github.com/ovenbird/gingerhaus/internal/domain"
	"github.com/ovenbird/gingerhaus/internal/transport/ws"
)

// ClientTokenMiddleware issues a long-lived cookie that names the browser.
// The websocket layer uses it as the connection identity, which is what makes
// reconnect-with-grace work across page reloads.
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

func SetupRouter(cfg *config.Config, mgr *app.Manager, log zerolog.Logger) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Server.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Server.Secret))
	r.Use(sessions.Sessions("GingerhausSessions", store))
	r.Use(ClientTokenMiddleware())

	log = log.With().Str("module", "transport.http").Logger()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": mgr.RoomCount()})
	})

	api := r.Group("/api")

	api.POST("/rooms", func(c *gin.Context) {
		room := mgr.CreateRoom()
		c.JSON(http.StatusCreated, gin.H{"roomCode": room.Code()})
	})

	api.GET("/rooms/:code", func(c *gin.Context) {
		code := domain.RoomCode(c.Param("code"))
		seats, rerr := mgr.RoomOccupancy(code)
		if rerr != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": rerr.Code})
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomCode": code, "users": seats})
	})

	wsCtl := ws.NewController(mgr, cfg.OpLimits(), log)
	api.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("ct", c.GetString("client_token")).Msg("ws endpoint hit")
		wsCtl.Handle(c)
	})

	return r
}
