// Package handlers serves the HTTP surface of a node: peer tokens, the
// websocket join route and remote control of the session.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/arshare/internal/middleware"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	AllowedOrigins []string
	JWTSecret      string
	TokenTTL       time.Duration
	Production     bool
}

// NewRouter wires the routes of api.
func NewRouter(rc RouterConfig, api *API) *gin.Engine {
	if rc.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if rc.TokenTTL <= 0 {
		rc.TokenTTL = 24 * time.Hour
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(api.Log))

	// Global CORS middleware (runs before routing)
	router.Use(OriginFilter(rc.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.JWTAuth(rc.JWTSecret)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/auth/token", IssueToken(rc.JWTSecret, rc.TokenTTL))

		session := apiGroup.Group("/session", auth)
		session.GET("", api.GetSession)
		session.POST("/host", api.HostSession)
		session.POST("/join", api.JoinSession)
		session.POST("/share", api.ShareSession)
		session.POST("/tap", api.Tap)

		browser := apiGroup.Group("/browser", auth)
		browser.GET("/peers", api.BrowserPeers)
		browser.POST("/invite/:peerId", api.Invite)
		browser.POST("/done", api.BrowserDone)
		browser.POST("/cancel", api.BrowserCancel)
	}

	// Joining peers present their token as a query parameter
	router.GET("/ws/peer/:service", auth, api.AcceptPeer)

	return router
}
