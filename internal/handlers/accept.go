package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mossy-p/arshare/internal/middleware"
	"github.com/mossy-p/arshare/internal/peer"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

func acceptStatus(err error) int {
	switch {
	case errors.Is(err, peer.ErrServiceMismatch), errors.Is(err, peer.ErrNotAdvertising):
		return http.StatusNotFound
	case errors.Is(err, peer.ErrPeerLimit):
		return http.StatusConflict
	case errors.Is(err, peer.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// AcceptPeer upgrades a join request for the advertised service and hands
// the connection to the session. The joiner must present a peer token.
func (a *API) AcceptPeer(c *gin.Context) {
	remote, ok := middleware.PeerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Peer not authenticated"})
		return
	}

	if err := a.Session.CanAccept(c.Param("service")); err != nil {
		c.JSON(acceptStatus(err), gin.H{"error": err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.Log.Warn().Err(err).Msg("Failed to upgrade connection")
		return
	}

	if err := a.Session.Accept(ws, remote); err != nil {
		a.Log.Warn().Err(err).Str("remote", remote.DisplayName).Msg("Join refused")
	}
}
