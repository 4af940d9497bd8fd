package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/arshare/internal/middleware"
	"github.com/mossy-p/arshare/internal/models"
)

// TokenRequest is the body of a token request.
type TokenRequest struct {
	DisplayName string `json:"displayName" binding:"required,max=63"`
}

// TokenResponse carries a freshly issued peer token.
type TokenResponse struct {
	Token string        `json:"token"`
	Peer  models.PeerID `json:"peer"`
}

// IssueToken hands out a peer token for any display name. A new peer ID is
// minted on every call. It is a demo login: anyone who can reach the route
// gets a token that also unlocks remote control under /api/session and
// /api/browser, so production deployments must restrict who can reach it.
func IssueToken(jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		peer := models.NewPeerID(req.DisplayName)
		token, err := middleware.IssuePeerToken(jwtSecret, peer, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate token",
			})
			return
		}

		c.JSON(http.StatusOK, TokenResponse{Token: token, Peer: peer})
	}
}
