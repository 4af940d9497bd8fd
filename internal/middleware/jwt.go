package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mossy-p/arshare/internal/models"
)

// PeerContextKey is the gin context key holding the authenticated models.PeerID.
const PeerContextKey = "peer"

// PeerClaims identifies the device presenting the token.
type PeerClaims struct {
	PeerID      string `json:"peer_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// IssuePeerToken signs a token asserting the identity of peer.
func IssuePeerToken(secret string, peer models.PeerID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := PeerClaims{
		PeerID:      peer.ID.String(),
		DisplayName: peer.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   peer.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign peer token: %w", err)
	}
	return signed, nil
}

// ParsePeerToken validates tokenString and returns the peer it names.
func ParsePeerToken(secret, tokenString string) (models.PeerID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PeerClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.PeerID{}, err
	}

	claims, ok := token.Claims.(*PeerClaims)
	if !ok || !token.Valid {
		return models.PeerID{}, errors.New("invalid token claims")
	}
	id, err := uuid.Parse(claims.PeerID)
	if err != nil {
		return models.PeerID{}, fmt.Errorf("invalid peer id: %w", err)
	}
	return models.PeerID{ID: id, DisplayName: claims.DisplayName}, nil
}

// JWTAuth creates middleware that validates peer tokens. Websocket clients
// that cannot set headers may pass the token as the "token" query parameter.
func JWTAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid authorization header format",
				})
				return
			}
			tokenString = parts[1]
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization required",
			})
			return
		}

		peer, err := ParsePeerToken(jwtSecret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		c.Set(PeerContextKey, peer)
		c.Next()
	}
}

// PeerFromContext returns the peer stored by JWTAuth.
func PeerFromContext(c *gin.Context) (models.PeerID, bool) {
	v, ok := c.Get(PeerContextKey)
	if !ok {
		return models.PeerID{}, false
	}
	peer, ok := v.(models.PeerID)
	return peer, ok
}
