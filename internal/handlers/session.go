package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mossy-p/arshare/internal/controller"
	"github.com/mossy-p/arshare/internal/models"
	"github.com/mossy-p/arshare/internal/peer"
	"github.com/mossy-p/arshare/internal/tracking"
)

const inviteTimeout = 15 * time.Second

// API exposes the local node over HTTP.
type API struct {
	Controller *controller.Controller
	Presenter  *controller.StatePresenter
	Session    *peer.Session
	Log        zerolog.Logger
}

// SessionResponse is the remote view of the local node.
type SessionResponse struct {
	Local          models.PeerID      `json:"local"`
	ServiceType    string             `json:"serviceType"`
	Advertising    bool               `json:"advertising"`
	ConnectedPeers []models.PeerID    `json:"connectedPeers"`
	MapProvider    *models.PeerID     `json:"mapProvider,omitempty"`
	UI             controller.UIState `json:"ui"`
}

// TapRequest is a screen-space tap on the scene.
type TapRequest struct {
	X *float32 `json:"x" binding:"required"`
	Y *float32 `json:"y" binding:"required"`
}

// TapResponse reports the hero anchor placed by a tap, if any.
type TapResponse struct {
	Placed bool             `json:"placed"`
	Anchor *tracking.Anchor `json:"anchor,omitempty"`
}

func (a *API) snapshot() SessionResponse {
	resp := SessionResponse{
		Local:          a.Session.LocalPeer(),
		ServiceType:    a.Session.ServiceType(),
		Advertising:    a.Session.Advertising(),
		ConnectedPeers: a.Controller.ConnectedPeers(),
		UI:             a.Presenter.State(),
	}
	if p, ok := a.Controller.MapProvider(); ok {
		resp.MapProvider = &p
	}
	return resp
}

// GetSession returns the node's identity, connections and UI state.
func (a *API) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, a.snapshot())
}

// HostSession starts mapping and advertises the local peer.
func (a *API) HostSession(c *gin.Context) {
	if err := a.Controller.HostSession(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to advertise session"})
		return
	}
	c.JSON(http.StatusOK, a.snapshot())
}

// JoinSession presents the peer browser.
func (a *API) JoinSession(c *gin.Context) {
	a.Controller.JoinSession()
	c.JSON(http.StatusOK, a.snapshot())
}

// ShareSession sends the current world map. When no map is available yet
// the share action stays visible in the returned state.
func (a *API) ShareSession(c *gin.Context) {
	a.Controller.ShareSession(c.Request.Context())
	c.JSON(http.StatusOK, a.snapshot())
}

// Tap places a hero anchor where the tap hits a plane.
func (a *API) Tap(c *gin.Context) {
	var req TapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	anchor, placed := a.Controller.HandleSceneTap(tracking.Point{X: *req.X, Y: *req.Y})
	resp := TapResponse{Placed: placed}
	if placed {
		resp.Anchor = &anchor
	}
	c.JSON(http.StatusOK, resp)
}

func (a *API) presentedBrowser(c *gin.Context) (controller.Browser, controller.BrowserDelegate, bool) {
	b, d, ok := a.Presenter.Browser()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Browser not presented"})
	}
	return b, d, ok
}

// BrowserPeers lists advertising peers of the presented browser.
func (a *API) BrowserPeers(c *gin.Context) {
	b, _, ok := a.presentedBrowser(c)
	if !ok {
		return
	}

	ads, err := b.Peers(c.Request.Context())
	if err != nil {
		a.Log.Error().Err(err).Msg("Failed to browse peers")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to browse peers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"serviceType": b.ServiceType(), "peers": ads})
}

// Invite joins the advertised session of the given peer.
func (a *API) Invite(c *gin.Context) {
	b, _, ok := a.presentedBrowser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), inviteTimeout)
	defer cancel()

	ads, err := b.Peers(ctx)
	if err != nil {
		a.Log.Error().Err(err).Msg("Failed to browse peers")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to browse peers"})
		return
	}

	target := c.Param("peerId")
	for _, ad := range ads {
		if ad.Peer.ID.String() != target {
			continue
		}
		if err := b.Invite(ctx, ad); err != nil {
			a.Log.Warn().Err(err).Str("remote", ad.Peer.DisplayName).Msg("Invite failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a.snapshot())
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Peer not found"})
}

// BrowserDone closes the browser once enough peers are connected.
func (a *API) BrowserDone(c *gin.Context) {
	b, d, ok := a.presentedBrowser(c)
	if !ok {
		return
	}
	if !b.CanFinish() {
		c.JSON(http.StatusConflict, gin.H{"error": "Not enough peers connected"})
		return
	}
	d.BrowserDidFinish()
	c.JSON(http.StatusOK, a.snapshot())
}

// BrowserCancel closes the browser.
func (a *API) BrowserCancel(c *gin.Context) {
	_, d, ok := a.presentedBrowser(c)
	if !ok {
		return
	}
	d.BrowserWasCancelled()
	c.JSON(http.StatusOK, a.snapshot())
}
