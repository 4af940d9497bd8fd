// Package controller reconciles the local tracking session with the
// shared session: it hosts or joins, shares the world map, places anchors
// on tap and applies whatever the remote peer sends.
package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mossy-p/arshare/internal/asset"
	"github.com/mossy-p/arshare/internal/models"
	"github.com/mossy-p/arshare/internal/peer"
	"github.com/mossy-p/arshare/internal/status"
	"github.com/mossy-p/arshare/internal/tracking"
	"github.com/mossy-p/arshare/internal/wire"
)

// ErrUnsupportedDevice is returned when the engine cannot run world tracking.
var ErrUnsupportedDevice = errors.New("world tracking is not available on this device")

// Transport is the shared-session transport the controller drives.
type Transport interface {
	AdvertiseSelf(ctx context.Context) error
	NewBrowser() Browser
	SendToAllPeers(payload []byte)
	ConnectedPeers() []models.PeerID
}

type sessionTransport struct {
	*peer.Session
}

func (t sessionTransport) NewBrowser() Browser {
	return t.SetupBrowser()
}

// PeerTransport adapts a peer session to Transport.
func PeerTransport(s *peer.Session) Transport {
	return sessionTransport{Session: s}
}

// Options configures a Controller.
type Options struct {
	Engine    tracking.Engine
	Presenter Presenter
	// NewTransport builds the transport that delivers inbound payloads to h.
	NewTransport func(h peer.Handler) Transport
	// Model is placed on every hero anchor. Nil places nothing.
	Model  *asset.Node
	Logger zerolog.Logger
}

// Controller is safe for concurrent use. Engine, transport and presenter
// calls are made without holding the controller lock, since the engine
// reports back through the delegate methods synchronously.
type Controller struct {
	engine    tracking.Engine
	presenter Presenter
	transport Transport
	model     *asset.Node
	log       zerolog.Logger

	mu sync.Mutex
	// trackingEnabled is set by HostSession and cleared for good once the
	// environment is mapped with a peer connected.
	trackingEnabled bool
	tapEnabled      bool
	mapProvider     *models.PeerID
}

var (
	_ tracking.Delegate = (*Controller)(nil)
	_ peer.Handler      = (*Controller)(nil)
	_ BrowserDelegate   = (*Controller)(nil)
)

// New creates the controller and its transport, and registers itself as
// the engine delegate.
func New(opts Options) *Controller {
	c := &Controller{
		engine:    opts.Engine,
		presenter: opts.Presenter,
		model:     opts.Model,
		log:       opts.Logger.With().Str("component", "controller").Logger(),
	}
	c.transport = opts.NewTransport(c)
	c.engine.SetDelegate(c)
	return c
}

func horizontalTracking() tracking.Configuration {
	return tracking.Configuration{PlaneDetection: tracking.PlaneDetectionHorizontal}
}

// Start runs world tracking without plane detection.
func (c *Controller) Start() {
	c.engine.Run(tracking.Configuration{}, 0)
}

// Stop pauses world tracking.
func (c *Controller) Stop() {
	c.engine.Pause()
}

// Appear prepares the UI once the scene is on screen.
func (c *Controller) Appear() error {
	if !c.engine.Supported() {
		return ErrUnsupportedDevice
	}

	c.presenter.SetIdleTimerDisabled(true)
	c.setTapEnabled(true)
	c.presenter.SetShareHidden(true)
	return nil
}

// HostSession switches to horizontal plane detection and advertises the
// local peer.
func (c *Controller) HostSession(ctx context.Context) error {
	c.engine.Run(horizontalTracking(), 0)

	if err := c.transport.AdvertiseSelf(ctx); err != nil {
		c.log.Error().Err(err).Msg("Failed to advertise session")
		return err
	}

	c.presenter.SetHostJoinHidden(true)
	c.mu.Lock()
	c.trackingEnabled = true
	c.mu.Unlock()
	c.presenter.SetShareHidden(false)
	return nil
}

// JoinSession presents the peer browser.
func (c *Controller) JoinSession() {
	if c.transport == nil {
		return
	}
	c.presenter.PresentBrowser(c.transport.NewBrowser(), c)
}

func (c *Controller) BrowserDidFinish() {
	c.presenter.DismissBrowser()
	c.presenter.SetHostJoinHidden(true)
}

func (c *Controller) BrowserWasCancelled() {
	c.presenter.DismissBrowser()
}

// ShareSession sends the current world map to all peers. If no map can be
// captured yet the share action stays available.
func (c *Controller) ShareSession(ctx context.Context) {
	m, err := c.engine.CurrentWorldMap(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Error getting world map")
		return
	}

	data, err := wire.EncodeWorldMap(*m)
	if err != nil {
		c.log.Error().Err(err).Msg("Can't encode map")
		return
	}

	c.transport.SendToAllPeers(data)
	c.presenter.SetShareHidden(true)
	c.log.Info().Int("bytes", len(data)).Int("anchors", len(m.Anchors)).Msg("Shared world map")
}

// HandleSceneTap places a hero anchor where p hits a detected plane and
// sends it to all peers. It reports the anchor and whether one was placed.
func (c *Controller) HandleSceneTap(p tracking.Point) (tracking.Anchor, bool) {
	c.mu.Lock()
	enabled := c.tapEnabled
	c.mu.Unlock()
	if !enabled {
		return tracking.Anchor{}, false
	}

	hits := c.engine.HitTest(p, tracking.HitExistingPlaneUsingGeometry|tracking.HitEstimatedHorizontalPlane)
	if len(hits) == 0 {
		return tracking.Anchor{}, false
	}

	anchor := tracking.NewAnchor(tracking.HeroAnchorName, hits[0].WorldTransform)
	c.engine.Add(anchor)

	data, err := wire.EncodeAnchor(anchor)
	if err != nil {
		c.log.Error().Err(err).Msg("Can't encode anchor")
		return anchor, true
	}
	c.transport.SendToAllPeers(data)
	return anchor, true
}

// HandleData applies a payload received from a peer. A world map replaces
// all local tracking state and placed models; an anchor is added as is. Anything else is
// logged and dropped.
func (c *Controller) HandleData(payload []byte, from models.PeerID) {
	p, err := wire.Decode(payload)
	if err != nil {
		c.log.Warn().Err(err).Str("from", from.DisplayName).Msg("Unknown data received")
		return
	}

	switch v := p.(type) {
	case wire.WorldMapPayload:
		c.mu.Lock()
		provider := from
		c.mapProvider = &provider
		c.mu.Unlock()

		// The run below drops every local anchor, so their models go too.
		c.presenter.ClearModels()

		m := v.Map
		cfg := horizontalTracking()
		cfg.InitialWorldMap = &m
		c.engine.Run(cfg, tracking.ResetTracking|tracking.RemoveExistingAnchors)

		if len(c.transport.ConnectedPeers()) > 0 {
			c.setTapEnabled(true)
		}
		c.log.Info().Str("from", from.DisplayName).Int("anchors", len(m.Anchors)).Msg("Received world map")

	case wire.AnchorPayload:
		c.engine.Add(v.Anchor)
		c.log.Debug().Str("from", from.DisplayName).Str("anchor", v.Anchor.Name).Msg("Received anchor")
	}
}

func (c *Controller) setTapEnabled(enabled bool) {
	c.mu.Lock()
	c.tapEnabled = enabled
	c.mu.Unlock()
	c.presenter.SetTapEnabled(enabled)
}

// MapProvider returns the peer that sent the active world map.
func (c *Controller) MapProvider() (models.PeerID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mapProvider == nil {
		return models.PeerID{}, false
	}
	return *c.mapProvider, true
}

// ConnectedPeers returns the transport's connected peers.
func (c *Controller) ConnectedPeers() []models.PeerID {
	return c.transport.ConnectedPeers()
}

func (c *Controller) updateSessionInfo(frame tracking.Frame, state tracking.TrackingState) {
	peers := c.transport.ConnectedPeers()
	names := make([]string, len(peers))
	for i, p := range peers {
		names[i] = p.DisplayName
	}

	in := status.Input{
		Tracking:   state,
		HasAnchors: len(frame.Anchors) > 0,
		Peers:      names,
	}
	if provider, ok := c.MapProvider(); ok {
		in.MapProvider = provider.DisplayName
	}
	c.presenter.SetSessionInfo(status.Message(in))
}

// FrameUpdated gates the share and tap actions on mapping progress while
// the host is still mapping.
func (c *Controller) FrameUpdated(frame tracking.Frame) {
	c.mu.Lock()
	if !c.trackingEnabled {
		c.mu.Unlock()
		return
	}
	connected := len(c.transport.ConnectedPeers()) > 0
	shareEnabled := frame.MappingStatus.Shareable() && connected
	mapped := frame.MappingStatus == tracking.MappingMapped && connected
	if mapped {
		c.trackingEnabled = false
		c.tapEnabled = true
	}
	c.mu.Unlock()

	c.presenter.SetShareEnabled(shareEnabled)
	if mapped {
		c.presenter.SetTapEnabled(true)
	}
	c.presenter.SetMappingStatus(frame.MappingStatus.String())
	c.updateSessionInfo(frame, frame.TrackingState)
}

func (c *Controller) TrackingStateChanged(state tracking.TrackingState) {
	c.updateSessionInfo(c.engine.CurrentFrame(), state)
}

func (c *Controller) AnchorAdded(anchor tracking.Anchor) {
	if c.model == nil || !anchor.IsHero() {
		return
	}
	c.presenter.PlaceModel(anchor, c.model.Clone())
}

func (c *Controller) SessionFailed(err error) {
	c.presenter.SetSessionInfo("Session failed: " + err.Error())
}

func (c *Controller) SessionInterrupted() {
	c.presenter.SetSessionInfo("Session was interrupted.")
}

func (c *Controller) SessionInterruptionEnded() {
	c.presenter.SetSessionInfo("Session interruption ended.")
}

func (c *Controller) ShouldAttemptRelocalization() bool {
	return true
}
