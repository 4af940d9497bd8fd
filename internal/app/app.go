// Package app assembles a node: tracking engine, controller, peer session
// and HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mossy-p/arshare/config"
	"github.com/mossy-p/arshare/internal/asset"
	"github.com/mossy-p/arshare/internal/controller"
	"github.com/mossy-p/arshare/internal/discovery"
	"github.com/mossy-p/arshare/internal/handlers"
	"github.com/mossy-p/arshare/internal/models"
	"github.com/mossy-p/arshare/internal/peer"
	"github.com/mossy-p/arshare/internal/redis"
	"github.com/mossy-p/arshare/internal/telemetry"
	"github.com/mossy-p/arshare/internal/tracking/sim"
)

const shutdownTimeout = 5 * time.Second

// Options configures New.
type Options struct {
	Config   *config.Config
	Registry discovery.Registry
	Metrics  *telemetry.PeerMetrics
	Logger   zerolog.Logger
}

// Node is one device taking part in a shared session.
type Node struct {
	Config     *config.Config
	Engine     *sim.Engine
	Presenter  *controller.StatePresenter
	Controller *controller.Controller
	Session    *peer.Session
	API        *handlers.API
	Handler    http.Handler

	log zerolog.Logger
}

// New wires a node around a fresh peer identity.
func New(opts Options) *Node {
	cfg := opts.Config
	n := &Node{
		Config:    cfg,
		Engine:    sim.New(),
		Presenter: controller.NewStatePresenter(opts.Logger),
		log:       opts.Logger,
	}

	local := models.NewPeerID(cfg.Peer.DisplayName)
	n.Controller = controller.New(controller.Options{
		Engine:    n.Engine,
		Presenter: n.Presenter,
		Model:     asset.MustLoadPlayerModel(),
		Logger:    opts.Logger,
		NewTransport: func(h peer.Handler) controller.Transport {
			n.Session = peer.NewSession(local, h, peer.Options{
				ServiceType:  cfg.Peer.ServiceType,
				Secret:       cfg.JWTSecret,
				Registry:     opts.Registry,
				PublicURL:    cfg.Peer.PublicURL,
				AdvertiseTTL: cfg.Peer.AdvertiseTTL,
				Logger:       opts.Logger,
				Metrics:      opts.Metrics,
			})
			return controller.PeerTransport(n.Session)
		},
	})

	n.API = &handlers.API{
		Controller: n.Controller,
		Presenter:  n.Presenter,
		Session:    n.Session,
		Log:        opts.Logger,
	}
	n.Handler = handlers.NewRouter(handlers.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      cfg.JWTSecret,
		Production:     cfg.IsProduction(),
	}, n.API)
	return n
}

// Start runs tracking, brings up the UI and, when configured, the
// simulated room scan. The scan stops with ctx.
func (n *Node) Start(ctx context.Context) error {
	n.Controller.Start()
	if err := n.Controller.Appear(); err != nil {
		return err
	}
	if step := n.Config.Tracking.ScanInterval; step > 0 {
		go n.Engine.Scan(ctx, step)
	}
	return nil
}

// Serve serves HTTP on the configured port until ctx is done.
func (n *Node) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + n.Config.Port,
		Handler:           n.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		n.log.Info().
			Str("port", n.Config.Port).
			Str("peer", n.Session.LocalPeer().String()).
			Msg("Starting arshare node")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		n.log.Warn().Err(err).Msg("HTTP shutdown")
	}
	return nil
}

// Close pauses tracking and leaves the session.
func (n *Node) Close() error {
	n.Controller.Stop()
	return n.Session.Close()
}

// NewRegistry opens the configured discovery backend. The returned close
// function releases it.
func NewRegistry(ctx context.Context, cfg *config.Config, log zerolog.Logger) (discovery.Registry, func() error, error) {
	switch cfg.Peer.DiscoveryBackend {
	case "memory":
		return discovery.NewMemoryRegistry(), func() error { return nil }, nil
	case "redis":
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("host", cfg.Redis.Host).Msg("Redis connection established")
		return discovery.NewRedisRegistry(client, log), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown discovery backend %q", cfg.Peer.DiscoveryBackend)
}
