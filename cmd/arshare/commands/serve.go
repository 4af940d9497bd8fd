package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mossy-p/arshare/internal/app"
	"github.com/mossy-p/arshare/internal/telemetry"
)

// runNode serves a node until interrupted. ready runs once the node is up.
func runNode(ready func(ctx context.Context, n *app.Node) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, closeRegistry, err := app.NewRegistry(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open discovery registry")
		return err
	}
	defer closeRegistry()

	metrics, err := telemetry.NewPeerMetrics()
	if err != nil {
		return err
	}

	n := app.New(app.Options{Config: cfg, Registry: registry, Metrics: metrics, Logger: log})
	defer func() {
		if err := n.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to leave session cleanly")
		}
	}()

	if err := n.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to start tracking")
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- n.Serve(ctx) }()

	if ready != nil {
		if err := ready(ctx, n); err != nil {
			stop()
			<-errCh
			return err
		}
	}
	return <-errCh
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a node and wait to be driven over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(nil)
		},
	}
}

func hostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Run a node and host a shared session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(func(ctx context.Context, n *app.Node) error {
				return n.Controller.HostSession(ctx)
			})
		},
	}
}
