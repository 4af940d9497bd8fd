package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mossy-p/arshare/config"
	"github.com/mossy-p/arshare/internal/logging"
)

var (
	cfg *config.Config
	log zerolog.Logger

	port        string
	displayName string
	discovery   string
	logLevel    string
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "arshare",
		Short:        "Two-party shared AR session node",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}

			// Flags win over the environment.
			if port != "" {
				cfg.SetPort(port)
			}
			if displayName != "" {
				cfg.Peer.DisplayName = displayName
			}
			if discovery != "" {
				cfg.Peer.DiscoveryBackend = discovery
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			log = logging.New(cfg.Environment, cfg.LogLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&port, "port", "", "HTTP port (overrides PORT)")
	root.PersistentFlags().StringVar(&displayName, "name", "", "display name shown to peers (overrides DISPLAY_NAME)")
	root.PersistentFlags().StringVar(&discovery, "discovery", "", "discovery backend: redis or memory (overrides DISCOVERY_BACKEND)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(serveCmd(), hostCmd(), joinCmd(), tokenCmd())
	return root
}
