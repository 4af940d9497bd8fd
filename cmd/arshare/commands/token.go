package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mossy-p/arshare/internal/middleware"
	"github.com/mossy-p/arshare/internal/models"
)

func tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token [display-name]",
		Short: "Print a peer token for driving a node over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := models.NewPeerID(args[0])
			token, err := middleware.IssuePeerToken(cfg.JWTSecret, peer, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
