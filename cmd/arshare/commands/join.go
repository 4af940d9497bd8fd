package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/mossy-p/arshare/internal/app"
	"github.com/mossy-p/arshare/internal/models"
)

const browseInterval = time.Second

func joinCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "join [host-name]",
		Short: "Run a node and join the first advertised session, or the one hosted by host-name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var host string
			if len(args) == 1 {
				host = args[0]
			}
			return runNode(func(ctx context.Context, n *app.Node) error {
				ctx, cancel := context.WithTimeout(ctx, wait)
				defer cancel()
				return join(ctx, n, host)
			})
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Minute, "how long to browse for a session")
	return cmd
}

func join(ctx context.Context, n *app.Node, host string) error {
	n.Controller.JoinSession()
	b, d, ok := n.Presenter.Browser()
	if !ok {
		return errors.New("browser not presented")
	}

	ticker := time.NewTicker(browseInterval)
	defer ticker.Stop()

	for {
		ads, err := b.Peers(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Browse failed")
		}
		if ad, ok := pick(ads, host); ok {
			if err := b.Invite(ctx, ad); err != nil {
				log.Warn().Err(err).Str("host", ad.Peer.DisplayName).Msg("Invite failed")
			} else if b.CanFinish() {
				d.BrowserDidFinish()
				log.Info().Str("host", ad.Peer.DisplayName).Msg("Joined session")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			d.BrowserWasCancelled()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func pick(ads []models.Advertisement, host string) (models.Advertisement, bool) {
	for _, ad := range ads {
		if host == "" || ad.Peer.DisplayName == host {
			return ad, true
		}
	}
	return models.Advertisement{}, false
}
