package peer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/mossy-p/arshare/internal/middleware"
	"github.com/mossy-p/arshare/internal/models"
)

const tokenTTL = 5 * time.Minute

// Browser finds advertising peers of the session's service type and
// invites one of them.
type Browser struct {
	session      *Session
	MinimumPeers int
	MaximumPeers int
}

// SetupBrowser returns a browser configured for exactly one remote peer.
func (s *Session) SetupBrowser() *Browser {
	return &Browser{session: s, MinimumPeers: 1, MaximumPeers: MaxPeers}
}

// ServiceType returns the namespace the browser searches.
func (b *Browser) ServiceType() string {
	return b.session.opts.ServiceType
}

// Peers lists the advertising peers, excluding the local one.
func (b *Browser) Peers(ctx context.Context) ([]models.Advertisement, error) {
	ads, err := b.session.opts.Registry.Browse(ctx, b.session.opts.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", b.session.opts.ServiceType, err)
	}

	out := make([]models.Advertisement, 0, len(ads))
	for _, ad := range ads {
		if ad.Peer.ID != b.session.local.ID {
			out = append(out, ad)
		}
	}
	return out, nil
}

// Invite joins the session ad advertises.
func (b *Browser) Invite(ctx context.Context, ad models.Advertisement) error {
	if len(b.session.ConnectedPeers()) >= b.MaximumPeers {
		return ErrPeerLimit
	}
	return b.session.connect(ctx, ad)
}

// CanFinish reports whether enough peers are connected to close the browser.
func (b *Browser) CanFinish() bool {
	n := len(b.session.ConnectedPeers())
	return n >= b.MinimumPeers && n <= b.MaximumPeers
}

func (s *Session) connect(ctx context.Context, ad models.Advertisement) error {
	if ad.ServiceType != s.opts.ServiceType {
		return ErrServiceMismatch
	}
	if ad.Peer.ID == s.local.ID {
		return errors.New("cannot join own advertisement")
	}

	u, err := url.Parse(ad.URL)
	if err != nil {
		return fmt.Errorf("invalid advertisement URL: %w", err)
	}
	token, err := middleware.IssuePeerToken(s.opts.Secret, s.local, tokenTTL)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	if err := s.reserve(); err != nil {
		return err
	}
	s.stateChanged(ad.Peer, models.PeerStateConnecting)

	ws, _, err := s.opts.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		s.release()
		s.stateChanged(ad.Peer, models.PeerStateNotConnected)
		return fmt.Errorf("dial %s: %w", ad.Peer.DisplayName, err)
	}

	remote, seal, open, err := handshake(ws, s.local, s.opts.ServiceType, true, func(h models.Hello) error {
		if h.ServiceType != s.opts.ServiceType {
			return ErrServiceMismatch
		}
		if h.Peer.ID != ad.Peer.ID {
			return fmt.Errorf("%w: answered by %s instead of %s", ErrHandshake, h.Peer.DisplayName, ad.Peer.DisplayName)
		}
		return nil
	})
	if err != nil {
		s.release()
		ws.Close()
		s.stateChanged(ad.Peer, models.PeerStateNotConnected)
		return err
	}

	return s.attach(newConn(s, remote.Peer, ws, seal, open))
}
