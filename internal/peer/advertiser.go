package peer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mossy-p/arshare/internal/models"
)

type advertiser struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (a *advertiser) stop() {
	a.cancel()
	<-a.done
}

// AcceptURL is the websocket URL browsers dial to join this session.
func (s *Session) AcceptURL() string {
	return strings.TrimRight(s.opts.PublicURL, "/") + AcceptPath + s.opts.ServiceType
}

// AdvertiseSelf makes the local peer discoverable and starts accepting a
// join. The advertisement lives until the session closes; every call adds
// another advertiser.
func (s *Session) AdvertiseSelf(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	ad := models.Advertisement{
		Peer:        s.local,
		ServiceType: s.opts.ServiceType,
		URL:         s.AcceptURL(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.opts.Registry.Advertise(ctx, ad, s.opts.AdvertiseTTL); err != nil {
		return fmt.Errorf("advertise %s: %w", s.opts.ServiceType, err)
	}

	actx, cancel := context.WithCancel(context.Background())
	a := &advertiser{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return ErrClosed
	}
	s.advertisers = append(s.advertisers, a)
	s.mu.Unlock()

	go s.refresh(actx, a, ad)

	s.log.Info().Str("service", ad.ServiceType).Str("url", ad.URL).Msg("Advertising")
	return nil
}

// refresh re-publishes ad at half its TTL until stopped.
func (s *Session) refresh(ctx context.Context, a *advertiser, ad models.Advertisement) {
	defer close(a.done)

	ticker := time.NewTicker(s.opts.AdvertiseTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.opts.Registry.Advertise(ctx, ad, s.opts.AdvertiseTTL); err != nil && ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("Failed to refresh advertisement")
			}
		}
	}
}

// Advertising reports whether the session accepts joins.
func (s *Session) Advertising() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.advertisers) > 0
}

// CanAccept reports why a join for serviceType would be refused, if it would.
func (s *Session) CanAccept(serviceType string) error {
	if serviceType != s.opts.ServiceType {
		return ErrServiceMismatch
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.closed:
		return ErrClosed
	case len(s.advertisers) == 0:
		return ErrNotAdvertising
	case len(s.conns)+s.pending >= MaxPeers:
		return ErrPeerLimit
	}
	return nil
}

// Accept completes a join on an upgraded websocket. claimed is the peer
// named by the joiner's token; its hello must match.
func (s *Session) Accept(ws *websocket.Conn, claimed models.PeerID) error {
	if err := s.CanAccept(s.opts.ServiceType); err != nil {
		ws.Close()
		return err
	}
	if err := s.reserve(); err != nil {
		ws.Close()
		return err
	}
	s.stateChanged(claimed, models.PeerStateConnecting)

	remote, seal, open, err := handshake(ws, s.local, s.opts.ServiceType, false, func(h models.Hello) error {
		if h.ServiceType != s.opts.ServiceType {
			return ErrServiceMismatch
		}
		if h.Peer.ID != claimed.ID {
			return fmt.Errorf("%w: hello from %s does not match token", ErrHandshake, h.Peer.DisplayName)
		}
		return nil
	})
	if err != nil {
		s.release()
		ws.Close()
		s.stateChanged(claimed, models.PeerStateNotConnected)
		return err
	}

	return s.attach(newConn(s, remote.Peer, ws, seal, open))
}

func (s *Session) attach(c *conn) error {
	if err := s.commit(c); err != nil {
		c.ws.Close()
		s.stateChanged(c.remote, models.PeerStateNotConnected)
		return err
	}
	s.stateChanged(c.remote, models.PeerStateConnected)
	c.start()
	return nil
}
