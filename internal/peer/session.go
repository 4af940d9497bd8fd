// Package peer is the two-party session transport. One side advertises a
// service type and accepts a join; the other browses for it and dials.
// After a secure handshake both sides exchange opaque payloads over a
// reliable, ordered websocket channel.
package peer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mossy-p/arshare/internal/discovery"
	"github.com/mossy-p/arshare/internal/models"
	"github.com/mossy-p/arshare/internal/telemetry"
)

const (
	// ServiceType is the default discovery namespace. Advertiser and
	// browser must use the same value to find each other.
	ServiceType = "ar-multi-sample"

	// MaxPeers is the number of remote peers a session holds. Sessions are
	// strictly two-party.
	MaxPeers = 1

	// AcceptPath prefixes the websocket route advertised sessions accept on.
	AcceptPath = "/ws/peer/"
)

// Handler receives inbound payloads.
type Handler interface {
	HandleData(payload []byte, from models.PeerID)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(payload []byte, from models.PeerID)

func (f HandlerFunc) HandleData(payload []byte, from models.PeerID) {
	f(payload, from)
}

// Options configures a Session.
type Options struct {
	ServiceType string
	// Secret signs and verifies peer tokens presented when joining.
	Secret       string
	Registry     discovery.Registry
	PublicURL    string // base websocket URL of this process, e.g. ws://host:8080
	AdvertiseTTL time.Duration
	Logger       zerolog.Logger
	Metrics      *telemetry.PeerMetrics
	Dialer       *websocket.Dialer
}

// Session owns the local peer identity and its connections.
type Session struct {
	local   models.PeerID
	opts    Options
	handler Handler
	log     zerolog.Logger

	mu          sync.RWMutex
	conns       map[uuid.UUID]*conn
	pending     int
	advertisers []*advertiser
	closed      bool
}

// NewSession creates a session for local that delivers inbound payloads
// to handler.
func NewSession(local models.PeerID, handler Handler, opts Options) *Session {
	if opts.ServiceType == "" {
		opts.ServiceType = ServiceType
	}
	if opts.AdvertiseTTL <= 0 {
		opts.AdvertiseTTL = 30 * time.Second
	}
	if opts.Registry == nil {
		opts.Registry = discovery.NewMemoryRegistry()
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	return &Session{
		local:   local,
		opts:    opts,
		handler: handler,
		log:     opts.Logger.With().Str("peer", local.DisplayName).Logger(),
		conns:   make(map[uuid.UUID]*conn),
	}
}

// LocalPeer returns the identity of this device.
func (s *Session) LocalPeer() models.PeerID {
	return s.local
}

// ServiceType returns the discovery namespace of the session.
func (s *Session) ServiceType() string {
	return s.opts.ServiceType
}

// ConnectedPeers returns the peers currently connected, in no particular order.
func (s *Session) ConnectedPeers() []models.PeerID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	peers := make([]models.PeerID, 0, len(s.conns))
	for _, c := range s.conns {
		peers = append(peers, c.remote)
	}
	return peers
}

// SendToAllPeers queues payload for every connected peer. Delivery is
// reliable and ordered per peer; a peer whose send buffer is full loses the
// payload and the failure is only logged.
func (s *Session) SendToAllPeers(payload []byte) {
	data, err := cbor.Marshal(models.Frame{Kind: models.FrameKindData, Data: payload})
	if err != nil {
		s.log.Error().Err(err).Msg("Error encoding frame for peers")
		return
	}

	s.mu.RLock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	if len(conns) == 0 {
		s.log.Debug().Int("bytes", len(payload)).Msg("No connected peers, payload not sent")
		return
	}

	ctx := context.Background()
	for _, c := range conns {
		select {
		case c.send <- data:
			s.opts.Metrics.Sent(ctx, models.FrameKindData.String(), len(payload))
		case <-c.done:
			s.log.Warn().Str("to", c.remote.DisplayName).Msg("Error sending data to peer: connection closed")
		default:
			s.opts.Metrics.Dropped(ctx, models.FrameKindData.String())
			s.log.Warn().Str("to", c.remote.DisplayName).Msg("Error sending data to peer: buffer full")
		}
	}
}

// dispatch routes one inbound frame. Stream and resource transfers are
// not part of the protocol and panic with *UnsupportedError.
func (s *Session) dispatch(f models.Frame, from models.PeerID) {
	s.opts.Metrics.Received(context.Background(), f.Kind.String())

	switch f.Kind {
	case models.FrameKindData:
		s.handler.HandleData(f.Data, from)
	case models.FrameKindStream, models.FrameKindResource:
		panic(&UnsupportedError{Kind: f.Kind, Name: f.Name, From: from})
	default:
		s.log.Warn().Stringer("kind", f.Kind).Str("from", from.DisplayName).Msg("Ignoring unexpected frame")
	}
}

func (s *Session) stateChanged(p models.PeerID, state models.PeerState) {
	switch state {
	case models.PeerStateConnected:
		s.log.Info().Str("remote", p.DisplayName).Msg("Connected")
	case models.PeerStateConnecting:
		s.log.Info().Str("remote", p.DisplayName).Msg("Connecting")
	case models.PeerStateNotConnected:
		s.log.Info().Str("remote", p.DisplayName).Msg("Not connected")
	}
}

// reserve claims a connection slot for a handshake in progress.
func (s *Session) reserve() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if len(s.conns)+s.pending >= MaxPeers {
		return ErrPeerLimit
	}
	s.pending++
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
}

// commit turns a reserved slot into a live connection.
func (s *Session) commit(c *conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending--
	if s.closed {
		return ErrClosed
	}
	if _, dup := s.conns[c.remote.ID]; dup {
		return fmt.Errorf("%w: %s already connected", ErrPeerLimit, c.remote.DisplayName)
	}
	s.conns[c.remote.ID] = c
	return nil
}

func (s *Session) remove(c *conn) {
	s.mu.Lock()
	if cur, ok := s.conns[c.remote.ID]; ok && cur == c {
		delete(s.conns, c.remote.ID)
	}
	s.mu.Unlock()
}

// Close drops every connection and withdraws advertisements.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	advertisers := s.advertisers
	s.advertisers = nil
	s.mu.Unlock()

	for _, a := range advertisers {
		a.stop()
	}
	for _, c := range conns {
		c.close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if len(advertisers) > 0 {
		if err := s.opts.Registry.Withdraw(ctx, s.opts.ServiceType, s.local.ID); err != nil {
			return fmt.Errorf("withdraw advertisement: %w", err)
		}
	}
	return nil
}
