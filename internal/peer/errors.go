package peer

import (
	"errors"
	"fmt"

	"github.com/mossy-p/arshare/internal/models"
)

var (
	// ErrPeerLimit is returned when a session already holds its one remote peer.
	ErrPeerLimit = errors.New("peer limit reached")
	// ErrNotAdvertising is returned when a join arrives at a session that is not advertising.
	ErrNotAdvertising = errors.New("session is not advertising")
	// ErrServiceMismatch is returned when peers use different service types.
	ErrServiceMismatch = errors.New("service type mismatch")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
	// ErrHandshake is returned when the secure handshake fails.
	ErrHandshake = errors.New("handshake failed")
)

// UnsupportedError reports a transfer kind this protocol never sends.
// Receiving one is a protocol violation and is raised as a panic.
type UnsupportedError struct {
	Kind models.FrameKind
	Name string
	From models.PeerID
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("a %s named %q was sent to this service by %s; this service does not send or receive %ss",
		e.Kind, e.Name, e.From.DisplayName, e.Kind)
}
