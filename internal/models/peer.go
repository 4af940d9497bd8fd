package models

import (
	"time"

	"github.com/google/uuid"
)

// PeerID identifies a device taking part in a shared session.
// It is created once and never changes for the lifetime of a session.
type PeerID struct {
	ID          uuid.UUID `json:"id" cbor:"1,keyasint"`
	DisplayName string    `json:"displayName" cbor:"2,keyasint"`
}

// NewPeerID returns a fresh identity with the given display name.
func NewPeerID(displayName string) PeerID {
	return PeerID{ID: uuid.New(), DisplayName: displayName}
}

func (p PeerID) String() string {
	return p.DisplayName
}

// IsZero reports whether p was never assigned.
func (p PeerID) IsZero() bool {
	return p.ID == uuid.Nil
}

// PeerState is the connection state of a remote peer.
type PeerState int

const (
	PeerStateNotConnected PeerState = iota
	PeerStateConnecting
	PeerStateConnected
)

func (s PeerState) String() string {
	switch s {
	case PeerStateConnecting:
		return "connecting"
	case PeerStateConnected:
		return "connected"
	default:
		return "not connected"
	}
}

// Advertisement is what an advertising peer publishes to the discovery registry
type Advertisement struct {
	Peer        PeerID    `json:"peer"`
	ServiceType string    `json:"serviceType"`
	URL         string    `json:"url"` // websocket accept URL
	CreatedAt   time.Time `json:"createdAt"`
}
