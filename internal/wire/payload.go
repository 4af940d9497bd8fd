// Package wire encodes the two payload kinds peers exchange: a full world
// map and a single anchor. Each encoded payload carries an explicit kind
// tag, so a blob produced for one kind never decodes as the other.
package wire

import (
	"errors"
	"fmt"

	"github.com/mossy-p/arshare/internal/tracking"
)

// Kind tags a payload variant on the wire.
type Kind uint8

const (
	KindWorldMap Kind = iota + 1
	KindAnchor
)

func (k Kind) String() string {
	switch k {
	case KindWorldMap:
		return "world map"
	case KindAnchor:
		return "anchor"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	// ErrUnknownPayload is returned when no decoder accepts a payload.
	ErrUnknownPayload = errors.New("unknown payload")
	// ErrPayloadTooLarge is returned for payloads above MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// MaxPayloadSize bounds a single encoded payload.
const MaxPayloadSize = 64 << 20

// Payload is either a WorldMapPayload or an AnchorPayload.
type Payload interface {
	Kind() Kind
	validate() error
}

// WorldMapPayload carries a full world map snapshot.
type WorldMapPayload struct {
	Map tracking.WorldMap
}

func (WorldMapPayload) Kind() Kind { return KindWorldMap }

func (p WorldMapPayload) validate() error {
	if !p.Map.Center.IsFinite() || !p.Map.Extent.IsFinite() {
		return errors.New("map bounds are not finite")
	}
	for i, pl := range p.Map.Planes {
		if !pl.IsFinite() {
			return fmt.Errorf("plane %d is not finite", i)
		}
	}
	for i, v := range p.Map.FeaturePoints {
		if !v.IsFinite() {
			return fmt.Errorf("feature point %d is not finite", i)
		}
	}
	for i, a := range p.Map.Anchors {
		if err := validateAnchor(a); err != nil {
			return fmt.Errorf("anchor %d: %w", i, err)
		}
	}
	return nil
}

// AnchorPayload carries one anchor placed by the sender.
type AnchorPayload struct {
	Anchor tracking.Anchor
}

func (AnchorPayload) Kind() Kind { return KindAnchor }

func (p AnchorPayload) validate() error {
	return validateAnchor(p.Anchor)
}

func validateAnchor(a tracking.Anchor) error {
	if a.Name == "" {
		return errors.New("anchor has no name")
	}
	if !a.Transform.IsFinite() {
		return errors.New("anchor transform is not finite")
	}
	return nil
}
