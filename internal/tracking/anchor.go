package tracking

import (
	"strings"

	"github.com/google/uuid"
)

// HeroAnchorName names anchors created by tap-to-place.
const HeroAnchorName = "hero"

// Anchor is a named pose registered with a tracking session.
type Anchor struct {
	ID        uuid.UUID `json:"id" cbor:"1,keyasint"`
	Name      string    `json:"name" cbor:"2,keyasint"`
	Transform Matrix4   `json:"transform" cbor:"3,keyasint"`
}

// NewAnchor returns an anchor with a fresh identifier.
func NewAnchor(name string, transform Matrix4) Anchor {
	return Anchor{ID: uuid.New(), Name: name, Transform: transform}
}

// IsHero reports whether the anchor carries the player model.
func (a Anchor) IsHero() bool {
	return strings.HasPrefix(a.Name, HeroAnchorName)
}

// Plane is a detected horizontal surface, centered at Center with
// half-extents on the X and Z axes.
type Plane struct {
	ID     uuid.UUID  `json:"id" cbor:"1,keyasint"`
	Center Vector3    `json:"center" cbor:"2,keyasint"`
	Extent [2]float32 `json:"extent" cbor:"3,keyasint"`
}

// Contains reports whether (x, z) falls within the plane bounds.
func (p Plane) Contains(x, z float32) bool {
	dx := x - p.Center[0]
	dz := z - p.Center[2]
	return dx >= -p.Extent[0] && dx <= p.Extent[0] &&
		dz >= -p.Extent[1] && dz <= p.Extent[1]
}

// IsFinite reports whether the center and extents are finite numbers.
func (p Plane) IsFinite() bool {
	return p.Center.IsFinite() && finite(p.Extent[:]...)
}

// WorldMap is a snapshot of the spatial mapping state at one instant.
type WorldMap struct {
	Center        Vector3   `json:"center" cbor:"1,keyasint"`
	Extent        Vector3   `json:"extent" cbor:"2,keyasint"`
	Planes        []Plane   `json:"planes" cbor:"3,keyasint"`
	FeaturePoints []Vector3 `json:"featurePoints" cbor:"4,keyasint"`
	Anchors       []Anchor  `json:"anchors" cbor:"5,keyasint"`
}
