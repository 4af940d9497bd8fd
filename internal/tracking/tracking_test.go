package tracking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslationPosition(t *testing.T) {
	m := Translation(1, 2, 3)
	assert.Equal(t, Vector3{1, 2, 3}, m.Position())
	assert.True(t, m.IsFinite())

	m[5] = float32(math.NaN())
	assert.False(t, m.IsFinite())
	m[5] = float32(math.Inf(1))
	assert.False(t, m.IsFinite())
}

func TestPlaneContains(t *testing.T) {
	p := Plane{Center: Vector3{1, 0, 1}, Extent: [2]float32{0.5, 0.25}}

	assert.True(t, p.Contains(1, 1))
	assert.True(t, p.Contains(1.5, 1.25))
	assert.False(t, p.Contains(1.6, 1))
	assert.False(t, p.Contains(1, 0.7))
}

func TestAnchorIsHero(t *testing.T) {
	assert.True(t, NewAnchor("hero", Identity()).IsHero())
	assert.True(t, NewAnchor("hero-2", Identity()).IsHero())
	assert.False(t, NewAnchor("marker", Identity()).IsHero())
	assert.NotEqual(t, NewAnchor("hero", Identity()).ID, NewAnchor("hero", Identity()).ID)
}

func TestMappingStatus(t *testing.T) {
	assert.Equal(t, "Not Available", MappingNotAvailable.String())
	assert.Equal(t, "Limited", MappingLimited.String())
	assert.Equal(t, "Extending", MappingExtending.String())
	assert.Equal(t, "Mapped", MappingMapped.String())
	assert.Equal(t, "Unknown Status", MappingStatus(42).String())

	assert.False(t, MappingLimited.Shareable())
	assert.True(t, MappingExtending.Shareable())
	assert.True(t, MappingMapped.Shareable())
}

func TestTrackingStateString(t *testing.T) {
	assert.Equal(t, "normal", Normal().String())
	assert.Equal(t, "not available", NotAvailable().String())
	assert.Equal(t, "limited(relocalizing)", Limited(ReasonRelocalizing).String())
}

func TestPlaneIsFinite(t *testing.T) {
	p := Plane{Center: Vector3{0, -1, 0}, Extent: [2]float32{1, 1}}
	assert.True(t, p.IsFinite())

	p.Extent[1] = float32(math.Inf(-1))
	assert.False(t, p.IsFinite())

	p = Plane{Center: Vector3{float32(math.NaN()), 0, 0}}
	assert.False(t, p.IsFinite())
	assert.False(t, p.Center.IsFinite())
}
