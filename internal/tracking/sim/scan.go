package sim

import (
	"context"
	"time"

	"github.com/mossy-p/arshare/internal/tracking"
)

// Floor is the plane Scan detects, relative to the session origin.
var Floor = struct {
	Center       tracking.Vector3
	HalfX, HalfZ float32
}{Center: tracking.Vector3{0, -1.4, 0}, HalfX: 1.5, HalfZ: 1.5}

// Scan emulates a device sweeping a room. Each step either settles
// tracking, detects the floor once plane detection is on, or advances
// mapping by one status, and then emits a frame. It returns when ctx is done.
func (e *Engine) Scan(ctx context.Context, step time.Duration) {
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.step()
			e.Tick()
		}
	}
}

func (e *Engine) step() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	settle := e.state.Kind != tracking.TrackingNormal
	detect := !settle && len(e.planes) == 0
	if !settle && !detect && e.status < tracking.MappingMapped {
		e.status++
	}
	e.mu.Unlock()

	switch {
	case settle:
		e.SetTrackingState(tracking.Normal())
	case detect:
		e.DetectPlane(Floor.Center, Floor.HalfX, Floor.HalfZ)
	}
}
