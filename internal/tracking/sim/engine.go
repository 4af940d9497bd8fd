// Package sim is a deterministic world-tracking engine. Planes are
// horizontal rectangles and viewing-surface points map straight onto world
// X/Z, which is enough to drive the shared session headless.
package sim

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mossy-p/arshare/internal/tracking"
)

var _ tracking.Engine = (*Engine)(nil)

// Engine is safe for concurrent use. Delegate callbacks run on the calling
// goroutine after the engine lock is released.
type Engine struct {
	mu       sync.Mutex
	delegate tracking.Delegate
	running  bool
	cfg      tracking.Configuration
	state    tracking.TrackingState
	status   tracking.MappingStatus
	planes   []tracking.Plane
	points   []tracking.Vector3
	anchors  []tracking.Anchor
	runs     int

	// mapErr, when set, is returned by CurrentWorldMap.
	mapErr error
}

func New() *Engine {
	return &Engine{state: tracking.NotAvailable()}
}

func (e *Engine) Supported() bool { return true }

func (e *Engine) SetDelegate(d tracking.Delegate) {
	e.mu.Lock()
	e.delegate = d
	e.mu.Unlock()
}

// Run starts or reconfigures the session. With an initial world map and
// reset options the map's planes and anchors replace the local ones and
// tracking relocalizes against them.
func (e *Engine) Run(cfg tracking.Configuration, opts tracking.RunOptions) {
	e.mu.Lock()
	e.running = true
	e.cfg = cfg
	e.runs++

	if opts&tracking.ResetTracking != 0 {
		e.planes = nil
		e.points = nil
		e.status = tracking.MappingNotAvailable
	}
	if opts&tracking.RemoveExistingAnchors != 0 {
		e.anchors = nil
	}

	var added []tracking.Anchor
	if m := cfg.InitialWorldMap; m != nil {
		e.planes = append(e.planes, m.Planes...)
		e.points = append(e.points, m.FeaturePoints...)
		e.anchors = append(e.anchors, m.Anchors...)
		added = slices.Clone(m.Anchors)
		e.state = tracking.Limited(tracking.ReasonRelocalizing)
	} else {
		e.state = tracking.Limited(tracking.ReasonInitializing)
	}
	state := e.state
	d := e.delegate
	e.mu.Unlock()

	if d != nil {
		d.TrackingStateChanged(state)
		for _, a := range added {
			d.AnchorAdded(a)
		}
	}
}

func (e *Engine) Pause() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

func (e *Engine) Add(anchor tracking.Anchor) {
	e.mu.Lock()
	e.anchors = append(e.anchors, anchor)
	d := e.delegate
	e.mu.Unlock()

	if d != nil {
		d.AnchorAdded(anchor)
	}
}

// CurrentWorldMap snapshots planes, feature points and anchors. It fails
// until the mapping status is extending or mapped.
func (e *Engine) CurrentWorldMap(ctx context.Context) (*tracking.WorldMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mapErr != nil {
		return nil, e.mapErr
	}
	if !e.running || !e.status.Shareable() {
		return nil, tracking.ErrMapUnavailable
	}

	m := &tracking.WorldMap{
		Planes:        slices.Clone(e.planes),
		FeaturePoints: slices.Clone(e.points),
		Anchors:       slices.Clone(e.anchors),
	}
	m.Center, m.Extent = bounds(e.planes)
	return m, nil
}

func bounds(planes []tracking.Plane) (center, extent tracking.Vector3) {
	if len(planes) == 0 {
		return center, extent
	}
	minX, maxX := planes[0].Center[0]-planes[0].Extent[0], planes[0].Center[0]+planes[0].Extent[0]
	minZ, maxZ := planes[0].Center[2]-planes[0].Extent[1], planes[0].Center[2]+planes[0].Extent[1]
	minY, maxY := planes[0].Center[1], planes[0].Center[1]
	for _, p := range planes[1:] {
		minX = min(minX, p.Center[0]-p.Extent[0])
		maxX = max(maxX, p.Center[0]+p.Extent[0])
		minZ = min(minZ, p.Center[2]-p.Extent[1])
		maxZ = max(maxZ, p.Center[2]+p.Extent[1])
		minY = min(minY, p.Center[1])
		maxY = max(maxY, p.Center[1])
	}
	center = tracking.Vector3{(minX + maxX) / 2, (minY + maxY) / 2, (minZ + maxZ) / 2}
	extent = tracking.Vector3{maxX - minX, maxY - minY, maxZ - minZ}
	return center, extent
}

// HitTest intersects the point with detected planes. Only plane geometry
// is modeled, so estimated-plane hits never occur.
func (e *Engine) HitTest(p tracking.Point, types tracking.HitTestTypes) []tracking.HitResult {
	if types&tracking.HitExistingPlaneUsingGeometry == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var hits []tracking.HitResult
	for _, plane := range e.planes {
		if plane.Contains(p.X, p.Y) {
			hits = append(hits, tracking.HitResult{
				Type:           tracking.HitExistingPlaneUsingGeometry,
				WorldTransform: tracking.Translation(p.X, plane.Center[1], p.Y),
			})
		}
	}
	return hits
}

func (e *Engine) CurrentFrame() tracking.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLocked()
}

func (e *Engine) frameLocked() tracking.Frame {
	return tracking.Frame{
		TrackingState: e.state,
		MappingStatus: e.status,
		Anchors:       slices.Clone(e.anchors),
	}
}

// Anchors returns the current anchor set.
func (e *Engine) Anchors() []tracking.Anchor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.anchors)
}

// Configuration returns the last run configuration and how many runs happened.
func (e *Engine) Configuration() (tracking.Configuration, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg, e.runs
}

// Running reports whether the session runs.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// DetectPlane registers a horizontal plane when plane detection is on.
// It reports whether the plane was accepted.
func (e *Engine) DetectPlane(center tracking.Vector3, halfX, halfZ float32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.cfg.PlaneDetection != tracking.PlaneDetectionHorizontal {
		return false
	}
	e.planes = append(e.planes, tracking.Plane{
		ID:     uuid.New(),
		Center: center,
		Extent: [2]float32{halfX, halfZ},
	})
	e.points = append(e.points, center)
	return true
}

func (e *Engine) SetMappingStatus(s tracking.MappingStatus) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// SetTrackingState changes tracking quality and notifies the delegate.
func (e *Engine) SetTrackingState(s tracking.TrackingState) {
	e.mu.Lock()
	e.state = s
	d := e.delegate
	e.mu.Unlock()

	if d != nil {
		d.TrackingStateChanged(s)
	}
}

// FailWorldMap makes CurrentWorldMap return err; nil restores normal behavior.
func (e *Engine) FailWorldMap(err error) {
	e.mu.Lock()
	e.mapErr = err
	e.mu.Unlock()
}

// Tick emits one frame update to the delegate.
func (e *Engine) Tick() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	f := e.frameLocked()
	d := e.delegate
	e.mu.Unlock()

	if d != nil {
		d.FrameUpdated(f)
	}
}

// Fail stops the session and reports err.
func (e *Engine) Fail(err error) {
	e.mu.Lock()
	e.running = false
	d := e.delegate
	e.mu.Unlock()

	if d != nil {
		d.SessionFailed(err)
	}
}

func (e *Engine) Interrupt() {
	e.mu.Lock()
	d := e.delegate
	e.mu.Unlock()
	if d != nil {
		d.SessionInterrupted()
	}
}

// EndInterruption resumes tracking, relocalizing first when the delegate
// asks for it.
func (e *Engine) EndInterruption() {
	e.mu.Lock()
	d := e.delegate
	e.mu.Unlock()
	if d == nil {
		return
	}

	d.SessionInterruptionEnded()
	if d.ShouldAttemptRelocalization() {
		e.SetTrackingState(tracking.Limited(tracking.ReasonRelocalizing))
	}
}
