package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossy-p/arshare/internal/tracking"
)

type recordingDelegate struct {
	states      []tracking.TrackingState
	frames      []tracking.Frame
	added       []tracking.Anchor
	failures    []error
	interrupted int
	resumed     int
	relocalize  bool
}

func (d *recordingDelegate) TrackingStateChanged(s tracking.TrackingState) {
	d.states = append(d.states, s)
}
func (d *recordingDelegate) FrameUpdated(f tracking.Frame)     { d.frames = append(d.frames, f) }
func (d *recordingDelegate) AnchorAdded(a tracking.Anchor)     { d.added = append(d.added, a) }
func (d *recordingDelegate) SessionFailed(err error)           { d.failures = append(d.failures, err) }
func (d *recordingDelegate) SessionInterrupted()               { d.interrupted++ }
func (d *recordingDelegate) SessionInterruptionEnded()         { d.resumed++ }
func (d *recordingDelegate) ShouldAttemptRelocalization() bool { return d.relocalize }

func horizontal() tracking.Configuration {
	return tracking.Configuration{PlaneDetection: tracking.PlaneDetectionHorizontal}
}

func TestDetectPlaneRequiresHorizontalDetection(t *testing.T) {
	e := New()
	assert.False(t, e.DetectPlane(tracking.Vector3{}, 1, 1), "not running")

	e.Run(tracking.Configuration{}, 0)
	assert.False(t, e.DetectPlane(tracking.Vector3{}, 1, 1), "detection off")

	e.Run(horizontal(), 0)
	assert.True(t, e.DetectPlane(tracking.Vector3{}, 1, 1))
}

func TestHitTest(t *testing.T) {
	e := New()
	e.Run(horizontal(), 0)
	require.True(t, e.DetectPlane(tracking.Vector3{0, -1, 0}, 1, 1))

	hits := e.HitTest(tracking.Point{X: 0.5, Y: -0.5}, tracking.HitExistingPlaneUsingGeometry|tracking.HitEstimatedHorizontalPlane)
	require.Len(t, hits, 1)
	assert.Equal(t, tracking.Vector3{0.5, -1, -0.5}, hits[0].WorldTransform.Position())

	assert.Empty(t, e.HitTest(tracking.Point{X: 3, Y: 0}, tracking.HitExistingPlaneUsingGeometry))
	assert.Empty(t, e.HitTest(tracking.Point{X: 0, Y: 0}, tracking.HitEstimatedHorizontalPlane))
}

func TestCurrentWorldMapRequiresMapping(t *testing.T) {
	ctx := context.Background()
	e := New()
	e.Run(horizontal(), 0)
	e.DetectPlane(tracking.Vector3{}, 1, 2)
	e.Add(tracking.NewAnchor("hero", tracking.Identity()))

	_, err := e.CurrentWorldMap(ctx)
	assert.ErrorIs(t, err, tracking.ErrMapUnavailable)

	e.SetMappingStatus(tracking.MappingExtending)
	m, err := e.CurrentWorldMap(ctx)
	require.NoError(t, err)
	assert.Len(t, m.Planes, 1)
	assert.Len(t, m.Anchors, 1)
	assert.Equal(t, tracking.Vector3{2, 0, 4}, m.Extent)

	boom := errors.New("boom")
	e.FailWorldMap(boom)
	_, err = e.CurrentWorldMap(ctx)
	assert.ErrorIs(t, err, boom)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	e.FailWorldMap(nil)
	_, err = e.CurrentWorldMap(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithWorldMapReplacesState(t *testing.T) {
	d := &recordingDelegate{}
	e := New()
	e.SetDelegate(d)
	e.Run(horizontal(), 0)
	e.DetectPlane(tracking.Vector3{5, 0, 5}, 1, 1)
	e.Add(tracking.NewAnchor("local", tracking.Identity()))

	remote := tracking.NewAnchor("hero", tracking.Translation(1, 0, 1))
	m := &tracking.WorldMap{
		Planes:  []tracking.Plane{{Center: tracking.Vector3{0, 0, 0}, Extent: [2]float32{2, 2}}},
		Anchors: []tracking.Anchor{remote},
	}
	cfg := horizontal()
	cfg.InitialWorldMap = m
	e.Run(cfg, tracking.ResetTracking|tracking.RemoveExistingAnchors)

	assert.Equal(t, []tracking.Anchor{remote}, e.Anchors())
	assert.Equal(t, tracking.Limited(tracking.ReasonRelocalizing), e.CurrentFrame().TrackingState)
	assert.Empty(t, e.HitTest(tracking.Point{X: 5, Y: 5}, tracking.HitExistingPlaneUsingGeometry))
	assert.Len(t, e.HitTest(tracking.Point{X: 1, Y: 1}, tracking.HitExistingPlaneUsingGeometry), 1)
	assert.Equal(t, remote, d.added[len(d.added)-1])

	_, runs := e.Configuration()
	assert.Equal(t, 2, runs)
}

func TestTickAndLifecycleCallbacks(t *testing.T) {
	d := &recordingDelegate{relocalize: true}
	e := New()
	e.SetDelegate(d)

	e.Tick()
	assert.Empty(t, d.frames, "paused engines emit no frames")

	e.Run(horizontal(), 0)
	e.SetMappingStatus(tracking.MappingMapped)
	e.Tick()
	require.Len(t, d.frames, 1)
	assert.Equal(t, tracking.MappingMapped, d.frames[0].MappingStatus)

	e.Interrupt()
	e.EndInterruption()
	assert.Equal(t, 1, d.interrupted)
	assert.Equal(t, 1, d.resumed)
	assert.Equal(t, tracking.Limited(tracking.ReasonRelocalizing), d.states[len(d.states)-1])

	e.Fail(errors.New("camera lost"))
	require.Len(t, d.failures, 1)
	assert.False(t, e.Running())

	e.Run(horizontal(), 0)
	e.Pause()
	assert.False(t, e.Running())
}

func TestScanStepsTowardsMapped(t *testing.T) {
	d := &recordingDelegate{}
	e := New()
	e.SetDelegate(d)
	e.Run(horizontal(), 0)

	e.step()
	assert.Equal(t, tracking.Normal(), e.CurrentFrame().TrackingState)

	e.step()
	require.Len(t, e.HitTest(tracking.Point{}, tracking.HitExistingPlaneUsingGeometry), 1)

	for i := 0; i < 3; i++ {
		e.step()
	}
	assert.Equal(t, tracking.MappingMapped, e.CurrentFrame().MappingStatus)

	e.step()
	assert.Equal(t, tracking.MappingMapped, e.CurrentFrame().MappingStatus)
}

func TestScanWithoutPlaneDetectionNeverMaps(t *testing.T) {
	e := New()
	e.Run(tracking.Configuration{}, 0)
	for i := 0; i < 5; i++ {
		e.step()
	}
	assert.Equal(t, tracking.MappingNotAvailable, e.CurrentFrame().MappingStatus)
}

func TestScanStopsWithContext(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Scan(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Scan did not return")
	}
}
