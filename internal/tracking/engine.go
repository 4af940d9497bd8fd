// Package tracking describes the world-tracking engine the session
// controller drives, and the value types it exchanges with it.
package tracking

import (
	"context"
	"errors"
)

// ErrMapUnavailable is returned when a world map is requested before the
// engine has mapped enough of the environment.
var ErrMapUnavailable = errors.New("world map not available")

// PlaneDetection selects which surfaces the engine looks for.
type PlaneDetection uint8

const (
	PlaneDetectionNone PlaneDetection = iota
	PlaneDetectionHorizontal
)

// Configuration is a world-tracking run configuration.
type Configuration struct {
	PlaneDetection  PlaneDetection
	InitialWorldMap *WorldMap
}

// RunOptions control how a new configuration replaces the running one.
type RunOptions uint8

const (
	ResetTracking RunOptions = 1 << iota
	RemoveExistingAnchors
)

// HitTestTypes selects what a hit test may intersect.
type HitTestTypes uint8

const (
	HitExistingPlaneUsingGeometry HitTestTypes = 1 << iota
	HitEstimatedHorizontalPlane
)

// HitResult is one intersection, nearest first.
type HitResult struct {
	Type           HitTestTypes
	WorldTransform Matrix4
}

// Engine is the world-tracking session.
type Engine interface {
	Supported() bool
	Run(cfg Configuration, opts RunOptions)
	Pause()
	Add(anchor Anchor)
	// CurrentWorldMap blocks until the engine produces a snapshot or fails.
	CurrentWorldMap(ctx context.Context) (*WorldMap, error)
	HitTest(p Point, types HitTestTypes) []HitResult
	CurrentFrame() Frame
	SetDelegate(d Delegate)
}

// Delegate receives engine callbacks.
type Delegate interface {
	TrackingStateChanged(state TrackingState)
	FrameUpdated(frame Frame)
	AnchorAdded(anchor Anchor)
	SessionFailed(err error)
	SessionInterrupted()
	SessionInterruptionEnded()
	ShouldAttemptRelocalization() bool
}
