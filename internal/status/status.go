// Package status derives the session info message shown to the user.
package status

import (
	"fmt"
	"strings"

	"github.com/mossy-p/arshare/internal/tracking"
)

// Input is everything the message depends on.
type Input struct {
	Tracking tracking.TrackingState
	// HasAnchors is true when the current frame holds at least one anchor.
	HasAnchors bool
	// Peers are the display names of connected peers.
	Peers []string
	// MapProvider is the display name of the peer that sent the active
	// world map, empty when none was received.
	MapProvider string
}

type rule struct {
	match   func(Input) bool
	message func(Input) string
}

func text(s string) func(Input) string {
	return func(Input) string { return s }
}

func limited(in Input, reasons ...tracking.LimitedReason) bool {
	if in.Tracking.Kind != tracking.TrackingLimited {
		return false
	}
	for _, r := range reasons {
		if in.Tracking.Reason == r {
			return true
		}
	}
	return false
}

// rules are checked in order and the first match wins.
var rules = []rule{
	{
		match:   func(in Input) bool { return in.Tracking.Kind == tracking.TrackingNotAvailable },
		message: text("Tracking not available."),
	},
	{
		match:   func(in Input) bool { return limited(in, tracking.ReasonExcessiveMotion) },
		message: text("Tracking currently limited - move device more slowly."),
	},
	{
		match: func(in Input) bool { return limited(in, tracking.ReasonInsufficientFeatures) },
		message: text("Tracking currently limited - point the device at an area with visible " +
			"surface area or improve lighting conditions."),
	},
	{
		match: func(in Input) bool {
			return in.MapProvider != "" && limited(in, tracking.ReasonInitializing, tracking.ReasonRelocalizing)
		},
		message: func(in Input) string { return fmt.Sprintf("Received map from %s.", in.MapProvider) },
	},
	{
		match:   func(in Input) bool { return limited(in, tracking.ReasonRelocalizing) },
		message: text("Resuming session - move to where you were when the session was interrupted."),
	},
	{
		match:   func(in Input) bool { return limited(in, tracking.ReasonInitializing) },
		message: text("Initializing your AR session."),
	},
	{
		match: func(in Input) bool {
			return in.Tracking.Kind == tracking.TrackingNormal && len(in.Peers) > 0 && in.MapProvider == ""
		},
		message: func(in Input) string { return "Connected with: " + strings.Join(in.Peers, ", ") },
	},
	{
		match: func(in Input) bool {
			return in.Tracking.Kind == tracking.TrackingNormal && !in.HasAnchors && len(in.Peers) == 0
		},
		message: text("Move around to map the environment or wait to join a shared session."),
	},
}

// Message returns the session info text for in. An empty message means
// the info view should be hidden.
func Message(in Input) string {
	for _, r := range rules {
		if r.match(in) {
			return r.message(in)
		}
	}
	return ""
}
