package tracking

import "fmt"

// TrackingStateKind is the coarse camera tracking quality.
type TrackingStateKind uint8

const (
	TrackingNotAvailable TrackingStateKind = iota
	TrackingLimited
	TrackingNormal
)

// LimitedReason explains a limited tracking state.
type LimitedReason uint8

const (
	ReasonNone LimitedReason = iota
	ReasonInitializing
	ReasonExcessiveMotion
	ReasonInsufficientFeatures
	ReasonRelocalizing
)

func (r LimitedReason) String() string {
	switch r {
	case ReasonInitializing:
		return "initializing"
	case ReasonExcessiveMotion:
		return "excessive motion"
	case ReasonInsufficientFeatures:
		return "insufficient features"
	case ReasonRelocalizing:
		return "relocalizing"
	default:
		return "none"
	}
}

// TrackingState pairs a kind with its limitation reason, if any.
type TrackingState struct {
	Kind   TrackingStateKind
	Reason LimitedReason
}

func NotAvailable() TrackingState { return TrackingState{Kind: TrackingNotAvailable} }

func Normal() TrackingState { return TrackingState{Kind: TrackingNormal} }

func Limited(reason LimitedReason) TrackingState {
	return TrackingState{Kind: TrackingLimited, Reason: reason}
}

func (s TrackingState) String() string {
	switch s.Kind {
	case TrackingNormal:
		return "normal"
	case TrackingLimited:
		return fmt.Sprintf("limited(%s)", s.Reason)
	default:
		return "not available"
	}
}

// MappingStatus is the engine-reported progress of spatial scanning.
type MappingStatus uint8

const (
	MappingNotAvailable MappingStatus = iota
	MappingLimited
	MappingExtending
	MappingMapped
)

func (s MappingStatus) String() string {
	switch s {
	case MappingNotAvailable:
		return "Not Available"
	case MappingLimited:
		return "Limited"
	case MappingExtending:
		return "Extending"
	case MappingMapped:
		return "Mapped"
	default:
		return "Unknown Status"
	}
}

// Shareable reports whether a world map can be captured in this status.
func (s MappingStatus) Shareable() bool {
	return s == MappingExtending || s == MappingMapped
}

// Frame is one engine update.
type Frame struct {
	TrackingState TrackingState
	MappingStatus MappingStatus
	Anchors       []Anchor
}
