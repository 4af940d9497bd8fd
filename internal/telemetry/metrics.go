package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/mossy-p/arshare/internal/peer"

// PeerMetrics holds the transport instruments. A nil *PeerMetrics records
// nothing.
type PeerMetrics struct {
	framesSent     metric.Int64Counter
	framesReceived metric.Int64Counter
	framesDropped  metric.Int64Counter
	bytesSent      metric.Int64Counter
}

// NewPeerMetrics registers the transport instruments on the global meter
// provider. Without a configured provider the instruments are no-ops.
func NewPeerMetrics() (*PeerMetrics, error) {
	return newPeerMetrics(otel.Meter(instrumentationName))
}

func newPeerMetrics(m metric.Meter) (*PeerMetrics, error) {
	var (
		pm  PeerMetrics
		err error
	)

	pm.framesSent, err = m.Int64Counter(
		"arshare.peer.frames.sent",
		metric.WithDescription("Frames queued for delivery to connected peers"),
	)
	if err != nil {
		return nil, fmt.Errorf("frames sent counter: %w", err)
	}

	pm.framesReceived, err = m.Int64Counter(
		"arshare.peer.frames.received",
		metric.WithDescription("Frames received from connected peers"),
	)
	if err != nil {
		return nil, fmt.Errorf("frames received counter: %w", err)
	}

	pm.framesDropped, err = m.Int64Counter(
		"arshare.peer.frames.dropped",
		metric.WithDescription("Frames dropped because a peer send buffer was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("frames dropped counter: %w", err)
	}

	pm.bytesSent, err = m.Int64Counter(
		"arshare.peer.bytes.sent",
		metric.WithDescription("Payload bytes queued for delivery"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("bytes sent counter: %w", err)
	}

	return &pm, nil
}

func kindAttr(kind string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("kind", kind))
}

// Sent records one frame of n payload bytes queued for a peer.
func (m *PeerMetrics) Sent(ctx context.Context, kind string, n int) {
	if m == nil {
		return
	}
	m.framesSent.Add(ctx, 1, kindAttr(kind))
	m.bytesSent.Add(ctx, int64(n), kindAttr(kind))
}

// Received records one inbound frame.
func (m *PeerMetrics) Received(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.framesReceived.Add(ctx, 1, kindAttr(kind))
}

// Dropped records one frame dropped on a full send buffer.
func (m *PeerMetrics) Dropped(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.framesDropped.Add(ctx, 1, kindAttr(kind))
}
