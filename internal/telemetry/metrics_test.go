package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestPeerMetricsNoopProvider(t *testing.T) {
	pm, err := newPeerMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NotPanics(t, func() {
		pm.Sent(ctx, "data", 128)
		pm.Received(ctx, "data")
		pm.Dropped(ctx, "data")
	})
}

func TestNewPeerMetricsGlobal(t *testing.T) {
	pm, err := NewPeerMetrics()
	require.NoError(t, err)
	require.NotNil(t, pm)
}

func TestNilPeerMetrics(t *testing.T) {
	var pm *PeerMetrics
	require.NotPanics(t, func() {
		pm.Sent(context.Background(), "data", 1)
		pm.Received(context.Background(), "data")
		pm.Dropped(context.Background(), "data")
	})
}
