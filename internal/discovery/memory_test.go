package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossy-p/arshare/internal/models"
)

func ad(name, service string) models.Advertisement {
	return models.Advertisement{
		Peer:        models.NewPeerID(name),
		ServiceType: service,
		URL:         "ws://" + name + "/ws/peer/" + service,
	}
}

func TestMemoryRegistryBrowseByService(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	bob := ad("bob", "ar-multi-sample")
	alice := ad("alice", "ar-multi-sample")
	other := ad("carol", "other-service")
	for _, a := range []models.Advertisement{bob, alice, other} {
		require.NoError(t, r.Advertise(ctx, a, time.Minute))
	}

	ads, err := r.Browse(ctx, "ar-multi-sample")
	require.NoError(t, err)
	assert.Equal(t, []models.Advertisement{alice, bob}, ads)

	require.NoError(t, r.Withdraw(ctx, "ar-multi-sample", alice.Peer.ID))
	ads, err = r.Browse(ctx, "ar-multi-sample")
	require.NoError(t, err)
	assert.Equal(t, []models.Advertisement{bob}, ads)
}

func TestMemoryRegistryExpiresEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewMemoryRegistry()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Advertise(ctx, ad("bob", "svc"), 10*time.Second))

	now = now.Add(5 * time.Second)
	ads, err := r.Browse(ctx, "svc")
	require.NoError(t, err)
	assert.Len(t, ads, 1)

	now = now.Add(10 * time.Second)
	ads, err = r.Browse(ctx, "svc")
	require.NoError(t, err)
	assert.Empty(t, ads)
}

func TestMemoryRegistryReadvertiseReplaces(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	a := ad("bob", "svc")
	require.NoError(t, r.Advertise(ctx, a, time.Minute))
	a.URL = "ws://elsewhere/ws/peer/svc"
	require.NoError(t, r.Advertise(ctx, a, time.Minute))

	ads, err := r.Browse(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "ws://elsewhere/ws/peer/svc", ads[0].URL)
}
