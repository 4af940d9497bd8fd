package discovery

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossy-p/arshare/config"
	"github.com/mossy-p/arshare/internal/redis"
)

const testService = "ar-multi-sample"

func newMiniRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := redis.Connect(context.Background(), config.RedisConfig{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewRedisRegistry(client, zerolog.Nop()), mr
}

func TestRedisRegistryAdvertiseBrowseWithdraw(t *testing.T) {
	ctx := context.Background()
	r, mr := newMiniRegistry(t)

	bob := ad("bob", testService)
	alice := ad("alice", testService)
	other := ad("carol", "other-service")
	require.NoError(t, r.Advertise(ctx, bob, time.Minute))
	require.NoError(t, r.Advertise(ctx, alice, time.Minute))
	require.NoError(t, r.Advertise(ctx, other, time.Minute))

	assert.Equal(t, time.Minute, mr.TTL(peerKey(testService, bob.Peer.ID)))
	assert.Equal(t, 24*time.Hour, mr.TTL(peersKey(testService)))

	ads, err := r.Browse(ctx, testService)
	require.NoError(t, err)
	require.Len(t, ads, 2)
	assert.Equal(t, alice.Peer, ads[0].Peer)
	assert.Equal(t, bob.Peer, ads[1].Peer)
	assert.Equal(t, bob.URL, ads[1].URL)

	require.NoError(t, r.Withdraw(ctx, testService, bob.Peer.ID))
	assert.False(t, mr.Exists(peerKey(testService, bob.Peer.ID)))
	member, err := mr.SIsMember(peersKey(testService), bob.Peer.ID.String())
	require.NoError(t, err)
	assert.False(t, member)

	ads, err = r.Browse(ctx, testService)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, alice.Peer, ads[0].Peer)
}

func TestRedisRegistryExpiresAdvertisements(t *testing.T) {
	ctx := context.Background()
	r, mr := newMiniRegistry(t)

	short := ad("short", testService)
	long := ad("long", testService)
	require.NoError(t, r.Advertise(ctx, short, 10*time.Second))
	require.NoError(t, r.Advertise(ctx, long, time.Minute))

	mr.FastForward(11 * time.Second)

	ads, err := r.Browse(ctx, testService)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, long.Peer, ads[0].Peer)

	// The expired member is pruned from the service set.
	members, err := mr.Members(peersKey(testService))
	require.NoError(t, err)
	assert.Equal(t, []string{long.Peer.ID.String()}, members)
}

func TestRedisRegistryRefreshExtendsTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newMiniRegistry(t)

	bob := ad("bob", testService)
	require.NoError(t, r.Advertise(ctx, bob, 10*time.Second))
	mr.FastForward(6 * time.Second)
	require.NoError(t, r.Advertise(ctx, bob, 10*time.Second))
	mr.FastForward(6 * time.Second)

	ads, err := r.Browse(ctx, testService)
	require.NoError(t, err)
	assert.Len(t, ads, 1)
}

func TestRedisRegistryPrunesStaleMembers(t *testing.T) {
	ctx := context.Background()
	r, mr := newMiniRegistry(t)

	bob := ad("bob", testService)
	require.NoError(t, r.Advertise(ctx, bob, time.Minute))

	missing := uuid.New().String()
	unreadable := uuid.New()
	_, err := mr.SetAdd(peersKey(testService), "not-a-uuid", missing, unreadable.String())
	require.NoError(t, err)
	require.NoError(t, mr.Set(peerKey(testService, unreadable), "{broken"))

	ads, err := r.Browse(ctx, testService)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, bob.Peer, ads[0].Peer)

	members, err := mr.Members(peersKey(testService))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{bob.Peer.ID.String(), unreadable.String()}, members)
}

func TestRedisRegistryBrowseEmptyService(t *testing.T) {
	r, _ := newMiniRegistry(t)

	ads, err := r.Browse(context.Background(), "nobody-here")
	require.NoError(t, err)
	assert.Empty(t, ads)
}

func TestRedisRegistryServerDown(t *testing.T) {
	r, mr := newMiniRegistry(t)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, r.Advertise(ctx, ad("bob", testService), time.Minute))
	_, err := r.Browse(ctx, testService)
	assert.Error(t, err)
}

// Runs against a live server when REDIS_TEST_HOST is set.
func TestRedisRegistryLive(t *testing.T) {
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		t.Skip("REDIS_TEST_HOST not set")
	}
	port := os.Getenv("REDIS_TEST_PORT")
	if port == "" {
		port = "6379"
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, config.RedisConfig{Host: host, Port: port, DB: 15})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	r := NewRedisRegistry(client, zerolog.Nop())
	service := "arshare-test-" + time.Now().Format("150405.000000")

	bob := ad("bob", service)
	require.NoError(t, r.Advertise(ctx, bob, time.Minute))

	ads, err := r.Browse(ctx, service)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, bob.Peer, ads[0].Peer)
	assert.Equal(t, bob.URL, ads[0].URL)

	require.NoError(t, r.Withdraw(ctx, service, bob.Peer.ID))
	ads, err = r.Browse(ctx, service)
	require.NoError(t, err)
	assert.Empty(t, ads)
}
