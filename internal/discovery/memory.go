package discovery

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mossy-p/arshare/internal/models"
)

type memoryEntry struct {
	ad      models.Advertisement
	expires time.Time
}

// MemoryRegistry is a process-local Registry, for single-process demos
// and tests.
type MemoryRegistry struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]map[uuid.UUID]memoryEntry
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		now:     time.Now,
		entries: make(map[string]map[uuid.UUID]memoryEntry),
	}
}

func (r *MemoryRegistry) Advertise(_ context.Context, ad models.Advertisement, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers, ok := r.entries[ad.ServiceType]
	if !ok {
		peers = make(map[uuid.UUID]memoryEntry)
		r.entries[ad.ServiceType] = peers
	}
	peers[ad.Peer.ID] = memoryEntry{ad: ad, expires: r.now().Add(ttl)}
	return nil
}

func (r *MemoryRegistry) Withdraw(_ context.Context, serviceType string, peer uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries[serviceType], peer)
	return nil
}

func (r *MemoryRegistry) Browse(_ context.Context, serviceType string) ([]models.Advertisement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var ads []models.Advertisement
	for id, e := range r.entries[serviceType] {
		if now.After(e.expires) {
			delete(r.entries[serviceType], id)
			continue
		}
		ads = append(ads, e.ad)
	}
	sortAds(ads)
	return ads, nil
}

func sortAds(ads []models.Advertisement) {
	slices.SortFunc(ads, func(a, b models.Advertisement) int {
		if c := strings.Compare(a.Peer.DisplayName, b.Peer.DisplayName); c != 0 {
			return c
		}
		return strings.Compare(a.Peer.ID.String(), b.Peer.ID.String())
	})
}
