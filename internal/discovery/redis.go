package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mossy-p/arshare/internal/models"
	"github.com/mossy-p/arshare/internal/redis"
)

// RedisRegistry keeps advertisements in Redis so peers on different hosts
// can find each other.
//
// Layout:
//
//	service:<type>:peers      set of advertising peer IDs
//	service:<type>:peer:<id>  advertisement JSON, expires after the TTL
type RedisRegistry struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisRegistry(client *redis.Client, log zerolog.Logger) *RedisRegistry {
	return &RedisRegistry{client: client, log: log}
}

func peersKey(serviceType string) string {
	return "service:" + serviceType + ":peers"
}

func peerKey(serviceType string, id uuid.UUID) string {
	return "service:" + serviceType + ":peer:" + id.String()
}

func (r *RedisRegistry) Advertise(ctx context.Context, ad models.Advertisement, ttl time.Duration) error {
	data, err := json.Marshal(ad)
	if err != nil {
		return fmt.Errorf("marshal advertisement: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, peerKey(ad.ServiceType, ad.Peer.ID), data, ttl)
	pipe.SAdd(ctx, peersKey(ad.ServiceType), ad.Peer.ID.String())
	pipe.Expire(ctx, peersKey(ad.ServiceType), 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store advertisement: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Withdraw(ctx context.Context, serviceType string, peer uuid.UUID) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, peerKey(serviceType, peer))
	pipe.SRem(ctx, peersKey(serviceType), peer.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("withdraw advertisement: %w", err)
	}
	return nil
}

// Browse lists live advertisements and prunes set members whose entry has
// expired.
func (r *RedisRegistry) Browse(ctx context.Context, serviceType string) ([]models.Advertisement, error) {
	ids, err := r.client.SMembers(ctx, peersKey(serviceType)).Result()
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}

	var ads []models.Advertisement
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			r.client.SRem(ctx, peersKey(serviceType), raw)
			continue
		}

		data, err := r.client.Get(ctx, peerKey(serviceType, id)).Result()
		if redis.IsNil(err) {
			r.client.SRem(ctx, peersKey(serviceType), raw)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get advertisement %s: %w", raw, err)
		}

		var ad models.Advertisement
		if err := json.Unmarshal([]byte(data), &ad); err != nil {
			r.log.Warn().Err(err).Str("peer", raw).Msg("Dropping unreadable advertisement")
			continue
		}
		ads = append(ads, ad)
	}
	sortAds(ads)
	return ads, nil
}
