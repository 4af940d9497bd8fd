// Package discovery keeps track of peers advertising a service type.
package discovery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mossy-p/arshare/internal/models"
)

// Registry stores advertisements with a time to live. Advertisers refresh
// their entry before it expires; browsers list live entries.
type Registry interface {
	Advertise(ctx context.Context, ad models.Advertisement, ttl time.Duration) error
	Withdraw(ctx context.Context, serviceType string, peer uuid.UUID) error
	Browse(ctx context.Context, serviceType string) ([]models.Advertisement, error)
}
