package refreshtokens

import (
	"context"
	"time"

	"github.com/ADRPUR/event-driven-marketplace/internal/server/models"
)

// Repository stores opaque refresh tokens with a TTL.
type Repository interface {
	Create(ctx context.Context, userID, token string, ttl time.Duration) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
