package products

import (
	"context"

	"github.com/ADRPUR/event-driven-marketplace/internal/server/models"
)

// Repository is the persistence contract for catalog products.
type Repository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
