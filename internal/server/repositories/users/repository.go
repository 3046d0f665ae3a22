package users

import (
	"context"

	"github.com/ADRPUR/event-driven-marketplace/internal/server/models"
)

// Repository is the persistence contract for user accounts and their
// details sub-records.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	CreateDetails(ctx context.Context, details *models.UserDetails) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetDetails(ctx context.Context, userID string) (*models.UserDetails, error)
	UpdateDetails(ctx context.Context, details *models.UserDetails) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdatePhoto(ctx context.Context, userID, photoPath, thumbnailPath string) error
	List(ctx context.Context) ([]*models.Profile, error)
	Delete(ctx context.Context, id string) error
}
