// Package products implements the catalog service behind the products
// screen: paginated listing for every signed-in user and the admin
// operations that maintain the listings.
package products

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ADRPUR/event-driven-marketplace/internal/common"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/models"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/repositories/repomanager"
)

// Pagination bounds for List. Requests outside them are clamped, not
// rejected.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Input is the payload for creating or replacing a product.
type Input struct {
	Name        string
	Description string
	Price       float64
}

// ListResult is one page of the catalog plus the overall count.
type ListResult struct {
	Items    []*models.Product
	Total    int
	Page     int
	PageSize int
}

type Service struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager) *Service {
	return &Service{db: db, repos: repos}
}

func validate(in Input) error {
	if len(strings.TrimSpace(in.Name)) < 2 {
		return fmt.Errorf("%w: product name must be at least 2 characters", common.ErrorValidation)
	}
	if in.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", common.ErrorValidation)
	}
	return nil
}

// Create adds a catalog listing and returns it with server-side fields set.
func (s *Service) Create(ctx context.Context, in Input) (*models.Product, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
	}
	if err := s.repos.Products(s.db).Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Get returns one product by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repos.Products(s.db).GetByID(ctx, id)
}

// List returns one page of the catalog, newest first. Page numbers start
// at 1; a page size above the cap is clamped.
func (s *Service) List(ctx context.Context, page, pageSize int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	repo := s.repos.Products(s.db)

	items, err := repo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &ListResult{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Update replaces a listing's fields and returns the refreshed record.
func (s *Service) Update(ctx context.Context, id string, in Input) (*models.Product, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	repo := s.repos.Products(s.db)

	product, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(in.Name)
	product.Description = in.Description
	product.Price = in.Price

	if err := repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a listing.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repos.Products(s.db).Delete(ctx, id)
}
