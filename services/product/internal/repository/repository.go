package repository

import (
	"context"

	"github.com/grocerly/grocery/services/product/internal/domain"
)

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// List returns all products ordered by id.
	List(ctx context.Context) ([]domain.Product, error)

	// GetByID retrieves a product by its id. Returns apperrors.ErrNotFound
	// if no such product exists.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// Create inserts a new product and fills in the store-assigned id and
	// timestamps on the passed value.
	Create(ctx context.Context, p *domain.Product) error
}
