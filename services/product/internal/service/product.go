package service

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/grocerly/grocery/pkg/errors"
	"github.com/grocerly/grocery/services/product/internal/domain"
	"github.com/grocerly/grocery/services/product/internal/event"
	"github.com/grocerly/grocery/services/product/internal/repository"
)

// MaxNameLength is the maximum allowed length of a product name.
const MaxNameLength = 100

// CreateProductInput holds the parameters for creating a product. Price and
// Quantity are pointers so that an absent field can be told apart from an
// explicit zero: price 0 is a valid price, a missing price is not.
type CreateProductInput struct {
	Name     string   `json:"name" validate:"max=100"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
	Quantity *int     `json:"quantity" validate:"omitempty,gte=0"`
}

// ProductService implements the business logic for product operations.
type ProductService struct {
	repo     repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// ListProducts returns all products.
func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a single product by id.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// CreateProduct creates a new product. Name and price are required; quantity
// defaults to 0 when absent.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if len(input.Name) > MaxNameLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("product name must not exceed %d characters", MaxNameLength))
	}
	if input.Price == nil {
		return nil, apperrors.InvalidInput("product price is required")
	}
	if *input.Price < 0 {
		return nil, apperrors.InvalidInput("product price must not be negative")
	}

	quantity := 0
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, apperrors.InvalidInput("product quantity must not be negative")
		}
		quantity = *input.Quantity
	}

	product := &domain.Product{
		Name:     input.Name,
		Price:    *input.Price,
		Quantity: quantity,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.Int64("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.String("name", product.Name),
		slog.Int("quantity", product.Quantity),
	)

	return product, nil
}
