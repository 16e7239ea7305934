package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/grocerly/grocery/pkg/errors"
	"github.com/grocerly/grocery/services/cart/internal/client"
	"github.com/grocerly/grocery/services/cart/internal/domain"
	"github.com/grocerly/grocery/services/cart/internal/event"
	"github.com/grocerly/grocery/services/cart/internal/repository"
)

// ProductGetter looks up products in the product service. Satisfied by
// client.ProductClient.
type ProductGetter interface {
	GetProduct(ctx context.Context, productID int64) (*client.Product, error)
}

// AddItemResult reports the outcome of adding a product to a cart.
type AddItemResult struct {
	ProductID     int64
	Name          string
	Price         float64
	AddedQuantity int
	NewQuantity   int
}

// RemoveItemResult reports the outcome of removing a product from a cart.
// Clamped is true when less was removed than requested because the cart line
// ran out.
type RemoveItemResult struct {
	ProductID         int64
	Name              string
	Price             float64
	RemovedQuantity   int
	RemainingQuantity int
	Clamped           bool
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo     repository.CartRepository
	products ProductGetter
	producer *event.Producer
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, products ProductGetter, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// GetCart returns the cart for the given user, creating an empty one if it
// does not exist yet. Reading a cart is what brings it into being.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	if err := s.repo.EnsureCart(ctx, userID); err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return &domain.Cart{ID: userID, Items: items}, nil
}

// ListCarts returns every cart with its items.
func (s *CartService) ListCarts(ctx context.Context) ([]domain.Cart, error) {
	carts, err := s.repo.ListCarts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	return carts, nil
}

// AddItem adds quantity units of a product to the user's cart. The product is
// looked up in the product service; the request is rejected when the requested
// quantity exceeds what the inventory currently holds. Adding never decrements
// the inventory itself, so the check is advisory and rechecked on every add.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*AddItemResult, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be a positive integer")
	}

	if err := s.repo.EnsureCart(ctx, userID); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	if quantity > product.Quantity {
		return nil, apperrors.InsufficientInventory(quantity, product.Quantity)
	}

	newQuantity, err := s.repo.UpsertItemQuantity(ctx, domain.CartItem{
		CartID:    userID,
		ProductID: productID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishCartItemAdded(ctx, event.CartItemAddedData{
		CartID:        userID,
		ProductID:     productID,
		Name:          product.Name,
		Price:         product.Price,
		AddedQuantity: quantity,
		NewQuantity:   newQuantity,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.item_added event",
			slog.Int64("cart_id", userID),
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.Int64("cart_id", userID),
		slog.Int64("product_id", productID),
		slog.Int("added_quantity", quantity),
		slog.Int("new_quantity", newQuantity),
	)

	return &AddItemResult{
		ProductID:     productID,
		Name:          product.Name,
		Price:         product.Price,
		AddedQuantity: quantity,
		NewQuantity:   newQuantity,
	}, nil
}

// RemoveItem removes up to quantity units of a product from the user's cart.
// Removing more than the cart holds clamps at zero rather than failing; the
// zero-quantity line is kept so its price snapshot survives. The cart and the
// line must already exist.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64, quantity int) (*RemoveItemResult, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be a positive integer")
	}

	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("remove item: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("cart", fmt.Sprintf("%d", userID))
	}

	item, removed, err := s.repo.DecrementItemQuantity(ctx, userID, productID, quantity)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product in cart", fmt.Sprintf("%d", productID))
		}
		return nil, fmt.Errorf("remove item: %w", err)
	}

	if err := s.producer.PublishCartItemRemoved(ctx, event.CartItemRemovedData{
		CartID:            userID,
		ProductID:         productID,
		RemovedQuantity:   removed,
		RemainingQuantity: item.Quantity,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.item_removed event",
			slog.Int64("cart_id", userID),
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.Int64("cart_id", userID),
		slog.Int64("product_id", productID),
		slog.Int("removed_quantity", removed),
		slog.Int("remaining_quantity", item.Quantity),
	)

	return &RemoveItemResult{
		ProductID:         productID,
		Name:              item.Name,
		Price:             item.Price,
		RemovedQuantity:   removed,
		RemainingQuantity: item.Quantity,
		Clamped:           removed < quantity,
	}, nil
}
