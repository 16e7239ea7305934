package repository

import (
	"context"

	"github.com/grocerly/grocery/services/cart/internal/domain"
)

// CartRepository defines the persistence operations for carts and cart items.
type CartRepository interface {
	// EnsureCart creates the cart row for the given id if it does not exist.
	EnsureCart(ctx context.Context, cartID int64) error

	// Exists reports whether a cart row exists for the given id.
	Exists(ctx context.Context, cartID int64) (bool, error)

	// ListItems returns all items in the cart ordered by product id.
	ListItems(ctx context.Context, cartID int64) ([]domain.CartItem, error)

	// ListCarts returns every cart with its items.
	ListCarts(ctx context.Context) ([]domain.Cart, error)

	// UpsertItemQuantity atomically adds quantity to the cart line for the
	// product, inserting the line with the given name and price snapshot if it
	// does not exist. It returns the new line quantity.
	UpsertItemQuantity(ctx context.Context, item domain.CartItem) (int, error)

	// DecrementItemQuantity atomically subtracts up to quantity from the cart
	// line, clamping at zero. It returns the updated line (Quantity holds the
	// quantity remaining) and the quantity actually removed. A missing line
	// yields errors.ErrNotFound.
	DecrementItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (item domain.CartItem, removed int, err error)
}
