package domain

import "time"

// Cart represents a user's shopping cart. The cart id doubles as the user id,
// so each user owns exactly one cart.
type Cart struct {
	ID        int64
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is a line in a cart. Name and Price are snapshots taken from the
// product service at the time the item was first added.
type CartItem struct {
	CartID    int64
	ProductID int64
	Name      string
	Price     float64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
