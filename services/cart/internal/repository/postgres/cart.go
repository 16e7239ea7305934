package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/grocerly/grocery/pkg/database"
	apperrors "github.com/grocerly/grocery/pkg/errors"
	"github.com/grocerly/grocery/services/cart/internal/domain"
)

// CartRepository implements repository.CartRepository using PostgreSQL.
type CartRepository struct {
	pool database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool database.DBTX) *CartRepository {
	return &CartRepository{pool: pool}
}

// EnsureCart creates the cart row for the given id if it does not exist.
// Safe to call concurrently; the insert is a no-op when the row is present.
func (r *CartRepository) EnsureCart(ctx context.Context, cartID int64) error {
	query := `
		INSERT INTO carts (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, cartID); err != nil {
		return fmt.Errorf("ensure cart: %w", err)
	}
	return nil
}

// Exists reports whether a cart row exists for the given id.
func (r *CartRepository) Exists(ctx context.Context, cartID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM carts WHERE id = $1)", cartID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check cart exists: %w", err)
	}
	return exists, nil
}

// ListItems returns all items in the cart ordered by product id.
func (r *CartRepository) ListItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	query := `
		SELECT cart_id, product_id, name, price, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY product_id`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListCarts returns every cart with its items, ordered by cart id.
func (r *CartRepository) ListCarts(ctx context.Context) ([]domain.Cart, error) {
	cartRows, err := r.pool.Query(ctx, "SELECT id, created_at, updated_at FROM carts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	defer cartRows.Close()

	var carts []domain.Cart
	index := make(map[int64]int)
	for cartRows.Next() {
		var c domain.Cart
		if err := cartRows.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart row: %w", err)
		}
		c.Items = []domain.CartItem{}
		index[c.ID] = len(carts)
		carts = append(carts, c)
	}
	if err := cartRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart rows: %w", err)
	}

	itemRows, err := r.pool.Query(ctx, `
		SELECT cart_id, product_id, name, price, quantity, created_at, updated_at
		FROM cart_items
		ORDER BY cart_id, product_id`)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer itemRows.Close()

	items, err := scanItems(itemRows)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if i, ok := index[item.CartID]; ok {
			carts[i].Items = append(carts[i].Items, item)
		}
	}

	if carts == nil {
		carts = []domain.Cart{}
	}

	return carts, nil
}

// UpsertItemQuantity atomically adds item.Quantity to the cart line, inserting
// it with the name and price snapshot when absent. Existing snapshots are kept
// on conflict. Returns the new line quantity.
func (r *CartRepository) UpsertItemQuantity(ctx context.Context, item domain.CartItem) (int, error) {
	query := `
		INSERT INTO cart_items (cart_id, product_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity`

	var newQuantity int
	err := r.pool.QueryRow(ctx, query,
		item.CartID, item.ProductID, item.Name, item.Price, item.Quantity,
	).Scan(&newQuantity)
	if err != nil {
		return 0, fmt.Errorf("upsert cart item: %w", err)
	}

	return newQuantity, nil
}

// DecrementItemQuantity atomically subtracts up to quantity from the cart
// line, clamping at zero. The FOR UPDATE subquery locks the row so the
// previous quantity read and the update are a single serialized step.
func (r *CartRepository) DecrementItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (domain.CartItem, int, error) {
	query := `
		UPDATE cart_items AS ci
		SET quantity = GREATEST(prev.quantity - $3, 0), updated_at = NOW()
		FROM (
			SELECT quantity
			FROM cart_items
			WHERE cart_id = $1 AND product_id = $2
			FOR UPDATE
		) AS prev
		WHERE ci.cart_id = $1 AND ci.product_id = $2
		RETURNING ci.name, ci.price, prev.quantity, ci.quantity`

	item := domain.CartItem{CartID: cartID, ProductID: productID}
	var previous int
	err := r.pool.QueryRow(ctx, query, cartID, productID, quantity).Scan(
		&item.Name, &item.Price, &previous, &item.Quantity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CartItem{}, 0, apperrors.ErrNotFound
		}
		return domain.CartItem{}, 0, fmt.Errorf("decrement cart item: %w", err)
	}

	return item, previous - item.Quantity, nil
}

func scanItems(rows pgx.Rows) ([]domain.CartItem, error) {
	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.CartID, &item.ProductID, &item.Name, &item.Price,
			&item.Quantity, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart item rows: %w", err)
	}

	if items == nil {
		items = []domain.CartItem{}
	}
	return items, nil
}
