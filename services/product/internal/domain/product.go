package domain

import "time"

// Product is a sellable grocery item with its authoritative stock count.
// Quantity is the sellable stock as owned by this service; the cart service
// only ever reads it.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InStock reports whether the requested quantity can be satisfied by the
// currently available stock.
func (p *Product) InStock(requested int) bool {
	return requested <= p.Quantity
}
