package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/grocerly/grocery/pkg/errors"
	"github.com/grocerly/grocery/pkg/httputil"
	"github.com/grocerly/grocery/services/cart/internal/domain"
	"github.com/grocerly/grocery/services/cart/internal/service"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// itemJSON is the wire representation of a cart line.
type itemJSON struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// cartJSON is the wire representation of a cart.
type cartJSON struct {
	ID       int64      `json:"id"`
	Products []itemJSON `json:"products"`
}

func toCartJSON(c domain.Cart) cartJSON {
	products := make([]itemJSON, len(c.Items))
	for i, item := range c.Items {
		products[i] = itemJSON{
			ID:       item.ProductID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}
	return cartJSON{ID: c.ID, Products: products}
}

// quantityRequest is the body of add and remove requests. Quantity is a
// pointer so a missing field can be told apart from an explicit zero.
type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// ListCarts handles GET /cart
func (h *CartHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.service.ListCarts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	out := make([]cartJSON, len(carts))
	for i, c := range carts {
		out[i] = toCartJSON(c)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"carts": out})
}

// GetCart handles GET /cart/{userID}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userID", "user id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCartJSON(*cart))
}

// AddItem handles POST /cart/{userID}/add/{productID}
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userID", "user id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	productID, err := parseID(r, "productID", "product id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	quantity, err := decodeQuantity(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.AddItem(r.Context(), userID, productID, quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Product added to cart",
		"product": map[string]any{
			"id":             result.ProductID,
			"name":           result.Name,
			"price":          result.Price,
			"added quantity": result.AddedQuantity,
			"new quantity":   result.NewQuantity,
		},
	})
}

// RemoveItem handles POST /cart/{userID}/remove/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userID", "user id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	productID, err := parseID(r, "productID", "product id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	quantity, err := decodeQuantity(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.RemoveItem(r.Context(), userID, productID, quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	product := map[string]any{
		"id":               result.ProductID,
		"name":             result.Name,
		"price":            result.Price,
		"quantity removed": result.RemovedQuantity,
	}
	message := "Product removed"
	if result.Clamped {
		// The line ran out before the requested quantity was removed.
		message = "Removed all of product from cart"
	} else {
		product["quantity remaining"] = result.RemainingQuantity
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": message,
		"product": product,
	})
}

func parseID(r *http.Request, param, label string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		return 0, apperrors.InvalidInput(label + " must be an integer")
	}
	return id, nil
}

func decodeQuantity(r *http.Request) (int, error) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, apperrors.InvalidInput("invalid request body: " + err.Error())
	}
	if req.Quantity == nil {
		return 0, apperrors.InvalidInput("quantity is required")
	}
	return *req.Quantity, nil
}
