package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/grocerly/grocery/pkg/errors"
	pkgkafka "github.com/grocerly/grocery/pkg/kafka"
	"github.com/grocerly/grocery/services/cart/internal/client"
	"github.com/grocerly/grocery/services/cart/internal/domain"
	"github.com/grocerly/grocery/services/cart/internal/event"
)

// --- Mock Repository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) EnsureCart(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

func (m *mockCartRepository) Exists(ctx context.Context, cartID int64) (bool, error) {
	args := m.Called(ctx, cartID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCartRepository) ListItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartItem), args.Error(1)
}

func (m *mockCartRepository) ListCarts(ctx context.Context) ([]domain.Cart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Cart), args.Error(1)
}

func (m *mockCartRepository) UpsertItemQuantity(ctx context.Context, item domain.CartItem) (int, error) {
	args := m.Called(ctx, item)
	return args.Int(0), args.Error(1)
}

func (m *mockCartRepository) DecrementItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (domain.CartItem, int, error) {
	args := m.Called(ctx, cartID, productID, quantity)
	return args.Get(0).(domain.CartItem), args.Int(1), args.Error(2)
}

// --- Mock Product Client ---

type mockProductGetter struct {
	mock.Mock
}

func (m *mockProductGetter) GetProduct(ctx context.Context, productID int64) (*client.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Product), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(repo *mockCartRepository, products *mockProductGetter) *CartService {
	logger := newTestLogger()
	// Create a Kafka producer that will fail silently in tests (no real broker).
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewCartService(repo, products, producer, logger)
}

func apple() *client.Product {
	return &client.Product{ID: 1, Name: "apple", Price: 0.5, Quantity: 10}
}

// --- GetCart ---

func TestGetCart_CreatesWhenAbsent(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("EnsureCart", ctx, int64(7)).Return(nil)
	repo.On("ListItems", ctx, int64(7)).Return([]domain.CartItem{}, nil)

	cart, err := svc.GetCart(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, int64(7), cart.ID)
	assert.Empty(t, cart.Items)

	repo.AssertExpectations(t)
}

func TestGetCart_WithItems(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	items := []domain.CartItem{
		{CartID: 7, ProductID: 1, Name: "apple", Price: 0.5, Quantity: 4},
	}
	repo.On("EnsureCart", ctx, int64(7)).Return(nil)
	repo.On("ListItems", ctx, int64(7)).Return(items, nil)

	cart, err := svc.GetCart(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, items, cart.Items)

	repo.AssertExpectations(t)
}

// --- AddItem ---

func TestAddItem_NewLine(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("EnsureCart", ctx, int64(7)).Return(nil)
	products.On("GetProduct", ctx, int64(1)).Return(apple(), nil)
	repo.On("UpsertItemQuantity", ctx, domain.CartItem{
		CartID: 7, ProductID: 1, Name: "apple", Price: 0.5, Quantity: 4,
	}).Return(4, nil)

	result, err := svc.AddItem(ctx, 7, 1, 4)

	require.NoError(t, err)
	assert.Equal(t, 4, result.AddedQuantity)
	assert.Equal(t, 4, result.NewQuantity)
	assert.Equal(t, "apple", result.Name)
	assert.Equal(t, 0.5, result.Price)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_AccumulatesExistingLine(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("EnsureCart", ctx, int64(7)).Return(nil)
	products.On("GetProduct", ctx, int64(1)).Return(apple(), nil)
	// The line already held 4; adding 3 yields 7.
	repo.On("UpsertItemQuantity", ctx, mock.AnythingOfType("domain.CartItem")).Return(7, nil)

	result, err := svc.AddItem(ctx, 7, 1, 3)

	require.NoError(t, err)
	assert.Equal(t, 3, result.AddedQuantity)
	assert.Equal(t, 7, result.NewQuantity)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_InsufficientInventory(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("EnsureCart", ctx, int64(7)).Return(nil)
	products.On("GetProduct", ctx, int64(1)).Return(apple(), nil)

	result, err := svc.AddItem(ctx, 7, 1, 99)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "quantity of 99 requested but quantity in inventory is 10", appErr.Message)

	repo.AssertNotCalled(t, "UpsertItemQuantity", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_ExactlyAvailableQuantity(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("EnsureCart", ctx, int64(7)).Return(nil)
	products.On("GetProduct", ctx, int64(1)).Return(apple(), nil)
	repo.On("UpsertItemQuantity", ctx, mock.AnythingOfType("domain.CartItem")).Return(10, nil)

	result, err := svc.AddItem(ctx, 7, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 10, result.NewQuantity)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_ProductNotFound(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("EnsureCart", ctx, int64(7)).Return(nil)
	products.On("GetProduct", ctx, int64(999)).Return(nil, apperrors.NotFound("product", "999"))

	result, err := svc.AddItem(ctx, 7, 999, 1)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_ProductServiceDown(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("EnsureCart", ctx, int64(7)).Return(nil)
	products.On("GetProduct", ctx, int64(1)).
		Return(nil, apperrors.ServiceUnavailable("product service unreachable"))

	result, err := svc.AddItem(ctx, 7, 1, 1)

	assert.Nil(t, result)
	// An unreachable product service must not masquerade as "not found".
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_ZeroQuantity(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	result, err := svc.AddItem(ctx, 7, 1, 0)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_NegativeQuantity(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	result, err := svc.AddItem(ctx, 7, 1, -1)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- RemoveItem ---

func TestRemoveItem_Success(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("Exists", ctx, int64(7)).Return(true, nil)
	repo.On("DecrementItemQuantity", ctx, int64(7), int64(1), 3).
		Return(domain.CartItem{CartID: 7, ProductID: 1, Name: "apple", Price: 0.5, Quantity: 4}, 3, nil)

	result, err := svc.RemoveItem(ctx, 7, 1, 3)

	require.NoError(t, err)
	assert.Equal(t, 3, result.RemovedQuantity)
	assert.Equal(t, 4, result.RemainingQuantity)
	assert.False(t, result.Clamped)

	repo.AssertExpectations(t)
}

func TestRemoveItem_ClampsAtZero(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	// Removing 10 from a line holding 7 removes 7 and leaves 0.
	repo.On("Exists", ctx, int64(7)).Return(true, nil)
	repo.On("DecrementItemQuantity", ctx, int64(7), int64(1), 10).
		Return(domain.CartItem{CartID: 7, ProductID: 1, Name: "apple", Price: 0.5, Quantity: 0}, 7, nil)

	result, err := svc.RemoveItem(ctx, 7, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 7, result.RemovedQuantity)
	assert.Equal(t, 0, result.RemainingQuantity)
	assert.True(t, result.Clamped)

	repo.AssertExpectations(t)
}

func TestRemoveItem_CartNotFound(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("Exists", ctx, int64(42)).Return(false, nil)

	result, err := svc.RemoveItem(ctx, 42, 1, 1)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.AssertNotCalled(t, "DecrementItemQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestRemoveItem_LineNotFound(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("Exists", ctx, int64(7)).Return(true, nil)
	repo.On("DecrementItemQuantity", ctx, int64(7), int64(999), 1).
		Return(domain.CartItem{}, 0, apperrors.ErrNotFound)

	result, err := svc.RemoveItem(ctx, 7, 999, 1)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.AssertExpectations(t)
}

func TestRemoveItem_ZeroQuantity(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	result, err := svc.RemoveItem(ctx, 7, 1, 0)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Full reservation flow ---

// Mirrors the canonical walkthrough: a product with 10 in stock, two adds
// that accumulate, a clamped remove, and an add that exceeds inventory.
func TestCartFlow_AddAddRemoveOvershoot(t *testing.T) {
	repo := new(mockCartRepository)
	products := new(mockProductGetter)
	svc := newTestService(repo, products)
	ctx := context.Background()

	repo.On("EnsureCart", ctx, int64(7)).Return(nil)
	repo.On("Exists", ctx, int64(7)).Return(true, nil)
	products.On("GetProduct", ctx, int64(1)).Return(apple(), nil)

	// add 4 -> line holds 4
	repo.On("UpsertItemQuantity", ctx, domain.CartItem{
		CartID: 7, ProductID: 1, Name: "apple", Price: 0.5, Quantity: 4,
	}).Return(4, nil).Once()
	added, err := svc.AddItem(ctx, 7, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, added.NewQuantity)

	// add 3 -> line holds 7
	repo.On("UpsertItemQuantity", ctx, domain.CartItem{
		CartID: 7, ProductID: 1, Name: "apple", Price: 0.5, Quantity: 3,
	}).Return(7, nil).Once()
	added, err = svc.AddItem(ctx, 7, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, added.NewQuantity)

	// remove 10 -> clamped, removes the 7 held
	repo.On("DecrementItemQuantity", ctx, int64(7), int64(1), 10).
		Return(domain.CartItem{CartID: 7, ProductID: 1, Name: "apple", Price: 0.5, Quantity: 0}, 7, nil).Once()
	removed, err := svc.RemoveItem(ctx, 7, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, removed.RemovedQuantity)
	assert.True(t, removed.Clamped)

	// add 99 -> rejected, only 10 in inventory
	_, err = svc.AddItem(ctx, 7, 1, 99)
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)

	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}
