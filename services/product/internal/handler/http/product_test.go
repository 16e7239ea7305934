package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/grocerly/grocery/pkg/errors"
	"github.com/grocerly/grocery/pkg/httputil"
	pkgkafka "github.com/grocerly/grocery/pkg/kafka"
	"github.com/grocerly/grocery/services/product/internal/domain"
	"github.com/grocerly/grocery/services/product/internal/event"
	"github.com/grocerly/grocery/services/product/internal/service"
)

// --- Mock Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = 1
	}
	return args.Error(0)
}

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupRouter(repo *mockProductRepository) *chi.Mux {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	svc := service.NewProductService(repo, producer, logger)
	handler := NewProductHandler(svc, logger)

	r := chi.NewRouter()
	r.Get("/products", handler.ListProducts)
	r.Get("/products/{productID}", handler.GetProduct)
	r.Post("/products", handler.CreateProduct)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorBody {
	t.Helper()
	var body httputil.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func sampleProduct() *domain.Product {
	return &domain.Product{ID: 1, Name: "apple", Price: 0.5, Quantity: 10}
}

// --- GET /products ---

func TestListProducts_Success(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupRouter(repo)

	repo.On("List", mock.Anything).Return([]domain.Product{*sampleProduct()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Products []productJSON `json:"products"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Products, 1)
	assert.Equal(t, int64(1), body.Products[0].ID)
	assert.Equal(t, "apple", body.Products[0].Name)
	assert.Equal(t, 0.5, body.Products[0].Price)
	assert.Equal(t, 10, body.Products[0].Quantity)

	repo.AssertExpectations(t)
}

func TestListProducts_Empty(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupRouter(repo)

	repo.On("List", mock.Anything).Return([]domain.Product{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[]}`, rec.Body.String())

	repo.AssertExpectations(t)
}

// --- GET /products/{productID} ---

func TestGetProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupRouter(repo)

	repo.On("GetByID", mock.Anything, int64(1)).Return(sampleProduct(), nil)

	req := httptest.NewRequest(http.MethodGet, "/products/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Product productJSON `json:"product"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(1), body.Product.ID)
	assert.Equal(t, "apple", body.Product.Name)

	repo.AssertExpectations(t)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupRouter(repo)

	repo.On("GetByID", mock.Anything, int64(999)).Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/products/999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	repo.AssertExpectations(t)
}

func TestGetProduct_InvalidID(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/products/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

// --- POST /products ---

func TestCreateProduct_Success(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupRouter(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	payload, _ := json.Marshal(map[string]any{
		"name":     "apple",
		"price":    0.5,
		"quantity": 10,
	})

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Message string      `json:"message"`
		Product productJSON `json:"product"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Product created", body.Message)
	assert.Equal(t, int64(1), body.Product.ID)
	assert.Equal(t, "apple", body.Product.Name)

	repo.AssertExpectations(t)
}

func TestCreateProduct_MissingName(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupRouter(repo)

	payload := []byte(`{"price": 0.5}`)

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestCreateProduct_MissingPrice(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupRouter(repo)

	payload := []byte(`{"name": "apple"}`)

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProduct_InvalidJSON(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
