package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kamohel0/green-public-website/internal/catalog/domain"
	"github.com/Kamohel0/green-public-website/internal/catalog/repository"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	products map[int64]*domain.Product
	err      error
}

func (m *mockCatalog) GetAllProducts(context.Context) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*domain.Product, 0, len(m.products))
	for id := int64(1); id <= int64(len(m.products)); id++ {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func testCatalog() *mockCatalog {
	return &mockCatalog{products: map[int64]*domain.Product{
		1: {ID: 1, Name: "Sea Moss Gel", Description: "Wildcrafted sea moss", PriceMinor: 25000},
		2: {ID: 2, Name: "Body Butter", PriceMinor: 18000},
	}}
}

func productRouter(h *ProductHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/products", h.ListProducts)
	r.Get("/api/v1/products/{product_id}", h.GetProduct)
	return r
}

func TestListProducts(t *testing.T) {
	handler := NewProductHandler(testCatalog(), 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/products", nil)
	productRouter(handler).ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response []ProductDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Len(t, response, 2)
	assert.Equal(t, "Sea Moss Gel", response[0].Name)
	assert.Equal(t, int64(25000), response[0].PriceMinor)
}

func TestGetProduct(t *testing.T) {
	handler := NewProductHandler(testCatalog(), 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/products/2", nil)
	productRouter(handler).ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response ProductDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, int64(2), response.ID)
	assert.Equal(t, "Body Butter", response.Name)
}

func TestGetProduct_NotFound(t *testing.T) {
	handler := NewProductHandler(testCatalog(), 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/products/99", nil)
	productRouter(handler).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetProduct_InvalidID(t *testing.T) {
	handler := NewProductHandler(testCatalog(), 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/products/abc", nil)
	productRouter(handler).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
