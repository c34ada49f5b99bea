package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	cartdomain "github.com/Kamohel0/green-public-website/internal/cart/domain"
	catalogrepo "github.com/Kamohel0/green-public-website/internal/catalog/repository"
	"github.com/go-chi/chi/v5"
)

// CartService is the slice of the cart layer the handler uses.
type CartService interface {
	Get(ctx context.Context, sessionID string) *cartdomain.Cart
	Add(ctx context.Context, sessionID string, item cartdomain.LineItem) *cartdomain.Cart
	UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) *cartdomain.Cart
	Remove(ctx context.Context, sessionID string, productID int64) *cartdomain.Cart
	Clear(ctx context.Context, sessionID string) *cartdomain.Cart
}

type CartHandler struct {
	carts    CartService
	catalog  catalogrepo.RepoInterface
	currency string
	timeout  time.Duration
}

func NewCartHandler(carts CartService, catalog catalogrepo.RepoInterface, currency string, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:    carts,
		catalog:  catalog,
		currency: currency,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items      []cartdomain.LineItem `json:"items"`
	TotalMinor int64                 `json:"total_minor"`
	Currency   string                `json:"currency"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func (h *CartHandler) toCartDTO(cart *cartdomain.Cart) CartResponseDTO {
	items := cart.Items
	if items == nil {
		items = []cartdomain.LineItem{}
	}
	return CartResponseDTO{
		Items:      items,
		TotalMinor: cart.TotalMinor(),
		Currency:   h.currency,
		UpdatedAt:  cart.UpdatedAt,
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart := h.carts.Get(ctx, getCartKeyFromContext(r.Context()))
	respondJSON(w, http.StatusOK, h.toCartDTO(cart))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	// Price and display fields always come from the catalog, never the
	// client.
	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if errors.Is(err, catalogrepo.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load product")
		return
	}

	cart := h.carts.Add(ctx, getCartKeyFromContext(r.Context()), cartdomain.LineItem{
		ProductID:      product.ID,
		Name:           product.Name,
		UnitPriceMinor: product.PriceMinor,
		Quantity:       req.Quantity,
		ImageURL:       product.ImageURL,
		Description:    product.Description,
	})

	respondJSON(w, http.StatusCreated, h.toCartDTO(cart))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cart := h.carts.UpdateQuantity(ctx, getCartKeyFromContext(r.Context()), productID, req.Quantity)
	respondJSON(w, http.StatusOK, h.toCartDTO(cart))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	cart := h.carts.Remove(ctx, getCartKeyFromContext(r.Context()), productID)
	respondJSON(w, http.StatusOK, h.toCartDTO(cart))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart := h.carts.Clear(ctx, getCartKeyFromContext(r.Context()))
	respondJSON(w, http.StatusOK, h.toCartDTO(cart))
}
