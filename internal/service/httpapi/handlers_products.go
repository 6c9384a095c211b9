package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type productRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Volume      *string `json:"volume"`
	Image       *string `json:"image"`
	PriceMinor  *int64  `json:"price_minor"`
	Stock       *int32  `json:"stock"`
}

type productResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Volume      string   `json:"volume,omitempty"`
	Image       string   `json:"image,omitempty"`
	PriceMinor  int64    `json:"price_minor"`
	Stock       int32    `json:"stock"`
	Rating      *float64 `json:"rating,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

func toProductResponse(product domain.Product) productResponse {
	return productResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Volume:      product.Volume,
		Image:       product.Image,
		PriceMinor:  product.PriceMinor,
		Stock:       product.Stock,
		CreatedAt:   product.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, _ *http.Request) {
	products, err := s.products.List()
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, product := range products {
		resp = append(resp, toProductResponse(product))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetProduct отдаёт карточку товара вместе со средней оценкой отзывов.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.products.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toProductResponse(product)
	if avg, ok, ratingErr := s.reviews.AverageRating(product.ID); ratingErr == nil && ok {
		resp.Rating = &avg
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProductRequest(&product, req)

	if err := firstValidationError(product.ValidateInvariants()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.products.Create(product); err != nil {
		writeError(w, err)
		return
	}

	s.logger.WithField("product_id", product.ID).Info("product created")
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeBody(w, r, &req) {
		return
	}

	product, err := s.products.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	applyProductRequest(&product, req)
	product.UpdatedAt = time.Now().UTC()

	if err := firstValidationError(product.ValidateInvariants()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.products.Save(product); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// handleDeleteProduct удаляет товар и каскадно очищает его позиции в корзинах.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.products.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.cart.DeleteByProduct(id); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Warn("failed to clear cart items for deleted product")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func applyProductRequest(product *domain.Product, req productRequest) {
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Volume != nil {
		product.Volume = *req.Volume
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.PriceMinor != nil {
		product.PriceMinor = *req.PriceMinor
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
}
