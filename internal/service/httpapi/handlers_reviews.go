package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type createReviewRequest struct {
	ProductID string `json:"product_id"`
	Comment   string `json:"comment"`
	Rating    int32  `json:"rating"`
}

type updateReviewRequest struct {
	Comment *string `json:"comment"`
	Rating  *int32  `json:"rating"`
}

type reviewResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Comment   string `json:"comment"`
	Rating    int32  `json:"rating"`
	CreatedAt string `json:"created_at"`
}

func toReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		UserID:    review.UserID,
		ProductID: review.ProductID,
		Comment:   review.Comment,
		Rating:    review.Rating,
		CreatedAt: review.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	var req createReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := s.products.Get(req.ProductID); err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	review := domain.Review{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		ProductID: req.ProductID,
		Comment:   req.Comment,
		Rating:    req.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := firstValidationError(review.Validate()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.reviews.Create(review); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(review))
}

func (s *Server) handleListReviews(w http.ResponseWriter, _ *http.Request) {
	reviews, err := s.reviews.List()
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, toReviewResponse(review))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProductReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.reviews.ListByProduct(chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, toReviewResponse(review))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleUpdateReview позволяет автору изменить собственный отзыв.
func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	review, err := s.reviews.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if review.UserID != identity.UserID {
		writeError(w, domain.ErrReviewNotFound)
		return
	}

	var req updateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	review.UpdatedAt = time.Now().UTC()

	if err := firstValidationError(review.Validate()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.reviews.Save(review); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(review))
}

// handleDeleteReview удаляет отзыв: автор — свой, администратор — любой.
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	review, err := s.reviews.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if review.UserID != identity.UserID && !identity.IsAdmin() {
		writeError(w, domain.ErrReviewNotFound)
		return
	}

	if err := s.reviews.Delete(review.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
