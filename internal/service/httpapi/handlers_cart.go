package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type updateCartItemRequest struct {
	Qty int32 `json:"qty"`
}

type cartItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
	CreatedAt string `json:"created_at"`
}

func toCartItemResponse(item domain.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Qty:       item.Qty,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleAddToCart добавляет товар в корзину текущего пользователя; повторное
// добавление того же товара увеличивает количество существующей позиции.
// Доступность стока здесь носит рекомендательный характер.
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	var req addToCartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}
	if req.Qty < 0 {
		writeError(w, domain.ErrItemQtyInvalid)
		return
	}

	product, err := s.products.Get(req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	if existing, findErr := s.cart.FindByUserAndProduct(identity.UserID, req.ProductID); findErr == nil {
		existing.Qty += req.Qty
		if existing.Qty > product.Stock {
			writeError(w, &domain.InsufficientStockError{
				ProductID: product.ID,
				Requested: existing.Qty,
				Available: product.Stock,
			})
			return
		}
		existing.UpdatedAt = now
		if err := s.cart.Save(existing); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartItemResponse(existing))
		return
	}

	if req.Qty > product.Stock {
		writeError(w, &domain.InsufficientStockError{
			ProductID: product.ID,
			Requested: req.Qty,
			Available: product.Stock,
		})
		return
	}

	item := domain.CartItem{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		ProductID: req.ProductID,
		Qty:       req.Qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := firstValidationError(item.Validate()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.cart.Create(item); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCartItemResponse(item))
}

func (s *Server) handleListCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	items, err := s.cart.ListByUser(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]cartItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toCartItemResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCartItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.ownCartItem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCartItemResponse(item))
}

// handleUpdateCartItem меняет количество позиции с рекомендательной
// проверкой доступного стока.
func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.ownCartItem(w, r)
	if !ok {
		return
	}

	var req updateCartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Qty <= 0 {
		writeError(w, domain.ErrItemQtyInvalid)
		return
	}

	product, err := s.products.Get(item.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Qty > product.Stock {
		writeError(w, &domain.InsufficientStockError{
			ProductID: product.ID,
			Requested: req.Qty,
			Available: product.Stock,
		})
		return
	}

	item.Qty = req.Qty
	item.UpdatedAt = time.Now().UTC()
	if err := s.cart.Save(item); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartItemResponse(item))
}

func (s *Server) handleDeleteCartItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.ownCartItem(w, r)
	if !ok {
		return
	}
	if err := s.cart.Delete(item.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ownCartItem достаёт позицию корзины и проверяет, что она принадлежит
// текущему пользователю. Чужая позиция неотличима от несуществующей.
func (s *Server) ownCartItem(w http.ResponseWriter, r *http.Request) (domain.CartItem, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return domain.CartItem{}, false
	}

	item, err := s.cart.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return domain.CartItem{}, false
	}
	if item.UserID != identity.UserID {
		writeError(w, domain.ErrCartItemNotFound)
		return domain.CartItem{}, false
	}
	return item, true
}
