package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/shop/internal/auth"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/reconcile"
)

type createPaymentRequest struct {
	Items []paymentItemRequest `json:"items"`
}

type paymentItemRequest struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type updatePaymentRequest struct {
	Status string `json:"status"`
}

type paymentItemResponse struct {
	ProductID  string `json:"product_id"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

type paymentResponse struct {
	ID         string                `json:"id"`
	UserID     string                `json:"user_id"`
	Status     string                `json:"status"`
	TotalMinor int64                 `json:"total_minor"`
	Items      []paymentItemResponse `json:"items"`
	CreatedAt  string                `json:"created_at"`
	UpdatedAt  string                `json:"updated_at"`
}

func toPaymentResponse(payment domain.Payment) paymentResponse {
	items := make([]paymentItemResponse, 0, len(payment.Items))
	for _, item := range payment.Items {
		items = append(items, paymentItemResponse{
			ProductID:  item.ProductID,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
		})
	}
	return paymentResponse{
		ID:         payment.ID,
		UserID:     payment.UserID,
		Status:     string(payment.Status),
		TotalMinor: payment.TotalMinor,
		Items:      items,
		CreatedAt:  payment.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  payment.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toPaymentListResponse(payments []domain.Payment) []paymentResponse {
	resp := make([]paymentResponse, 0, len(payments))
	for _, payment := range payments {
		resp = append(resp, toPaymentResponse(payment))
	}
	return resp
}

// handleCreatePayment создаёт платёж текущего пользователя в статусе pending.
// Цены позиций берутся из каталога, а не из запроса.
func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	var req createPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]reconcile.LineItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, reconcile.LineItemInput{ProductID: item.ProductID, Qty: item.Qty})
	}

	payment, err := s.engine.CreatePayment(identity.UserID, items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (s *Server) handleListPayments(w http.ResponseWriter, _ *http.Request) {
	payments, err := s.engine.ListPayments(0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentListResponse(payments))
}

func (s *Server) handleListMyPayments(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	payments, err := s.engine.ListPaymentsByUser(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentListResponse(payments))
}

// handleUpdatePaymentStatus переводит платёж в новый статус со складскими
// следствиями: вход в paid списывает сток, выход из paid возвращает.
func (s *Server) handleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req updatePaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	payment, err := s.engine.TransitionStatus(chi.URLParam(r, "id"), domain.PaymentStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeletePayment(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
