package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// helper для создания базового платежа с одной позицией.
func makePayment() domain.Payment {
	now := time.Now().UTC()
	return domain.Payment{
		ID:         "payment-1",
		UserID:     "user-1",
		Status:     domain.PaymentStatusPending,
		TotalMinor: 500,
		Items: []domain.LineItem{
			{
				ID:         "item-1",
				ProductID:  "product-1",
				Qty:        5,
				PriceMinor: 100,
				CreatedAt:  now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPaymentValidateInvariants_Ok(t *testing.T) {
	payment := makePayment()
	if errs := payment.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestPaymentValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(p *domain.Payment)
		want error
	}{
		{
			name: "no user",
			mut: func(p *domain.Payment) {
				p.UserID = ""
			},
			want: domain.ErrUserRequired,
		},
		{
			name: "unknown status",
			mut: func(p *domain.Payment) {
				p.Status = "shipped"
			},
			want: domain.ErrInvalidStatus,
		},
		{
			name: "no items",
			mut: func(p *domain.Payment) {
				p.Items = nil
				p.TotalMinor = 0
			},
			want: domain.ErrItemsRequired,
		},
		{
			name: "negative total",
			mut: func(p *domain.Payment) {
				p.TotalMinor = -1
			},
			want: domain.ErrAmountNegative,
		},
		{
			name: "zero qty",
			mut: func(p *domain.Payment) {
				p.Items[0].Qty = 0
			},
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "negative price",
			mut: func(p *domain.Payment) {
				p.Items[0].PriceMinor = -5
			},
			want: domain.ErrItemPriceInvalid,
		},
		{
			name: "total mismatch",
			mut: func(p *domain.Payment) {
				p.TotalMinor = 499
			},
			want: domain.ErrAmountMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payment := makePayment()
			tc.mut(&payment)

			errs := payment.ValidateInvariants()
			if len(errs) == 0 {
				t.Fatal("expected validation errors, got none")
			}
			found := false
			for _, err := range errs {
				if errors.Is(err, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v among %v", tc.want, errs)
			}
		})
	}
}

func TestPaymentStatusValid(t *testing.T) {
	valid := []domain.PaymentStatus{
		domain.PaymentStatusPending,
		domain.PaymentStatusPaid,
		domain.PaymentStatusCancelled,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected status %q to be valid", s)
		}
	}
	for _, s := range []domain.PaymentStatus{"", "PAID", "refunded", "done"} {
		if s.Valid() {
			t.Errorf("expected status %q to be invalid", s)
		}
	}
}

func TestPaymentStockApplied(t *testing.T) {
	payment := makePayment()
	if payment.StockApplied() {
		t.Error("pending payment must not hold a stock effect")
	}

	payment.Status = domain.PaymentStatusPaid
	if !payment.StockApplied() {
		t.Error("paid payment must hold a stock effect")
	}

	payment.Status = domain.PaymentStatusCancelled
	if payment.StockApplied() {
		t.Error("cancelled payment must not hold a stock effect")
	}
}

func TestInsufficientStockError(t *testing.T) {
	err := &domain.InsufficientStockError{ProductID: "product-1", Requested: 3, Available: 2}

	if !domain.IsInsufficientStock(err) {
		t.Error("expected IsInsufficientStock to detect the error")
	}
	if domain.IsInsufficientStock(domain.ErrPaymentNotFound) {
		t.Error("unexpected match for unrelated error")
	}

	var target *domain.InsufficientStockError
	if !errors.As(err, &target) || target.ProductID != "product-1" {
		t.Fatalf("expected offending product in error, got %v", err)
	}
}
