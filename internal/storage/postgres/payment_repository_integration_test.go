package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func seedPaymentForIntegrationTest(t *testing.T, repo domain.PaymentRepository, userID string, status domain.PaymentStatus, items ...domain.LineItem) domain.Payment {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	var total int64
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].CreatedAt = now
		total += int64(items[i].Qty) * items[i].PriceMinor
	}

	payment := domain.Payment{
		ID:         uuid.NewString(),
		UserID:     userID,
		Status:     status,
		TotalMinor: total,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.Create(payment); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return payment
}

func TestPaymentRepository_PostgresCRUD(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewPaymentRepository(store)

	created := seedPaymentForIntegrationTest(t, repo, "user-1", domain.PaymentStatusPending,
		domain.LineItem{ProductID: "p1", Qty: 2, PriceMinor: 100},
		domain.LineItem{ProductID: "p2", Qty: 1, PriceMinor: 250},
	)

	got, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if got.TotalMinor != 450 || len(got.Items) != 2 {
		t.Fatalf("unexpected payment loaded: %+v", got)
	}
	if got.Status != domain.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}

	byUser, err := repo.ListByUser("user-1")
	if err != nil || len(byUser) != 1 {
		t.Fatalf("expected 1 payment for user-1, got %d (err=%v)", len(byUser), err)
	}

	if err := repo.Delete(created.ID); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	if err := repo.Delete(created.ID); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound on double delete, got %v", err)
	}
}

func TestPaymentRepository_PostgresUpdateStatusCAS(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewPaymentRepository(store)

	payment := seedPaymentForIntegrationTest(t, repo, "user-1", domain.PaymentStatusPending,
		domain.LineItem{ProductID: "p1", Qty: 1, PriceMinor: 100},
	)

	if err := repo.UpdateStatus(payment.ID, domain.PaymentStatusPending, domain.PaymentStatusPaid); err != nil {
		t.Fatalf("cas pending->paid: %v", err)
	}

	// Повтор с устаревшим from — конфликт.
	err := repo.UpdateStatus(payment.ID, domain.PaymentStatusPending, domain.PaymentStatusCancelled)
	if !errors.Is(err, domain.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}

	err = repo.UpdateStatus("missing", domain.PaymentStatusPending, domain.PaymentStatusPaid)
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}

	got, err := repo.Get(payment.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if got.Status != domain.PaymentStatusPaid {
		t.Fatalf("expected paid after cas, got %s", got.Status)
	}
}

func TestPaymentRepository_PostgresListByStatusAndCount(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewPaymentRepository(store)

	seedPaymentForIntegrationTest(t, repo, "user-1", domain.PaymentStatusPending,
		domain.LineItem{ProductID: "p1", Qty: 1, PriceMinor: 100},
	)
	seedPaymentForIntegrationTest(t, repo, "user-2", domain.PaymentStatusPaid,
		domain.LineItem{ProductID: "p1", Qty: 3, PriceMinor: 100},
	)

	paid, err := repo.ListByStatus(domain.PaymentStatusPaid)
	if err != nil || len(paid) != 1 {
		t.Fatalf("expected 1 paid payment, got %d (err=%v)", len(paid), err)
	}

	count, err := repo.CountByStatus(domain.PaymentStatusPending)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 pending payment, got %d (err=%v)", count, err)
	}

	all, err := repo.List(0)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 payments, got %d (err=%v)", len(all), err)
	}
}
