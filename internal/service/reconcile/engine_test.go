package reconcile

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

type engineEnv struct {
	engine   *Engine
	payments domain.PaymentRepository
	products *memory.ProductRepository
	outbox   interface {
		domain.OutboxRepository
		AllPending() []domain.OutboxMessage
	}
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()

	products := memory.NewProductRepository()
	payments := memory.NewPaymentRepository()
	outbox := memory.NewOutboxRepository()
	logger := log.New().WithField("component", "reconcile-test")

	return &engineEnv{
		engine:   NewEngineWithoutMetrics(payments, products, products, outbox, logger),
		payments: payments,
		products: products,
		outbox:   outbox,
	}
}

func (env *engineEnv) seedProduct(t *testing.T, id string, price int64, stock int32) {
	t.Helper()
	err := env.products.Create(domain.Product{ID: id, Name: "product " + id, PriceMinor: price, Stock: stock})
	if err != nil {
		t.Fatalf("seed product %s: %v", id, err)
	}
}

func (env *engineEnv) stock(t *testing.T, id string) int32 {
	t.Helper()
	product, err := env.products.Get(id)
	if err != nil {
		t.Fatalf("get product %s: %v", id, err)
	}
	return product.Stock
}

func TestCreatePayment(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 150, 5)
	env.seedProduct(t, "b", 200, 2)

	payment, err := env.engine.CreatePayment("user-1", []LineItemInput{
		{ProductID: "a", Qty: 2},
		{ProductID: "b", Qty: 1},
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected pending status, got %s", payment.Status)
	}
	if payment.TotalMinor != 2*150+200 {
		t.Errorf("expected total 500, got %d", payment.TotalMinor)
	}
	if errs := payment.ValidateInvariants(); len(errs) != 0 {
		t.Errorf("created payment violates invariants: %v", errs)
	}

	// Создание не трогает сток.
	if got := env.stock(t, "a"); got != 5 {
		t.Errorf("expected stock of a untouched (5), got %d", got)
	}
}

func TestCreatePayment_Validation(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 5)

	if _, err := env.engine.CreatePayment("", []LineItemInput{{ProductID: "a", Qty: 1}}); !errors.Is(err, domain.ErrUserRequired) {
		t.Errorf("expected ErrUserRequired, got %v", err)
	}
	if _, err := env.engine.CreatePayment("user-1", nil); !errors.Is(err, domain.ErrItemsRequired) {
		t.Errorf("expected ErrItemsRequired, got %v", err)
	}
	if _, err := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 0}}); !errors.Is(err, domain.ErrItemQtyInvalid) {
		t.Errorf("expected ErrItemQtyInvalid, got %v", err)
	}
	if _, err := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "ghost", Qty: 1}}); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

// Сценарий из приёмки: сток 5, платёж на 3 проходит, второй на 3 — нет,
// отмена первого возвращает сток.
func TestTransition_StockScenario(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 5)

	first, err := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 3}})
	if err != nil {
		t.Fatalf("create first payment: %v", err)
	}

	updated, err := env.engine.TransitionStatus(first.ID, domain.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("transition first to paid: %v", err)
	}
	if updated.Status != domain.PaymentStatusPaid {
		t.Errorf("expected paid, got %s", updated.Status)
	}
	if got := env.stock(t, "a"); got != 2 {
		t.Fatalf("expected stock 2 after paid, got %d", got)
	}

	second, err := env.engine.CreatePayment("user-2", []LineItemInput{{ProductID: "a", Qty: 3}})
	if err != nil {
		t.Fatalf("create second payment: %v", err)
	}
	_, err = env.engine.TransitionStatus(second.ID, domain.PaymentStatusPaid)
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		if stockErr.ProductID != "a" || stockErr.Requested != 3 || stockErr.Available != 2 {
			t.Errorf("unexpected offending product details: %+v", stockErr)
		}
	}
	if got := env.stock(t, "a"); got != 2 {
		t.Fatalf("failed transition must not change stock, got %d", got)
	}

	// Отказ не должен менять статус второго платежа.
	stored, _ := env.payments.Get(second.ID)
	if stored.Status != domain.PaymentStatusPending {
		t.Errorf("second payment must stay pending, got %s", stored.Status)
	}

	if _, err := env.engine.TransitionStatus(first.ID, domain.PaymentStatusCancelled); err != nil {
		t.Fatalf("cancel first payment: %v", err)
	}
	if got := env.stock(t, "a"); got != 5 {
		t.Fatalf("expected stock restored to 5 after cancel, got %d", got)
	}
}

// Round-trip: paid → cancelled возвращает сток к значению до оплаты по каждой позиции.
func TestTransition_PaidCancelledRoundTrip(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 7)
	env.seedProduct(t, "b", 50, 4)

	payment, err := env.engine.CreatePayment("user-1", []LineItemInput{
		{ProductID: "a", Qty: 2},
		{ProductID: "b", Qty: 4},
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid); err != nil {
		t.Fatalf("to paid: %v", err)
	}
	if env.stock(t, "a") != 5 || env.stock(t, "b") != 0 {
		t.Fatalf("expected stock a=5 b=0 after paid, got a=%d b=%d", env.stock(t, "a"), env.stock(t, "b"))
	}

	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusCancelled); err != nil {
		t.Fatalf("to cancelled: %v", err)
	}
	if env.stock(t, "a") != 7 || env.stock(t, "b") != 4 {
		t.Fatalf("expected stock restored (a=7 b=4), got a=%d b=%d", env.stock(t, "a"), env.stock(t, "b"))
	}
}

// InsufficientStock не оставляет частичных списаний: снимок стока до и после совпадает.
func TestTransition_NoPartialDecrement(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 10)
	env.seedProduct(t, "b", 100, 1)
	env.seedProduct(t, "c", 100, 10)

	payment, err := env.engine.CreatePayment("user-1", []LineItemInput{
		{ProductID: "a", Qty: 5},
		{ProductID: "b", Qty: 2}, // не хватает
		{ProductID: "c", Qty: 5},
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	before := map[string]int32{
		"a": env.stock(t, "a"),
		"b": env.stock(t, "b"),
		"c": env.stock(t, "c"),
	}

	_, err = env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid)
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	for id, want := range before {
		if got := env.stock(t, id); got != want {
			t.Errorf("stock of %s changed from %d to %d on failed transition", id, want, got)
		}
	}
}

// Повторный перевод в текущий статус — no-op: эффект не применяется дважды.
func TestTransition_SameStatusNoop(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 5)

	payment, _ := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 3}})

	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPending); err != nil {
		t.Fatalf("pending noop: %v", err)
	}
	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid); err != nil {
		t.Fatalf("to paid: %v", err)
	}
	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid); err != nil {
		t.Fatalf("paid noop: %v", err)
	}
	if got := env.stock(t, "a"); got != 2 {
		t.Fatalf("double paid must not double-decrement: expected 2, got %d", got)
	}

	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusCancelled); err != nil {
		t.Fatalf("to cancelled: %v", err)
	}
	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusCancelled); err != nil {
		t.Fatalf("cancelled noop: %v", err)
	}
	if got := env.stock(t, "a"); got != 5 {
		t.Fatalf("double cancel must not double-restock: expected 5, got %d", got)
	}
}

// Отмена pending-платежа не трогает сток: он не списывался.
func TestTransition_PendingToCancelledNoStockEffect(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 5)

	payment, _ := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 3}})
	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusCancelled); err != nil {
		t.Fatalf("to cancelled: %v", err)
	}
	if got := env.stock(t, "a"); got != 5 {
		t.Fatalf("cancelling a pending payment must not restock: expected 5, got %d", got)
	}
}

// Возврат paid-платежа в pending снимает списание: эффект удерживается только в paid.
func TestTransition_PaidBackToPendingRestocks(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 5)

	payment, _ := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 3}})
	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid); err != nil {
		t.Fatalf("to paid: %v", err)
	}
	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPending); err != nil {
		t.Fatalf("back to pending: %v", err)
	}
	if got := env.stock(t, "a"); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}
}

func TestTransition_Errors(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 5)
	payment, _ := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 1}})

	if _, err := env.engine.TransitionStatus(payment.ID, "refunded"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := env.engine.TransitionStatus("missing", domain.PaymentStatusPaid); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
}

// Удаление paid-платежа возвращает сток перед удалением записи.
func TestDeletePayment_PaidRestocks(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 5)

	payment, _ := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 2}})
	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid); err != nil {
		t.Fatalf("to paid: %v", err)
	}
	if got := env.stock(t, "a"); got != 3 {
		t.Fatalf("expected stock 3 after paid, got %d", got)
	}

	if err := env.engine.DeletePayment(payment.ID); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	if got := env.stock(t, "a"); got != 5 {
		t.Fatalf("expected stock restored to 5 after delete, got %d", got)
	}
	if _, err := env.payments.Get(payment.ID); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("expected payment removed, got %v", err)
	}
}

// Удаление pending/cancelled платежа сток не трогает.
func TestDeletePayment_NotPaidDoesNotRestock(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 5)

	pending, _ := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 2}})
	if err := env.engine.DeletePayment(pending.ID); err != nil {
		t.Fatalf("delete pending: %v", err)
	}
	if got := env.stock(t, "a"); got != 5 {
		t.Fatalf("deleting pending payment must not restock: expected 5, got %d", got)
	}

	cancelled, _ := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 2}})
	if _, err := env.engine.TransitionStatus(cancelled.ID, domain.PaymentStatusPaid); err != nil {
		t.Fatalf("to paid: %v", err)
	}
	if _, err := env.engine.TransitionStatus(cancelled.ID, domain.PaymentStatusCancelled); err != nil {
		t.Fatalf("to cancelled: %v", err)
	}
	if err := env.engine.DeletePayment(cancelled.ID); err != nil {
		t.Fatalf("delete cancelled: %v", err)
	}
	// Отмена уже вернула сток; удаление не должно возвращать его второй раз.
	if got := env.stock(t, "a"); got != 5 {
		t.Fatalf("deleting cancelled payment must not double-restock: expected 5, got %d", got)
	}
}

func TestDeletePayment_NotFound(t *testing.T) {
	env := newEngineEnv(t)
	if err := env.engine.DeletePayment("missing"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestListPayments(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 50)

	_, _ = env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 1}})
	_, _ = env.engine.CreatePayment("user-2", []LineItemInput{{ProductID: "a", Qty: 2}})
	_, _ = env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 3}})

	all, err := env.engine.ListPayments(0)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 payments, got %d (err=%v)", len(all), err)
	}

	mine, err := env.engine.ListPaymentsByUser("user-1")
	if err != nil || len(mine) != 2 {
		t.Fatalf("expected 2 payments for user-1, got %d (err=%v)", len(mine), err)
	}

	if _, err := env.engine.ListPaymentsByUser(""); !errors.Is(err, domain.ErrUserRequired) {
		t.Errorf("expected ErrUserRequired, got %v", err)
	}
}

func TestTransition_DuplicateLineItemsAggregated(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 3)

	// Один товар двумя строками: списание считается по сумме строк.
	payment, err := env.engine.CreatePayment("user-1", []LineItemInput{
		{ProductID: "a", Qty: 2},
		{ProductID: "a", Qty: 2},
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid); !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock for aggregated qty 4 of 3, got %v", err)
	}
	if got := env.stock(t, "a"); got != 3 {
		t.Errorf("expected stock untouched (3), got %d", got)
	}

	env.seedProduct(t, "b", 100, 4)
	payment, err = env.engine.CreatePayment("user-1", []LineItemInput{
		{ProductID: "b", Qty: 2},
		{ProductID: "b", Qty: 2},
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if _, err := env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid); err != nil {
		t.Fatalf("expected transition to paid to succeed, got %v", err)
	}
	if got := env.stock(t, "b"); got != 0 {
		t.Errorf("expected stock b=0 after paid, got %d", got)
	}
}

func TestEngine_EmitsOutboxEvents(t *testing.T) {
	env := newEngineEnv(t)
	env.seedProduct(t, "a", 100, 5)

	payment, _ := env.engine.CreatePayment("user-1", []LineItemInput{{ProductID: "a", Qty: 1}})
	_, _ = env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid)
	_ = env.engine.DeletePayment(payment.ID)

	pending := env.outbox.AllPending()
	if len(pending) != 3 {
		t.Fatalf("expected 3 outbox events, got %d", len(pending))
	}

	types := []string{pending[0].EventType, pending[1].EventType, pending[2].EventType}
	want := []string{
		string(kafka.EventTypePaymentCreated),
		string(kafka.EventTypePaymentStatusChanged),
		string(kafka.EventTypePaymentDeleted),
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}

	var event kafka.PaymentEvent
	if err := json.Unmarshal(pending[1].Payload, &event); err != nil {
		t.Fatalf("unmarshal event payload: %v", err)
	}
	if event.EventType != kafka.EventTypePaymentStatusChanged || event.PaymentID != payment.ID {
		t.Errorf("unexpected status change event: %+v", event)
	}
	if event.Status != string(domain.PaymentStatusPaid) || event.Metadata["to"] != "paid" {
		t.Errorf("expected status paid with metadata to=paid, got %+v", event)
	}
}

// Property: переход в paid успешен тогда и только тогда, когда каждой позиции
// хватает стока; сток никогда не уходит в минус.
func TestTransition_FeasibilityProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		env := newEngineEnv(t)

		productCount := 1 + rng.Intn(4)
		stocks := make(map[string]int32, productCount)
		inputs := make([]LineItemInput, 0, productCount)
		feasible := true

		for p := 0; p < productCount; p++ {
			id := string(rune('a' + p))
			stock := int32(rng.Intn(10))
			qty := int32(1 + rng.Intn(10))
			env.seedProduct(t, id, 100, stock)
			stocks[id] = stock
			inputs = append(inputs, LineItemInput{ProductID: id, Qty: qty})
			if qty > stock {
				feasible = false
			}
		}

		payment, err := env.engine.CreatePayment("user-1", inputs)
		if err != nil {
			t.Fatalf("iteration %d: create payment: %v", i, err)
		}

		_, err = env.engine.TransitionStatus(payment.ID, domain.PaymentStatusPaid)
		if feasible && err != nil {
			t.Fatalf("iteration %d: expected success, got %v (stocks=%v items=%v)", i, err, stocks, inputs)
		}
		if !feasible && !domain.IsInsufficientStock(err) {
			t.Fatalf("iteration %d: expected insufficient stock, got %v (stocks=%v items=%v)", i, err, stocks, inputs)
		}

		for id, before := range stocks {
			got := env.stock(t, id)
			if got < 0 {
				t.Fatalf("iteration %d: stock of %s went negative: %d", i, id, got)
			}
			if !feasible && got != before {
				t.Fatalf("iteration %d: failed transition changed stock of %s: %d -> %d", i, id, before, got)
			}
		}
	}
}
