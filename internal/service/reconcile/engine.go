package reconcile

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// LineItemInput — запрошенная позиция при создании платежа.
// Цена не принимается от клиента: она берётся из каталога на сервере.
type LineItemInput struct {
	ProductID string
	Qty       int32
}

// Engine согласует сток каталога с жизненным циклом платежей.
//
// Инвариант: списание стока применено тогда и только тогда, когда платёж
// находится в статусе paid. Переход в тот же статус — no-op; вход в paid
// списывает сток по всем позициям атомарно (целиком или никак); выход из
// paid возвращает сток. Переходы pending↔cancelled сток не трогают.
type Engine struct {
	payments domain.PaymentRepository
	products domain.ProductRepository
	ledger   domain.StockLedger
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.ReconcileMetrics
}

// NewEngine создаёт рабочий экземпляр движка согласования.
func NewEngine(
	payments domain.PaymentRepository,
	products domain.ProductRepository,
	ledger domain.StockLedger,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "reconcile")
	}
	return &Engine{
		payments: payments,
		products: products,
		ledger:   ledger,
		outbox:   outbox,
		logger:   logger,
		metrics:  metrics.NewReconcileMetrics(),
	}
}

// NewEngineWithoutMetrics создаёт движок без метрик (для тестов).
func NewEngineWithoutMetrics(
	payments domain.PaymentRepository,
	products domain.ProductRepository,
	ledger domain.StockLedger,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Engine {
	engine := NewEngine(payments, products, ledger, outbox, logger)
	engine.metrics = nil
	return engine
}

// CreatePayment создаёт платёж в статусе pending без какого-либо эффекта на сток.
// Доступность стока на этот момент носит рекомендательный характер: она
// перепроверяется при переводе в paid, потому что к тому времени сток могли
// выкупить другие платежи.
func (e *Engine) CreatePayment(userID string, items []LineItemInput) (domain.Payment, error) {
	if userID == "" {
		return domain.Payment{}, domain.ErrUserRequired
	}
	if len(items) == 0 {
		return domain.Payment{}, domain.ErrItemsRequired
	}

	now := time.Now().UTC()
	lineItems := make([]domain.LineItem, 0, len(items))
	var total int64

	for _, input := range items {
		if input.Qty <= 0 {
			return domain.Payment{}, domain.ErrItemQtyInvalid
		}
		product, err := e.products.Get(input.ProductID)
		if err != nil {
			return domain.Payment{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, input.ProductID)
		}
		lineItems = append(lineItems, domain.LineItem{
			ID:         uuid.NewString(),
			ProductID:  product.ID,
			Qty:        input.Qty,
			PriceMinor: product.PriceMinor,
			CreatedAt:  now,
		})
		total += int64(input.Qty) * product.PriceMinor
	}

	payment := domain.Payment{
		ID:         uuid.NewString(),
		UserID:     userID,
		Status:     domain.PaymentStatusPending,
		TotalMinor: total,
		Items:      lineItems,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := e.payments.Create(payment); err != nil {
		return domain.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	e.logger.WithFields(log.Fields{
		"payment_id":  payment.ID,
		"user_id":     userID,
		"items_count": len(lineItems),
		"total_minor": total,
	}).Info("payment created")

	if e.metrics != nil {
		e.metrics.RecordPaymentCreated()
	}
	e.emitEvent(payment, kafka.EventTypePaymentCreated, map[string]interface{}{
		"total_minor": payment.TotalMinor,
	})

	return payment, nil
}

// TransitionStatus применяет складское следствие смены статуса платежа.
//
// Сток меняется до записи нового статуса; если запись статуса не удалась,
// складская мутация компенсируется. Перевод в текущий статус — no-op.
func (e *Engine) TransitionStatus(paymentID string, newStatus domain.PaymentStatus) (domain.Payment, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordTransitionDuration(time.Since(start))
		}
	}()

	if !newStatus.Valid() {
		return domain.Payment{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, newStatus)
	}

	payment, err := e.payments.Get(paymentID)
	if err != nil {
		return domain.Payment{}, err
	}

	if payment.Status == newStatus {
		// Повторное применение эффекта двоило бы списание/возврат.
		e.logger.WithFields(log.Fields{
			"payment_id": payment.ID,
			"status":     payment.Status,
		}).Debug("payment already in target status, skipping")
		return payment, nil
	}

	entering := newStatus == domain.PaymentStatusPaid
	leaving := payment.Status == domain.PaymentStatusPaid

	if entering {
		// Проверка и списание — одна атомарная операция леджера: два платежа
		// не могут одновременно пройти проверку по одному и тому же стоку.
		if err := e.ledger.Reserve(payment.Items); err != nil {
			if domain.IsInsufficientStock(err) {
				e.logger.WithError(err).WithField("payment_id", payment.ID).Warn("paid transition rejected")
				if e.metrics != nil {
					e.metrics.RecordInsufficientStock()
					e.metrics.RecordTransition(string(newStatus), "insufficient_stock")
				}
				return domain.Payment{}, err
			}
			return domain.Payment{}, fmt.Errorf("reserve stock: %w", err)
		}
	}
	if leaving {
		if err := e.ledger.Restock(payment.Items); err != nil {
			return domain.Payment{}, fmt.Errorf("restock: %w", err)
		}
	}

	if err := e.payments.UpdateStatus(payment.ID, payment.Status, newStatus); err != nil {
		e.compensate(payment, entering, leaving)
		if e.metrics != nil {
			e.metrics.RecordTransition(string(newStatus), "conflict")
		}
		return domain.Payment{}, err
	}

	previous := payment.Status
	payment.Status = newStatus
	payment.UpdatedAt = time.Now().UTC()

	e.logger.WithFields(log.Fields{
		"payment_id": payment.ID,
		"from":       previous,
		"to":         newStatus,
	}).Info("payment status changed")

	if e.metrics != nil {
		e.metrics.RecordTransition(string(newStatus), "ok")
	}
	e.emitEvent(payment, kafka.EventTypePaymentStatusChanged, map[string]interface{}{
		"from": string(previous),
		"to":   string(newStatus),
	})

	return payment, nil
}

// DeletePayment удаляет платёж, предварительно вернув сток, если платёж
// удерживал списание (то есть был paid). Удаление pending или cancelled
// платежа сток не трогает: их эффект либо не применялся, либо уже возвращён.
func (e *Engine) DeletePayment(paymentID string) error {
	payment, err := e.payments.Get(paymentID)
	if err != nil {
		return err
	}

	restocked := payment.StockApplied()
	if restocked {
		if err := e.ledger.Restock(payment.Items); err != nil {
			return fmt.Errorf("restock before delete: %w", err)
		}
	}

	if err := e.payments.Delete(payment.ID); err != nil {
		if restocked {
			e.compensate(payment, false, true)
		}
		return err
	}

	e.logger.WithFields(log.Fields{
		"payment_id": payment.ID,
		"status":     payment.Status,
		"restocked":  restocked,
	}).Info("payment deleted")

	if e.metrics != nil {
		e.metrics.RecordPaymentDeleted()
	}
	e.emitEvent(payment, kafka.EventTypePaymentDeleted, map[string]interface{}{
		"restocked": restocked,
	})

	return nil
}

// ListPayments возвращает все платежи; limit > 0 ограничивает выборку.
func (e *Engine) ListPayments(limit int) ([]domain.Payment, error) {
	return e.payments.List(limit)
}

// ListPaymentsByUser возвращает платежи конкретного пользователя.
func (e *Engine) ListPaymentsByUser(userID string) ([]domain.Payment, error) {
	if userID == "" {
		return nil, domain.ErrUserRequired
	}
	return e.payments.ListByUser(userID)
}

// compensate откатывает складскую мутацию, если запись статуса не прошла.
func (e *Engine) compensate(payment domain.Payment, reserved, restocked bool) {
	if reserved {
		if err := e.ledger.Restock(payment.Items); err != nil {
			e.logger.WithError(err).WithField("payment_id", payment.ID).Error("compensating restock failed")
		}
	}
	if restocked {
		// Возвратное списание может законно не пройти, если сток уже выкупили.
		if err := e.ledger.Reserve(payment.Items); err != nil {
			e.logger.WithError(err).WithField("payment_id", payment.ID).Error("compensating reserve failed")
		}
	}
}

// emitEvent кладёт событие жизненного цикла платежа в outbox.
// Словарь событий общий с Kafka-слоем: publisher отдаёт тип события
// в топик без перекодирования.
func (e *Engine) emitEvent(payment domain.Payment, eventType kafka.EventType, metadata map[string]interface{}) {
	if e.outbox == nil {
		return
	}

	event := kafka.NewPaymentEvent(eventType, payment.ID, payment.UserID, string(payment.Status), metadata)
	data, err := json.Marshal(event)
	if err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"payment_id": payment.ID,
			"event":      eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "payment",
		AggregateID:   payment.ID,
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := e.outbox.Enqueue(msg); err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"payment_id": payment.ID,
			"event":      eventType,
		}).Error("enqueue event failed")
	} else if e.metrics != nil {
		e.metrics.RecordOutboxEvent()
	}
}
