package domain

import "time"

// PaymentStatus описывает жизненный цикл платежа.
type PaymentStatus string

const (
	// PaymentStatusPending — платёж создан, сток ещё не затронут.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid — платёж подтверждён, сток по позициям списан.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusCancelled — платёж отменён; если он был оплачен, сток возвращён.
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

// LineItem представляет одну позицию платежа. Позиции неизменяемы после создания.
type LineItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — идентификатор товара в каталоге.
	ProductID string
	// Qty — количество единиц товара, всегда положительное.
	Qty int32
	// PriceMinor — цена за единицу на момент создания платежа, в минимальных денежных единицах.
	PriceMinor int64
	// CreatedAt фиксирует момент создания позиции.
	CreatedAt time.Time
}

// Payment агрегирует одну checkout-транзакцию: покупателя, позиции, сумму и статус.
type Payment struct {
	ID         string
	UserID     string
	Status     PaymentStatus
	TotalMinor int64
	Items      []LineItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StockApplied сообщает, удерживает ли платёж списание стока.
// Инвариант модуля согласования: сток списан тогда и только тогда, когда статус paid.
func (p *Payment) StockApplied() bool {
	return p.Status == PaymentStatusPaid
}

// ValidateInvariants проверяет базовые инварианты платежа и возвращает список замечаний.
func (p *Payment) ValidateInvariants() []error {
	var errs []error

	if p.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if !p.Status.Valid() {
		errs = append(errs, ErrInvalidStatus)
	}
	if len(p.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if p.TotalMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем сумму платежа с суммой позиций: qty * price.
	var calc int64
	for _, item := range p.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrProductRequired)
		}
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Qty) * item.PriceMinor
	}
	if calc != p.TotalMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
