package domain

import "time"

// CartItem описывает позицию корзины пользователя. Проверка доступного
// стока при добавлении в корзину носит рекомендательный характер:
// фактическая проверка выполняется при переводе платежа в paid.
type CartItem struct {
	ID        string
	UserID    string
	ProductID string
	Qty       int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет, корректно ли заполнены ключевые поля позиции корзины.
func (c *CartItem) Validate() []error {
	var errs []error

	if c.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if c.ProductID == "" {
		errs = append(errs, ErrProductRequired)
	}
	if c.Qty <= 0 {
		errs = append(errs, ErrItemQtyInvalid)
	}

	return errs
}
