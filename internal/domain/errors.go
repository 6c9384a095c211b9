package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductRequired = errors.New("product_id is required")
	// Ошибка отсутствия хотя бы одной позиции в платеже.
	ErrItemsRequired = errors.New("payment must contain at least one line item")
	// Ошибка отрицательной суммы платежа.
	ErrAmountNegative = errors.New("total_minor must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы платежа и сумм позиций.
	ErrAmountMismatch = errors.New("payment total does not match items sum")
	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательного остатка на складе.
	ErrStockNegative = errors.New("product stock must be non-negative")
	// Ошибка отсутствующего имени пользователя.
	ErrUserNameRequired = errors.New("user name is required")
	// Ошибка отсутствующего email.
	ErrEmailRequired = errors.New("email is required")
	// Ошибка отсутствующего пароля.
	ErrPasswordRequired = errors.New("password is required")
	// Ошибка неизвестной роли пользователя.
	ErrRoleInvalid = errors.New("user role is invalid")
	// Ошибка пустого комментария отзыва.
	ErrCommentRequired = errors.New("review comment cannot be empty")
	// Ошибка оценки вне диапазона 1..5.
	ErrRatingOutOfRange = errors.New("review rating must be between 1 and 5")

	// ErrPaymentNotFound возвращается, если платёж не найден в репозитории.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrReviewNotFound возвращается, если отзыв не найден.
	ErrReviewNotFound = errors.New("review not found")
	// ErrCartItemNotFound возвращается, если позиция корзины не найдена.
	ErrCartItemNotFound = errors.New("cart item not found")

	// ErrInvalidStatus — статус вне множества {pending, paid, cancelled}.
	ErrInvalidStatus = errors.New("invalid payment status")
	// ErrStatusConflict сигнализирует, что статус платежа изменился конкурентно.
	ErrStatusConflict = errors.New("payment status conflict")
	// ErrEmailTaken — email уже занят другой учётной записью.
	ErrEmailTaken = errors.New("email already in use")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// InsufficientStockError возвращается при переводе платежа в paid, если
// хотя бы по одной позиции доступного стока не хватает. Ошибка всегда
// называет первый «виновный» товар; частичное списание при этом не происходит.
type InsufficientStockError struct {
	ProductID string
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой стока.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

// IsNotFound проверяет, относится ли ошибка к семейству "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrReviewNotFound) ||
		errors.Is(err, ErrCartItemNotFound)
}
