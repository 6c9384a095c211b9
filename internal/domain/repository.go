package domain

// UserRepository описывает требования к хранилищу пользователей.
type UserRepository interface {
	// Create сохраняет нового пользователя. Возвращает ErrEmailTaken, если email занят.
	Create(user User) error
	// Get возвращает пользователя по идентификатору или ErrUserNotFound.
	Get(id string) (User, error)
	// GetByEmail возвращает пользователя по email или ErrUserNotFound.
	GetByEmail(email string) (User, error)
	// List возвращает всех пользователей, отсортированных по дате создания.
	List() ([]User, error)
	// Save применяет обновления к существующему пользователю.
	Save(user User) error
	// Delete удаляет пользователя или возвращает ErrUserNotFound.
	Delete(id string) error
	// Count возвращает количество пользователей.
	Count() (int, error)
}

// ProductRepository описывает требования к хранилищу каталога.
type ProductRepository interface {
	Create(product Product) error
	Get(id string) (Product, error)
	List() ([]Product, error)
	Save(product Product) error
	Delete(id string) error
	Count() (int, error)
}

// PaymentRepository описывает требования к хранилищу платежей.
type PaymentRepository interface {
	// Create сохраняет платёж вместе с позициями.
	Create(payment Payment) error
	// Get возвращает платёж с позициями или ErrPaymentNotFound.
	Get(id string) (Payment, error)
	// List возвращает все платежи; limit > 0 ограничивает выборку.
	List(limit int) ([]Payment, error)
	// ListByUser возвращает платежи конкретного пользователя.
	ListByUser(userID string) ([]Payment, error)
	// ListByStatus возвращает платежи в заданном статусе в порядке создания.
	ListByStatus(status PaymentStatus) ([]Payment, error)
	// UpdateStatus переводит платёж из from в to атомарно.
	// Возвращает ErrStatusConflict, если текущий статус отличается от from.
	UpdateStatus(id string, from, to PaymentStatus) error
	// Delete удаляет платёж вместе с позициями.
	Delete(id string) error
	// CountByStatus возвращает количество платежей в заданном статусе.
	CountByStatus(status PaymentStatus) (int, error)
}

// ReviewRepository описывает требования к хранилищу отзывов.
type ReviewRepository interface {
	Create(review Review) error
	Get(id string) (Review, error)
	List() ([]Review, error)
	ListByProduct(productID string) ([]Review, error)
	Save(review Review) error
	Delete(id string) error
	Count() (int, error)
	// AverageRating возвращает среднюю оценку товара; ok=false, если отзывов нет.
	AverageRating(productID string) (avg float64, ok bool, err error)
}

// CartRepository описывает требования к хранилищу корзин.
type CartRepository interface {
	Create(item CartItem) error
	Get(id string) (CartItem, error)
	// FindByUserAndProduct возвращает позицию пользователя по товару или ErrCartItemNotFound.
	FindByUserAndProduct(userID, productID string) (CartItem, error)
	ListByUser(userID string) ([]CartItem, error)
	Save(item CartItem) error
	Delete(id string) error
	// DeleteByProduct удаляет позиции всех корзин по товару (каскад при удалении товара).
	DeleteByProduct(productID string) error
}
