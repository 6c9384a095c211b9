package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// paymentRepositoryInMemory — простая in-memory реализация PaymentRepository.
type paymentRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Payment
}

// NewPaymentRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewPaymentRepository() domain.PaymentRepository {
	return &paymentRepositoryInMemory{
		items: make(map[string]domain.Payment),
	}
}

// Create сохраняет новый платёж, если ID ещё не занят.
func (r *paymentRepositoryInMemory) Create(payment domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[payment.ID]; exists {
		return domain.ErrStatusConflict
	}
	// Сохраняем копию позиций, чтобы избежать непредсказуемых мутаций извне.
	payment.Items = copyItems(payment.Items)
	r.items[payment.ID] = payment
	return nil
}

// Get возвращает платёж или ErrPaymentNotFound, если его нет.
func (r *paymentRepositoryInMemory) Get(id string) (domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.items[id]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	payment.Items = copyItems(payment.Items)
	return payment, nil
}

// List возвращает все платежи, ограничивая выборку limit (если >0).
func (r *paymentRepositoryInMemory) List(limit int) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.collect(func(domain.Payment) bool { return true })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListByUser возвращает платежи конкретного пользователя.
func (r *paymentRepositoryInMemory) ListByUser(userID string) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(p domain.Payment) bool { return p.UserID == userID }), nil
}

// ListByStatus возвращает платежи в заданном статусе в порядке создания.
func (r *paymentRepositoryInMemory) ListByStatus(status domain.PaymentStatus) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(p domain.Payment) bool { return p.Status == status }), nil
}

// UpdateStatus переводит платёж из from в to, проверяя текущий статус
// (optimistic locking по статусу вместо числовой версии).
func (r *paymentRepositoryInMemory) UpdateStatus(id string, from, to domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	if current.Status != from {
		return domain.ErrStatusConflict
	}
	current.Status = to
	current.UpdatedAt = time.Now().UTC()
	r.items[id] = current
	return nil
}

// Delete удаляет платёж вместе с позициями.
func (r *paymentRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrPaymentNotFound
	}
	delete(r.items, id)
	return nil
}

// CountByStatus возвращает количество платежей в заданном статусе.
func (r *paymentRepositoryInMemory) CountByStatus(status domain.PaymentStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, payment := range r.items {
		if payment.Status == status {
			count++
		}
	}
	return count, nil
}

// collect возвращает копии платежей по предикату, отсортированные по дате создания.
// Вызывающий должен удерживать r.mu.
func (r *paymentRepositoryInMemory) collect(keep func(domain.Payment) bool) []domain.Payment {
	result := make([]domain.Payment, 0, len(r.items))
	for _, payment := range r.items {
		if !keep(payment) {
			continue
		}
		payment.Items = copyItems(payment.Items)
		result = append(result, payment)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result
}

func copyItems(items []domain.LineItem) []domain.LineItem {
	if items == nil {
		return nil
	}
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out
}

var _ domain.PaymentRepository = (*paymentRepositoryInMemory)(nil)
