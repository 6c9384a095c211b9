package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// reviewRepositoryInMemory — простая in-memory реализация ReviewRepository.
type reviewRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Review
}

// NewReviewRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewReviewRepository() domain.ReviewRepository {
	return &reviewRepositoryInMemory{
		items: make(map[string]domain.Review),
	}
}

// Create сохраняет новый отзыв.
func (r *reviewRepositoryInMemory) Create(review domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[review.ID] = review
	return nil
}

// Get возвращает отзыв или ErrReviewNotFound.
func (r *reviewRepositoryInMemory) Get(id string) (domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.items[id]
	if !ok {
		return domain.Review{}, domain.ErrReviewNotFound
	}
	return review, nil
}

// List возвращает все отзывы, отсортированные по дате создания.
func (r *reviewRepositoryInMemory) List() ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(domain.Review) bool { return true }), nil
}

// ListByProduct возвращает отзывы по товару.
func (r *reviewRepositoryInMemory) ListByProduct(productID string) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(rv domain.Review) bool { return rv.ProductID == productID }), nil
}

// Save перезаписывает существующий отзыв.
func (r *reviewRepositoryInMemory) Save(review domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[review.ID]; !ok {
		return domain.ErrReviewNotFound
	}
	r.items[review.ID] = review
	return nil
}

// Delete удаляет отзыв или возвращает ErrReviewNotFound.
func (r *reviewRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(r.items, id)
	return nil
}

// Count возвращает количество отзывов.
func (r *reviewRepositoryInMemory) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

// AverageRating возвращает среднюю оценку товара; ok=false, если отзывов нет.
func (r *reviewRepositoryInMemory) AverageRating(productID string) (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum, count int64
	for _, review := range r.items {
		if review.ProductID == productID {
			sum += int64(review.Rating)
			count++
		}
	}
	if count == 0 {
		return 0, false, nil
	}
	return float64(sum) / float64(count), true, nil
}

// collect возвращает отзывы по предикату. Вызывающий должен удерживать r.mu.
func (r *reviewRepositoryInMemory) collect(keep func(domain.Review) bool) []domain.Review {
	result := make([]domain.Review, 0, len(r.items))
	for _, review := range r.items {
		if keep(review) {
			result = append(result, review)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result
}

var _ domain.ReviewRepository = (*reviewRepositoryInMemory)(nil)
