package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// cartRepositoryInMemory — простая in-memory реализация CartRepository.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.CartItem
}

// NewCartRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		items: make(map[string]domain.CartItem),
	}
}

// Create сохраняет новую позицию корзины.
func (r *cartRepositoryInMemory) Create(item domain.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

// Get возвращает позицию корзины или ErrCartItemNotFound.
func (r *cartRepositoryInMemory) Get(id string) (domain.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return domain.CartItem{}, domain.ErrCartItemNotFound
	}
	return item, nil
}

// FindByUserAndProduct возвращает позицию пользователя по товару.
func (r *cartRepositoryInMemory) FindByUserAndProduct(userID, productID string) (domain.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.UserID == userID && item.ProductID == productID {
			return item, nil
		}
	}
	return domain.CartItem{}, domain.ErrCartItemNotFound
}

// ListByUser возвращает корзину пользователя, отсортированную по дате добавления.
func (r *cartRepositoryInMemory) ListByUser(userID string) ([]domain.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.CartItem, 0, len(r.items))
	for _, item := range r.items {
		if item.UserID == userID {
			result = append(result, item)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Save перезаписывает существующую позицию корзины.
func (r *cartRepositoryInMemory) Save(item domain.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return domain.ErrCartItemNotFound
	}
	r.items[item.ID] = item
	return nil
}

// Delete удаляет позицию корзины или возвращает ErrCartItemNotFound.
func (r *cartRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrCartItemNotFound
	}
	delete(r.items, id)
	return nil
}

// DeleteByProduct удаляет позиции всех корзин по товару.
func (r *cartRepositoryInMemory) DeleteByProduct(productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.ProductID == productID {
			delete(r.items, id)
		}
	}
	return nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
