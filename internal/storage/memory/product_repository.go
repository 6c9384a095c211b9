package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// ProductRepository — in-memory реализация каталога и стокового леджера.
// Reserve/Restock выполняются под общим мьютексом, поэтому проверка и
// списание неразделимы: конкурирующие платежи сериализуются.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		items: make(map[string]domain.Product),
	}
}

// Create сохраняет новый товар, если ID ещё не занят.
func (r *ProductRepository) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.ErrProductNotFound
	}
	r.items[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound, если его нет.
func (r *ProductRepository) Get(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает все товары, отсортированные по дате создания.
func (r *ProductRepository) List() ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.items))
	for _, product := range r.items {
		result = append(result, product)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Save перезаписывает существующий товар.
func (r *ProductRepository) Save(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	r.items[product.ID] = product
	return nil
}

// Delete удаляет товар или возвращает ErrProductNotFound.
func (r *ProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.items, id)
	return nil
}

// Count возвращает количество товаров в каталоге.
func (r *ProductRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

// Reserve списывает сток по всем позициям целиком или не списывает ничего.
// Проверка и запись происходят под одним захватом мьютекса.
func (r *ProductRepository) Reserve(items []domain.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Позиции с одним product_id суммируются: платёж может содержать
	// один товар несколькими строками.
	need := make(map[string]int32, len(items))
	for _, item := range items {
		need[item.ProductID] += item.Qty
	}

	// Сначала проверяем достижимость по всем товарам.
	for _, item := range items {
		product, ok := r.items[item.ProductID]
		if !ok {
			return domain.ErrProductNotFound
		}
		if product.Stock < need[item.ProductID] {
			return &domain.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: need[item.ProductID],
				Available: product.Stock,
			}
		}
	}

	// Затем списываем: частичного списания здесь быть не может.
	for id, qty := range need {
		product := r.items[id]
		product.Stock -= qty
		r.items[id] = product
	}

	return nil
}

// Restock возвращает сток по всем позициям. Товары, удалённые из каталога
// после продажи, пропускаются.
func (r *ProductRepository) Restock(items []domain.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		product, ok := r.items[item.ProductID]
		if !ok {
			continue
		}
		product.Stock += item.Qty
		r.items[item.ProductID] = product
	}

	return nil
}

var _ domain.ProductRepository = (*ProductRepository)(nil)
var _ domain.StockLedger = (*ProductRepository)(nil)
