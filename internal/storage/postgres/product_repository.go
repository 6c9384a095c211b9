package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// ProductRepository — PostgreSQL-реализация каталога и складской книги.
// Списание стока выполняется одной транзакцией с блокировкой строк в
// порядке возрастания id, чтобы параллельные списания не взаимоблокировались.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{db: store.DB()}
}

func (r *ProductRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, description, volume, image, price_minor, stock, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		product.ID, product.Name, product.Description, product.Volume,
		product.Image, product.PriceMinor, product.Stock,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *ProductRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, volume, image, price_minor, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID, &product.Name, &product.Description, &product.Volume,
		&product.Image, &product.PriceMinor, &product.Stock,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *ProductRepository) List() ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, volume, image, price_minor, stock, created_at, updated_at
		FROM products
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.Volume,
			&product.Image, &product.PriceMinor, &product.Stock,
			&product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) Save(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1,
		    description = $2,
		    volume = $3,
		    image = $4,
		    price_minor = $5,
		    stock = $6,
		    updated_at = $7
		WHERE id = $8
	`,
		product.Name, product.Description, product.Volume, product.Image,
		product.PriceMinor, product.Stock, product.UpdatedAt, product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *ProductRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *ProductRepository) Count() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// Reserve атомарно списывает сток по всем позициям. Одна транзакция:
// строки блокируются FOR UPDATE в порядке id, затем каждая позиция
// уменьшается условным UPDATE с guard'ом stock >= qty. Любая недостача
// откатывает всё списание целиком.
func (r *ProductRepository) Reserve(items []domain.LineItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	qtyByProduct := aggregateQty(items)
	ids := sortedProductIDs(qtyByProduct)

	for _, id := range ids {
		qty := qtyByProduct[id]

		var available int32
		err = tx.QueryRowContext(ctx, `
			SELECT stock FROM products WHERE id = $1 FOR UPDATE
		`, id).Scan(&available)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
			} else {
				err = fmt.Errorf("lock product %s: %w", id, err)
			}
			return err
		}
		if available < qty {
			err = &domain.InsufficientStockError{ProductID: id, Requested: qty, Available: available}
			return err
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1,
			    updated_at = NOW()
			WHERE id = $2
			  AND stock >= $1
		`, qty, id); err != nil {
			err = fmt.Errorf("decrement stock of %s: %w", id, err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reserve: %w", err)
	}

	return nil
}

// Restock возвращает сток по позициям. Товары, удалённые из каталога,
// пропускаются: возвращать сток некуда.
func (r *ProductRepository) Restock(items []domain.LineItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	qtyByProduct := aggregateQty(items)
	for _, id := range sortedProductIDs(qtyByProduct) {
		if _, err = tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + $1,
			    updated_at = NOW()
			WHERE id = $2
		`, qtyByProduct[id], id); err != nil {
			err = fmt.Errorf("restock product %s: %w", id, err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit restock: %w", err)
	}

	return nil
}

func aggregateQty(items []domain.LineItem) map[string]int32 {
	result := make(map[string]int32, len(items))
	for _, item := range items {
		result[item.ProductID] += item.Qty
	}
	return result
}

func sortedProductIDs(qtyByProduct map[string]int32) []string {
	ids := make([]string, 0, len(qtyByProduct))
	for id := range qtyByProduct {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var (
	_ domain.ProductRepository = (*ProductRepository)(nil)
	_ domain.StockLedger       = (*ProductRepository)(nil)
)
