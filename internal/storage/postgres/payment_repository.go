package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository создаёт PostgreSQL-реализацию PaymentRepository.
func NewPaymentRepository(store *Store) domain.PaymentRepository {
	return &paymentRepository{db: store.DB()}
}

func (r *paymentRepository) Create(payment domain.Payment) error {
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (
			id, user_id, status, total_minor, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		payment.ID, payment.UserID, string(payment.Status),
		payment.TotalMinor, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	for _, item := range payment.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO payment_items (
				id, payment_id, product_id, qty, price_minor, created_at
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			item.ID, payment.ID, item.ProductID, item.Qty, item.PriceMinor, item.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert payment item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) Get(id string) (domain.Payment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var payment domain.Payment
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total_minor, created_at, updated_at
		FROM payments
		WHERE id = $1
	`, id).Scan(
		&payment.ID, &payment.UserID, &status,
		&payment.TotalMinor, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, fmt.Errorf("select payment: %w", err)
	}
	payment.Status = domain.PaymentStatus(status)

	items, err := r.loadItems(ctx, payment.ID)
	if err != nil {
		return domain.Payment{}, err
	}
	payment.Items = items

	return payment, nil
}

func (r *paymentRepository) List(limit int) ([]domain.Payment, error) {
	return r.list(`1 = 1`, nil, limit)
}

func (r *paymentRepository) ListByUser(userID string) ([]domain.Payment, error) {
	return r.list(`user_id = $1`, []interface{}{userID}, 0)
}

func (r *paymentRepository) ListByStatus(status domain.PaymentStatus) ([]domain.Payment, error) {
	return r.list(`status = $1`, []interface{}{string(status)}, 0)
}

func (r *paymentRepository) list(where string, args []interface{}, limit int) ([]domain.Payment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, user_id, status, total_minor, created_at, updated_at
		FROM payments
		WHERE %s
		ORDER BY created_at ASC, id ASC
	`, where)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var payment domain.Payment
		var status string
		if err := rows.Scan(
			&payment.ID, &payment.UserID, &status,
			&payment.TotalMinor, &payment.CreatedAt, &payment.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payment.Status = domain.PaymentStatus(status)

		items, err := r.loadItems(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		payment.Items = items
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}

// UpdateStatus — CAS по статусу: строка меняется только если текущий статус
// совпадает с from. Несовпадение отличается от отсутствия записи.
func (r *paymentRepository) UpdateStatus(id string, from, to domain.PaymentStatus) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $1,
		    updated_at = $2
		WHERE id = $3
		  AND status = $4
	`, string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.paymentExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrPaymentNotFound
		}
		return domain.ErrStatusConflict
	}

	return nil
}

func (r *paymentRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrPaymentNotFound
	}

	return nil
}

func (r *paymentRepository) CountByStatus(status domain.PaymentStatus) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payments WHERE status = $1
	`, string(status)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count payments by status: %w", err)
	}

	return count, nil
}

func (r *paymentRepository) loadItems(ctx context.Context, paymentID string) ([]domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, qty, price_minor, created_at
		FROM payment_items
		WHERE payment_id = $1
		ORDER BY created_at ASC, id ASC
	`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("load payment items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.LineItem, 0)
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Qty, &item.PriceMinor, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment items: %w", err)
	}

	return items, nil
}

func (r *paymentRepository) paymentExists(ctx context.Context, id string) (bool, error) {
	var existing string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM payments WHERE id = $1`, id).Scan(&existing)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check payment exists: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.PaymentRepository = (*paymentRepository)(nil)
