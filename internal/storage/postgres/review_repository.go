package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository создаёт PostgreSQL-реализацию ReviewRepository.
func NewReviewRepository(store *Store) domain.ReviewRepository {
	return &reviewRepository{db: store.DB()}
}

func (r *reviewRepository) Create(review domain.Review) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (
			id, user_id, product_id, comment, rating, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		review.ID, review.UserID, review.ProductID,
		review.Comment, review.Rating, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

func (r *reviewRepository) Get(id string) (domain.Review, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var review domain.Review
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, comment, rating, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`, id).Scan(
		&review.ID, &review.UserID, &review.ProductID,
		&review.Comment, &review.Rating, &review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, domain.ErrReviewNotFound
		}
		return domain.Review{}, fmt.Errorf("select review: %w", err)
	}

	return review, nil
}

func (r *reviewRepository) List() ([]domain.Review, error) {
	return r.list(``, nil)
}

func (r *reviewRepository) ListByProduct(productID string) ([]domain.Review, error) {
	return r.list(`WHERE product_id = $1`, []interface{}{productID})
}

func (r *reviewRepository) list(where string, args []interface{}) ([]domain.Review, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, product_id, comment, rating, created_at, updated_at
		FROM reviews
		%s
		ORDER BY created_at ASC, id ASC
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID, &review.UserID, &review.ProductID,
			&review.Comment, &review.Rating, &review.CreatedAt, &review.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) Save(review domain.Review) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE reviews
		SET comment = $1,
		    rating = $2,
		    updated_at = $3
		WHERE id = $4
	`, review.Comment, review.Rating, review.UpdatedAt, review.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

func (r *reviewRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrReviewNotFound
	}

	return nil
}

func (r *reviewRepository) Count() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}

func (r *reviewRepository) AverageRating(productID string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, `
		SELECT AVG(rating) FROM reviews WHERE product_id = $1
	`, productID).Scan(&avg); err != nil {
		return 0, false, fmt.Errorf("average rating: %w", err)
	}
	if !avg.Valid {
		return 0, false, nil
	}

	return avg.Float64, true, nil
}

var _ domain.ReviewRepository = (*reviewRepository)(nil)
