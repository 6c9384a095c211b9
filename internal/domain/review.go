package domain

import "time"

const (
	// RatingMin и RatingMax ограничивают допустимый диапазон оценки.
	RatingMin int32 = 1
	RatingMax int32 = 5
)

// Review описывает отзыв пользователя о товаре.
type Review struct {
	ID        string
	UserID    string
	ProductID string
	Comment   string
	Rating    int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет, корректно ли заполнены ключевые поля отзыва.
func (r *Review) Validate() []error {
	var errs []error

	if r.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if r.ProductID == "" {
		errs = append(errs, ErrProductRequired)
	}
	if r.Comment == "" {
		errs = append(errs, ErrCommentRequired)
	}
	if r.Rating < RatingMin || r.Rating > RatingMax {
		errs = append(errs, ErrRatingOutOfRange)
	}

	return errs
}
