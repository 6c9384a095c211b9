package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
// Уникальность email обеспечивается индексом по LOWER(email).
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) Create(user domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, name, email, password_hash, gender, birth_date, phone, image, role, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Gender,
		nullableDate(user), user.Phone, user.Image, string(user.Role),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *userRepository) Get(id string) (domain.User, error) {
	return r.getBy(`id = $1`, id)
}

func (r *userRepository) GetByEmail(email string) (domain.User, error) {
	return r.getBy(`LOWER(email) = LOWER($1)`, email)
}

func (r *userRepository) getBy(where, arg string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		user      domain.User
		role      string
		birthDate sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, name, email, password_hash, gender, birth_date, phone, image, role, created_at, updated_at
		FROM users
		WHERE %s
	`, where), arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Gender,
		&birthDate, &user.Phone, &user.Image, &role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	user.Role = domain.UserRole(role)
	if birthDate.Valid {
		user.BirthDate = birthDate.Time
	}

	return user, nil
}

func (r *userRepository) List() ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, gender, birth_date, phone, image, role, created_at, updated_at
		FROM users
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var (
			user      domain.User
			role      string
			birthDate sql.NullTime
		)
		if err := rows.Scan(
			&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Gender,
			&birthDate, &user.Phone, &user.Image, &role, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		user.Role = domain.UserRole(role)
		if birthDate.Valid {
			user.BirthDate = birthDate.Time
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, nil
}

func (r *userRepository) Save(user domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1,
		    email = $2,
		    password_hash = $3,
		    gender = $4,
		    birth_date = $5,
		    phone = $6,
		    image = $7,
		    role = $8,
		    updated_at = $9
		WHERE id = $10
	`,
		user.Name, user.Email, user.PasswordHash, user.Gender,
		nullableDate(user), user.Phone, user.Image, string(user.Role),
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) Count() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func nullableDate(user domain.User) sql.NullTime {
	if user.BirthDate.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: user.BirthDate, Valid: true}
}

var _ domain.UserRepository = (*userRepository)(nil)
