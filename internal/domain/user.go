package domain

import "time"

// UserRole задаёт уровень доступа пользователя.
type UserRole string

const (
	// RoleUser — обычный покупатель.
	RoleUser UserRole = "USER"
	// RoleAdmin — администратор: управление каталогом, платежами и отчётами.
	RoleAdmin UserRole = "ADMIN"
)

// Valid проверяет, что роль относится к поддерживаемым значениям.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// User описывает учётную запись покупателя или администратора.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Gender       string
	BirthDate    time.Time
	Phone        string
	Image        string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate проверяет, корректно ли заполнены ключевые поля пользователя.
func (u *User) Validate() []error {
	var errs []error

	if u.Name == "" {
		errs = append(errs, ErrUserNameRequired)
	}
	if u.Email == "" {
		errs = append(errs, ErrEmailRequired)
	}
	if u.PasswordHash == "" {
		errs = append(errs, ErrPasswordRequired)
	}
	if !u.Role.Valid() {
		errs = append(errs, ErrRoleInvalid)
	}

	return errs
}
