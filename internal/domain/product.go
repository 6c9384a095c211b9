package domain

import "time"

// Product описывает товар каталога. Поле Stock — единственное поле,
// которое меняет модуль согласования платежей.
type Product struct {
	ID          string
	Name        string
	Description string
	Volume      string
	Image       string
	PriceMinor  int64
	Stock       int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateInvariants проверяет базовые инварианты товара.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrItemPriceInvalid)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}

	return errs
}
