// Package report агрегирует данные витрины: сводка продаж по товарам и
// показатели для административной панели.
package report

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// ProductSales — строка отчёта по продажам одного товара.
// Sold учитывает только платежи в статусе paid.
type ProductSales struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	PriceMinor   int64  `json:"price_minor"`
	Sold         int64  `json:"sold"`
	CurrentStock int32  `json:"current_stock"`
}

// DashboardStats — сводные показатели по магазину.
type DashboardStats struct {
	TotalUsers        int   `json:"total_users"`
	TotalProducts     int   `json:"total_products"`
	TotalReviews      int   `json:"total_reviews"`
	PendingPayments   int   `json:"pending_payments"`
	TotalSoldProducts int64 `json:"total_sold_products"`
}

// Service строит отчёты поверх репозиториев, без собственного состояния.
type Service struct {
	users    domain.UserRepository
	products domain.ProductRepository
	payments domain.PaymentRepository
	reviews  domain.ReviewRepository
	logger   *log.Entry
}

func NewService(
	users domain.UserRepository,
	products domain.ProductRepository,
	payments domain.PaymentRepository,
	reviews domain.ReviewRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "report")
	}
	return &Service{
		users:    users,
		products: products,
		payments: payments,
		reviews:  reviews,
		logger:   logger,
	}
}

// SalesReport агрегирует количество проданных единиц по товарам из
// оплаченных платежей. Цена и остаток берутся из каталога на момент
// вызова, а не на момент продажи. Товары, удалённые из каталога,
// в отчёт не попадают.
func (s *Service) SalesReport() ([]ProductSales, error) {
	paid, err := s.payments.ListByStatus(domain.PaymentStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("list paid payments: %w", err)
	}

	sold := make(map[string]int64)
	order := make([]string, 0)
	for _, payment := range paid {
		for _, item := range payment.Items {
			if _, seen := sold[item.ProductID]; !seen {
				order = append(order, item.ProductID)
			}
			sold[item.ProductID] += int64(item.Qty)
		}
	}

	report := make([]ProductSales, 0, len(order))
	for _, productID := range order {
		product, err := s.products.Get(productID)
		if err != nil {
			if domain.IsNotFound(err) {
				s.logger.WithField("product_id", productID).Debug("skipping sold product removed from catalog")
				continue
			}
			return nil, fmt.Errorf("get product %s: %w", productID, err)
		}
		report = append(report, ProductSales{
			ProductID:    product.ID,
			Name:         product.Name,
			PriceMinor:   product.PriceMinor,
			Sold:         sold[productID],
			CurrentStock: product.Stock,
		})
	}

	return report, nil
}

// Dashboard собирает показатели для административной панели.
func (s *Service) Dashboard() (DashboardStats, error) {
	users, err := s.users.Count()
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count users: %w", err)
	}
	products, err := s.products.Count()
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count products: %w", err)
	}
	reviews, err := s.reviews.Count()
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count reviews: %w", err)
	}
	pending, err := s.payments.CountByStatus(domain.PaymentStatusPending)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count pending payments: %w", err)
	}

	paid, err := s.payments.ListByStatus(domain.PaymentStatusPaid)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("list paid payments: %w", err)
	}
	var totalSold int64
	for _, payment := range paid {
		for _, item := range payment.Items {
			totalSold += int64(item.Qty)
		}
	}

	return DashboardStats{
		TotalUsers:        users,
		TotalProducts:     products,
		TotalReviews:      reviews,
		PendingPayments:   pending,
		TotalSoldProducts: totalSold,
	}, nil
}
