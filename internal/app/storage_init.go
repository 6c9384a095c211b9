package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// runtimeDependencies объединяет репозитории для выбранного драйвера хранилища.
// store заполняется только для postgres и используется для health-check и Close.
type runtimeDependencies struct {
	users      domain.UserRepository
	products   domain.ProductRepository
	ledger     domain.StockLedger
	payments   domain.PaymentRepository
	reviews    domain.ReviewRepository
	cart       domain.CartRepository
	outboxRepo domain.OutboxRepository
	store      *postgres.Store
}

// Close освобождает ресурсы хранилища.
func (d *runtimeDependencies) Close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// initRuntimeDependencies создаёт репозитории согласно cfg.StorageDriver.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		products := memory.NewProductRepository()
		return &runtimeDependencies{
			users:      memory.NewUserRepository(),
			products:   products,
			ledger:     products,
			payments:   memory.NewPaymentRepository(),
			reviews:    memory.NewReviewRepository(),
			cart:       memory.NewCartRepository(),
			outboxRepo: memory.NewOutboxRepository(),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage driver requires PostgresDSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		products := postgres.NewProductRepository(store)
		return &runtimeDependencies{
			users:      postgres.NewUserRepository(store),
			products:   products,
			ledger:     products,
			payments:   postgres.NewPaymentRepository(store),
			reviews:    postgres.NewReviewRepository(store),
			cart:       postgres.NewCartRepository(store),
			outboxRepo: postgres.NewOutboxRepository(store),
			store:      store,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.StorageDriver)
	}
}
