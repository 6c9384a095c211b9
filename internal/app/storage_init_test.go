package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	t.Parallel()

	deps, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverMemory,
	}, log.WithField("test", "memory-storage"))
	if err != nil {
		t.Fatalf("initRuntimeDependencies(memory) failed: %v", err)
	}
	if deps.users == nil {
		t.Fatal("users should not be nil for memory storage")
	}
	if deps.products == nil {
		t.Fatal("products should not be nil for memory storage")
	}
	if deps.ledger == nil {
		t.Fatal("ledger should not be nil for memory storage")
	}
	if deps.payments == nil {
		t.Fatal("payments should not be nil for memory storage")
	}
	if deps.reviews == nil {
		t.Fatal("reviews should not be nil for memory storage")
	}
	if deps.cart == nil {
		t.Fatal("cart should not be nil for memory storage")
	}
	if deps.outboxRepo == nil {
		t.Fatal("outboxRepo should not be nil for memory storage")
	}
	if deps.store != nil {
		t.Fatal("store should be nil for memory storage")
	}
	if err := deps.Close(); err != nil {
		t.Fatalf("Close() failed for memory storage: %v", err)
	}
}

func TestInitRuntimeDependencies_EmptyDriverDefaultsToMemory(t *testing.T) {
	t.Parallel()

	deps, err := initRuntimeDependencies(context.Background(), Config{},
		log.WithField("test", "default-storage"))
	if err != nil {
		t.Fatalf("initRuntimeDependencies(empty driver) failed: %v", err)
	}
	if deps.payments == nil {
		t.Fatal("payments should not be nil for default storage")
	}
}

func TestInitRuntimeDependencies_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverPostgres,
	}, log.WithField("test", "postgres-missing-dsn"))
	if err == nil {
		t.Fatal("expected error when postgres driver is selected without DSN")
	}
}

func TestInitRuntimeDependencies_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: "sqlite",
	}, log.WithField("test", "unsupported-driver"))
	if err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}
