package domain

import "time"

// StockLedger — транзакционная граница над остатками склада.
// Проверка и списание выполняются одной атомарной операцией: два платежа
// не могут одновременно пройти проверку и оба списать один и тот же сток.
type StockLedger interface {
	// Reserve списывает сток по всем позициям целиком или не списывает ничего.
	// При нехватке возвращает *InsufficientStockError с первым «виновным» товаром.
	Reserve(items []LineItem) error
	// Restock возвращает сток по всем позициям. Инкремент коммутативен и
	// не требует проверки достижимости, но применяется атомарно к
	// сохранённому значению, чтобы исключить потерянные обновления.
	Restock(items []LineItem) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
