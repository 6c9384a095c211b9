package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Payment события
	EventTypePaymentCreated       EventType = "payment.created"
	EventTypePaymentStatusChanged EventType = "payment.status_changed"
	EventTypePaymentDeleted       EventType = "payment.deleted"
)

// Topics для Kafka
const (
	TopicPaymentEvents   = "shop.payment.events"
	TopicDeadLetterQueue = "shop.dlq" // Dead Letter Queue для failed messages
)

// PaymentEvent представляет событие платежа
type PaymentEvent struct {
	EventType EventType              `json:"event_type"`
	PaymentID string                 `json:"payment_id"`
	UserID    string                 `json:"user_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewPaymentEvent создает новое событие платежа
func NewPaymentEvent(eventType EventType, paymentID, userID, status string, metadata map[string]interface{}) *PaymentEvent {
	return &PaymentEvent{
		EventType: eventType,
		PaymentID: paymentID,
		UserID:    userID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
