package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics содержит метрики модуля согласования платежей и стока.
type ReconcileMetrics struct {
	// Счётчики операций
	paymentsCreated   prometheus.Counter
	paymentsDeleted   prometheus.Counter
	transitions       *prometheus.CounterVec
	insufficientStock prometheus.Counter

	// Гистограмма времени выполнения перехода статуса
	transitionDuration prometheus.Histogram

	// Счётчик событий outbox
	outboxEvents prometheus.Counter
}

// NewReconcileMetrics создаёт новый экземпляр метрик согласования.
func NewReconcileMetrics() *ReconcileMetrics {
	return newReconcileMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newReconcileMetricsWithRegisterer(registerer prometheus.Registerer) *ReconcileMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ReconcileMetrics{
		paymentsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_payments_created_total",
			Help: "Total number of payments created",
		}),
		paymentsDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_payments_deleted_total",
			Help: "Total number of payments deleted",
		}),
		transitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_payment_transitions_total",
			Help: "Total number of payment status transitions grouped by target status and result",
		}, []string{"to_status", "result"}),
		insufficientStock: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_insufficient_stock_total",
			Help: "Total number of paid transitions rejected due to insufficient stock",
		}),
		transitionDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shop_payment_transition_duration_seconds",
			Help:    "Duration of payment status transitions in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordPaymentCreated увеличивает счётчик созданных платежей.
func (m *ReconcileMetrics) RecordPaymentCreated() {
	m.paymentsCreated.Inc()
}

// RecordPaymentDeleted увеличивает счётчик удалённых платежей.
func (m *ReconcileMetrics) RecordPaymentDeleted() {
	m.paymentsDeleted.Inc()
}

// RecordTransition фиксирует исход перехода статуса.
func (m *ReconcileMetrics) RecordTransition(toStatus, result string) {
	m.transitions.WithLabelValues(toStatus, result).Inc()
}

// RecordInsufficientStock увеличивает счётчик отказов по нехватке стока.
func (m *ReconcileMetrics) RecordInsufficientStock() {
	m.insufficientStock.Inc()
}

// RecordTransitionDuration записывает время выполнения перехода.
func (m *ReconcileMetrics) RecordTransitionDuration(duration time.Duration) {
	m.transitionDuration.Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *ReconcileMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
