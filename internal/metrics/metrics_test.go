package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReconcileMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newReconcileMetricsWithRegisterer(registry)

	m.RecordPaymentCreated()
	m.RecordPaymentCreated()
	m.RecordPaymentDeleted()
	m.RecordInsufficientStock()
	m.RecordTransition("paid", "ok")
	m.RecordTransition("paid", "insufficient_stock")
	m.RecordTransitionDuration(25 * time.Millisecond)
	m.RecordOutboxEvent()

	if got := testutil.ToFloat64(m.paymentsCreated); got != 2 {
		t.Errorf("expected paymentsCreated=2, got %v", got)
	}
	if got := testutil.ToFloat64(m.paymentsDeleted); got != 1 {
		t.Errorf("expected paymentsDeleted=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.insufficientStock); got != 1 {
		t.Errorf("expected insufficientStock=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("paid", "ok")); got != 1 {
		t.Errorf("expected transitions{paid,ok}=1, got %v", got)
	}
}

func TestReconcileMetrics_DoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Повторная регистрация в общем registry не должна паниковать.
	first := newReconcileMetricsWithRegisterer(registry)
	second := newReconcileMetricsWithRegisterer(registry)

	first.RecordPaymentCreated()
	second.RecordPaymentCreated()

	if got := testutil.ToFloat64(first.paymentsCreated); got != 2 {
		t.Errorf("expected shared counter=2, got %v", got)
	}
}

func TestHTTPMetrics_Registration(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newHTTPMetricsWithRegisterer(registry)

	m.requestsTotal.WithLabelValues("GET", "/api/products", "200").Inc()
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/products", "200")); got != 1 {
		t.Errorf("expected requestsTotal=1, got %v", got)
	}
}
