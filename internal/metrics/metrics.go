// Package metrics holds the Prometheus collectors of the order desk.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opsdesk"

var (
	statusToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "status_toggles_total",
		Help:      "Committed order status toggles.",
	}, []string{"status", "enabled"})

	assignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "assignments_total",
		Help:      "Committed order assignment changes.",
	}, []string{"action"})

	invoiceSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invoices",
		Name:      "syncs_total",
		Help:      "Invoice side effects of status toggles by outcome.",
	}, []string{"result"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "deliveries_total",
		Help:      "Team notification rows written or failed.",
	}, []string{"result"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latencies in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	reminders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payment_reminders",
		Name:      "processed_total",
		Help:      "Due payment reminders processed by the scheduler.",
	}, []string{"result"})
)

// Invoice sync outcomes
const (
	InvoiceCreated = "created"
	InvoiceUpdated = "updated"
	InvoiceFailed  = "failed"
)

// ObserveStatusToggle counts a committed status toggle
func ObserveStatusToggle(status string, enabled bool) {
	statusToggles.WithLabelValues(status, strconv.FormatBool(enabled)).Inc()
}

// ObserveAssignment counts an assignment change, action is "assigned" or "unassigned"
func ObserveAssignment(action string) {
	assignments.WithLabelValues(action).Inc()
}

// ObserveInvoiceSync counts an invoice side effect outcome
func ObserveInvoiceSync(result string) {
	invoiceSyncs.WithLabelValues(result).Inc()
}

// ObserveNotifications counts delivered and failed notification rows
func ObserveNotifications(delivered, failed int) {
	notifications.WithLabelValues("delivered").Add(float64(delivered))
	notifications.WithLabelValues("failed").Add(float64(failed))
}

// ObserveReminder counts a processed payment reminder
func ObserveReminder(success bool) {
	result := "sent"
	if !success {
		result = "failed"
	}
	reminders.WithLabelValues(result).Inc()
}

// TrackInFlight marks a request as started and returns the function that
// marks it finished
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveHTTPRequest records one served request
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, route, code).Inc()
	httpDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}
