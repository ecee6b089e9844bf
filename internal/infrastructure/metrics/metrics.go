package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	appointmentMutations *prometheus.CounterVec
	remindersEnqueued    prometheus.Counter
	remindersSkipped     *prometheus.CounterVec
	remindersDispatched  *prometheus.CounterVec
	remindersRetracted   prometheus.Counter
	activeStores         prometheus.Gauge
	httpRequests         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		appointmentMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointment_mutations_total",
				Help: "Total number of appointment store mutations",
			},
			[]string{"operation", "result"},
		),
		remindersEnqueued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reminders_enqueued_total",
				Help: "Total number of reminder intents placed on the dispatch queue",
			},
		),
		remindersSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminders_skipped_total",
				Help: "Total number of reminders not enqueued",
			},
			[]string{"reason"},
		),
		remindersDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminders_dispatched_total",
				Help: "Total number of reminder dispatch attempts",
			},
			[]string{"result"},
		),
		remindersRetracted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reminders_retracted_total",
				Help: "Total number of scheduled reminders withdrawn after their appointment changed",
			},
		),
		activeStores: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "appointment_stores_active",
				Help: "Number of loaded per-session appointment stores",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status_code"},
		),
	}

	m.registry.MustRegister(
		m.appointmentMutations,
		m.remindersEnqueued,
		m.remindersSkipped,
		m.remindersDispatched,
		m.remindersRetracted,
		m.activeStores,
		m.httpRequests,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AppointmentMutation(operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.appointmentMutations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ReminderEnqueued() {
	if m == nil {
		return
	}
	m.remindersEnqueued.Inc()
}

func (m *Metrics) ReminderSkipped(reason string) {
	if m == nil {
		return
	}
	m.remindersSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) ReminderDispatched(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.remindersDispatched.WithLabelValues(result).Inc()
}

func (m *Metrics) ReminderRetracted() {
	if m == nil {
		return
	}
	m.remindersRetracted.Inc()
}

func (m *Metrics) SetActiveStores(n int) {
	if m == nil {
		return
	}
	m.activeStores.Set(float64(n))
}

func (m *Metrics) HTTPRequest(method string, statusCode string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, statusCode).Inc()
}
