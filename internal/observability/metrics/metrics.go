package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks API request counts and latency per route pattern.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total API requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *HTTPMetrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}

// ScheduleMetrics covers calendar renders, appointment mutations and the live feed.
type ScheduleMetrics struct {
	mutationsTotal   *prometheus.CounterVec
	gridRenders      *prometheus.CounterVec
	gridAppointments prometheus.Histogram
	feedClients      prometheus.Gauge
	outboxDelivered  *prometheus.CounterVec
}

func NewScheduleMetrics(reg prometheus.Registerer) *ScheduleMetrics {
	m := &ScheduleMetrics{
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      MutationsMetricName,
			Help:      "Appointment create/update/delete attempts",
		}, []string{"action", "result"}),
		gridRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      "grid_renders_total",
			Help:      "Calendar grids rendered by view mode",
		}, []string{"view"}),
		gridAppointments: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      "grid_appointments",
			Help:      "Appointments placed on a rendered grid",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250},
		}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      "feed_clients",
			Help:      "Connected live schedule websocket clients",
		}),
		outboxDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      "outbox_delivered_total",
			Help:      "Appointment events handled by the outbox deliverer",
		}, []string{"event_type", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.mutationsTotal, m.gridRenders, m.gridAppointments, m.feedClients, m.outboxDelivered)
	return m
}

// MutationsMetricName is the short name of the appointment mutation counter.
const MutationsMetricName = "appointment_mutations_total"

func (m *ScheduleMetrics) ObserveMutation(action string, err error) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(action, resultLabel(err)).Inc()
}

func (m *ScheduleMetrics) ObserveGrid(view string, appointments int) {
	if m == nil {
		return
	}
	m.gridRenders.WithLabelValues(view).Inc()
	m.gridAppointments.Observe(float64(appointments))
}

func (m *ScheduleMetrics) FeedConnected() {
	if m == nil {
		return
	}
	m.feedClients.Inc()
}

func (m *ScheduleMetrics) FeedDisconnected() {
	if m == nil {
		return
	}
	m.feedClients.Dec()
}

func (m *ScheduleMetrics) ObserveDelivery(eventType string, err error) {
	if m == nil {
		return
	}
	m.outboxDelivered.WithLabelValues(eventType, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
