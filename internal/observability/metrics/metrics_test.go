package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func valueOf(t *testing.T, metric prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := metric.Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.ObserveRequest("GET", "/api/schedule", 200, 0.02)
	m.ObserveRequest("GET", "", 404, 0.001)

	if got := valueOf(t, m.requestsTotal.WithLabelValues("GET", "/api/schedule", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
	if got := valueOf(t, m.requestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("expected unmatched route label, got %v", got)
	}
}

func TestScheduleMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewScheduleMetrics(reg)
	m.ObserveMutation("create", nil)
	m.ObserveMutation("create", errors.New("boom"))
	m.ObserveGrid("week", 12)
	m.FeedConnected()
	m.FeedConnected()
	m.FeedDisconnected()
	m.ObserveDelivery("appointment.created", nil)

	if got := valueOf(t, m.mutationsTotal.WithLabelValues("create", "error")); got != 1 {
		t.Fatalf("expected 1 failed create, got %v", got)
	}
	if got := valueOf(t, m.feedClients); got != 1 {
		t.Fatalf("expected 1 feed client, got %v", got)
	}
	if got := valueOf(t, m.gridRenders.WithLabelValues("week")); got != 1 {
		t.Fatalf("expected 1 week render, got %v", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var h *HTTPMetrics
	h.ObserveRequest("GET", "/", 200, 0.1)

	var s *ScheduleMetrics
	s.ObserveMutation("create", nil)
	s.ObserveGrid("day", 0)
	s.FeedConnected()
	s.FeedDisconnected()
	s.ObserveDelivery("appointment.created", nil)
}

func TestReadActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewScheduleMetrics(reg)
	m.ObserveMutation("create", nil)
	m.ObserveMutation("create", nil)
	m.ObserveMutation("update", nil)
	m.ObserveMutation("delete", errors.New("not found"))

	got, err := ReadActivity(reg)
	if err != nil {
		t.Fatalf("read activity: %v", err)
	}
	want := Activity{Created: 2, Updated: 1, Deleted: 0}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
