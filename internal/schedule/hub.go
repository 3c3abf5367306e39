package schedule

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

const (
	feedWriteTimeout = 5 * time.Second
	// Viewers ping at least this often or the feed is closed.
	feedIdleTimeout = 2 * time.Minute
)

// Notice is pushed to live schedule viewers.
type Notice struct {
	Type          string    `json:"type"` // "ready", "pong", or an appointment event type
	AppointmentID string    `json:"appointmentId,omitempty"`
	PatientID     string    `json:"patientId,omitempty"`
	ProviderID    string    `json:"providerId,omitempty"`
	StartTime     time.Time `json:"startTime,omitempty"`
	EndTime       time.Time `json:"endTime,omitempty"`
	Status        string    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurredAt,omitempty"`
}

type feedMessage struct {
	Type string `json:"type"` // "ping"
}

func noticeFor(eventType string, appt appointments.Appointment, now time.Time) Notice {
	return Notice{
		Type:          eventType,
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		ProviderID:    appt.ProviderID,
		StartTime:     appt.StartTime.UTC(),
		EndTime:       appt.EndTime.UTC(),
		Status:        string(appt.Status),
		OccurredAt:    now.UTC(),
	}
}

// Hub keeps the open schedule feeds and pushes notices to the viewers allowed to see them.
type Hub struct {
	gw      gateway.Gateway
	metrics *metrics.ScheduleMetrics
	logger  *logging.Logger

	mu      sync.RWMutex
	clients map[*feedClient]struct{}
}

type feedClient struct {
	conn   *websocket.Conn
	userID string
	scope  appointments.Filter
}

func NewHub(gw gateway.Gateway, m *metrics.ScheduleMetrics, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		gw:      gw,
		metrics: m,
		logger:  logger,
		clients: make(map[*feedClient]struct{}),
	}
}

// HandleWebSocket upgrades an authenticated request to a schedule feed.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	scope, err := gateway.ScopeAppointments(r.Context(), h.gw, user, appointments.Filter{})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		h.serve(&feedClient{conn: conn, userID: user.ID, scope: scope})
	}).ServeHTTP(w, r)
}

func (h *Hub) serve(c *feedClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.FeedConnected()
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		h.metrics.FeedDisconnected()
	}()

	h.logger.Info("schedule: feed opened", "user_id", c.userID)
	h.send(c, Notice{Type: "ready"})

	for {
		var msg feedMessage
		_ = c.conn.SetReadDeadline(time.Now().Add(feedIdleTimeout))
		if err := websocket.JSON.Receive(c.conn, &msg); err != nil {
			h.logger.Debug("schedule: feed closed", "user_id", c.userID, "error", err)
			return
		}
		if msg.Type == "ping" {
			h.send(c, Notice{Type: "pong"})
		}
	}
}

// Broadcast sends n to every viewer whose scope covers the appointment.
func (h *Hub) Broadcast(n Notice) {
	h.mu.RLock()
	targets := make([]*feedClient, 0, len(h.clients))
	for c := range h.clients {
		if covers(c.scope, n) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.send(c, n)
	}
}

// Clients reports the number of open feeds.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) send(c *feedClient, n Notice) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	if err := websocket.JSON.Send(c.conn, n); err != nil {
		h.logger.Debug("schedule: feed send failed", "user_id", c.userID, "error", err)
	}
}

func covers(scope appointments.Filter, n Notice) bool {
	if scope.PatientID != "" && scope.PatientID != n.PatientID {
		return false
	}
	if scope.ProviderID != "" && scope.ProviderID != n.ProviderID {
		return false
	}
	return true
}
