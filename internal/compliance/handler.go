package compliance

import (
	"net/http"
	"strconv"
	"time"

	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Handler serves the PHI access log to admins.
type Handler struct {
	audit  *AuditService
	logger *logging.Logger
}

func NewHandler(audit *AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{audit: audit, logger: logger}
}

// ListEvents handles GET /api/audit?patientId=&actorId=&type=&from=&to=&limit=&offset=
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := AuditFilter{
		PatientID: q.Get("patientId"),
		ActorID:   q.Get("actorId"),
		EventType: AuditEventType(q.Get("type")),
	}
	var err error
	if filter.StartTime, err = parseTime(q.Get("from")); err != nil {
		respond.Error(w, http.StatusBadRequest, "from must be RFC3339")
		return
	}
	if filter.EndTime, err = parseTime(q.Get("to")); err != nil {
		respond.Error(w, http.StatusBadRequest, "to must be RFC3339")
		return
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	events, err := h.audit.QueryEvents(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to query audit events", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"events": events})
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
