package schedule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/calendar"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/internal/patients"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Handler serves the schedule page API.
type Handler struct {
	svc    *Service
	hub    *Hub
	logger *logging.Logger
}

func NewHandler(svc *Service, hub *Hub, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, hub: hub, logger: logger}
}

// Routes mounts the schedule endpoints under /api/schedule.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetSchedule)
	r.Get("/navigate", h.Navigate)
	r.Get("/editor", h.CreateEditor)
	r.Post("/appointments", h.CreateAppointment)
	r.Get("/appointments/{id}/editor", h.EditEditor)
	r.Put("/appointments/{id}", h.UpdateAppointment)
	r.Delete("/appointments/{id}", h.DeleteAppointment)
	return r
}

// MutationRequest is an editor submission. View and Date name the calendar to refresh.
type MutationRequest struct {
	appointments.Form
	Anchor time.Time `json:"anchor"`
	View   string    `json:"view,omitempty"`
	Date   string    `json:"date,omitempty"`
}

// GetSchedule renders the calendar.
// GET /api/schedule?view=week&date=2024-01-15
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	req, err := h.viewRequest(r, r.URL.Query().Get("view"), r.URL.Query().Get("date"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.svc.Load(r.Context(), actor, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}

// Navigate moves the calendar by step periods (negative for back).
// GET /api/schedule/navigate?view=month&date=2024-01-15&step=-1
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req, err := h.viewRequest(r, q.Get("view"), q.Get("date"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	step := 1
	if raw := q.Get("step"); raw != "" {
		step, err = strconv.Atoi(raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "step must be an integer")
			return
		}
	}
	if req.Date.IsZero() {
		req.Date = h.svc.Today()
	}
	req.Date = calendar.Navigate(req.Date, req.Mode, step)

	view, err := h.svc.Load(r.Context(), actor, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}

// CreateEditor opens the create form at a clicked slot. A bare date
// (a month-view day) anchors at the day's opening hour.
// GET /api/schedule/editor?anchor=2024-01-15T10:00:00Z
// GET /api/schedule/editor?date=2024-01-15
func (h *Handler) CreateEditor(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	anchor, err := h.anchor(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.svc.NewEditor(r.Context(), actor, anchor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}

// EditEditor opens an existing appointment.
// GET /api/schedule/appointments/{id}/editor
func (h *Handler) EditEditor(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	view, err := h.svc.EditEditor(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}

// CreateAppointment submits the create form.
// POST /api/schedule/appointments
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req MutationRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.viewRequest(r, req.View, req.Date)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Create(r.Context(), actor, req.Anchor, req.Form, view)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, result)
}

// UpdateAppointment submits the edit form. A zero anchor keeps the current start.
// PUT /api/schedule/appointments/{id}
func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req MutationRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.viewRequest(r, req.View, req.Date)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), req.Anchor, req.Form, view)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// DeleteAppointment removes an appointment and returns the refreshed calendar.
// DELETE /api/schedule/appointments/{id}?view=week&date=2024-01-15
func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	view, err := h.viewRequest(r, r.URL.Query().Get("view"), r.URL.Query().Get("date"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.Delete(r.Context(), actor, chi.URLParam(r, "id"), view)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (session.User, bool) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return user, ok
}

func (h *Handler) viewRequest(r *http.Request, view, date string) (ViewRequest, error) {
	mode, err := calendar.ParseViewMode(view)
	if err != nil {
		return ViewRequest{}, err
	}
	req := ViewRequest{Mode: mode}
	if date == "" {
		return req, nil
	}
	req.Date, err = time.ParseInLocation("2006-01-02", date, h.svc.Location(r.Context()))
	if err != nil {
		return ViewRequest{}, errors.New("date must be YYYY-MM-DD")
	}
	return req, nil
}

func (h *Handler) anchor(r *http.Request) (time.Time, error) {
	q := r.URL.Query()
	if raw := q.Get("anchor"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, errors.New("anchor must be RFC3339")
		}
		return t, nil
	}
	loc := h.svc.Location(r.Context())
	if raw := q.Get("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return time.Time{}, errors.New("date must be YYYY-MM-DD")
		}
		return calendar.DayAnchor(day, loc), nil
	}
	return time.Time{}, errors.New("anchor or date is required")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, patients.ErrProfileMissing) {
		respond.Error(w, http.StatusNotFound, patients.MissingProfileText(h.svc.SupportContact(r.Context())))
		return
	}
	writeError(w, h.logger, err)
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case appointments.IsValidation(err), errors.Is(err, gateway.ErrInvalid):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, patients.ErrProfileMissing):
		respond.Error(w, http.StatusNotFound, patients.MissingProfileText(""))
	case errors.Is(err, session.ErrUnknownRole):
		respond.Error(w, http.StatusForbidden, err.Error())
	default:
		logger.Error("schedule: request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
