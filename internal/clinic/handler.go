package clinic

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Handler exposes the clinic settings to the portal.
type Handler struct {
	store    SettingsStore
	clinicID string
	logger   *logging.Logger
}

func NewHandler(store SettingsStore, clinicID string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, clinicID: clinicID, logger: logger}
}

// Routes mounts GET and PUT on "/". Callers gate PUT to admins.
func (h *Handler) Routes(adminOnly func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetSettings)
	r.With(adminOnly).Put("/", h.UpdateSettings)
	return r
}

// GetSettings returns the clinic settings.
// GET /api/clinic/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Get(r.Context(), h.clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic settings", "clinic_id", h.clinicID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, settings)
}

// UpdateSettingsRequest is a partial update of the clinic settings.
type UpdateSettingsRequest struct {
	Name          string             `json:"name,omitempty"`
	Timezone      string             `json:"timezone,omitempty"`
	SupportEmail  *string            `json:"support_email,omitempty"`
	SupportPhone  *string            `json:"support_phone,omitempty"`
	Address       *string            `json:"address,omitempty"`
	BusinessHours *BusinessHours     `json:"business_hours,omitempty"`
	Notifications *NotificationPrefs `json:"notifications,omitempty"`
}

// UpdateSettings applies a partial update.
// PUT /api/clinic/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	settings, err := h.store.Get(r.Context(), h.clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic settings", "clinic_id", h.clinicID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if req.Name != "" {
		settings.Name = req.Name
	}
	if req.Timezone != "" {
		settings.Timezone = req.Timezone
	}
	if req.SupportEmail != nil {
		settings.SupportEmail = *req.SupportEmail
	}
	if req.SupportPhone != nil {
		settings.SupportPhone = *req.SupportPhone
	}
	if req.Address != nil {
		settings.Address = *req.Address
	}
	if req.BusinessHours != nil {
		settings.BusinessHours = *req.BusinessHours
	}
	if req.Notifications != nil {
		settings.Notifications = *req.Notifications
	}

	if err := settings.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Set(r.Context(), settings); err != nil {
		h.logger.Error("failed to save clinic settings", "clinic_id", h.clinicID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	h.logger.Info("clinic settings updated", "clinic_id", h.clinicID, "name", settings.Name)
	respond.JSON(w, http.StatusOK, settings)
}
