package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-portal/internal/compliance"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/internal/patients"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// PatientsHandler serves patient profiles.
type PatientsHandler struct {
	gw       gateway.Gateway
	audit    *compliance.AuditService
	contacts ContactSource
	logger   *logging.Logger
}

// NewPatientsHandler creates the patient profile handler. audit may be nil.
func NewPatientsHandler(gw gateway.Gateway, audit *compliance.AuditService, contacts ContactSource, logger *logging.Logger) *PatientsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PatientsHandler{gw: gw, audit: audit, contacts: contacts, logger: logger}
}

// ListPatients returns every profile.
// GET /api/patients
func (h *PatientsHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	list, err := h.gw.ListPatients(r.Context())
	if err != nil {
		writeGatewayError(w, h.logger, "patients", err)
		return
	}
	for i := range list {
		list[i].Normalize()
	}
	respond.JSON(w, http.StatusOK, map[string]any{"patients": list})
}

// GetPatient returns one profile.
// GET /api/patients/{patientID}
func (h *PatientsHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := h.gw.GetPatient(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		writeGatewayError(w, h.logger, "patient", err)
		return
	}
	profile.Normalize()
	recordAccess(r, h.audit, h.logger, user, compliance.EventProfileViewed, profile.ID, "patient_profile", profile.ID)
	respond.JSON(w, http.StatusOK, profile)
}

// CreatePatient registers a profile for an existing patient account.
// POST /api/patients
func (h *PatientsHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req patients.Profile
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.gw.GetUser(r.Context(), req.UserID); err != nil {
		writeGatewayError(w, h.logger, "user", err)
		return
	}

	created, err := h.gw.CreatePatient(r.Context(), req)
	if err != nil {
		writeGatewayError(w, h.logger, "patient", err)
		return
	}
	created.Normalize()
	recordAccess(r, h.audit, h.logger, user, compliance.EventPatientCreated, created.ID, "patient_profile", created.ID)
	h.logger.Info("patient profile created", "patient_id", created.ID, "actor_id", user.ID)
	respond.JSON(w, http.StatusCreated, created)
}

// GetOwnProfile returns the signed-in patient's profile.
// GET /api/me/profile
func (h *PatientsHandler) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, ok := ownProfile(w, r, h.gw, h.contacts, h.logger, user)
	if !ok {
		return
	}
	recordAccess(r, h.audit, h.logger, user, compliance.EventProfileViewed, profile.ID, "patient_profile", profile.ID)
	respond.JSON(w, http.StatusOK, profile)
}
