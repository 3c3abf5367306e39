package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/wolfman30/clinic-portal/internal/compliance"
	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/internal/patients"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// ContactSource supplies the clinic support contact for "contact support" messages.
type ContactSource interface {
	SupportContact(ctx context.Context) string
}

func currentUser(w http.ResponseWriter, r *http.Request) (session.User, bool) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return user, ok
}

// ownProfile loads the signed-in patient's profile, answering 404 with the
// support message when none exists.
func ownProfile(w http.ResponseWriter, r *http.Request, gw gateway.Gateway, contacts ContactSource, logger *logging.Logger, user session.User) (patients.Profile, bool) {
	profile, err := gw.GetPatientByUser(r.Context(), user.ID)
	if errors.Is(err, gateway.ErrNotFound) {
		contact := ""
		if contacts != nil {
			contact = contacts.SupportContact(r.Context())
		}
		respond.Error(w, http.StatusNotFound, patients.MissingProfileText(contact))
		return patients.Profile{}, false
	}
	if err != nil {
		logger.Error("failed to load patient profile", "user_id", user.ID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return patients.Profile{}, false
	}
	profile.Normalize()
	return profile, true
}

func writeGatewayError(w http.ResponseWriter, logger *logging.Logger, what string, err error) {
	switch {
	case errors.Is(err, gateway.ErrInvalid):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrNotFound):
		respond.Error(w, http.StatusNotFound, what+" not found")
	default:
		logger.Error("gateway call failed", "resource", what, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// recordAccess writes a PHI audit event. Failures are logged and do not fail the request.
func recordAccess(r *http.Request, audit *compliance.AuditService, logger *logging.Logger, user session.User, eventType compliance.AuditEventType, patientID, resourceType string, ids ...string) {
	if err := audit.LogAccess(r.Context(), user, eventType, patientID, resourceType, ids...); err != nil {
		logger.Warn("failed to write audit event", "event_type", eventType, "error", err)
	}
}
