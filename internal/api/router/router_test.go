package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-portal/internal/app/bootstrap"
	"github.com/wolfman30/clinic-portal/internal/auth"
	"github.com/wolfman30/clinic-portal/internal/clinic"
	appconfig "github.com/wolfman30/clinic-portal/internal/config"
	"github.com/wolfman30/clinic-portal/internal/http/handlers"
	"github.com/wolfman30/clinic-portal/internal/schedule"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

type testPortal struct {
	handler http.Handler
	issuer  *auth.Issuer
}

func newTestRouter(t *testing.T, devSwitch bool) *testPortal {
	t.Helper()

	logger := logging.New("error")
	cfg := &appconfig.Config{
		UseMemoryStore:  true,
		DisplayTimezone: "UTC",
		ClinicID:        "default",
		EmailProvider:   "stub",
		TokenTTL:        time.Hour,
	}
	reg := prometheus.NewRegistry()
	portal, err := bootstrap.BuildPortal(context.Background(), cfg, bootstrap.Clients{}, reg, logger)
	require.NoError(t, err)
	t.Cleanup(portal.Close)

	handler := New(&Config{
		Logger:        logger,
		Tokens:        portal.Issuer,
		Auth:          auth.NewHandler(portal.Gateway, portal.Issuer, logger),
		DevRoleSwitch: devSwitch,
		Schedule:      schedule.NewHandler(portal.Schedule, portal.Hub, logger),
		ScheduleFeed:  portal.Hub,
		Patients:      handlers.NewPatientsHandler(portal.Gateway, portal.Audit, portal.Schedule, logger),
		Charts:        handlers.NewChartsHandler(portal.Gateway, portal.Files, portal.Audit, portal.Schedule, logger),
		Dashboard:     handlers.NewDashboardHandler(portal.Gateway, portal.Settings, cfg.ClinicID, reg, logger),
		Navigation:    handlers.NewNavigationHandler(logger),
		Clinic:        clinic.NewHandler(portal.Settings, cfg.ClinicID, logger),
	})
	return &testPortal{handler: handler, issuer: portal.Issuer}
}

func (p *testPortal) do(t *testing.T, role session.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	if role != "" {
		token, _, err := p.issuer.Issue(auth.DevPersonas[role])
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	p.handler.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	p := newTestRouter(t, false)

	rr := p.do(t, "", http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterRequiresToken(t *testing.T) {
	p := newTestRouter(t, false)

	for _, path := range []string{"/api/me", "/api/schedule/", "/api/patients", "/api/me/profile"} {
		rr := p.do(t, "", http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestRouterLoginWithSeededPersona(t *testing.T) {
	p := newTestRouter(t, false)

	rr := p.do(t, "", http.MethodPost, "/auth/login", map[string]string{
		"email":    auth.DevPersonas[session.RoleNurse].Email,
		"password": bootstrap.DevPassword,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp auth.TokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, session.RoleNurse, resp.User.Role)

	user, err := p.issuer.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.DevPersonas[session.RoleNurse].ID, user.ID)
}

func TestRouterDevSessionMountedOnlyWhenEnabled(t *testing.T) {
	disabled := newTestRouter(t, false)
	rr := disabled.do(t, "", http.MethodPost, "/dev/session", map[string]string{"role": "doctor"})
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rr.Code)

	enabled := newTestRouter(t, true)
	rr = enabled.do(t, "", http.MethodPost, "/dev/session", map[string]string{"role": "doctor"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterRoleTrees(t *testing.T) {
	p := newTestRouter(t, false)

	cases := []struct {
		role   session.Role
		method string
		path   string
		want   int
	}{
		{session.RoleDoctor, http.MethodGet, "/api/patients", http.StatusOK},
		{session.RoleNurse, http.MethodGet, "/api/dashboard", http.StatusOK},
		{session.RoleAdmin, http.MethodGet, "/api/billing", http.StatusOK},
		{session.RolePatient, http.MethodGet, "/api/patients", http.StatusForbidden},
		{session.RolePatient, http.MethodGet, "/api/dashboard", http.StatusForbidden},
		{session.RolePatient, http.MethodGet, "/api/telehealth", http.StatusForbidden},
		{session.RolePatient, http.MethodGet, "/api/me/profile", http.StatusOK},
		{session.RolePatient, http.MethodGet, "/api/me/records", http.StatusOK},
		{session.RolePatient, http.MethodGet, "/api/me/dashboard", http.StatusOK},
		{session.RoleDoctor, http.MethodGet, "/api/me/profile", http.StatusForbidden},
		{session.RolePatient, http.MethodGet, "/api/schedule/", http.StatusOK},
		{session.RoleDoctor, http.MethodGet, "/api/schedule/", http.StatusOK},
		{session.RolePatient, http.MethodGet, "/api/navigation", http.StatusOK},
		{session.RoleDoctor, http.MethodGet, "/api/clinic/settings", http.StatusOK},
	}
	for _, tc := range cases {
		rr := p.do(t, tc.role, tc.method, tc.path, nil)
		assert.Equal(t, tc.want, rr.Code, "%s %s as %s: %s", tc.method, tc.path, tc.role, rr.Body.String())
	}
}

func TestRouterSettingsUpdateIsAdminOnly(t *testing.T) {
	p := newTestRouter(t, false)

	rr := p.do(t, session.RoleDoctor, http.MethodPut, "/api/clinic/settings", map[string]any{"name": "Elm Street Clinic"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouterAuditRouteRequiresService(t *testing.T) {
	p := newTestRouter(t, false)

	rr := p.do(t, session.RoleAdmin, http.MethodGet, "/api/audit", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
