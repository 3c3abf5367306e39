package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-portal/internal/appointments"
	"github.com/wolfman30/clinic-portal/internal/auth"
	"github.com/wolfman30/clinic-portal/internal/calendar"
	"github.com/wolfman30/clinic-portal/internal/clinic"
	appconfig "github.com/wolfman30/clinic-portal/internal/config"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/internal/schedule"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

func TestBuildRedisClient(t *testing.T) {
	logger := logging.New("error")
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logger, true))

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, true)
	require.NotNil(t, client)
	defer client.Close()

	_, ok := BuildSettingsStore(client, &appconfig.Config{DisplayTimezone: "UTC"}).(*clinic.Store)
	assert.True(t, ok)
	_, ok = BuildSettingsStore(nil, nil).(*clinic.MemoryStore)
	assert.True(t, ok)
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	assert.Nil(t, ConnectPostgresPool(context.Background(), "", logging.New("error")))
	assert.Nil(t, OpenSQL("", nil))
}

func TestBuildPortalRequiresSecretInProduction(t *testing.T) {
	cfg := &appconfig.Config{Env: "production", UseMemoryStore: true}
	_, err := BuildPortal(context.Background(), cfg, Clients{}, prometheus.NewRegistry(), logging.New("error"))
	assert.ErrorIs(t, err, auth.ErrSecretRequired)
}

func TestBuildPortalMemoryMode(t *testing.T) {
	cfg := &appconfig.Config{
		UseMemoryStore:  true,
		DisplayTimezone: "UTC",
		ClinicID:        "default",
		EmailProvider:   "stub",
		TokenTTL:        time.Hour,
	}
	reg := prometheus.NewRegistry()
	portal, err := BuildPortal(context.Background(), cfg, Clients{}, reg, logging.New("error"))
	require.NoError(t, err)
	defer portal.Close()

	assert.Nil(t, portal.Audit)
	assert.Nil(t, portal.Outbox)
	assert.True(t, portal.Files.Enabled())

	ctx := context.Background()
	doctor, err := portal.Gateway.GetUserByEmail(ctx, auth.DevPersonas[session.RoleDoctor].Email)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(doctor.PasswordHash, DevPassword))

	profile, err := portal.Gateway.GetPatientByUser(ctx, auth.DevPersonas[session.RolePatient].ID)
	require.NoError(t, err)

	anchor := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	res, err := portal.Schedule.Create(ctx, doctor.SessionUser(), anchor, appointments.Form{PatientID: profile.ID},
		schedule.ViewRequest{Mode: calendar.ViewDay, Date: anchor})
	require.NoError(t, err)
	require.NotNil(t, res.Appointment)

	activity, err := metrics.ReadActivity(reg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), activity.Created)
}
