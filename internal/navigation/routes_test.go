package navigation

import (
	"testing"

	"github.com/wolfman30/clinic-portal/internal/session"
)

func TestResolveStaffRoutes(t *testing.T) {
	tests := []struct {
		path       string
		want       string
		redirected bool
	}{
		{"/", "/", false},
		{"/schedule", "/schedule", false},
		{"/schedule/", "/schedule", false},
		{"/patients/abc-123", "/patients/:id", false},
		{"/billing", "/billing", false},
		{"/records", "/", true},
		{"/nope/deeper", "/", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := Resolve(session.RoleNurse, tt.path)
			if res.Route.Path != tt.want || res.Redirected != tt.redirected {
				t.Fatalf("expected %s redirected=%v, got %s redirected=%v", tt.want, tt.redirected, res.Route.Path, res.Redirected)
			}
		})
	}
	if got := Resolve(session.RoleDoctor, "/patients/abc-123").Params["id"]; got != "abc-123" {
		t.Fatalf("expected id param, got %q", got)
	}
}

func TestResolvePatientRoutes(t *testing.T) {
	if res := Resolve(session.RolePatient, "/records"); res.Redirected || res.Route.View != "patient-records" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	res := Resolve(session.RolePatient, "/schedule")
	if !res.Redirected || res.Route.Path != "/" || res.Route.View != "patient-dashboard" {
		t.Fatalf("expected staff route to redirect home for patients, got %+v", res)
	}
}

func TestMenu(t *testing.T) {
	staff := Menu(session.RoleAdmin)
	if len(staff) != 5 || staff[0].Name != "Schedule" {
		t.Fatalf("unexpected staff menu: %+v", staff)
	}
	patient := Menu(session.RolePatient)
	if len(patient) != 3 || patient[1].Name != "My Records" {
		t.Fatalf("unexpected patient menu: %+v", patient)
	}
	if Routes("guest") != nil {
		t.Fatalf("unknown role must not get a route tree")
	}
}
