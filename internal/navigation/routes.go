package navigation

import (
	"path"
	"strings"

	"github.com/wolfman30/clinic-portal/internal/session"
)

// Home is the landing path for every role.
const Home = "/"

// Route is one page in a role's route tree.
type Route struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	View  string `json:"view"`
	InNav bool   `json:"inNav"`
}

var staffRoutes = []Route{
	{Path: "/", Name: "Home", View: "staff-home"},
	{Path: "/schedule", Name: "Schedule", View: "schedule", InNav: true},
	{Path: "/patients", Name: "Patients", View: "patient-list", InNav: true},
	{Path: "/patients/:id", Name: "Patient", View: "patient-profile"},
	{Path: "/charts", Name: "Charts", View: "charts", InNav: true},
	{Path: "/billing", Name: "Billing", View: "billing", InNav: true},
	{Path: "/telehealth", Name: "Telehealth", View: "telehealth", InNav: true},
}

var patientRoutes = []Route{
	{Path: "/", Name: "Dashboard", View: "patient-dashboard", InNav: true},
	{Path: "/records", Name: "My Records", View: "patient-records", InNav: true},
	{Path: "/appointments", Name: "Appointments", View: "patient-appointments", InNav: true},
	{Path: "/profile", Name: "Profile", View: "patient-profile-self"},
}

// Routes returns the route tree selected by role.
func Routes(role session.Role) []Route {
	if role == session.RolePatient {
		return patientRoutes
	}
	if role.IsStaff() {
		return staffRoutes
	}
	return nil
}

// Menu returns the routes shown in the sidebar.
func Menu(role session.Role) []Route {
	var out []Route
	for _, r := range Routes(role) {
		if r.InNav {
			out = append(out, r)
		}
	}
	return out
}

// Resolution is the outcome of matching a path against a route tree.
type Resolution struct {
	Route      Route             `json:"route"`
	Params     map[string]string `json:"params,omitempty"`
	Redirected bool              `json:"redirected"`
}

// Resolve matches p against the role's routes. Unknown paths resolve to the
// role's home route with Redirected set.
func Resolve(role session.Role, p string) Resolution {
	clean := path.Clean("/" + strings.TrimSpace(p))
	routes := Routes(role)
	for _, r := range routes {
		if params, ok := match(r.Path, clean); ok {
			return Resolution{Route: r, Params: params}
		}
	}
	home := Route{Path: Home}
	if len(routes) > 0 {
		home = routes[0]
	}
	return Resolution{Route: home, Redirected: true}
}

func match(pattern, p string) (map[string]string, bool) {
	pp := strings.Split(strings.Trim(pattern, "/"), "/")
	ps := strings.Split(strings.Trim(p, "/"), "/")
	if len(pp) != len(ps) {
		return nil, false
	}
	var params map[string]string
	for i := range pp {
		if strings.HasPrefix(pp[i], ":") {
			if ps[i] == "" {
				return nil, false
			}
			if params == nil {
				params = map[string]string{}
			}
			params[strings.TrimPrefix(pp[i], ":")] = ps[i]
			continue
		}
		if pp[i] != ps[i] {
			return nil, false
		}
	}
	return params, true
}
