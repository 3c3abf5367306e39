package handlers

import (
	"net/http"

	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/internal/navigation"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Placeholder is the view model for pages that are not built yet.
type Placeholder struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Billing handles GET /api/billing.
func Billing(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, Placeholder{
		Title:   "Billing",
		Message: "Billing and insurance claims are coming soon.",
		Status:  "coming_soon",
	})
}

// Telehealth handles GET /api/telehealth.
func Telehealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, Placeholder{
		Title:   "Telehealth",
		Message: "Video visits are coming soon.",
		Status:  "coming_soon",
	})
}

// NavigationHandler exposes the role route trees.
type NavigationHandler struct {
	logger *logging.Logger
}

func NewNavigationHandler(logger *logging.Logger) *NavigationHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &NavigationHandler{logger: logger}
}

// NavigationResponse is the route tree and sidebar for the signed-in role.
type NavigationResponse struct {
	Role   string             `json:"role"`
	Routes []navigation.Route `json:"routes"`
	Menu   []navigation.Route `json:"menu"`
}

// GetNavigation handles GET /api/navigation.
func (h *NavigationHandler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	routes := navigation.Routes(user.Role)
	if routes == nil {
		respond.Error(w, http.StatusForbidden, "unknown role")
		return
	}
	menu := navigation.Menu(user.Role)
	if menu == nil {
		menu = []navigation.Route{}
	}
	respond.JSON(w, http.StatusOK, NavigationResponse{Role: string(user.Role), Routes: routes, Menu: menu})
}

// Resolve handles GET /api/navigation/resolve?path=/patients/123.
func (h *NavigationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	res := navigation.Resolve(user.Role, r.URL.Query().Get("path"))
	if res.Redirected {
		h.logger.Debug("navigation redirected to home", "path", r.URL.Query().Get("path"), "role", user.Role)
	}
	respond.JSON(w, http.StatusOK, res)
}
