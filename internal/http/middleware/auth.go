package middleware

import (
	"net/http"
	"strings"

	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/internal/session"
)

// TokenParser verifies a bearer token and returns its session user.
type TokenParser interface {
	Parse(token string) (session.User, error)
}

// Authenticate requires a valid bearer token and stores the session user in context.
// Browsers cannot set headers on websocket upgrades, so a "token" query parameter
// is accepted for upgrade requests.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if parser == nil {
				respond.Error(w, http.StatusUnauthorized, "auth disabled")
				return
			}
			token := bearerToken(r)
			if token == "" {
				respond.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			user, err := parser.Parse(token)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), user)))
		})
	}
}

// RequireRole rejects session users whose role is not in roles.
func RequireRole(roles ...session.Role) func(http.Handler) http.Handler {
	allowed := make(map[session.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := session.FromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "not signed in")
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				respond.Error(w, http.StatusForbidden, "forbidden for role "+string(user.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff allows admins, doctors and nurses.
func RequireStaff() func(http.Handler) http.Handler {
	return RequireRole(session.RoleAdmin, session.RoleDoctor, session.RoleNurse)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return ""
}
