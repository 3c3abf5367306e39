package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/clinic-portal/internal/gateway"
	"github.com/wolfman30/clinic-portal/internal/http/respond"
	"github.com/wolfman30/clinic-portal/internal/session"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// UserStore looks up login accounts.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (gateway.UserProfile, error)
}

// DevPersonas are the accounts offered by the development role switch.
var DevPersonas = map[session.Role]session.User{
	session.RolePatient: {
		ID:        "11111111-1111-1111-1111-111111111111",
		Email:     "patient@example.com",
		Role:      session.RolePatient,
		FirstName: "John",
		LastName:  "Doe",
	},
	session.RoleDoctor: {
		ID:        "22222222-2222-2222-2222-222222222222",
		Email:     "dr.sarah.wilson@example.com",
		Role:      session.RoleDoctor,
		FirstName: "Sarah",
		LastName:  "Wilson",
	},
	session.RoleNurse: {
		ID:        "33333333-3333-3333-3333-333333333333",
		Email:     "nurse.park@example.com",
		Role:      session.RoleNurse,
		FirstName: "Nina",
		LastName:  "Park",
	},
	session.RoleAdmin: {
		ID:        "44444444-4444-4444-4444-444444444444",
		Email:     "admin@example.com",
		Role:      session.RoleAdmin,
		FirstName: "Alex",
		LastName:  "Morgan",
	},
}

// Handler serves login and the development role switch.
type Handler struct {
	users  UserStore
	issuer *Issuer
	logger *logging.Logger
}

// NewHandler creates the auth handler.
func NewHandler(users UserStore, issuer *Issuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{users: users, issuer: issuer, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and the role switch.
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      session.User `json:"user"`
}

// Login exchanges email and password for a session token.
// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	account, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, gateway.ErrNotFound) || (err == nil && !CheckPassword(account.PasswordHash, req.Password)) {
		h.logger.Warn("login rejected", "email", req.Email)
		respond.Error(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		h.logger.Error("login lookup failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeToken(w, account.SessionUser())
}

type devSessionRequest struct {
	Role string `json:"role"`
}

// DevSession swaps the signed-in persona. Mounted only when the role switch is enabled.
// POST /dev/session
func (h *Handler) DevSession(w http.ResponseWriter, r *http.Request) {
	var req devSessionRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := session.ParseRole(req.Role)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	persona, ok := DevPersonas[role]
	if !ok {
		respond.Error(w, http.StatusBadRequest, "no development persona for role "+string(role))
		return
	}
	h.logger.Info("development role switch", "role", role, "user_id", persona.ID)
	h.writeToken(w, persona)
}

// Me returns the session user of the request.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := session.FromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *Handler) writeToken(w http.ResponseWriter, user session.User) {
	token, expires, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expires, User: user})
}
