package api

import (
	"errors"
	"net/http"

	"github.com/fuyanik/user-management-case/internal/config"
	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuthHandler handles session endpoints
type AuthHandler struct {
	services *service.Services
	cfg      *config.AuthConfig
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, cfg *config.AuthConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

type sessionUser struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
}

func newSessionUser(u *models.User) sessionUser {
	return sessionUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	res, err := h.services.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(c, http.StatusBadRequest, "Validation failed", verr.Errors)
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "Invalid email or password", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			respondError(c, http.StatusUnauthorized, "Account is deactivated. Please contact support.", nil)
		default:
			h.log.Error().Err(err).Msg("Login failed")
			respondError(c, http.StatusInternalServerError, "An error occurred during login", nil)
		}
		return
	}

	setSessionCookie(c, h.cfg, res.Token)
	respond(c, http.StatusOK, "Login successful", gin.H{"user": newSessionUser(res.User)})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.cfg)
	respond(c, http.StatusOK, "Logged out successfully", nil)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := currentClaims(c)

	user, err := h.services.Auth.CurrentUser(c.Request.Context(), claims.UserID)
	if errors.Is(err, service.ErrNotFound) {
		respondError(c, http.StatusUnauthorized, "User not found", nil)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to get current user")
		respondError(c, http.StatusInternalServerError, "Failed to get user information", nil)
		return
	}
	if !user.IsActive {
		respondError(c, http.StatusUnauthorized, "Account is deactivated", nil)
		return
	}

	respond(c, http.StatusOK, "User retrieved successfully", newSessionUser(user))
}
