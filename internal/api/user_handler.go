package api

import (
	"errors"
	"net/http"

	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services: services,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// listUsersQuery binds the listing query string. Paging values outside the
// allowed range are clamped by the service rather than rejected.
type listUsersQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Search    string `form:"search" binding:"max=255"`
	MinAge    *int   `form:"minAge" binding:"omitempty,min=0"`
	MaxAge    *int   `form:"maxAge" binding:"omitempty,min=0"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=firstName lastName email age createdAt"`
	SortOrder string `form:"sortOrder"`
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid query parameters", nil)
		return
	}

	page, err := h.services.User.List(c.Request.Context(), models.ListUsersParams{
		Page:      q.Page,
		Limit:     q.Limit,
		Search:    q.Search,
		MinAge:    q.MinAge,
		MaxAge:    q.MaxAge,
		SortBy:    q.SortBy,
		SortOrder: models.SortOrder(q.SortOrder),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list users")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve users", nil)
		return
	}

	respond(c, http.StatusOK, "Users retrieved successfully", page)
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	user, err := h.services.User.Create(c.Request.Context(), &req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(c, http.StatusBadRequest, "Validation failed", verr.Errors)
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, http.StatusConflict, "A user with this email already exists", nil)
		default:
			h.log.Error().Err(err).Msg("Failed to create user")
			respondError(c, http.StatusInternalServerError, "Failed to create user", nil)
		}
		return
	}

	respond(c, http.StatusCreated, "User created successfully", user)
}

// GetUser handles GET /api/users/:userid
func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("userid")

	user, err := h.services.User.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", id).Msg("Failed to get user")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve user", nil)
		return
	}

	respond(c, http.StatusOK, "User retrieved successfully", user)
}
