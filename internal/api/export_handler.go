package api

import (
	"net/http"
	"strconv"

	"github.com/fuyanik/user-management-case/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamUsers handles GET /api/users/export?format=...
// Streams the export directly to the response
func (h *ExportHandler) StreamUsers(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "ndjson" && format != "json" && format != "csv" {
		respondError(c, http.StatusBadRequest, "format must be one of: csv, ndjson, json", nil)
		return
	}

	total, err := h.services.Export.GetCount(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count users for export")
		respondError(c, http.StatusInternalServerError, "Failed to export users", nil)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(total))

	if err := h.services.Export.StreamUsers(c.Request.Context(), c.Writer, format); err != nil {
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Str("format", format).Msg("Export failed")
	}
}
