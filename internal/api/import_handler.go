package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/fuyanik/user-management-case/internal/config"
	"github.com/fuyanik/user-management-case/internal/importer"
	"github.com/fuyanik/user-management-case/internal/service"
	"github.com/fuyanik/user-management-case/internal/spreadsheet"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ImportHandler handles spreadsheet upload and import log endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// uploadResponse is the data of a successful upload
type uploadResponse struct {
	*importer.Result
	ImportID string `json:"importId"`
}

// Upload handles POST /api/users/upload
func (h *ImportHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file uploaded", nil)
		return
	}
	defer file.Close()

	// Validate file size
	if header.Size > h.cfg.Import.MaxUploadSize {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("File too large, max size is %d MB", h.cfg.Import.MaxUploadSize/(1024*1024)), nil)
		return
	}

	if !spreadsheet.IsSupported(header.Filename) {
		respondError(c, http.StatusBadRequest, "Invalid file type. Please upload an Excel file (.xlsx or .xls)", nil)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Import.MaxUploadSize+1))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		respondError(c, http.StatusBadRequest, "Failed to read uploaded file", nil)
		return
	}

	var uploadedBy string
	if claims := currentClaims(c); claims != nil {
		uploadedBy = claims.UserID
	}

	res, err := h.services.Import.Upload(ctx, &service.UploadRequest{
		FileName:       header.Filename,
		Data:           data,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		UploadedBy:     uploadedBy,
	})
	if err != nil {
		h.log.Error().Err(err).Str("file", header.Filename).Msg("Excel upload failed")
		respondError(c, http.StatusInternalServerError, "Failed to process Excel file", nil)
		return
	}

	switch {
	case res.Replayed:
		respond(c, http.StatusOK, "Import already processed for this Idempotency-Key", res.Import)
	case res.Failure != nil:
		respondError(c, statusForKind(res.Failure.Kind), res.Failure.Message, res.Failure.Errors)
	default:
		h.log.Info().
			Str("import_id", res.Import.ID).
			Str("file", header.Filename).
			Int64("size_bytes", header.Size).
			Int("imported", res.Result.Imported).
			Msg("Users imported")

		respond(c, http.StatusCreated,
			fmt.Sprintf("Successfully imported %d users", res.Result.Imported),
			uploadResponse{Result: res.Result, ImportID: res.Import.ID})
	}
}

// statusForKind maps an import failure to its HTTP status
func statusForKind(kind importer.Kind) int {
	switch kind {
	case importer.KindStructural, importer.KindValidation, importer.KindDuplicate:
		return http.StatusBadRequest
	case importer.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetImport handles GET /api/imports/:import_id
func (h *ImportHandler) GetImport(c *gin.Context) {
	id := c.Param("import_id")

	imp, err := h.services.Import.GetImport(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Import not found", nil)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("import_id", id).Msg("Failed to get import")
		respondError(c, http.StatusInternalServerError, "Failed to get import", nil)
		return
	}

	respond(c, http.StatusOK, "Import retrieved successfully", imp)
}

// GetImportErrors handles GET /api/imports/:import_id/errors
func (h *ImportHandler) GetImportErrors(c *gin.Context) {
	id := c.Param("import_id")

	errs, err := h.services.Import.GetImportErrors(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Import not found", nil)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("import_id", id).Msg("Failed to get import errors")
		respondError(c, http.StatusInternalServerError, "Failed to get errors", nil)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=import_errors_%s.csv", id))
		writer := csv.NewWriter(c.Writer)
		writer.Write([]string{"row", "field", "message"})
		for _, e := range errs {
			writer.Write([]string{strconv.Itoa(e.Row), e.Field, e.Message})
		}
		writer.Flush()
	case "json":
		respond(c, http.StatusOK, "Import errors retrieved successfully", gin.H{
			"importId":   id,
			"errorCount": len(errs),
			"errors":     errs,
		})
	default:
		respondError(c, http.StatusBadRequest, "format must be one of: json, csv", nil)
	}
}
