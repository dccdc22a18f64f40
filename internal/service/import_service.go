package service

import (
	"context"
	"errors"
	"time"

	"github.com/fuyanik/user-management-case/internal/config"
	"github.com/fuyanik/user-management-case/internal/importer"
	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UploadRequest is one spreadsheet upload
type UploadRequest struct {
	FileName       string
	Data           []byte
	IdempotencyKey string
	UploadedBy     string
}

// UploadResult is the outcome of an upload. Exactly one of Result and Failure
// is set unless Replayed is true, in which case only Import is set.
type UploadResult struct {
	Import   *models.Import
	Result   *importer.Result
	Failure  *importer.Error
	Replayed bool
}

// FileImporter runs the import pipeline over an uploaded workbook
type FileImporter interface {
	ImportFile(ctx context.Context, data []byte, filename string) (*importer.Result, error)
}

// importService is the concrete implementation of ImportService
type importService struct {
	importer FileImporter
	imports  repository.ImportRepository
	cfg      *config.ImportConfig
	log      zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(imp FileImporter, imports repository.ImportRepository, cfg *config.ImportConfig, log zerolog.Logger) *importService {
	return &importService{
		importer: imp,
		imports:  imports,
		cfg:      cfg,
		log:      log.With().Str("service", "import").Logger(),
	}
}

// Upload runs the import and records the attempt. A request repeating the
// Idempotency-Key of a completed import returns that import without
// re-running it; keys whose attempts all failed may be retried.
func (s *importService) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if req.IdempotencyKey != "" {
		existing, err := s.imports.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		switch {
		case err == nil && existing.Status == models.ImportStatusCompleted:
			s.log.Info().Str("import_id", existing.ID).Msg("Returning existing import for idempotency key")
			return &UploadResult{Import: existing, Replayed: true}, nil
		case err == nil:
			s.log.Info().Str("previous_import_id", existing.ID).Msg("Retrying failed import for idempotency key")
		case !errors.Is(err, repository.ErrNotFound):
			s.log.Error().Err(err).Msg("Failed to check idempotency key")
		}
	}

	start := time.Now()
	res, err := s.importer.ImportFile(ctx, req.Data, req.FileName)

	var failure *importer.Error
	if err != nil && !errors.As(err, &failure) {
		return nil, err
	}

	record := &models.Import{
		ID:             uuid.New().String(),
		FileName:       req.FileName,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      req.UploadedBy,
		DurationMs:     time.Since(start).Milliseconds(),
	}
	if failure != nil {
		record.Status = models.ImportStatusFailed
		record.FailureKind = string(failure.Kind)
		record.Message = failure.Message
		record.ErrorCount = len(failure.Errors)
		record.TotalRows = failure.TotalRows
	} else {
		record.Status = models.ImportStatusCompleted
		record.TotalRows = res.TotalRows
		record.ImportedCount = res.Imported
	}

	s.record(ctx, record, failure)

	return &UploadResult{Import: record, Result: res, Failure: failure}, nil
}

// record stores the import log. Failing to store it does not change the
// outcome of the import.
func (s *importService) record(ctx context.Context, record *models.Import, failure *importer.Error) {
	if err := s.imports.Create(ctx, record); err != nil {
		s.log.Error().Err(err).Str("import_id", record.ID).Msg("Failed to record import")
		return
	}
	if failure == nil || len(failure.Errors) == 0 {
		return
	}

	limit := len(failure.Errors)
	if s.cfg.ErrorLimit > 0 && limit > s.cfg.ErrorLimit {
		limit = s.cfg.ErrorLimit
	}
	errs := make([]models.ImportError, limit)
	for i, fe := range failure.Errors[:limit] {
		errs[i] = models.ImportError{Row: fe.Row, Field: fe.Field, Message: fe.Message}
	}

	if err := s.imports.AddErrors(ctx, record.ID, errs); err != nil {
		s.log.Error().Err(err).Str("import_id", record.ID).Msg("Failed to record import errors")
	}
}

// GetImport returns a recorded import with its first stored errors
func (s *importService) GetImport(ctx context.Context, id string) (*models.ImportResponse, error) {
	imp, err := s.imports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &models.ImportResponse{Import: *imp}
	if imp.ErrorCount > 0 {
		errs, err := s.imports.GetErrors(ctx, id, 10)
		if err != nil {
			return nil, err
		}
		resp.Errors = errs
		resp.ErrorReport = "/api/imports/" + id + "/errors?format=csv"
	}
	return resp, nil
}

// GetImportErrors returns every stored error of an import
func (s *importService) GetImportErrors(ctx context.Context, id string) ([]models.ImportError, error) {
	if _, err := s.imports.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.imports.GetErrors(ctx, id, 0)
}
