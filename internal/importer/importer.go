// Package importer turns an uploaded spreadsheet into user records. The
// pipeline runs header mapping, row coercion, validation, intra-file and
// store duplicate checks and an all-or-nothing commit, stopping at the first
// stage that reports any error.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/repository"
	"github.com/fuyanik/user-management-case/internal/spreadsheet"
	"github.com/fuyanik/user-management-case/internal/validation"
	"github.com/rs/zerolog"
)

// UserStore is the persistence the importer needs
type UserStore interface {
	FindExistingEmails(ctx context.Context, emails []string) ([]string, error)
	CreateBatch(ctx context.Context, users []*models.User) ([]*models.User, error)
}

// PasswordHasher produces a one-way hash of a plain-text password
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Result is a successful import
type Result struct {
	Imported  int            `json:"imported"`
	Users     []*models.User `json:"users"`
	TotalRows int            `json:"-"`
	Duration  time.Duration  `json:"-"`
}

// Importer runs the import pipeline
type Importer struct {
	store  UserStore
	hasher PasswordHasher
	log    zerolog.Logger
}

// New creates an Importer
func New(store UserStore, hasher PasswordHasher, log zerolog.Logger) *Importer {
	return &Importer{
		store:  store,
		hasher: hasher,
		log:    log.With().Str("component", "importer").Logger(),
	}
}

// ImportFile parses a workbook and imports its first sheet
func (im *Importer) ImportFile(ctx context.Context, data []byte, filename string) (*Result, error) {
	sheet, err := spreadsheet.Read(data, filename)
	if err != nil {
		return nil, im.fail(sheetError(err), 0)
	}
	return im.Import(ctx, sheet)
}

// Import runs every stage over the sheet. On failure the returned error is an
// *Error and nothing has been written to the store.
func (im *Importer) Import(ctx context.Context, sheet *spreadsheet.Sheet) (*Result, error) {
	start := time.Now()
	total := len(sheet.Rows)
	if total == 0 {
		return nil, im.fail(structuralError(spreadsheet.ErrNoDataRows.Error(), spreadsheet.ErrNoDataRows), 0)
	}

	mapping, err := MapHeaders(sheet.Headers)
	if err != nil {
		return nil, im.fail(err, total)
	}

	inputs := make([]validation.RowInput, total)
	for i, row := range sheet.Rows {
		inputs[i] = CoerceRow(row.Cells, mapping)
	}

	var (
		valid     = make([]validation.ValidRow, 0, total)
		rowErrors []validation.FieldError
	)
	for i, in := range inputs {
		v, errs := validation.ValidateRow(in, sheet.Rows[i].Number)
		if len(errs) > 0 {
			rowErrors = append(rowErrors, errs...)
			continue
		}
		valid = append(valid, *v)
	}
	if len(rowErrors) > 0 {
		return nil, im.fail(&Error{
			Stage:   StageValidatingRows,
			Kind:    KindValidation,
			Message: fmt.Sprintf("Validation failed for %d field(s)", len(rowErrors)),
			Errors:  rowErrors,
		}, total)
	}

	if dups := FindDuplicateEmails(valid); len(dups) > 0 {
		return nil, im.fail(&Error{
			Stage:   StageCheckingIntraFileDuplicates,
			Kind:    KindDuplicate,
			Message: "Duplicate emails found in the Excel file",
			Errors:  dups,
		}, total)
	}

	if err := im.checkStore(ctx, valid); err != nil {
		return nil, im.fail(err, total)
	}

	created, err := im.commit(ctx, valid)
	if err != nil {
		return nil, im.fail(err, total)
	}

	res := &Result{
		Imported:  len(created),
		Users:     created,
		TotalRows: total,
		Duration:  time.Since(start),
	}

	im.log.Info().
		Int("imported", res.Imported).
		Dur("duration", res.Duration).
		Str("stage", string(StageDone)).
		Msg("Import completed")

	return res, nil
}

// checkStore reports one conflict per row whose email is already stored
func (im *Importer) checkStore(ctx context.Context, rows []validation.ValidRow) error {
	emails := make([]string, len(rows))
	for i, r := range rows {
		emails[i] = r.Email
	}

	existing, err := im.store.FindExistingEmails(ctx, emails)
	if err != nil {
		return &Error{
			Stage:   StageCheckingStoreDuplicates,
			Kind:    KindCommit,
			Message: "Failed to check existing users",
			Err:     err,
		}
	}
	if len(existing) == 0 {
		return nil
	}

	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[validation.NormalizeEmail(e)] = true
	}

	var conflicts []validation.FieldError
	for _, r := range rows {
		if taken[r.Email] {
			conflicts = append(conflicts, validation.FieldError{
				Row:     r.Row,
				Field:   "email",
				Message: fmt.Sprintf("Email %q already exists in the database", r.Email),
			})
		}
	}

	return &Error{
		Stage:   StageCheckingStoreDuplicates,
		Kind:    KindConflict,
		Message: "Some users already exist in the database",
		Errors:  conflicts,
	}
}

// commit hashes every password, then hands the whole batch to the store
func (im *Importer) commit(ctx context.Context, rows []validation.ValidRow) ([]*models.User, error) {
	users := make([]*models.User, len(rows))
	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Stage: StageCommitting, Kind: KindCommit, Message: "Import cancelled", Err: err}
		}

		hash, err := im.hasher.Hash(r.Password)
		if err != nil {
			return nil, &Error{Stage: StageCommitting, Kind: KindCommit, Message: "Failed to hash password", Err: err}
		}

		users[i] = &models.User{
			FirstName:    r.FirstName,
			LastName:     r.LastName,
			Email:        r.Email,
			Age:          r.Age,
			PasswordHash: hash,
			Role:         models.RoleUser,
			IsActive:     true,
		}
	}

	created, err := im.store.CreateBatch(ctx, users)
	if err == nil {
		return created, nil
	}

	var conflict *repository.EmailConflictError
	switch {
	case errors.As(err, &conflict):
		fe := validation.FieldError{
			Field:   "email",
			Message: fmt.Sprintf("Email %s was inserted by another process", conflict.Email),
		}
		if conflict.Index >= 0 && conflict.Index < len(rows) {
			fe.Row = rows[conflict.Index].Row
		}
		return nil, &Error{
			Stage:   StageCommitting,
			Kind:    KindConflict,
			Message: "Some users already exist in the database",
			Errors:  []validation.FieldError{fe},
			Err:     err,
		}
	case errors.Is(err, repository.ErrEmailExists):
		return nil, &Error{
			Stage:   StageCommitting,
			Kind:    KindConflict,
			Message: "Some users already exist in the database",
			Err:     err,
		}
	default:
		return nil, &Error{Stage: StageCommitting, Kind: KindCommit, Message: "Failed to import users", Err: err}
	}
}

func (im *Importer) fail(err error, total int) error {
	var ie *Error
	if !errors.As(err, &ie) {
		ie = &Error{Stage: StageCommitting, Kind: KindCommit, Message: "Failed to import users", Err: err}
	}
	ie.TotalRows = total

	event := im.log.Warn()
	if !ie.Recoverable() && ie.Kind != KindStructural {
		event = im.log.Error().Err(ie.Err)
	}
	event.
		Str("stage", string(ie.Stage)).
		Str("kind", string(ie.Kind)).
		Int("total_rows", total).
		Int("errors", len(ie.Errors)).
		Msg("Import failed")

	return ie
}

// sheetError converts a spreadsheet read failure into a structural error
func sheetError(err error) *Error {
	switch {
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		return structuralError("Invalid file type. Only .xlsx and .xls files are allowed", err)
	case errors.Is(err, spreadsheet.ErrNoSheets), errors.Is(err, spreadsheet.ErrNoDataRows):
		return structuralError(err.Error(), err)
	default:
		return structuralError("Failed to parse Excel file", err)
	}
}
