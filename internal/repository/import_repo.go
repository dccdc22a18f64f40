package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fuyanik/user-management-case/internal/database"
	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const importColumns = `id, file_name, status, failure_kind, message, idempotency_key,
	total_rows, imported_count, error_count, duration_ms, created_by, created_at`

// importRepo is the concrete implementation of ImportRepository
type importRepo struct {
	db *database.DB
}

// NewImportRepo creates a new import log repository
func NewImportRepo(db *database.DB) ImportRepository {
	return &importRepo{db: db}
}

// Create inserts an import log entry. created_at is assigned by the store.
func (r *importRepo) Create(ctx context.Context, imp *models.Import) error {
	query := `
		INSERT INTO imports (id, file_name, status, failure_kind, message, idempotency_key,
			total_rows, imported_count, error_count, duration_ms, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query,
		imp.ID, imp.FileName, imp.Status, nullString(imp.FailureKind), nullString(imp.Message),
		nullString(imp.IdempotencyKey), imp.TotalRows, imp.ImportedCount, imp.ErrorCount,
		imp.DurationMs, nullString(imp.CreatedBy),
	).Scan(&imp.CreatedAt)
}

// GetByID retrieves an import by ID
func (r *importRepo) GetByID(ctx context.Context, id string) (*models.Import, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `SELECT ` + importColumns + ` FROM imports WHERE id = $1`
	return scanImport(r.db.QueryRowContext(ctx, query, id))
}

// GetByIdempotencyKey retrieves the import recorded for an idempotency key.
// A completed attempt wins over failed ones; otherwise the latest is returned.
func (r *importRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Import, error) {
	query := `SELECT ` + importColumns + ` FROM imports WHERE idempotency_key = $1
		ORDER BY (status = 'completed') DESC, created_at DESC LIMIT 1`
	return scanImport(r.db.QueryRowContext(ctx, query, key))
}

// AddErrors stores the errors of a failed import using the COPY protocol
func (r *importRepo) AddErrors(ctx context.Context, importID string, errs []models.ImportError) error {
	if len(errs) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, nil, func(ctx context.Context, tx database.DBTX) error {
		sqlTx, ok := tx.(*sql.Tx)
		if !ok {
			return errors.New("copy requires *sql.Tx")
		}

		stmt, err := sqlTx.PrepareContext(ctx, pq.CopyIn("import_errors",
			"import_id", "row_number", "field", "message",
		))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range errs {
			if _, err := stmt.ExecContext(ctx, importID, e.Row, e.Field, e.Message); err != nil {
				return err
			}
		}

		// Flush the COPY buffer
		_, err = stmt.ExecContext(ctx)
		return err
	})
}

// GetErrors retrieves the stored errors of an import, ordered by row
func (r *importRepo) GetErrors(ctx context.Context, importID string, limit int) ([]models.ImportError, error) {
	query := `SELECT row_number, field, message FROM import_errors WHERE import_id = $1 ORDER BY row_number, id`
	args := []any{importID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ImportError
	for rows.Next() {
		var e models.ImportError
		if err := rows.Scan(&e.Row, &e.Field, &e.Message); err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	return result, rows.Err()
}

func scanImport(row rowScanner) (*models.Import, error) {
	var (
		imp                                         models.Import
		failureKind, message, idempotencyKey, owner sql.NullString
	)

	err := row.Scan(
		&imp.ID, &imp.FileName, &imp.Status, &failureKind, &message, &idempotencyKey,
		&imp.TotalRows, &imp.ImportedCount, &imp.ErrorCount, &imp.DurationMs, &owner, &imp.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	imp.FailureKind = failureKind.String
	imp.Message = message.String
	imp.IdempotencyKey = idempotencyKey.String
	imp.CreatedBy = owner.String
	return &imp, nil
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
