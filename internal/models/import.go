package models

import (
	"time"
)

// ImportStatus represents the outcome of a spreadsheet import
type ImportStatus string

const (
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// Import is the recorded log entry of one upload attempt
type Import struct {
	ID             string       `json:"id" db:"id"`
	FileName       string       `json:"fileName" db:"file_name"`
	Status         ImportStatus `json:"status" db:"status"`
	FailureKind    string       `json:"failureKind,omitempty" db:"failure_kind"`
	Message        string       `json:"message,omitempty" db:"message"`
	IdempotencyKey string       `json:"idempotencyKey,omitempty" db:"idempotency_key"`
	TotalRows      int          `json:"totalRows" db:"total_rows"`
	ImportedCount  int          `json:"imported" db:"imported_count"`
	ErrorCount     int          `json:"errorCount" db:"error_count"`
	DurationMs     int64        `json:"durationMs" db:"duration_ms"`
	CreatedBy      string       `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
}

// ImportError is a persisted row/field error of a failed import
type ImportError struct {
	Row     int    `json:"row,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResponse is the API response for an import log entry
type ImportResponse struct {
	Import
	Errors      []ImportError `json:"errors,omitempty"`
	ErrorReport string        `json:"errorReportUrl,omitempty"`
}
