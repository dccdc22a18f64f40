package importer

import (
	"fmt"

	"github.com/fuyanik/user-management-case/internal/validation"
)

// Kind classifies why an import failed
type Kind string

const (
	// KindStructural: unreadable file, no sheets, no data rows or missing columns.
	KindStructural Kind = "structural"
	KindValidation Kind = "validation"
	KindDuplicate  Kind = "duplicate"
	// KindConflict: an email already exists in the store, found either by the
	// pre-check or by the re-check inside the commit transaction.
	KindConflict Kind = "conflict"
	KindCommit   Kind = "commit"
)

// Stage is a step of the import pipeline
type Stage string

const (
	StageParsingHeaders              Stage = "parsing_headers"
	StageCoercingRows                Stage = "coercing_rows"
	StageValidatingRows              Stage = "validating_rows"
	StageCheckingIntraFileDuplicates Stage = "checking_intra_file_duplicates"
	StageCheckingStoreDuplicates     Stage = "checking_store_duplicates"
	StageCommitting                  Stage = "committing"
	StageDone                        Stage = "done"
	StageFailed                      Stage = "failed"
)

// Error is the terminal failure of an import. Errors holds the complete error
// list of the stage that failed and never mixes stages.
type Error struct {
	Stage   Stage
	Kind    Kind
	Message string
	Errors  []validation.FieldError
	Err     error

	// TotalRows is the number of data rows in the sheet, zero when the file
	// could not be read.
	TotalRows int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import failed at %s (%s): %s: %v", e.Stage, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("import failed at %s (%s): %s", e.Stage, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether resubmitting a corrected file can succeed
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindValidation, KindDuplicate, KindConflict:
		return true
	}
	return false
}

func structuralError(message string, err error) *Error {
	return &Error{Stage: StageParsingHeaders, Kind: KindStructural, Message: message, Err: err}
}
