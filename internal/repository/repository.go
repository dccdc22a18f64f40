package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuyanik/user-management-case/internal/database"
	"github.com/fuyanik/user-management-case/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmailExists = errors.New("email already exists")
)

// EmailConflictError is returned by CreateBatch when a row's email was found
// in the store inside the transaction. Index is the position in the batch.
type EmailConflictError struct {
	Email string
	Index int
}

func (e *EmailConflictError) Error() string {
	return fmt.Sprintf("email %s already exists (batch index %d)", e.Email, e.Index)
}

func (e *EmailConflictError) Unwrap() error {
	return ErrEmailExists
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	CreateBatch(ctx context.Context, users []*models.User) ([]*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	FindExistingEmails(ctx context.Context, emails []string) ([]string, error)
	List(ctx context.Context, params models.ListUsersParams) ([]*models.User, int, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.User) error) error
}

// ImportRepository persists the log of upload attempts
type ImportRepository interface {
	Create(ctx context.Context, imp *models.Import) error
	GetByID(ctx context.Context, id string) (*models.Import, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Import, error)
	AddErrors(ctx context.Context, importID string, errors []models.ImportError) error
	GetErrors(ctx context.Context, importID string, limit int) ([]models.ImportError, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User   UserRepository
	Import ImportRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:   NewUserRepo(db),
		Import: NewImportRepo(db),
	}
}
