package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fuyanik/user-management-case/internal/auth"
	"github.com/fuyanik/user-management-case/internal/config"
	"github.com/fuyanik/user-management-case/internal/importer"
	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/repository"
	"github.com/fuyanik/user-management-case/internal/validation"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrNotFound           = repository.ErrNotFound
)

// ValidationError carries the field errors of a rejected request
type ValidationError struct {
	Errors []validation.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Errors))
}

// AuthService defines the interface for session operations
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

// UserService defines the interface for user management
type UserService interface {
	List(ctx context.Context, params models.ListUsersParams) (*models.UserPage, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
}

// ImportService defines the interface for spreadsheet uploads
type ImportService interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	GetImport(ctx context.Context, id string) (*models.ImportResponse, error)
	GetImportErrors(ctx context.Context, id string) ([]models.ImportError, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamUsers(ctx context.Context, w http.ResponseWriter, format string) error
	GetCount(ctx context.Context) (int, error)
}

// Services holds all service interfaces
type Services struct {
	Auth   AuthService
	User   UserService
	Import ImportService
	Export ExportService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	imp := importer.New(repos.User, hasher, log)

	return &Services{
		Auth:   newAuthService(repos.User, hasher, &cfg.Auth, log),
		User:   newUserService(repos.User, hasher, log),
		Import: newImportService(imp, repos.Import, &cfg.Import, log),
		Export: newExportService(repos.User, log),
	}
}
