package service

import (
	"context"
	"errors"

	"github.com/fuyanik/user-management-case/internal/auth"
	"github.com/fuyanik/user-management-case/internal/config"
	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/repository"
	"github.com/fuyanik/user-management-case/internal/validation"
	"github.com/rs/zerolog"
)

// Hasher hashes passwords and checks them against stored hashes
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// LoginResult is a signed-in user with its session token
type LoginResult struct {
	User  *models.User
	Token string
}

// authService is the concrete implementation of AuthService
type authService struct {
	users  repository.UserRepository
	hasher Hasher
	cfg    *config.AuthConfig
	log    zerolog.Logger
}

func newAuthService(users repository.UserRepository, hasher Hasher, cfg *config.AuthConfig, log zerolog.Logger) *authService {
	return &authService{
		users:  users,
		hasher: hasher,
		cfg:    cfg,
		log:    log.With().Str("service", "auth").Logger(),
	}
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords produce the same error.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*LoginResult, error) {
	if errs := validation.ValidateLogin(req); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		s.log.Warn().Str("user_id", user.ID).Msg("Failed login attempt")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	token, err := auth.GenerateToken(user, []byte(s.cfg.JWTSecret), s.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return &LoginResult{User: user, Token: token}, nil
}

// Authenticate verifies a session token against the stored account. Tokens of
// deleted or deactivated users are rejected, and the role comes from the
// account so a role change applies before the token expires.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, []byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	claims.Email = user.Email
	claims.Role = user.Role
	return claims, nil
}

// CurrentUser loads the signed-in user
func (s *authService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
