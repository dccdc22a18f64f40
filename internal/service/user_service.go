package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/repository"
	"github.com/fuyanik/user-management-case/internal/validation"
	"github.com/rs/zerolog"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// userService is the concrete implementation of UserService
type userService struct {
	users  repository.UserRepository
	hasher Hasher
	log    zerolog.Logger
}

func newUserService(users repository.UserRepository, hasher Hasher, log zerolog.Logger) *userService {
	return &userService{
		users:  users,
		hasher: hasher,
		log:    log.With().Str("service", "user").Logger(),
	}
}

// List returns one page of users. Out-of-range paging values are clamped.
func (s *userService) List(ctx context.Context, params models.ListUsersParams) (*models.UserPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = DefaultPageSize
	}
	if params.Limit > MaxPageSize {
		params.Limit = MaxPageSize
	}
	if params.SortOrder != models.SortAsc {
		params.SortOrder = models.SortDesc
	}

	users, total, err := s.users.List(ctx, params)
	if err != nil {
		return nil, err
	}

	return &models.UserPage{
		Users: users,
		Pagination: models.Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      total,
			TotalPages: (total + params.Limit - 1) / params.Limit,
		},
	}, nil
}

// Get returns a user by id
func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create validates and stores a single user with role USER
func (s *userService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if errs := validation.ValidateCreateUser(req); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	email := validation.NormalizeEmail(req.Email)
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		Age:          *req.Age,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("User created")
	return user, nil
}
