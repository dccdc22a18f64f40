package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuyanik/user-management-case/internal/auth"
	"github.com/fuyanik/user-management-case/internal/config"
	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/repository"
	"github.com/fuyanik/user-management-case/internal/validation"
	"github.com/rs/zerolog"
)

const (
	defaultAdminPassword  = "admin"
	generatedPasswordSize = 16
)

type passwordHasher interface {
	Hash(password string) (string, error)
}

type adminSeeder struct {
	users    repository.UserRepository
	hasher   passwordHasher
	generate bool
	log      zerolog.Logger
}

type seedResult struct {
	Email             string
	Created           bool
	GeneratedPassword string
}

// Seed creates the administrator unless a user with its email exists
func (s *adminSeeder) Seed(ctx context.Context, cfg config.SeedConfig) (*seedResult, error) {
	email := validation.NormalizeEmail(cfg.AdminEmail)
	if !validation.IsValidEmail(email) {
		return nil, fmt.Errorf("invalid SEED_ADMIN_EMAIL %q", cfg.AdminEmail)
	}
	res := &seedResult{Email: email}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return res, nil
	}

	password := cfg.AdminPassword
	switch {
	case password != "":
	case s.generate:
		password, err = auth.GenerateRandomPassword(generatedPasswordSize)
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		res.GeneratedPassword = password
	default:
		s.log.Warn().Msg("SEED_ADMIN_PASSWORD is not set, using the default admin password")
		password = defaultAdminPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &models.User{
		FirstName:    "Admin",
		LastName:     "User",
		Email:        email,
		Age:          30,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		// Lost a race with another seeder
		if errors.Is(err, repository.ErrEmailExists) {
			return res, nil
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}

	res.Created = true
	return res, nil
}
