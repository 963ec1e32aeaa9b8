package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"norwegianopen/internal/model"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/validator"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthorizer decides whether an account may use the back office. The
// repository lookup table and the OpenFGA authorizer both satisfy it.
type AdminAuthorizer interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	GrantAdmin(ctx context.Context, userID uuid.UUID) error
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,basic_email" field:"Email" msg:"Email is required."`
	Password string `json:"password" form:"password" validate:"required" field:"Password" msg:"Password is required."`
}

type CreateAdminRequest struct {
	Name     string `validate:"required,max=200" field:"Name" msg:"Name is required."`
	Email    string `validate:"required,basic_email" field:"Email" msg:"Email is required."`
	Password string `validate:"required,password_strength" field:"Password" msg:"Password is required."`
}

type AuthService struct {
	repo       repository.Repository
	authorizer AdminAuthorizer
	limiter    LoginLimiter
	validator  *validator.Validator
	logger     *slog.Logger
}

func NewAuthService(repo repository.Repository, authorizer AdminAuthorizer, limiter LoginLimiter, v *validator.Validator, logger *slog.Logger) *AuthService {
	if authorizer == nil {
		authorizer = repo
	}
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		repo:       repo,
		authorizer: authorizer,
		limiter:    limiter,
		validator:  v,
		logger:     logger,
	}
}

// Login checks the password and then the admin relation. Failed password
// attempts count against the limiter; a wrong password and an unknown email
// are indistinguishable.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (model.AdminUser, error) {
	req.Email = strings.TrimSpace(req.Email)
	if rejections := s.validator.Check(req); len(rejections) > 0 {
		return model.AdminUser{}, rejections
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, req.Email); err != nil {
			if errors.Is(err, ErrTooManyAttempts) {
				s.logger.WarnContext(ctx, "Admin login throttled", "email", req.Email)
				return model.AdminUser{}, err
			}
			s.logger.ErrorContext(ctx, "Failed to check login attempts", "error", err)
		}
	}

	user, err := s.repo.GetAdminUserByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrAdminNotFound) {
			return model.AdminUser{}, fmt.Errorf("failed to get admin user: %w", err)
		}
		s.recordFailedLogin(ctx, req.Email)
		return model.AdminUser{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailedLogin(ctx, req.Email)
		return model.AdminUser{}, ErrInvalidCredentials
	}

	admin, err := s.authorizer.IsAdmin(ctx, user.ID)
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("failed to check admin relation: %w", err)
	}
	if !admin {
		s.logger.WarnContext(ctx, "Login by non-admin account", "user_id", user.ID)
		return model.AdminUser{}, ErrNotAdmin
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, req.Email); err != nil {
			s.logger.ErrorContext(ctx, "Failed to reset login attempts", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "Admin logged in", "user_id", user.ID)
	return user, nil
}

// IsAdmin re-checks the relation for an existing session.
func (s *AuthService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.authorizer.IsAdmin(ctx, userID)
}

// CreateAdmin stores a new account and grants it the admin relation.
func (s *AuthService) CreateAdmin(ctx context.Context, req CreateAdminRequest) (model.AdminUser, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if rejections := s.validator.Check(req); len(rejections) > 0 {
		return model.AdminUser{}, rejections
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateAdminUser(ctx, repository.CreateAdminUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("failed to create admin user: %w", err)
	}
	if err := s.authorizer.GrantAdmin(ctx, user.ID); err != nil {
		return model.AdminUser{}, fmt.Errorf("failed to grant admin: %w", err)
	}
	return user, nil
}

func (s *AuthService) recordFailedLogin(ctx context.Context, email string) {
	s.logger.WarnContext(ctx, "Failed admin login", "email", email)
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(ctx, email); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record login attempt", "error", err)
	}
}
