package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/repositories"
	"github.com/ekaya-inc/studysphere/pkg/validation"
)

// UserService handles registration and credential checks.
type UserService interface {
	// Register creates an account. Returns apperrors.ErrConflict if the
	// email is already registered.
	Register(ctx context.Context, input *models.RegisterInput) (*models.User, error)
	// Authenticate returns apperrors.ErrInvalidCredentials for an unknown
	// email or a wrong password alike.
	Authenticate(ctx context.Context, input *models.LoginInput) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userService struct {
	userRepo   repositories.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService creates a new user service with dependencies.
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo:   userRepo,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger.Named("users"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) Register(ctx context.Context, input *models.RegisterInput) (*models.User, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("Registered user", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, input *models.LoginInput) (*models.User, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.Debug("Password mismatch", zap.String("user_id", user.ID.String()))
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, id)
}
