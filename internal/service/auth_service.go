package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/model"
	"github.com/yanarios/sistema-kiosco/internal/repository"
)

// AuthService handles login, token refresh and user administration.
type AuthService struct {
	users      repository.UserRepository
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users repository.UserRepository, jwtSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Login verifies credentials and issues an access/refresh token pair.
// Failures are deliberately indistinguishable (unknown user vs bad password).
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.PermissionDenied()
		}
		return nil, apierror.Transient(err)
	}
	if !user.Active {
		return nil, apierror.PermissionDenied()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		log.Warn().Str("username", req.Username).Msg("failed login attempt")
		return nil, apierror.PermissionDenied()
	}
	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.TokenResponse, error) {
	claims, err := ParseToken(s.jwtSecret, req.RefreshToken)
	if err != nil {
		return nil, apierror.PermissionDenied()
	}
	id, _ := uuid.Parse(claims.UserID)
	user, err := s.users.FindByID(ctx, id)
	if err != nil || !user.Active {
		return nil, apierror.PermissionDenied()
	}
	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	access, err := GenerateToken(s.jwtSecret, user, s.accessTTL)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	refresh, err := GenerateToken(s.jwtSecret, user, s.refreshTTL)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

func (s *AuthService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return nil, apierror.Validation("username", "already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.Transient(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	user := &model.User{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apierror.Transient(err)
	}

	log.Info().Str("username", user.Username).Str("role", user.Role).Msg("user created")
	resp := userToResponse(user)
	return &resp, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userToResponse(&users[i]))
	}
	return out, nil
}

func (s *AuthService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("user", id.String())
		}
		return apierror.Transient(err)
	}
	return s.users.Deactivate(ctx, id)
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Active:   u.Active,
	}
}
