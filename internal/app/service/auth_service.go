package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/common/security"
	"leetlab/internal/domain/model"
	"leetlab/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

type AuthService struct {
	users     repository.UserRepository
	sessions  *SessionService
	tokenAuth *jwtauth.JWTAuth
	tokenTTL  time.Duration
}

func NewAuthService(users repository.UserRepository, sessions *SessionService, tokenAuth *jwtauth.JWTAuth, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, tokenAuth: tokenAuth, tokenTTL: tokenTTL}
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role,omitempty"` // honored only through AdminRegister
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.FirstName == "" || req.Email == "" || req.Password == "" {
		return nil, common.Errorf("missing required fields: %w", common.ErrBadRequest)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		FirstName:      req.FirstName,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           model.RoleUser,
		CreatedAt:      time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := security.GenerateToken(s.tokenAuth, user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

// AdminRegister lets an admin create accounts with an explicit role. An
// unknown role falls back to the regular user role.
func (s *AuthService) AdminRegister(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if req.FirstName == "" || req.Email == "" || req.Password == "" {
		return nil, common.Errorf("missing required fields: %w", common.ErrBadRequest)
	}
	role := model.RoleUser
	if req.Role == model.RoleAdmin {
		role = model.RoleAdmin
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		FirstName:      req.FirstName,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           role,
		CreatedAt:      time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.Errorf("email and password required: %w", common.ErrBadRequest)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("invalid credentials: %w", common.ErrInvalidCredential)
		}
		return nil, err
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.Errorf("invalid credentials: %w", common.ErrInvalidCredential)
	}

	token, err := security.GenerateToken(s.tokenAuth, user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

// Logout revokes the presented credential. Succeeds when no token is present.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	return s.sessions.Revoke(ctx, rawToken)
}

// DeleteProfile removes the user's own account. Submission rows are left in
// place; cleaning them up is a persistence-side concern.
func (s *AuthService) DeleteProfile(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}
