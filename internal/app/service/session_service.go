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
	"leetlab/internal/platform/kv"

	"github.com/go-chi/jwtauth/v5"
)

// SessionService is the session guard: it resolves bearer credentials to live
// user records and handles explicit revocation. It keeps no state of its own
// beyond the revocation store and the verification key.
type SessionService struct {
	users       repository.UserRepository
	revocations *kv.RevocationList
	tokenAuth   *jwtauth.JWTAuth
}

func NewSessionService(users repository.UserRepository, revocations *kv.RevocationList, tokenAuth *jwtauth.JWTAuth) *SessionService {
	return &SessionService{users: users, revocations: revocations, tokenAuth: tokenAuth}
}

// Authenticate validates a raw bearer credential and resolves it to a user.
// The revocation check runs before signature verification: a revoked token
// must report as revoked for as long as its entry lives, and the entry's TTL
// guarantees it is gone once the token could only fail the expiry check.
func (s *SessionService) Authenticate(ctx context.Context, raw string) (*model.User, error) {
	if raw == "" {
		return nil, common.ErrUnauthenticated
	}

	revoked, err := s.revocations.Contains(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("session guard: %w", err)
	}
	if revoked {
		return nil, common.ErrRevoked
	}

	token, err := jwtauth.VerifyToken(s.tokenAuth, raw)
	if err != nil {
		return nil, common.Errorf("verify token: %v: %w", err, common.ErrInvalidCredential)
	}

	userID, err := security.GetUserIDFromToken(token)
	if err != nil {
		return nil, common.Errorf("token claims: %v: %w", err, common.ErrInvalidCredential)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("session guard: %w", err)
	}
	return user, nil
}

// AuthenticateAdmin is Authenticate plus a privileged-role check against the
// live user record, not the token claim.
func (s *SessionService) AuthenticateAdmin(ctx context.Context, raw string) (*model.User, error) {
	user, err := s.Authenticate(ctx, raw)
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleAdmin {
		return nil, common.ErrForbidden
	}
	return user, nil
}

// Revoke invalidates a credential until its natural expiry. The token is
// decoded without verification so logout succeeds even for a token on the
// edge of validity; an undecodable or already-expired token is a no-op.
func (s *SessionService) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	expiry, ok := security.DecodeExpiry(raw)
	if !ok {
		return nil
	}
	return s.revocations.Revoke(ctx, raw, time.Until(expiry))
}
