// Package service implements CueMark's application services on top of the
// store, the cue engine, and the source collectors.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemarkapp/cuemark-server/internal/auth"
	"github.com/cuemarkapp/cuemark-server/internal/domain"
	domainerrors "github.com/cuemarkapp/cuemark-server/internal/errors"
	"github.com/cuemarkapp/cuemark-server/internal/id"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/store"
	"github.com/cuemarkapp/cuemark-server/internal/validation"
)

// AuthService handles setup, login, token refresh, and session revocation.
type AuthService struct {
	store     *store.Store
	tokens    *auth.TokenService
	validator *validation.Validator
	logger    *logger.Logger
}

// NewAuthService creates an authentication service.
func NewAuthService(s *store.Store, tokens *auth.TokenService, v *validation.Validator, log *logger.Logger) *AuthService {
	return &AuthService{store: s, tokens: tokens, validator: v, logger: log}
}

// SetupRequest creates the first (root) user.
type SetupRequest struct {
	ServerName  string `json:"server_name" validate:"required,min=1,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
}

// LoginRequest carries user credentials.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	DeviceName string `json:"device_name,omitempty" validate:"max=100"`
}

// RefreshRequest rotates a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse carries tokens and the authenticated user.
type AuthResponse struct {
	User         domain.User `json:"user"`
	SessionID    string      `json:"session_id"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// SetupRequired reports whether the first-boot setup endpoint is still open.
func (s *AuthService) SetupRequired(ctx context.Context) (bool, error) {
	inst, err := s.store.GetInstance(ctx)
	if err != nil {
		if store.ErrNotFound.Is(err) {
			return true, nil
		}
		return false, fmt.Errorf("get instance: %w", err)
	}
	return !inst.SetupDone, nil
}

// Setup creates the root user and the instance record. Usable exactly once.
func (s *AuthService) Setup(ctx context.Context, req SetupRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	required, err := s.SetupRequired(ctx)
	if err != nil {
		return nil, err
	}
	if !required {
		return nil, domainerrors.Conflict("server is already configured")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: passwordHash,
		IsRoot:       true,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Users.Create(ctx, user.ID, user); err != nil {
		if store.ErrAlreadyExists.Is(err) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The instance record may already exist from first boot; setup names it
	// and closes the setup window either way.
	inst, err := s.store.GetInstance(ctx)
	if err != nil {
		instanceID, idErr := id.Generate("inst")
		if idErr != nil {
			return nil, fmt.Errorf("generate instance ID: %w", idErr)
		}
		inst = domain.NewInstance(instanceID, req.ServerName)
	}
	inst.Name = req.ServerName
	inst.SetupDone = true
	inst.ModifiedAt = now
	if err := s.store.PutInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("store instance: %w", err)
	}

	s.logger.Info("Server setup complete", "user_id", userID, "email", user.Email)

	return s.issueTokens(ctx, user, "")
}

// Login authenticates credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if store.ErrNotFound.Is(err) {
			// Don't leak whether the email exists.
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	s.logger.Info("User logged in", "user_id", user.ID)

	return s.issueTokens(ctx, user, req.DeviceName)
}

// Refresh rotates the refresh token and issues a fresh access token.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	tokenHash := auth.HashRefreshToken(req.RefreshToken)

	session, err := s.findSessionByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		_ = s.store.Sessions.Delete(ctx, session.ID)
		return nil, domainerrors.TokenExpired("session expired, log in again")
	}

	user, err := s.store.Users.Get(ctx, session.UserID)
	if err != nil {
		return nil, domainerrors.Unauthorized("session user no longer exists")
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	// Token rotation: the presented token is spent.
	session.Refresh(auth.HashRefreshToken(refreshToken), s.tokens.RefreshTokenDuration())
	if err := s.store.Sessions.Put(ctx, session.ID, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	return &AuthResponse{
		User:         user.Sanitized(),
		SessionID:    session.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.tokens.AccessTokenDuration()),
	}, nil
}

// Logout revokes a session, invalidating its refresh token.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.store.Sessions.Delete(ctx, sessionID)
	if err != nil && !store.ErrNotFound.Is(err) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// VerifyAccessToken validates a bearer token and loads its user. Used by the
// authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token")
	}

	user, err := s.store.Users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, domainerrors.Unauthorized("token user no longer exists")
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User, deviceName string) (*AuthResponse, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	session := domain.NewSession(sessionID, user.ID, auth.HashRefreshToken(refreshToken), deviceName, s.tokens.RefreshTokenDuration())
	if err := s.store.Sessions.Create(ctx, session.ID, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &AuthResponse{
		User:         user.Sanitized(),
		SessionID:    sessionID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.tokens.AccessTokenDuration()),
	}, nil
}

func (s *AuthService) findSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	for session, err := range s.store.Sessions.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		if session.RefreshTokenHash == tokenHash {
			return session, nil
		}
	}
	return nil, domainerrors.Unauthorized("unknown refresh token")
}
