package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemarkapp/cuemark-server/internal/auth"
	domainerrors "github.com/cuemarkapp/cuemark-server/internal/errors"
	"github.com/cuemarkapp/cuemark-server/internal/logger"
	"github.com/cuemarkapp/cuemark-server/internal/store"
	"github.com/cuemarkapp/cuemark-server/internal/validation"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard, Format: "json"})
}

func setupAuthTest(t *testing.T) (*AuthService, *store.Store) {
	t.Helper()

	tmpDir := t.TempDir()

	s, err := store.New(tmpDir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	keyHex, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(keyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	return NewAuthService(s, tokens, validation.New(), testLogger()), s
}

func validSetupRequest() SetupRequest {
	return SetupRequest{
		ServerName:  "Living Room",
		Email:       "admin@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Admin",
	}
}

func TestSetup(t *testing.T) {
	svc, _ := setupAuthTest(t)
	ctx := context.Background()

	required, err := svc.SetupRequired(ctx)
	require.NoError(t, err)
	assert.True(t, required)

	resp, err := svc.Setup(ctx, validSetupRequest())
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", resp.User.Email)
	assert.True(t, resp.User.IsRoot)
	assert.Empty(t, resp.User.PasswordHash, "sanitized user must not carry the hash")
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	required, err = svc.SetupRequired(ctx)
	require.NoError(t, err)
	assert.False(t, required)
}

func TestSetupOnlyOnce(t *testing.T) {
	svc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Setup(ctx, validSetupRequest())
	require.NoError(t, err)

	req := validSetupRequest()
	req.Email = "second@example.com"
	_, err = svc.Setup(ctx, req)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestSetupRejectsShortPassword(t *testing.T) {
	svc, _ := setupAuthTest(t)

	req := validSetupRequest()
	req.Password = "short"
	_, err := svc.Setup(context.Background(), req)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLogin(t *testing.T) {
	svc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Setup(ctx, validSetupRequest())
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{
		Email:      "admin@example.com",
		Password:   "correct-horse-battery",
		DeviceName: "Pixel",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)

	user, err := svc.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Setup(ctx, validSetupRequest())
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := setupAuthTest(t)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "irrelevant-pw"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := setupAuthTest(t)
	ctx := context.Background()

	setup, err := svc.Setup(ctx, validSetupRequest())
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: setup.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, setup.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, setup.SessionID, refreshed.SessionID)

	// The presented token is spent after rotation.
	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: setup.RefreshToken})
	assert.Error(t, err)

	// The rotated token still works.
	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: refreshed.RefreshToken})
	assert.NoError(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, s := setupAuthTest(t)
	ctx := context.Background()

	setup, err := svc.Setup(ctx, validSetupRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, setup.SessionID))

	_, err = s.Sessions.Get(ctx, setup.SessionID)
	assert.Error(t, err)

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: setup.RefreshToken})
	assert.Error(t, err)

	// Logging out twice is fine.
	assert.NoError(t, svc.Logout(ctx, setup.SessionID))
}

func TestVerifyAccessTokenRejectsGarbage(t *testing.T) {
	svc, _ := setupAuthTest(t)

	_, err := svc.VerifyAccessToken(context.Background(), "v4.local.not-a-real-token")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}
