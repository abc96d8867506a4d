package providers

import (
	"github.com/samber/do/v2"

	"github.com/cuemarkapp/cuemark-server/internal/auth"
	"github.com/cuemarkapp/cuemark-server/internal/config"
)

// AuthKey is the hex-encoded PASETO symmetric key, distinct from plain
// strings so the container can resolve it by type.
type AuthKey string

// ProvideAuthKey loads the token signing key from the data directory,
// generating one on first boot. An explicitly configured key wins.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)

	if cfg.Auth.AccessTokenKey != "" {
		return AuthKey(cfg.Auth.AccessTokenKey), nil
	}
	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return "", err
	}
	return AuthKey(key), nil
}

// ProvideTokenService creates the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(key), cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}
