// Package providers contains dependency injection providers for the
// PageVoice server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/pagevoiceapp/pagevoice-server/internal/auth"
	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting PageVoice Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"storage_path", cfg.Storage.BasePath,
	)

	return log, nil
}

// AuthKey is the symmetric key for device tokens, loaded or generated on
// first start.
type AuthKey []byte

// ProvideAuthKey provides the device token key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)

	if len(cfg.Auth.DeviceTokenKey) > 0 {
		return AuthKey(cfg.Auth.DeviceTokenKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Storage.BasePath)
	if err != nil {
		return nil, err
	}
	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO device token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(key, cfg.Auth.DeviceTokenDuration)
}
