// Package config loads process configuration from the environment and the
// community settings persisted in the config table.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

// Env is the process configuration.
type Env struct {
	Port             int           `koanf:"port" validate:"min=1,max=65535"`
	DatabaseURL      string        `koanf:"database_url" validate:"required"`
	LogLevel         string        `koanf:"log_level" validate:"oneof=debug info warn error"`
	GodMode          bool          `koanf:"god_mode"`
	RequireToken     bool          `koanf:"require_token"`
	AuthTimeout      time.Duration `koanf:"auth_timeout" validate:"gt=0"`
	SecretMessageTTL time.Duration `koanf:"secret_message_ttl" validate:"gt=0"`
}

// envKeys are the variables read from the environment; anything else is ignored.
var envKeys = map[string]bool{
	"PORT":               true,
	"DATABASE_URL":       true,
	"LOG_LEVEL":          true,
	"GOD_MODE":           true,
	"REQUIRE_TOKEN":      true,
	"AUTH_TIMEOUT":       true,
	"SECRET_MESSAGE_TTL": true,
}

func defaultEnv() Env {
	return Env{
		Port:             8080,
		LogLevel:         "info",
		AuthTimeout:      60 * time.Second,
		SecretMessageTTL: 60 * time.Second,
	}
}

var validate = validator.New()

// LoadEnv reads the process environment.
func LoadEnv() (*Env, error) {
	return loadEnv(os.Environ)
}

func loadEnv(environ func() []string) (*Env, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(".", env.Opt{
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			if !envKeys[key] {
				return "", nil
			}
			return strings.ToLower(key), strings.TrimSpace(value)
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := defaultEnv()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("decoding environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address for the callback server.
func (e *Env) Addr() string {
	return fmt.Sprintf(":%d", e.Port)
}
