// Package config loads LexGuard settings from a YAML file and LEXGUARD_*
// environment variables on top of the tier presets.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. LEXGUARD_SERVER_PORT.
const EnvPrefix = "LEXGUARD"

// Load reads the configuration. path may be empty, in which case only the
// preset and the environment apply. The preset is ProConfig when the tier
// resolves to "pro", DefaultConfig otherwise.
func Load(path string) (*domain.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, "", reflect.TypeOf(domain.Config{}))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := domain.DefaultConfig()
	if domain.Tier(strings.ToLower(v.GetString("tier"))) == domain.TierPro {
		cfg = domain.ProConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers every mapstructure key so that Unmarshal sees
// environment values for keys absent from the file.
func bindEnvs(v *viper.Viper, prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct {
			bindEnvs(v, key, field.Type)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// Validate rejects settings the server cannot start with.
func Validate(cfg *domain.Config) error {
	var errs []error
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	switch cfg.Tier {
	case domain.TierCommunity, domain.TierPro:
	default:
		errs = append(errs, fmt.Errorf("unknown tier %q", cfg.Tier))
	}
	switch cfg.Repository.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported repository driver %q", cfg.Repository.Driver))
	}
	switch cfg.Cache.Type {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported cache type %q", cfg.Cache.Type))
	}
	switch cfg.EventBus.Type {
	case "channel", "nats":
	default:
		errs = append(errs, fmt.Errorf("unsupported event bus type %q", cfg.EventBus.Type))
	}
	if cfg.Server.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("server.rateLimitPerMinute must not be negative"))
	}
	if cfg.Evaluation.Remote && cfg.EventBus.Type == "channel" && !cfg.Worker.Enabled {
		errs = append(errs, errors.New("evaluation.remote needs a worker on the in-process bus"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger from the logging settings.
func NewLogger(cfg domain.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "json", "":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "console":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}
}
