package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file next to the binary or in /etc/mealgate
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/mealgate")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars alone can configure the app.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables with MEALGATE_ prefix override everything,
	// e.g. MEALGATE_SERVER_PORT, MEALGATE_VISION_GEMINI_API_KEY.
	v.SetEnvPrefix("MEALGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers sensible defaults so that only secrets and the
// database URL must be provided externally.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.public_base_url", "http://localhost:8080")

	v.SetDefault("auth.clock_skew_seconds", 120)

	v.SetDefault("vision.model_name", "gemini-2.0-flash")
	v.SetDefault("vision.max_retries", 3)
	v.SetDefault("vision.retry_delay_seconds", 2)
	v.SetDefault("vision.call_timeout_seconds", 45)

	v.SetDefault("quota.daily_limit", 40)
	v.SetDefault("quota.nutrition_daily_limit", 10)
	v.SetDefault("quota.advisory_daily_limit", 40)
	v.SetDefault("quota.user_burst_limit", 6)
	v.SetDefault("quota.ip_burst_limit", 20)
	v.SetDefault("quota.burst_window_seconds", 60)
	v.SetDefault("quota.max_concurrent", 3)
	v.SetDefault("quota.concurrent_window_seconds", 60)

	v.SetDefault("storage.upload_expiry_seconds", 300)
	v.SetDefault("storage.max_upload_bytes", 5*1024*1024)
}

// validate checks the assembled config against the struct validation tags and
// returns a descriptive error naming the first offending field.
func validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return fmt.Errorf(
				"invalid configuration: field %s failed on the '%s' rule",
				first.Namespace(), first.Tag(),
			)
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
