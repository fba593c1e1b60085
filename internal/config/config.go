package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Vision   VisionConfig   `mapstructure:"vision" validate:"required"`
	Quota    QuotaConfig    `mapstructure:"quota" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// PublicBaseURL is the externally reachable base URL of this API. Signed
	// upload URLs are minted against it.
	PublicBaseURL string `mapstructure:"public_base_url" validate:"required,url"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// ClockSkewSeconds is the allowed time drift when validating token
	// expiry claims.
	ClockSkewSeconds int `mapstructure:"clock_skew_seconds" validate:"gte=0"`
}

// VisionConfig contains all settings for the external vision model.
type VisionConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`
	// MaxRetries bounds retries for transient provider failures.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	// RetryDelaySeconds is the base delay for exponential backoff.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=1"`
	// CallTimeoutSeconds caps a single model call, distinct from retries.
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds" validate:"gte=1"`
}

// QuotaConfig contains the admission-control limits for vision calls.
//
// DailyLimit and NutritionDailyLimit are enforced authoritatively by the
// persistent quota store. AdvisoryDailyLimit is enforced only by the
// per-process counter and may be tuned independently.
type QuotaConfig struct {
	DailyLimit          int `mapstructure:"daily_limit" validate:"required,gt=0"`
	NutritionDailyLimit int `mapstructure:"nutrition_daily_limit" validate:"required,gt=0"`
	AdvisoryDailyLimit  int `mapstructure:"advisory_daily_limit" validate:"required,gt=0"`

	// Sliding-window burst limits. The IP limit must sit above the user
	// limit since multiple users can share an IP.
	UserBurstLimit     int `mapstructure:"user_burst_limit" validate:"required,gt=0"`
	IPBurstLimit       int `mapstructure:"ip_burst_limit" validate:"required,gtefield=UserBurstLimit"`
	BurstWindowSeconds int `mapstructure:"burst_window_seconds" validate:"required,gt=0"`

	// Concurrent-active limit: in-flight verification calls per user within
	// the trailing window.
	MaxConcurrent           int `mapstructure:"max_concurrent" validate:"required,gt=0"`
	ConcurrentWindowSeconds int `mapstructure:"concurrent_window_seconds" validate:"required,gt=0"`
}

// StorageConfig contains settings for the image object store and the
// signed-upload handshake.
type StorageConfig struct {
	// SigningSecret signs upload tokens so the PUT endpoint can verify them
	// without shared state.
	SigningSecret string `mapstructure:"signing_secret" validate:"required,min=32"`
	// UploadExpirySeconds bounds how long a signed upload URL stays valid.
	UploadExpirySeconds int `mapstructure:"upload_expiry_seconds" validate:"required,gt=0"`
	// MaxUploadBytes caps accepted image size (default 5 MB).
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"required,gt=0"`
}
