package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Redis     RedisConfig     `yaml:"redis"`
	Preflight PreflightConfig `yaml:"preflight"`
	Features  FeaturesConfig  `yaml:"features"`
	ILS       ILSConfig       `yaml:"ils"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// CORSConfig holds CORS settings for browser-based operator consoles.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:""`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"3600"`
}

// RateLimitConfig throttles the operator API per client address.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"          env:"RATE_LIMIT_ENABLED"`
	PerMinute       int           `yaml:"per_minute"       env:"RATE_LIMIT_PER_MINUTE"       env-default:"120"`
	Burst           int           `yaml:"burst"            env:"RATE_LIMIT_BURST"            env-default:"20"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"`
}

// AuthConfig holds operator API token settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"dcb"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"12h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Lock backends for the tracking loop.
const (
	LockBackendPostgres = "postgres"
	LockBackendRedis    = "redis"
)

// TrackingConfig holds reconciliation loop settings.
type TrackingConfig struct {
	Enabled     bool          `yaml:"enabled"      env:"TRACKING_ENABLED"`
	Interval    time.Duration `yaml:"interval"     env:"TRACKING_INTERVAL"     env-default:"5m"`
	LockName    string        `yaml:"lock_name"    env:"TRACKING_LOCK_NAME"    env-default:"dcb-tracking"`
	LockTTL     time.Duration `yaml:"lock_ttl"     env:"TRACKING_LOCK_TTL"     env-default:"30m"`
	LockBackend string        `yaml:"lock_backend" env:"TRACKING_LOCK_BACKEND" env-default:"postgres"`
	MaxSteps    int           `yaml:"max_steps"    env:"TRACKING_MAX_STEPS"    env-default:"10"`
	Concurrency int           `yaml:"concurrency"  env:"TRACKING_CONCURRENCY"  env-default:"4"`
	PageSize    int           `yaml:"page_size"    env:"TRACKING_PAGE_SIZE"    env-default:"100"`
}

// RedisConfig holds the redis connection used by the redis lock backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"     env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
}

// PreflightConfig toggles each admission check.
type PreflightConfig struct {
	PickupLocation         bool          `yaml:"pickup_location"           env:"PREFLIGHT_PICKUP_LOCATION"`
	PickupLocationToAgency bool          `yaml:"pickup_location_to_agency" env:"PREFLIGHT_PICKUP_LOCATION_TO_AGENCY"`
	DuplicateRequest       bool          `yaml:"duplicate_request"         env:"PREFLIGHT_DUPLICATE_REQUEST"`
	DuplicateWindow        time.Duration `yaml:"duplicate_window"          env:"PREFLIGHT_DUPLICATE_WINDOW"          env-default:"900s"`
	Patron                 bool          `yaml:"patron"                    env:"PREFLIGHT_PATRON"`
	ResolutionDryRun       bool          `yaml:"resolution_dry_run"        env:"PREFLIGHT_RESOLUTION_DRY_RUN"        env-default:"false"`
}

// FeaturesConfig holds functional settings.
type FeaturesConfig struct {
	OwnLibraryBorrowing bool `yaml:"own_library_borrowing" env:"FEATURES_OWN_LIBRARY_BORROWING" env-default:"false"`
	MaxMessageLength    int  `yaml:"max_message_length"    env:"FEATURES_MAX_MESSAGE_LENGTH"    env-default:"255"`
}

// ILSConfig tunes the HTTP host system adapter.
type ILSConfig struct {
	Timeout            time.Duration `yaml:"timeout"              env:"ILS_TIMEOUT"              env-default:"15s"`
	RequestsPerSecond  float64       `yaml:"requests_per_second"  env:"ILS_REQUESTS_PER_SECOND"  env-default:"10"`
	Burst              int           `yaml:"burst"                env:"ILS_BURST"                env-default:"5"`
	BreakerFailures    uint32        `yaml:"breaker_failures"     env:"ILS_BREAKER_FAILURES"     env-default:"5"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout" env:"ILS_BREAKER_OPEN_TIMEOUT" env-default:"30s"`
	Retries            int           `yaml:"retries"              env:"ILS_RETRIES"              env-default:"2"`
	RetryBackoff       time.Duration `yaml:"retry_backoff"        env:"ILS_RETRY_BACKOFF"        env-default:"250ms"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"      env:"TRACING_ENABLED"      env-default:"false"`
	Endpoint    string  `yaml:"endpoint"     env:"TRACING_ENDPOINT"     env-default:"localhost:4318"`
	Insecure    bool    `yaml:"insecure"     env:"TRACING_INSECURE"`
	ServiceName string  `yaml:"service_name" env:"TRACING_SERVICE_NAME" env-default:"dcb-service"`
	SampleRatio float64 `yaml:"sample_ratio" env:"TRACING_SAMPLE_RATIO" env-default:"1.0"`
}
