package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.RateLimit.Enabled && (c.RateLimit.PerMinute <= 0 || c.RateLimit.CleanupInterval <= 0) {
		return fmt.Errorf("rate_limit.per_minute and rate_limit.cleanup_interval must be > 0 when rate limiting is enabled")
	}

	if err := c.Tracking.validate(); err != nil {
		return fmt.Errorf("tracking: %w", err)
	}

	if c.Preflight.DuplicateRequest && c.Preflight.DuplicateWindow <= 0 {
		return fmt.Errorf("preflight.duplicate_window must be > 0 when the duplicate check is enabled")
	}

	if c.Features.MaxMessageLength < 0 {
		return fmt.Errorf("features.max_message_length must be >= 0 (got %d)", c.Features.MaxMessageLength)
	}

	if c.ILS.RequestsPerSecond < 0 {
		return fmt.Errorf("ils.requests_per_second must be >= 0 (got %v)", c.ILS.RequestsPerSecond)
	}

	if c.ILS.Retries < 0 {
		return fmt.Errorf("ils.retries must be >= 0 (got %d)", c.ILS.Retries)
	}

	if c.Tracing.Enabled && (c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1) {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1] (got %v)", c.Tracing.SampleRatio)
	}

	return nil
}

func (t *TrackingConfig) validate() error {
	if !t.Enabled {
		return nil
	}
	if t.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %s)", t.Interval)
	}
	if t.LockTTL <= 0 {
		return fmt.Errorf("lock_ttl must be > 0 (got %s)", t.LockTTL)
	}
	switch t.LockBackend {
	case LockBackendPostgres, LockBackendRedis:
	default:
		return fmt.Errorf("lock_backend must be %q or %q (got %q)", LockBackendPostgres, LockBackendRedis, t.LockBackend)
	}
	if t.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be > 0 (got %d)", t.MaxSteps)
	}
	if t.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be > 0 (got %d)", t.Concurrency)
	}
	if t.PageSize <= 0 {
		return fmt.Errorf("page_size must be > 0 (got %d)", t.PageSize)
	}
	return nil
}
