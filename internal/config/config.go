// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

// Package config loads and validates seatimed configuration.
//
// Configuration is layered with Koanf v2:
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	AIS       AISConfig       `koanf:"ais"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Movement  MovementConfig  `koanf:"movement"`
	SeaTime   SeaTimeConfig   `koanf:"seatime"`
	Notify    NotifyConfig    `koanf:"notify"`
	Audit     AuditConfig     `koanf:"audit"`
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// AISConfig holds AIS position provider settings.
//
// Environment Variables:
//   - AIS_API_KEY: provider API key (required for polling; without it the
//     engine starts with polling disabled)
//   - AIS_BASE_URL: provider base URL
//   - AIS_MOVING_SPEED_KNOTS: minimum speed over ground considered underway
type AISConfig struct {
	// APIKey authenticates requests to the position provider. When empty
	// the scheduler still runs but position checks are disabled.
	APIKey string `koanf:"api_key"`

	// BaseURL is the provider API root.
	BaseURL string `koanf:"base_url"`

	// MovingSpeedKnots is the speed-over-ground threshold above which a
	// vessel reading counts as moving. Typical values: 0.5 to 2.0 knots.
	MovingSpeedKnots float64 `koanf:"moving_speed_knots"`

	// Timeout bounds a single provider request.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitPerSecond throttles outbound provider requests.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`
}

// SchedulerConfig holds task scheduler settings.
type SchedulerConfig struct {
	// TickInterval is how often the scheduler checks for due tasks.
	TickInterval time.Duration `koanf:"tick_interval"`

	// DefaultIntervalHours is the poll interval assigned to newly
	// registered vessels.
	DefaultIntervalHours float64 `koanf:"default_interval_hours"`
}

// MovementConfig holds movement analysis settings.
type MovementConfig struct {
	// LookbackWindow is how far back the analyzer searches for a prior
	// position to compare against.
	LookbackWindow time.Duration `koanf:"lookback_window"`

	// ThresholdDegrees is the minimum coordinate delta, in degrees of
	// latitude or longitude, required to credit movement.
	ThresholdDegrees float64 `koanf:"threshold_degrees"`
}

// SeaTimeConfig holds sea-time entry settings.
type SeaTimeConfig struct {
	// DayLocation is the IANA time zone used to bucket entries by
	// calendar day. Empty means the server's local zone.
	DayLocation string `koanf:"day_location"`

	// MinCreditableHours is the duration at or above which an entry is
	// flagged compliant for certification purposes.
	MinCreditableHours float64 `koanf:"min_creditable_hours"`
}

// NotifyConfig holds webhook notification settings.
type NotifyConfig struct {
	// WebhookURL receives a POST for each newly detected sea-time entry.
	// Empty disables notifications.
	WebhookURL string `koanf:"webhook_url"`

	// Headers are additional headers sent with each webhook request.
	Headers map[string]string `koanf:"headers"`

	// RateLimit is the minimum interval between webhook deliveries.
	RateLimit time.Duration `koanf:"rate_limit"`
}

// AuditConfig holds provider call audit retention settings.
type AuditConfig struct {
	// RetentionDays is how long provider call records are kept.
	RetentionDays int `koanf:"retention_days"`

	// CleanupInterval is how often expired records are purged.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file location.
	Path string `koanf:"path"`

	// MaxMemory limits DuckDB memory usage (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads sets DuckDB worker threads. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs is the per-IP request allowance per RateLimitWindow.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for malformed values. A missing AIS
// API key is NOT a validation error: the engine must start and serve its
// API even when polling cannot run.
func (c *Config) Validate() error {
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("scheduler.tick_interval must be positive, got %v", c.Scheduler.TickInterval)
	}
	if c.Scheduler.DefaultIntervalHours <= 0 {
		return fmt.Errorf("scheduler.default_interval_hours must be positive, got %v", c.Scheduler.DefaultIntervalHours)
	}
	if c.Movement.LookbackWindow <= 0 {
		return fmt.Errorf("movement.lookback_window must be positive, got %v", c.Movement.LookbackWindow)
	}
	if c.Movement.ThresholdDegrees < 0 {
		return fmt.Errorf("movement.threshold_degrees must not be negative, got %v", c.Movement.ThresholdDegrees)
	}
	if c.AIS.MovingSpeedKnots < 0 {
		return fmt.Errorf("ais.moving_speed_knots must not be negative, got %v", c.AIS.MovingSpeedKnots)
	}
	if c.AIS.Timeout <= 0 {
		return fmt.Errorf("ais.timeout must be positive, got %v", c.AIS.Timeout)
	}
	if c.SeaTime.MinCreditableHours < 0 {
		return fmt.Errorf("seatime.min_creditable_hours must not be negative, got %v", c.SeaTime.MinCreditableHours)
	}
	if c.SeaTime.DayLocation != "" {
		if _, err := time.LoadLocation(c.SeaTime.DayLocation); err != nil {
			return fmt.Errorf("seatime.day_location %q is not a valid IANA zone: %w", c.SeaTime.DayLocation, err)
		}
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit.retention_days must not be negative, got %d", c.Audit.RetentionDays)
	}
	return nil
}

// PollingEnabled reports whether the engine has the credentials it needs
// to poll the position provider.
func (c *Config) PollingEnabled() bool {
	return c.AIS.APIKey != ""
}

// DayLocation resolves the configured calendar-day zone, falling back to
// the server's local zone.
func (c *Config) DayLocation() *time.Location {
	if c.SeaTime.DayLocation == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.SeaTime.DayLocation)
	if err != nil {
		return time.Local
	}
	return loc
}
