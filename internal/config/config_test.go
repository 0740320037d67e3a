// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults pass",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero tick interval",
			mutate:  func(c *Config) { c.Scheduler.TickInterval = 0 },
			wantErr: true,
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.Scheduler.DefaultIntervalHours = -1 },
			wantErr: true,
		},
		{
			name:    "zero lookback window",
			mutate:  func(c *Config) { c.Movement.LookbackWindow = 0 },
			wantErr: true,
		},
		{
			name:    "negative movement threshold",
			mutate:  func(c *Config) { c.Movement.ThresholdDegrees = -0.1 },
			wantErr: true,
		},
		{
			name:    "negative moving speed",
			mutate:  func(c *Config) { c.AIS.MovingSpeedKnots = -0.5 },
			wantErr: true,
		},
		{
			name:    "bogus day location",
			mutate:  func(c *Config) { c.SeaTime.DayLocation = "Atlantis/Nowhere" },
			wantErr: true,
		},
		{
			name:    "valid day location",
			mutate:  func(c *Config) { c.SeaTime.DayLocation = "UTC" },
			wantErr: false,
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing API key is not an error",
			mutate:  func(c *Config) { c.AIS.APIKey = "" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPollingEnabled(t *testing.T) {
	cfg := defaultConfig()
	if cfg.PollingEnabled() {
		t.Error("polling should be disabled without an API key")
	}
	cfg.AIS.APIKey = "k"
	if !cfg.PollingEnabled() {
		t.Error("polling should be enabled with an API key")
	}
}

func TestDayLocationFallback(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.DayLocation(); got != time.Local {
		t.Errorf("empty day_location should resolve to time.Local, got %v", got)
	}

	cfg.SeaTime.DayLocation = "UTC"
	if got := cfg.DayLocation(); got.String() != "UTC" {
		t.Errorf("day_location UTC resolved to %v", got)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"AIS_API_KEY", "ais.api_key"},
		{"TICK_INTERVAL", "scheduler.tick_interval"},
		{"LOOKBACK_WINDOW", "movement.lookback_window"},
		{"MOVEMENT_THRESHOLD_DEG", "movement.threshold_degrees"},
		{"AIS_MOVING_SPEED_KNOTS", "ais.moving_speed_knots"},
		{"DUCKDB_PATH", "database.path"},
		{"HTTP_PORT", "server.port"},
		{"WEBHOOK_URL", "notify.webhook_url"},
		{"LOG_LEVEL", "logging.level"},
		{"RANDOM_UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("AIS_API_KEY", "test-key")
	t.Setenv("TICK_INTERVAL", "30s")
	t.Setenv("DUCKDB_PATH", t.TempDir()+"/seatimed.duckdb")
	t.Setenv("HTTP_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AIS.APIKey != "test-key" {
		t.Errorf("AIS.APIKey = %q, want %q", cfg.AIS.APIKey, "test-key")
	}
	if cfg.Scheduler.TickInterval != 30*time.Second {
		t.Errorf("Scheduler.TickInterval = %v, want 30s", cfg.Scheduler.TickInterval)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
}
