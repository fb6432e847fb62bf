// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package config loads the tracker configuration with layered precedence:
// built-in defaults, then an optional YAML file, then environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full tracker configuration.
type Config struct {
	Ubisoft  UbisoftConfig  `koanf:"ubisoft"`
	OAuth    OAuthConfig    `koanf:"oauth"`
	Club     ClubConfig     `koanf:"club"`
	Webhooks WebhookConfig  `koanf:"webhooks"`
	Storage  StorageConfig  `koanf:"storage"`
	Sync     SyncConfig     `koanf:"sync"`
	Ops      OpsConfig      `koanf:"ops"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// UbisoftConfig holds the platform account credentials.
type UbisoftConfig struct {
	Email    string `koanf:"email" validate:"required,email"`
	Password string `koanf:"password" validate:"required"`

	// SessionFile persists credentials across restarts. Empty keeps the
	// session in memory only.
	SessionFile string `koanf:"session_file"`
}

// OAuthConfig holds the display-name API credentials.
type OAuthConfig struct {
	ClientID     string `koanf:"client_id" validate:"required"`
	ClientSecret string `koanf:"client_secret" validate:"required"`
}

// ClubConfig selects which club campaigns to watch.
type ClubConfig struct {
	// ID is the watched club in single-club mode.
	ID string `koanf:"id"`

	// Campaign selects the campaign within the club's activity feed:
	// an exact name, the literal "latest", or a /regex/ pattern.
	Campaign string `koanf:"campaign"`

	// MultiClub switches to subscription rows stored by the operator
	// command surface instead of the single configured club.
	MultiClub bool `koanf:"multi_club"`
}

// WebhookConfig holds the notification endpoints of single-club mode.
type WebhookConfig struct {
	// RecordURL receives one message per new world record.
	RecordURL string `koanf:"record_url" validate:"omitempty,url"`

	// RankingURL receives the campaign ranking summary.
	RankingURL string `koanf:"ranking_url" validate:"omitempty,url"`

	// RankingMessageID, when set, switches the ranking summary from
	// posting new messages to editing this one in place.
	RankingMessageID string `koanf:"ranking_message_id"`
}

// StorageConfig locates the embedded store and the replay archive.
type StorageConfig struct {
	// Path is the BadgerDB directory.
	Path string `koanf:"path" validate:"required"`

	// ReplayDir is the replay archive root. Empty disables archival.
	ReplayDir string `koanf:"replay_dir"`
}

// SyncConfig tunes the polling engine.
type SyncConfig struct {
	// Interval between polling cycles.
	Interval time.Duration `koanf:"interval" validate:"required,min=10s"`

	// LeaderboardLength is how deep the per-track world top is fetched.
	// Ties at the top are collected within this window.
	LeaderboardLength int `koanf:"leaderboard_length" validate:"min=1,max=100"`

	// ActivityLength is how many club activity entries are searched for
	// the watched campaign.
	ActivityLength int `koanf:"activity_length" validate:"min=1,max=100"`

	// RateLimit caps upstream API requests per second.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`
}

// OpsConfig exposes health and metrics endpoints.
type OpsConfig struct {
	// Addr is the ops listener address. Empty disables the listener.
	Addr string `koanf:"addr"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, overridden by file and env.
func defaultConfig() *Config {
	return &Config{
		Ubisoft: UbisoftConfig{
			SessionFile: "/data/session.json",
		},
		Club: ClubConfig{
			Campaign: "latest",
		},
		Storage: StorageConfig{
			Path: "/data/recordwatch",
		},
		Sync: SyncConfig{
			Interval:          time.Minute,
			LeaderboardLength: 5,
			ActivityLength:    10,
			RateLimit:         8,
		},
		Ops: OpsConfig{
			Addr: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks field constraints and cross-field consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !c.Club.MultiClub {
		if c.Club.ID == "" {
			return fmt.Errorf("club.id is required in single-club mode")
		}
		if c.Webhooks.RecordURL == "" {
			return fmt.Errorf("webhooks.record_url is required in single-club mode")
		}
		if c.Webhooks.RankingURL == "" {
			return fmt.Errorf("webhooks.ranking_url is required in single-club mode")
		}
	}
	return nil
}

// ReplayArchivalEnabled reports whether replay binaries should be archived.
func (c *Config) ReplayArchivalEnabled() bool {
	return c.Storage.ReplayDir != ""
}
