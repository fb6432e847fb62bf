// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/recordwatch/config.yaml",
	"/etc/recordwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to config paths.
// Unmapped variables return "" and are skipped, so unrelated environment
// noise never leaks into the configuration.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"ubi_email":        "ubisoft.email",
		"ubi_pw":           "ubisoft.password",
		"ubi_session_file": "ubisoft.session_file",

		"trackmania_client_id":     "oauth.client_id",
		"trackmania_client_secret": "oauth.client_secret",

		"club_id":            "club.id",
		"club_campaign_name": "club.campaign",
		"multi_club":         "club.multi_club",

		"webhook_url":         "webhooks.record_url",
		"ranking_webhook_url": "webhooks.ranking_url",
		"ranking_message_id":  "webhooks.ranking_message_id",

		"storage_path": "storage.path",
		"replay_dir":   "storage.replay_dir",

		"sync_interval":           "sync.interval",
		"sync_leaderboard_length": "sync.leaderboard_length",
		"sync_activity_length":    "sync.activity_length",
		"sync_rate_limit":         "sync.rate_limit",

		"ops_addr": "ops.addr",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
