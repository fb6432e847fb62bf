// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Command recordwatch runs the world-record tracker: the polling
// synchronizer, the notification dispatcher and the ops listener under one
// supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmwatch/recordwatch/internal/config"
	"github.com/tmwatch/recordwatch/internal/logging"
	"github.com/tmwatch/recordwatch/internal/nadeo"
	"github.com/tmwatch/recordwatch/internal/notify"
	"github.com/tmwatch/recordwatch/internal/ops"
	"github.com/tmwatch/recordwatch/internal/session"
	"github.com/tmwatch/recordwatch/internal/store"
	"github.com/tmwatch/recordwatch/internal/supervisor"
	"github.com/tmwatch/recordwatch/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "recordwatch: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Recordwatch exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Store close failed")
		}
	}()

	// The auth client performs the token exchanges and needs no token
	// source of its own; the data client draws tokens from the session
	// manager built on top of it.
	platform := nadeo.NewUbisoftClient(cfg.Ubisoft.Email, cfg.Ubisoft.Password)
	auth := nadeo.NewClient(nil)
	sessions := session.NewManager(platform, auth, cfg.Ubisoft.SessionFile)

	burst := int(cfg.Sync.RateLimit)
	if burst < 1 {
		burst = 1
	}
	api := nadeo.NewClient(sessions, nadeo.WithRateLimit(cfg.Sync.RateLimit, burst))

	identity := nadeo.NewOAuthClient(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret)
	webhooks := notify.NewClient()

	synchronizer := sync.NewSynchronizer(sync.Config{
		ClubID:            cfg.Club.ID,
		Campaign:          cfg.Club.Campaign,
		RecordWebhookURL:  cfg.Webhooks.RecordURL,
		RankingWebhookURL: cfg.Webhooks.RankingURL,
		RankingMessageID:  cfg.Webhooks.RankingMessageID,
		MultiClub:         cfg.Club.MultiClub,
		LeaderboardLength: cfg.Sync.LeaderboardLength,
		ActivityLength:    cfg.Sync.ActivityLength,
	}, sessions, api, identity, st, webhooks)

	var archive *notify.Archive
	if cfg.ReplayArchivalEnabled() {
		archive = notify.NewArchive(cfg.Storage.ReplayDir, api)
		logging.Info().Str("dir", cfg.Storage.ReplayDir).Msg("Replay archival enabled")
	}
	dispatcher := notify.NewDispatcher(st, webhooks, archive, cfg.Webhooks.RecordURL)

	tree := supervisor.NewTree(
		slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		supervisor.DefaultTreeConfig(),
	)
	tree.Add(supervisor.NewPollService(synchronizer, cfg.Sync.Interval))
	tree.Add(dispatcher)
	if cfg.Ops.Addr != "" {
		tree.Add(ops.NewServer(cfg.Ops.Addr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("club", cfg.Club.ID).
		Str("campaign", cfg.Club.Campaign).
		Bool("multi_club", cfg.Club.MultiClub).
		Dur("interval", cfg.Sync.Interval).
		Msg("Recordwatch starting")

	return tree.Serve(ctx)
}
