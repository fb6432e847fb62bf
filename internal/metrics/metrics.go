// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package metrics registers the tracker's Prometheus instrumentation.
// Served by the ops listener alongside /healthz.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts completed polling cycles, by outcome.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordwatch_cycles_total",
			Help: "Total number of polling cycles, by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	// ClubSyncFailures counts clubs skipped within a cycle.
	ClubSyncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recordwatch_club_sync_failures_total",
			Help: "Total number of club synchronizations skipped due to errors",
		},
	)

	// TrackDiffFailures counts tracks skipped within a club sync.
	TrackDiffFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recordwatch_track_diff_failures_total",
			Help: "Total number of track diffs skipped due to errors",
		},
	)

	// RecordsDetected counts newly inserted world records.
	RecordsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recordwatch_records_detected_total",
			Help: "Total number of new world records detected and stored",
		},
	)

	// RankingMessages counts ranking summary deliveries, by action.
	RankingMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordwatch_ranking_messages_total",
			Help: "Total number of ranking summary deliveries, by action",
		},
		[]string{"action"}, // "post", "edit", "skip"
	)

	// JobsHandled counts notification queue jobs, by outcome.
	JobsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordwatch_queue_jobs_total",
			Help: "Total number of notification queue jobs handled, by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	// WebhookFailures counts failed webhook deliveries.
	WebhookFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recordwatch_webhook_failures_total",
			Help: "Total number of failed webhook deliveries",
		},
	)

	// ReplayArchiveFailures counts failed replay archivals.
	ReplayArchiveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recordwatch_replay_archive_failures_total",
			Help: "Total number of failed replay archivals",
		},
	)

	// QueueDepth reports pending notification jobs at the last sweep.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recordwatch_queue_depth",
			Help: "Pending notification jobs observed at the last queue sweep",
		},
	)
)
