// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package sync implements the record-synchronization engine: one polling
// cycle per scheduler tick that ensures credentials, rebuilds the
// cycle-scoped zone and name caches, resolves each watched club's campaign,
// diffs every track's world leaderboard against stored history, and
// publishes the campaign ranking summary.
//
// Clubs and tracks are processed sequentially: the upstream enforces
// per-account rate limits, so parallelism buys nothing and the sequential
// shape keeps failure isolation trivial. One club or track failing is logged
// and skipped; its siblings proceed.
package sync
