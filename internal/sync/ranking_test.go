// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/tmwatch/recordwatch/internal/models"
	"github.com/tmwatch/recordwatch/internal/nadeo"
	"github.com/tmwatch/recordwatch/internal/names"
)

func TestRankingContent(t *testing.T) {
	records := []models.Record{
		{
			TrackUID: "track-1",
			Score:    112317,
			User:     models.RecordUser{ID: "acc-1", Name: "Player One"},
			Date:     "2026-02-01T10:00:00Z",
		},
		{
			TrackUID: "track-2",
			Score:    48950,
			User:     models.RecordUser{ID: "acc-2", Name: "Player_Two"},
			Date:     "2026-02-02T10:00:00Z",
		},
	}
	trackNames := map[string]string{
		"track-1": "Winter 2026 - 01",
		"track-2": "Winter 2026 - 02",
	}
	top := []nadeo.LeaderboardEntry{
		{AccountID: "acc-1", SP: 350},
		{AccountID: "acc-2", SP: 275.5},
	}

	res := names.NewResolver(staticIdentity{"acc-1": "Player One", "acc-2": "Player_Two"})
	if err := res.ResolveAll(context.Background(), []string{"acc-1", "acc-2"}); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}

	holderRows, zoneRows := BuildStats(records)
	content := rankingContent("Winter 2026", records, trackNames, top, res, holderRows, zoneRows)

	t.Run("opens with the per-track record list", func(t *testing.T) {
		wrIdx := strings.Index(content, "**World records**")
		rankIdx := strings.Index(content, "**Campaign ranking**")
		if wrIdx < 0 || rankIdx < 0 || wrIdx > rankIdx {
			t.Fatalf("content = %q, want world records before campaign ranking", content)
		}
		if !strings.Contains(content, "01 | 1:52.317 by Player One") {
			t.Errorf("content = %q, missing the track-1 record line", content)
		}
		if !strings.Contains(content, "02 | 0:48.950 by Player\\_Two") {
			t.Errorf("content = %q, missing the escaped track-2 record line", content)
		}
	})

	t.Run("ranks holders and points in parentheses", func(t *testing.T) {
		if !strings.Contains(content, "**WR rankings**") {
			t.Fatalf("content = %q, missing the holder section", content)
		}
		if !strings.Contains(content, "1. Player One (350)") {
			t.Errorf("content = %q, missing the points line", content)
		}
		if !strings.Contains(content, "2. Player\\_Two (275.5)") {
			t.Errorf("content = %q, want trailing zeroes trimmed from points", content)
		}
	})

	t.Run("stays plain ascii", func(t *testing.T) {
		for _, r := range content {
			if r > 127 {
				t.Fatalf("content contains non-ascii rune %q", r)
			}
		}
	})

	t.Run("empty cycle renders only the heading", func(t *testing.T) {
		got := rankingContent("Winter 2026", nil, nil, nil, res, nil, nil)
		if got != "## Winter 2026\n" {
			t.Fatalf("content = %q", got)
		}
	})
}
