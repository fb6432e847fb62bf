// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package sync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tmwatch/recordwatch/internal/models"
	"github.com/tmwatch/recordwatch/internal/nadeo"
	"github.com/tmwatch/recordwatch/internal/names"
	"github.com/tmwatch/recordwatch/internal/notify"
)

// rankingContent renders the campaign summary as one markdown message: the
// current world record per track, the WR holder standings, the campaign
// score standings and the country statistics. The content is built
// deterministically so consecutive identical cycles produce byte-identical
// bodies and the publisher can skip the edit.
func rankingContent(campaignName string, records []models.Record, trackNames map[string]string,
	top []nadeo.LeaderboardEntry, res *names.Resolver, holders []HolderStanding, zoneRows []ZoneStanding) string {

	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n", notify.EscapeMarkdown(campaignName))

	if len(records) > 0 {
		b.WriteString("\n**World records**\n")
		for _, rec := range records {
			fmt.Fprintf(&b, "%s | %s by %s\n",
				notify.TrackDisplayName(trackNames[rec.TrackUID]),
				notify.FormatScore(rec.Score),
				notify.EscapeMarkdown(rec.User.Name))
		}
	}

	if len(holders) > 0 {
		b.WriteString("\n**WR rankings**\n")
		for i, hs := range holders {
			name := hs.Name
			if name == "" {
				name = hs.AccountID
			}
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, notify.EscapeMarkdown(name), hs.Count)
		}
	}

	if len(top) > 0 {
		b.WriteString("\n**Campaign ranking**\n")
		for i, entry := range top {
			name := res.Cached(entry.AccountID)
			if name == "" {
				name = entry.AccountID
			}
			fmt.Fprintf(&b, "%d. %s (%s)\n",
				i+1, notify.EscapeMarkdown(name),
				strconv.FormatFloat(entry.SP, 'f', -1, 64))
		}
	}

	if len(zoneRows) > 0 {
		b.WriteString("\n**By country**\n")
		for i, zs := range zoneRows {
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, notify.EscapeMarkdown(zs.Zone.Name), zs.Count)
		}
	}

	return b.String()
}
