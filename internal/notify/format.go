// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package notify

import (
	"fmt"
	"strings"

	"github.com/tmwatch/recordwatch/internal/models"
)

// embedColorRecord is the accent color of record embeds (Trackmania green).
const embedColorRecord = 0x00cc88

// Message is an outgoing webhook payload.
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed is one rich-content block of a webhook message.
type Embed struct {
	Title       string          `json:"title,omitempty"`
	URL         string          `json:"url,omitempty"`
	Description string          `json:"description,omitempty"`
	Color       int             `json:"color,omitempty"`
	Thumbnail   *EmbedThumbnail `json:"thumbnail,omitempty"`
}

// EmbedThumbnail is the embed's thumbnail image.
type EmbedThumbnail struct {
	URL string `json:"url"`
}

// FormatScore renders a millisecond race time as m:ss.mmm.
func FormatScore(ms int) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms%60000/1000, ms%1000)
}

// FormatDelta renders a millisecond improvement as seconds with millisecond
// precision, e.g. "0.683".
func FormatDelta(ms int) string {
	if ms < 0 {
		ms = -ms
	}
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	"`", "\\`",
	`|`, `\|`,
	`>`, `\>`,
)

// EscapeMarkdown neutralizes markdown control characters in player-supplied
// text so display names render literally.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// TrackDisplayName returns the presentation name of a track: map names in
// club campaigns conventionally carry a "<campaign> - <track>" prefix which
// is dropped when present.
func TrackDisplayName(name string) string {
	if _, after, ok := strings.Cut(name, " - "); ok && after != "" {
		return after
	}
	return name
}

// leaderboardURL links the track's public leaderboard page.
func leaderboardURL(trackUID string) string {
	return "https://trackmania.io/#/leaderboard/" + trackUID
}

// thumbnailURL reconstructs the map thumbnail location from its stored
// storage-object id.
func thumbnailURL(thumbnail string) string {
	return "https://prod.trackmania.core.nadeo.online/storageObjects/" + thumbnail + ".jpg"
}

// RecordMessage builds the webhook payload announcing one new world record.
func RecordMessage(rec *models.Record, track *models.Track) *Message {
	var desc strings.Builder

	fmt.Fprintf(&desc, "**%s** set a new world record: **%s**",
		EscapeMarkdown(rec.User.Name), FormatScore(rec.Score))
	if rec.Delta > 0 {
		fmt.Fprintf(&desc, " (-%s)", FormatDelta(rec.Delta))
	}
	if country := countryName(rec.User.Zone); country != "" {
		fmt.Fprintf(&desc, "\nZone: %s", country)
	}

	embed := Embed{
		Title:       TrackDisplayName(track.Name),
		URL:         leaderboardURL(track.UID),
		Description: desc.String(),
		Color:       embedColorRecord,
	}
	if track.Thumbnail != "" {
		embed.Thumbnail = &EmbedThumbnail{URL: thumbnailURL(track.Thumbnail)}
	}
	return &Message{Embeds: []Embed{embed}}
}

// countryName extracts the country-level zone name of a root-first zone
// path, falling back to the root zone when the path is shallower.
func countryName(path []models.Zone) string {
	if len(path) > models.ZoneLevelCountry {
		return path[models.ZoneLevelCountry].Name
	}
	if len(path) > 0 {
		return path[0].Name
	}
	return ""
}
