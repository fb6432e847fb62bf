// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package models defines the persisted data model shared by the store,
// the synchronizer and the notification dispatcher.
package models

// Campaign is a club campaign, keyed by the provider-assigned season uid.
// Campaigns are immutable once created; they are created lazily the first
// time a polling cycle observes them.
type Campaign struct {
	UID   string        `json:"uid"`
	Name  string        `json:"name"`
	Event CampaignEvent `json:"event"`
}

// CampaignEvent is the campaign's time window, in unix seconds.
type CampaignEvent struct {
	StartsAt int64 `json:"startsAt"`
	EndsAt   int64 `json:"endsAt"`
}

// Track is one map of a campaign playlist. Immutable once created.
// Thumbnail holds the bare storage-object id of the map thumbnail
// (the basename of the thumbnail URL with the extension stripped).
type Track struct {
	CampaignUID string `json:"campaign_uid"`
	UID         string `json:"uid"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Thumbnail   string `json:"thumbnail"`
}

// RecordUser identifies the holder of a record together with the resolved
// display name and the root-first geographic zone path at detection time.
type RecordUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Zone []Zone `json:"zone"`
}

// Record is one detected world record. Records are append-only: a given UID
// (the provider-assigned record identity) is written at most once. Delta is
// the absolute difference between Score and the best score stored for the
// track before this insertion, 0 when no prior history existed.
type Record struct {
	UID         string     `json:"uid"`
	CampaignUID string     `json:"campaign_uid"`
	TrackUID    string     `json:"track_uid"`
	User        RecordUser `json:"user"`
	Date        string     `json:"date"`
	Score       int        `json:"score"`
	Delta       int        `json:"delta"`
}

// Zone is one node of the flat geographic hierarchy
// (world -> continent -> country -> region). Roots have an empty ParentID.
type Zone struct {
	ZoneID   string `json:"zoneId"`
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name"`
}

// Zone path depth conventions of the provider hierarchy.
const (
	ZoneLevelWorld     = 0
	ZoneLevelContinent = 1
	ZoneLevelCountry   = 2
	ZoneLevelRegion    = 3
)

// Subscription binds a club to the webhook endpoints that should receive its
// campaign updates. Rows are owned by the operator-facing command surface and
// consumed read-only here. RankingMessageID and RankingMessageCache hold the
// last sent ranking message so edits can be deduplicated.
type Subscription struct {
	ClubID              string `json:"club_id"`
	CampaignName        string `json:"name"`
	WebhookURL          string `json:"webhook_url"`
	RankingWebhookURL   string `json:"ranking_webhook_url"`
	RankingMessageID    string `json:"ranking_message_id,omitempty"`
	RankingMessageCache string `json:"ranking_message_cache,omitempty"`
}

// JobKind discriminates queued job payloads.
type JobKind string

// JobKindRecord is a "new world record" notification job.
const JobKindRecord JobKind = "wr"

// Job is the durable queue payload produced by the differ and consumed by
// the notification dispatcher. Kind selects the variant; the dispatcher
// switches on it exhaustively and logs unknown kinds.
type Job struct {
	Kind JobKind `json:"kind"`

	Record *Record `json:"record,omitempty"`
	Track  *Track  `json:"track,omitempty"`

	// WebhookURL routes the notification to the subscription that produced
	// the job. Empty means the globally configured record webhook.
	WebhookURL string `json:"webhook_url,omitempty"`
}
