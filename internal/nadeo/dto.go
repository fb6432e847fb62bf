// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package nadeo

// Upstream DTOs. Field policy: fields the diff algorithm depends on
// (seasonUid, playlist mapUid, leaderboard accountId/score, record url) are
// validated where they are consumed and abort processing of that unit when
// missing; presentation fields (zoneId, sp, thumbnailUrl) tolerate zero
// values and fall back explicitly.

// MapInfo describes one map as returned by the core /maps query.
type MapInfo struct {
	MapID        string `json:"mapId"`
	MapUID       string `json:"mapUid"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// LeaderboardEntry is one ranked position of a leaderboard top.
type LeaderboardEntry struct {
	AccountID string `json:"accountId"`
	ZoneID    string `json:"zoneId"`
	ZoneName  string `json:"zoneName"`
	Position  int    `json:"position"`
	Score     int    `json:"score"`

	// SP is the campaign ranking score. Absent on per-map leaderboards.
	SP float64 `json:"sp"`
}

// LeaderboardTop is the ranked list for one zone scope.
type LeaderboardTop struct {
	ZoneID   string             `json:"zoneId"`
	ZoneName string             `json:"zoneName"`
	Top      []LeaderboardEntry `json:"top"`
}

// LeaderboardResponse is the live leaderboard query result.
type LeaderboardResponse struct {
	GroupUID string           `json:"groupUid"`
	MapUID   string           `json:"mapUid"`
	Tops     []LeaderboardTop `json:"tops"`
}

// WorldTop returns the world-scope top list, or nil when absent.
func (r *LeaderboardResponse) WorldTop() []LeaderboardEntry {
	if len(r.Tops) == 0 {
		return nil
	}
	return r.Tops[0].Top
}

// MapRecord is the detailed record row from the core mapRecords query.
// URL points at the replay storage object; its basename is the
// provider-assigned record identity used as the dedup key.
type MapRecord struct {
	AccountID string `json:"accountId"`
	MapID     string `json:"mapId"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Filename  string `json:"filename"`
	GameMode  string `json:"gameMode"`
}

// ClubActivity is one entry of a club's activity feed.
type ClubActivity struct {
	CampaignID   int64  `json:"campaignId"`
	Name         string `json:"name"`
	ActivityType string `json:"activityType"`
}

// ActivityTypeCampaign marks campaign activities in the club feed.
const ActivityTypeCampaign = "campaign"

// ClubActivityResponse is the club activity feed.
type ClubActivityResponse struct {
	ActivityList []ClubActivity `json:"activityList"`
}

// PlaylistEntry is one map slot of a campaign playlist.
type PlaylistEntry struct {
	ID       int64  `json:"id"`
	Position int    `json:"position"`
	MapUID   string `json:"mapUid"`
}

// ClubCampaign is the campaign detail inside a club campaign response.
type ClubCampaign struct {
	ID             int64           `json:"id"`
	SeasonUID      string          `json:"seasonUid"`
	Name           string          `json:"name"`
	StartTimestamp int64           `json:"startTimestamp"`
	EndTimestamp   int64           `json:"endTimestamp"`
	Playlist       []PlaylistEntry `json:"playlist"`
}

// ClubCampaignResponse is the club campaign detail query result.
type ClubCampaignResponse struct {
	ClubID   int64        `json:"clubId"`
	Name     string       `json:"name"`
	Campaign ClubCampaign `json:"campaign"`
}
