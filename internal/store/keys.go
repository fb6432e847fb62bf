// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Key prefixes of the tracker keyspace. Components never contain ':' (uids
// are provider-assigned hex/uuid strings), so the prefixes scan cleanly.
const (
	campaignPrefix     = "campaign:"
	trackPrefix        = "track:"
	recordPrefix       = "record:"
	subscriptionPrefix = "subscription:"
	queuePrefix        = "queue:job:"
)

// CampaignKey addresses a campaign by its season uid.
func CampaignKey(uid string) string {
	return campaignPrefix + uid
}

// TrackKey addresses a track within a campaign.
func TrackKey(campaignUID, uid string) string {
	return trackPrefix + campaignUID + ":" + uid
}

// TracksPrefix scans all tracks of a campaign.
func TracksPrefix(campaignUID string) string {
	return trackPrefix + campaignUID + ":"
}

// RecordKey addresses a record by campaign, track and record uid.
func RecordKey(campaignUID, trackUID, uid string) string {
	return recordPrefix + campaignUID + ":" + trackUID + ":" + uid
}

// RecordsPrefix scans the full record history of one track.
func RecordsPrefix(campaignUID, trackUID string) string {
	return recordPrefix + campaignUID + ":" + trackUID + ":"
}

// CampaignRecordsPrefix scans every record of a campaign across all tracks.
func CampaignRecordsPrefix(campaignUID string) string {
	return recordPrefix + campaignUID + ":"
}

// SubscriptionKey addresses a club's webhook subscription.
func SubscriptionKey(clubID string) string {
	return subscriptionPrefix + clubID
}

// SubscriptionsPrefix scans all webhook subscriptions.
func SubscriptionsPrefix() string {
	return subscriptionPrefix
}

// jobKey builds a time-ordered queue key so the consumer drains jobs in
// roughly enqueue order. The uuid suffix keeps same-nanosecond keys unique.
func jobKey(now time.Time) string {
	return fmt.Sprintf("%s%020d:%s", queuePrefix, now.UnixNano(), uuid.NewString())
}
