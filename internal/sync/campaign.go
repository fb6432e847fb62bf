// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package sync

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/tmwatch/recordwatch/internal/models"
	"github.com/tmwatch/recordwatch/internal/nadeo"
	"github.com/tmwatch/recordwatch/internal/store"
)

// resolveCampaign finds the subscription's campaign in the club activity
// feed, fetches its detail, and upserts the Campaign and its Tracks. Both
// are immutable reference data created lazily: losing a creation race to a
// concurrent cycle is not an error, the re-read observes the winner.
func (s *Synchronizer) resolveCampaign(ctx context.Context, sub models.Subscription) (*models.Campaign, []models.Track, error) {
	activity, err := s.api.ClubActivity(ctx, sub.ClubID, 0, s.cfg.ActivityLength)
	if err != nil {
		return nil, nil, fmt.Errorf("club activity: %w", err)
	}

	act, err := matchCampaign(activity.ActivityList, sub.CampaignName)
	if err != nil {
		return nil, nil, err
	}

	detail, err := s.api.ClubCampaign(ctx, sub.ClubID, act.CampaignID)
	if err != nil {
		return nil, nil, fmt.Errorf("club campaign %d: %w", act.CampaignID, err)
	}
	cc := detail.Campaign
	if cc.SeasonUID == "" {
		return nil, nil, fmt.Errorf("campaign %d has no season uid", act.CampaignID)
	}

	campaign, err := s.upsertCampaign(&cc)
	if err != nil {
		return nil, nil, err
	}

	tracks, err := s.upsertTracks(ctx, campaign.UID, cc.Playlist)
	if err != nil {
		return nil, nil, err
	}
	return campaign, tracks, nil
}

// matchCampaign selects the campaign activity matching pattern: the literal
// "latest" takes the feed's newest campaign, a "/.../"-delimited pattern
// matches names by regular expression, anything else matches exactly.
func matchCampaign(activities []nadeo.ClubActivity, pattern string) (*nadeo.ClubActivity, error) {
	match := func(name string) bool { return name == pattern }

	switch {
	case pattern == "latest":
		match = func(string) bool { return true }
	case len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/"):
		re, err := regexp.Compile(pattern[1 : len(pattern)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid campaign pattern %q: %w", pattern, err)
		}
		match = re.MatchString
	}

	for i := range activities {
		act := &activities[i]
		if act.ActivityType == nadeo.ActivityTypeCampaign && match(act.Name) {
			return act, nil
		}
	}
	return nil, fmt.Errorf("no campaign matching %q in club activity", pattern)
}

// upsertCampaign creates the campaign row if this is the first cycle to
// observe it, then reads back whatever is stored.
func (s *Synchronizer) upsertCampaign(cc *nadeo.ClubCampaign) (*models.Campaign, error) {
	key := store.CampaignKey(cc.SeasonUID)

	var campaign models.Campaign
	err := s.store.Get(key, &campaign)
	if errors.Is(err, store.ErrNotFound) {
		_, err = s.store.CreateIfAbsent(key, models.Campaign{
			UID:  cc.SeasonUID,
			Name: cc.Name,
			Event: models.CampaignEvent{
				StartsAt: cc.StartTimestamp,
				EndsAt:   cc.EndTimestamp,
			},
		})
		if err == nil {
			err = s.store.Get(key, &campaign)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("upsert campaign %s: %w", cc.SeasonUID, err)
	}
	return &campaign, nil
}

// upsertTracks creates the campaign's track rows for playlist maps not seen
// before and returns the full playlist in position order. Map metadata is
// fetched only for the missing ones.
func (s *Synchronizer) upsertTracks(ctx context.Context, campaignUID string, playlist []nadeo.PlaylistEntry) ([]models.Track, error) {
	var missing []string
	for _, entry := range playlist {
		var track models.Track
		err := s.store.Get(store.TrackKey(campaignUID, entry.MapUID), &track)
		if errors.Is(err, store.ErrNotFound) {
			missing = append(missing, entry.MapUID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get track %s: %w", entry.MapUID, err)
		}
	}

	if len(missing) > 0 {
		infos, err := s.api.Maps(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("map metadata: %w", err)
		}
		byUID := make(map[string]nadeo.MapInfo, len(infos))
		for _, info := range infos {
			byUID[info.MapUID] = info
		}

		for _, uid := range missing {
			info, ok := byUID[uid]
			if !ok {
				return nil, fmt.Errorf("map %s missing from metadata response", uid)
			}
			_, err := s.store.CreateIfAbsent(store.TrackKey(campaignUID, uid), models.Track{
				CampaignUID: campaignUID,
				UID:         uid,
				ID:          info.MapID,
				Name:        info.Name,
				Thumbnail:   thumbnailID(info.ThumbnailURL),
			})
			if err != nil {
				return nil, fmt.Errorf("create track %s: %w", uid, err)
			}
		}
	}

	tracks := make([]models.Track, 0, len(playlist))
	for _, entry := range playlist {
		var track models.Track
		if err := s.store.Get(store.TrackKey(campaignUID, entry.MapUID), &track); err != nil {
			return nil, fmt.Errorf("read back track %s: %w", entry.MapUID, err)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// thumbnailID extracts the bare storage-object id of a thumbnail URL: its
// basename with the extension stripped.
func thumbnailID(url string) string {
	if url == "" {
		return ""
	}
	base := path.Base(url)
	return strings.TrimSuffix(base, path.Ext(base))
}
