// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package sync

import (
	"context"
	"fmt"
	"math"
	"path"

	"github.com/tmwatch/recordwatch/internal/logging"
	"github.com/tmwatch/recordwatch/internal/models"
	"github.com/tmwatch/recordwatch/internal/names"
	"github.com/tmwatch/recordwatch/internal/store"
	"github.com/tmwatch/recordwatch/internal/zones"
)

// Differ detects new world records on a single track by comparing the live
// world leaderboard against the stored record history.
type Differ struct {
	api    API
	store  *store.Store
	length int
}

// NewDiffer creates a Differ fetching leaderboard tops of the given length.
func NewDiffer(api API, st *store.Store, leaderboardLength int) *Differ {
	return &Differ{api: api, store: st, length: leaderboardLength}
}

// TrackDiff is the outcome of diffing one track.
type TrackDiff struct {
	// Holders are the stored records at the track's current best score.
	// Several players can hold the record simultaneously.
	Holders []models.Record

	// History is the full stored record history of the track after the diff.
	History []models.Record

	// Updates counts the records inserted by this diff.
	Updates int
}

// Diff fetches the track's world top, collects every entry tied at the best
// score, and atomically inserts each one not seen before together with its
// notification job. The conditional insert failing because the record uid
// already exists is the expected steady state, not an error.
func (d *Differ) Diff(ctx context.Context, campaign *models.Campaign, track *models.Track,
	ix *zones.Index, res *names.Resolver, webhookURL string) (*TrackDiff, error) {

	lb, err := d.api.Leaderboard(ctx, campaign.UID, track.UID, 0, d.length)
	if err != nil {
		return nil, fmt.Errorf("leaderboard %s: %w", track.UID, err)
	}

	history, err := store.List[models.Record](d.store, store.RecordsPrefix(campaign.UID, track.UID))
	if err != nil {
		return nil, fmt.Errorf("load record history %s: %w", track.UID, err)
	}

	top := lb.WorldTop()
	if len(top) == 0 {
		// Nobody has finished the track yet.
		return &TrackDiff{History: history}, nil
	}

	best := top[0].Score
	tied := make(map[string]models.Zone, 1)
	for _, entry := range top {
		if entry.Score != best {
			continue
		}
		zone := models.Zone{ZoneID: entry.ZoneID, Name: entry.ZoneName}
		tied[entry.AccountID] = zone
	}

	// latestBest uses +inf as the no-history sentinel so the first record of
	// a track gets delta 0 below.
	latestBest := math.MaxInt
	known := make(map[string]bool, len(history))
	for _, rec := range history {
		known[rec.UID] = true
		if rec.Score < latestBest {
			latestBest = rec.Score
		}
	}

	updates, err := d.insertNew(ctx, campaign, track, ix, res, webhookURL, tied, known, best, latestBest)
	if err != nil {
		return nil, err
	}

	if updates > 0 {
		history, err = store.List[models.Record](d.store, store.RecordsPrefix(campaign.UID, track.UID))
		if err != nil {
			return nil, fmt.Errorf("reload record history %s: %w", track.UID, err)
		}
	}

	return &TrackDiff{
		Holders: recordsAtBest(history),
		History: history,
		Updates: updates,
	}, nil
}

// insertNew resolves the detailed map records of the tied accounts and
// inserts the ones not stored yet, enqueueing their notification jobs in the
// same transaction.
func (d *Differ) insertNew(ctx context.Context, campaign *models.Campaign, track *models.Track,
	ix *zones.Index, res *names.Resolver, webhookURL string,
	tied map[string]models.Zone, known map[string]bool, best, latestBest int) (int, error) {

	accountIDs := make([]string, 0, len(tied))
	for id := range tied {
		accountIDs = append(accountIDs, id)
	}

	mapRecords, err := d.api.MapRecords(ctx, accountIDs, []string{track.ID})
	if err != nil {
		return 0, fmt.Errorf("map records %s: %w", track.UID, err)
	}

	updates := 0
	for _, mr := range mapRecords {
		if mr.URL == "" {
			logging.Warn().
				Str("track", track.UID).
				Str("account", mr.AccountID).
				Msg("Map record without storage url, skipping")
			continue
		}

		// The url basename is the provider-assigned record identity: the
		// dedup key and the replay download handle.
		uid := path.Base(mr.URL)
		if known[uid] {
			continue
		}

		name, err := res.Get(ctx, mr.AccountID)
		if err != nil {
			return updates, fmt.Errorf("resolve holder name: %w", err)
		}

		delta := 0
		if latestBest != math.MaxInt {
			delta = best - latestBest
			if delta < 0 {
				delta = -delta
			}
		}

		rec := models.Record{
			UID:         uid,
			CampaignUID: campaign.UID,
			TrackUID:    track.UID,
			User: models.RecordUser{
				ID:   mr.AccountID,
				Name: name,
				Zone: ix.Path(tied[mr.AccountID].ZoneID),
			},
			Date:  mr.Timestamp,
			Score: best,
			Delta: delta,
		}
		job := models.Job{
			Kind:       models.JobKindRecord,
			Record:     &rec,
			Track:      track,
			WebhookURL: webhookURL,
		}

		inserted, err := d.store.InsertRecord(&rec, &job)
		if err != nil {
			return updates, fmt.Errorf("insert record %s: %w", uid, err)
		}
		if inserted {
			updates++
			logging.Info().
				Str("track", track.Name).
				Str("player", name).
				Int("score", best).
				Int("delta", delta).
				Msg("New world record detected")
		}
	}
	return updates, nil
}

// recordsAtBest returns the stored records holding the track's best score.
func recordsAtBest(history []models.Record) []models.Record {
	if len(history) == 0 {
		return nil
	}
	best := math.MaxInt
	for _, rec := range history {
		if rec.Score < best {
			best = rec.Score
		}
	}
	var holders []models.Record
	for _, rec := range history {
		if rec.Score == best {
			holders = append(holders, rec)
		}
	}
	return holders
}
