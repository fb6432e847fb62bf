// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/tmwatch/recordwatch/internal/logging"
	"github.com/tmwatch/recordwatch/internal/metrics"
	"github.com/tmwatch/recordwatch/internal/models"
	"github.com/tmwatch/recordwatch/internal/nadeo"
	"github.com/tmwatch/recordwatch/internal/names"
	"github.com/tmwatch/recordwatch/internal/notify"
	"github.com/tmwatch/recordwatch/internal/store"
	"github.com/tmwatch/recordwatch/internal/zones"
)

// API is the slice of the upstream game services the engine consumes.
// Implemented by nadeo.Client.
type API interface {
	Zones(ctx context.Context) ([]models.Zone, error)
	ClubActivity(ctx context.Context, clubID string, offset, length int) (*nadeo.ClubActivityResponse, error)
	ClubCampaign(ctx context.Context, clubID string, campaignID int64) (*nadeo.ClubCampaignResponse, error)
	Maps(ctx context.Context, ids []string) ([]nadeo.MapInfo, error)
	Leaderboard(ctx context.Context, groupUID, mapUID string, offset, length int) (*nadeo.LeaderboardResponse, error)
	MapRecords(ctx context.Context, accountIDs, mapIDs []string) ([]nadeo.MapRecord, error)
}

// Sessions ensures valid upstream credentials before a cycle touches the
// API. Implemented by session.Manager.
type Sessions interface {
	Login(ctx context.Context) (fresh bool, err error)
}

// RankingSender delivers ranking summary messages. Implemented by
// notify.Client.
type RankingSender interface {
	Post(ctx context.Context, webhookURL string, msg *notify.Message) (string, error)
	Edit(ctx context.Context, webhookURL, messageID string, msg *notify.Message) error
}

// Config selects what the Synchronizer watches.
type Config struct {
	// ClubID, Campaign and the webhook fields describe the single watched
	// club. Ignored in multi-club mode.
	ClubID            string
	Campaign          string
	RecordWebhookURL  string
	RankingWebhookURL string
	RankingMessageID  string

	// MultiClub reads subscriptions from the store instead.
	MultiClub bool

	// LeaderboardLength is the world-top window fetched per track and the
	// depth of the campaign ranking.
	LeaderboardLength int

	// ActivityLength is how deep the club activity feed is searched.
	ActivityLength int
}

// rankingState tracks the last ranking message sent per club so unchanged
// summaries skip the network and repeated sends edit in place.
type rankingState struct {
	messageID string
	lastBody  string
	seeded    bool
}

// Synchronizer runs the polling cycles. All fields are set at construction;
// Cycle is driven from a single supervised goroutine.
type Synchronizer struct {
	cfg      Config
	sessions Sessions
	api      API
	identity names.IdentityClient
	store    *store.Store
	sender   RankingSender
	differ   *Differ

	ranking map[string]*rankingState
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(cfg Config, sessions Sessions, api API, identity names.IdentityClient,
	st *store.Store, sender RankingSender) *Synchronizer {
	return &Synchronizer{
		cfg:      cfg,
		sessions: sessions,
		api:      api,
		identity: identity,
		store:    st,
		sender:   sender,
		differ:   NewDiffer(api, st, cfg.LeaderboardLength),
		ranking:  map[string]*rankingState{},
	}
}

// Cycle runs one full polling pass. Authentication or zone-table failures
// abort the cycle (retried on the next tick); a single club failing is
// logged and skipped while its siblings proceed.
func (s *Synchronizer) Cycle(ctx context.Context) error {
	if err := s.cycle(ctx); err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.CyclesTotal.WithLabelValues("ok").Inc()
	return nil
}

func (s *Synchronizer) cycle(ctx context.Context) error {
	if _, err := s.sessions.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	zoneTable, err := s.api.Zones(ctx)
	if err != nil {
		return fmt.Errorf("fetch zones: %w", err)
	}
	ix := zones.NewIndex(zoneTable)
	res := names.NewResolver(s.identity)

	subs, err := s.subscriptions()
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.syncClub(ctx, sub, ix, res); err != nil {
			metrics.ClubSyncFailures.Inc()
			logging.Warn().Err(err).
				Str("club", sub.ClubID).
				Str("campaign", sub.CampaignName).
				Msg("Club sync failed, skipping")
		}
	}
	return nil
}

// subscriptions returns the clubs to sync this cycle: the single configured
// club, or every stored subscription in multi-club mode, sorted by campaign
// name for a stable processing order.
func (s *Synchronizer) subscriptions() ([]models.Subscription, error) {
	if !s.cfg.MultiClub {
		return []models.Subscription{{
			ClubID:            s.cfg.ClubID,
			CampaignName:      s.cfg.Campaign,
			WebhookURL:        s.cfg.RecordWebhookURL,
			RankingWebhookURL: s.cfg.RankingWebhookURL,
			RankingMessageID:  s.cfg.RankingMessageID,
		}}, nil
	}

	subs, err := store.List[models.Subscription](s.store, store.SubscriptionsPrefix())
	if err != nil {
		return nil, err
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].CampaignName != subs[j].CampaignName {
			return subs[i].CampaignName < subs[j].CampaignName
		}
		return subs[i].ClubID < subs[j].ClubID
	})
	return subs, nil
}

// syncClub processes one subscription: resolve the campaign, upsert the
// reference data, diff every track, then publish the ranking summary.
func (s *Synchronizer) syncClub(ctx context.Context, sub models.Subscription,
	ix *zones.Index, res *names.Resolver) error {

	campaign, tracks, err := s.resolveCampaign(ctx, sub)
	if err != nil {
		return err
	}

	var holders []models.Record
	updates := 0
	for _, track := range tracks {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		diff, err := s.differ.Diff(ctx, campaign, &track, ix, res, sub.WebhookURL)
		if err != nil {
			metrics.TrackDiffFailures.Inc()
			logging.Warn().Err(err).
				Str("track", track.UID).
				Msg("Track diff failed, skipping")
			continue
		}
		holders = append(holders, diff.Holders...)
		updates += diff.Updates
	}
	if updates > 0 {
		metrics.RecordsDetected.Add(float64(updates))
	}

	logging.Debug().
		Str("campaign", campaign.Name).
		Int("tracks", len(tracks)).
		Int("updates", updates).
		Msg("Campaign synchronized")

	return s.publishRanking(ctx, sub, campaign, tracks, res, holders)
}

// publishRanking builds and delivers the campaign ranking summary: edit the
// cached message when one exists, post otherwise, and skip the network
// entirely when the body is unchanged since the last delivery.
func (s *Synchronizer) publishRanking(ctx context.Context, sub models.Subscription,
	campaign *models.Campaign, tracks []models.Track, res *names.Resolver, holders []models.Record) error {

	if sub.RankingWebhookURL == "" {
		return nil
	}

	lb, err := s.api.Leaderboard(ctx, campaign.UID, "", 0, s.cfg.LeaderboardLength)
	if err != nil {
		return fmt.Errorf("campaign ranking: %w", err)
	}
	top := lb.WorldTop()

	ids := make([]string, 0, len(top))
	for _, entry := range top {
		ids = append(ids, entry.AccountID)
	}
	if err := res.ResolveAll(ctx, ids); err != nil {
		return fmt.Errorf("resolve ranking names: %w", err)
	}

	trackNames := make(map[string]string, len(tracks))
	for _, track := range tracks {
		trackNames[track.UID] = track.Name
	}

	holderRows, zoneRows := BuildStats(holders)
	content := rankingContent(campaign.Name, holders, trackNames, top, res, holderRows, zoneRows)

	state := s.ranking[sub.ClubID]
	if state == nil {
		state = &rankingState{}
		s.ranking[sub.ClubID] = state
	}
	if !state.seeded {
		state.messageID = sub.RankingMessageID
		state.lastBody = sub.RankingMessageCache
		state.seeded = true
	}

	if content == state.lastBody {
		metrics.RankingMessages.WithLabelValues("skip").Inc()
		logging.Debug().Str("club", sub.ClubID).Msg("Ranking unchanged, skipping delivery")
		return nil
	}

	msg := &notify.Message{Content: content}
	if state.messageID != "" {
		if err := s.sender.Edit(ctx, sub.RankingWebhookURL, state.messageID, msg); err != nil {
			return fmt.Errorf("edit ranking message: %w", err)
		}
		metrics.RankingMessages.WithLabelValues("edit").Inc()
	} else {
		id, err := s.sender.Post(ctx, sub.RankingWebhookURL, msg)
		if err != nil {
			return fmt.Errorf("post ranking message: %w", err)
		}
		state.messageID = id
		metrics.RankingMessages.WithLabelValues("post").Inc()
	}
	state.lastBody = content

	if s.cfg.MultiClub {
		sub.RankingMessageID = state.messageID
		sub.RankingMessageCache = state.lastBody
		if err := s.store.Set(store.SubscriptionKey(sub.ClubID), sub); err != nil {
			// The message went out; losing the cache only costs one
			// redundant edit after a restart.
			logging.Warn().Err(err).Str("club", sub.ClubID).Msg("Failed to persist ranking state")
		}
	}
	return nil
}
