// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/tmwatch/recordwatch/internal/models"
	"github.com/tmwatch/recordwatch/internal/nadeo"
	"github.com/tmwatch/recordwatch/internal/names"
	"github.com/tmwatch/recordwatch/internal/store"
	"github.com/tmwatch/recordwatch/internal/zones"
)

// fakeAPI serves canned leaderboard and map-record data.
type fakeAPI struct {
	top        []nadeo.LeaderboardEntry
	mapRecords []nadeo.MapRecord

	mapRecordCalls int
}

func (f *fakeAPI) Zones(context.Context) ([]models.Zone, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeAPI) ClubActivity(context.Context, string, int, int) (*nadeo.ClubActivityResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeAPI) ClubCampaign(context.Context, string, int64) (*nadeo.ClubCampaignResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeAPI) Maps(context.Context, []string) ([]nadeo.MapInfo, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeAPI) Leaderboard(_ context.Context, _, _ string, _, _ int) (*nadeo.LeaderboardResponse, error) {
	return &nadeo.LeaderboardResponse{
		Tops: []nadeo.LeaderboardTop{{ZoneName: "World", Top: f.top}},
	}, nil
}

func (f *fakeAPI) MapRecords(_ context.Context, accountIDs, _ []string) ([]nadeo.MapRecord, error) {
	f.mapRecordCalls++
	var out []nadeo.MapRecord
	for _, mr := range f.mapRecords {
		for _, id := range accountIDs {
			if mr.AccountID == id {
				out = append(out, mr)
			}
		}
	}
	return out, nil
}

type staticIdentity map[string]string

func (s staticIdentity) DisplayNames(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if name, ok := s[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func differFixture(t *testing.T, api *fakeAPI) (*Differ, *store.Store, *zones.Index, *names.Resolver) {
	t.Helper()

	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ix := zones.NewIndex([]models.Zone{
		{ZoneID: "z-world", Name: "World"},
		{ZoneID: "z-eu", ParentID: "z-world", Name: "Europe"},
		{ZoneID: "z-fr", ParentID: "z-eu", Name: "France"},
	})
	res := names.NewResolver(staticIdentity{"acc-1": "Player One", "acc-2": "Player Two", "acc-3": "Player Three"})

	return NewDiffer(api, st, 5), st, ix, res
}

func testCampaignTrack() (*models.Campaign, *models.Track) {
	return &models.Campaign{UID: "camp-1", Name: "Winter 2026"},
		&models.Track{CampaignUID: "camp-1", UID: "track-1", ID: "map-id-1", Name: "Winter 2026 - 01"}
}

func entry(account, zoneID string, score int) nadeo.LeaderboardEntry {
	return nadeo.LeaderboardEntry{AccountID: account, ZoneID: zoneID, Score: score}
}

func mapRecord(account, uid, date string) nadeo.MapRecord {
	return nadeo.MapRecord{
		AccountID: account,
		Timestamp: date,
		URL:       "https://core.test/storageObjects/" + uid,
	}
}

func TestDifferFirstRecord(t *testing.T) {
	api := &fakeAPI{
		top:        []nadeo.LeaderboardEntry{entry("acc-1", "z-fr", 45000)},
		mapRecords: []nadeo.MapRecord{mapRecord("acc-1", "uid-1", "2026-02-01T10:00:00Z")},
	}
	d, st, ix, res := differFixture(t, api)
	campaign, track := testCampaignTrack()

	diff, err := d.Diff(context.Background(), campaign, track, ix, res, "https://hooks.test/wr")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if diff.Updates != 1 {
		t.Fatalf("Updates = %d, want 1", diff.Updates)
	}
	if len(diff.Holders) != 1 || len(diff.History) != 1 {
		t.Fatalf("holders/history = %d/%d, want 1/1", len(diff.Holders), len(diff.History))
	}

	rec := diff.Holders[0]
	if rec.UID != "uid-1" {
		t.Errorf("UID = %q, want uid-1 (url basename)", rec.UID)
	}
	if rec.Delta != 0 {
		t.Errorf("Delta = %d, want 0 with no prior history", rec.Delta)
	}
	if rec.User.Name != "Player One" {
		t.Errorf("User.Name = %q, want Player One", rec.User.Name)
	}
	if len(rec.User.Zone) != 3 || rec.User.Zone[0].Name != "World" {
		t.Errorf("zone path = %v, want root-first 3 levels", rec.User.Zone)
	}

	jobs, err := st.PendingJobs()
	if err != nil {
		t.Fatalf("PendingJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("pending jobs = %d, want 1", len(jobs))
	}
	if jobs[0].Kind != models.JobKindRecord || jobs[0].WebhookURL != "https://hooks.test/wr" {
		t.Errorf("job = %+v, want record kind routed to the subscription webhook", jobs[0])
	}
}

func TestDifferImprovementDelta(t *testing.T) {
	api := &fakeAPI{
		top:        []nadeo.LeaderboardEntry{entry("acc-1", "z-fr", 45000)},
		mapRecords: []nadeo.MapRecord{mapRecord("acc-1", "uid-1", "2026-02-01T10:00:00Z")},
	}
	d, _, ix, res := differFixture(t, api)
	campaign, track := testCampaignTrack()

	if _, err := d.Diff(context.Background(), campaign, track, ix, res, ""); err != nil {
		t.Fatalf("seed diff: %v", err)
	}

	api.top = []nadeo.LeaderboardEntry{entry("acc-2", "z-fr", 44500)}
	api.mapRecords = []nadeo.MapRecord{mapRecord("acc-2", "uid-2", "2026-02-02T10:00:00Z")}

	diff, err := d.Diff(context.Background(), campaign, track, ix, res, "")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if diff.Updates != 1 {
		t.Fatalf("Updates = %d, want 1", diff.Updates)
	}
	if len(diff.Holders) != 1 || diff.Holders[0].UID != "uid-2" {
		t.Fatalf("holders = %v, want the improved record", diff.Holders)
	}
	if diff.Holders[0].Delta != 500 {
		t.Errorf("Delta = %d, want 500", diff.Holders[0].Delta)
	}
	if len(diff.History) != 2 {
		t.Errorf("history = %d, want 2 (append-only)", len(diff.History))
	}
}

func TestDifferTiedRecords(t *testing.T) {
	api := &fakeAPI{
		top: []nadeo.LeaderboardEntry{
			entry("acc-1", "z-fr", 1000),
			entry("acc-2", "z-eu", 1000),
			entry("acc-3", "z-fr", 1050),
		},
		mapRecords: []nadeo.MapRecord{
			mapRecord("acc-1", "uid-1", "2026-02-01T10:00:00Z"),
			mapRecord("acc-2", "uid-2", "2026-02-01T11:00:00Z"),
			mapRecord("acc-3", "uid-3", "2026-02-01T12:00:00Z"),
		},
	}
	d, _, ix, res := differFixture(t, api)
	campaign, track := testCampaignTrack()

	diff, err := d.Diff(context.Background(), campaign, track, ix, res, "")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if diff.Updates != 2 {
		t.Fatalf("Updates = %d, want 2 (only the tied minimum)", diff.Updates)
	}
	if len(diff.Holders) != 2 {
		t.Fatalf("holders = %d, want 2 simultaneous holders", len(diff.Holders))
	}
	for _, rec := range diff.Holders {
		if rec.Score != 1000 {
			t.Errorf("holder score = %d, want 1000", rec.Score)
		}
	}
}

func TestDifferSteadyState(t *testing.T) {
	api := &fakeAPI{
		top:        []nadeo.LeaderboardEntry{entry("acc-1", "z-fr", 45000)},
		mapRecords: []nadeo.MapRecord{mapRecord("acc-1", "uid-1", "2026-02-01T10:00:00Z")},
	}
	d, st, ix, res := differFixture(t, api)
	campaign, track := testCampaignTrack()

	if _, err := d.Diff(context.Background(), campaign, track, ix, res, ""); err != nil {
		t.Fatalf("first diff: %v", err)
	}

	diff, err := d.Diff(context.Background(), campaign, track, ix, res, "")
	if err != nil {
		t.Fatalf("second diff: %v", err)
	}

	if diff.Updates != 0 {
		t.Fatalf("Updates = %d, want 0 in steady state", diff.Updates)
	}
	if len(diff.History) != 1 {
		t.Fatalf("history = %d, want 1", len(diff.History))
	}
	jobs, err := st.PendingJobs()
	if err != nil {
		t.Fatalf("PendingJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("pending jobs = %d, want 1 (no duplicate enqueue)", len(jobs))
	}
}

func TestDifferEmptyLeaderboard(t *testing.T) {
	api := &fakeAPI{}
	d, _, ix, res := differFixture(t, api)
	campaign, track := testCampaignTrack()

	diff, err := d.Diff(context.Background(), campaign, track, ix, res, "")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if diff.Updates != 0 || len(diff.Holders) != 0 {
		t.Fatalf("diff = %+v, want empty result for an unplayed track", diff)
	}
	if api.mapRecordCalls != 0 {
		t.Fatalf("mapRecords called %d times, want 0", api.mapRecordCalls)
	}
}
