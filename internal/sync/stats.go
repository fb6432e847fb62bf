// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package sync

import (
	"sort"
	"time"

	"github.com/tmwatch/recordwatch/internal/models"
)

// HolderStanding is one row of the holder leaderboard: how many of the
// campaign's current world records an account holds.
type HolderStanding struct {
	AccountID string
	Name      string
	Count     int

	// Latest is the date of the account's most recent record, the tie-break
	// between equal counts.
	Latest time.Time
}

// ZoneStanding is one row of the geographic leaderboard: how many current
// world records are held from a country.
type ZoneStanding struct {
	Zone  models.Zone
	Count int
}

// BuildStats computes the campaign statistics over the current world record
// holders of all tracks (one record per holder per track). Holders are
// ranked by records held, most recent record first on ties; zones group by
// country with the root zone as fallback for shallower paths. Pure function
// over one cycle's data.
func BuildStats(holders []models.Record) ([]HolderStanding, []ZoneStanding) {
	byAccount := map[string]*HolderStanding{}
	byZone := map[string]*ZoneStanding{}

	for _, rec := range holders {
		hs, ok := byAccount[rec.User.ID]
		if !ok {
			hs = &HolderStanding{AccountID: rec.User.ID, Name: rec.User.Name}
			byAccount[rec.User.ID] = hs
		}
		hs.Count++
		if date := parseRecordDate(rec.Date); date.After(hs.Latest) {
			hs.Latest = date
		}

		if zone, ok := countryZone(rec.User.Zone); ok {
			zs, ok := byZone[zone.ZoneID]
			if !ok {
				zs = &ZoneStanding{Zone: zone}
				byZone[zone.ZoneID] = zs
			}
			zs.Count++
		}
	}

	holderRows := make([]HolderStanding, 0, len(byAccount))
	for _, hs := range byAccount {
		holderRows = append(holderRows, *hs)
	}
	sort.Slice(holderRows, func(i, j int) bool {
		if holderRows[i].Count != holderRows[j].Count {
			return holderRows[i].Count > holderRows[j].Count
		}
		if !holderRows[i].Latest.Equal(holderRows[j].Latest) {
			return holderRows[i].Latest.After(holderRows[j].Latest)
		}
		return holderRows[i].Name < holderRows[j].Name
	})

	zoneRows := make([]ZoneStanding, 0, len(byZone))
	for _, zs := range byZone {
		zoneRows = append(zoneRows, *zs)
	}
	sort.Slice(zoneRows, func(i, j int) bool {
		if zoneRows[i].Count != zoneRows[j].Count {
			return zoneRows[i].Count > zoneRows[j].Count
		}
		return zoneRows[i].Zone.Name < zoneRows[j].Zone.Name
	})

	return holderRows, zoneRows
}

// countryZone picks the country-level node of a root-first zone path,
// falling back to the root (world) for shallower paths.
func countryZone(path []models.Zone) (models.Zone, bool) {
	if len(path) > models.ZoneLevelCountry {
		return path[models.ZoneLevelCountry], true
	}
	if len(path) > 0 {
		return path[0], true
	}
	return models.Zone{}, false
}

// parseRecordDate parses a provider timestamp. Unparseable dates sort first.
func parseRecordDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
