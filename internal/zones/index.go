// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package zones builds ancestor and path lookups over the flat geographic
// zone hierarchy. An Index is scoped to one polling cycle's zone table and
// rebuilt the next cycle, so its memoization never serves stale data.
package zones

import (
	"strings"

	"github.com/tmwatch/recordwatch/internal/models"
)

// Index answers ancestry queries over one zone table snapshot. Both lookup
// forms are memoized by their key because one cycle resolves the same zones
// for many records and each uncached lookup is a linear scan.
//
// Index is not safe for concurrent use; a cycle runs sequentially.
type Index struct {
	byID map[string]models.Zone
	all  []models.Zone

	pathCache     map[string][]models.Zone
	namePathCache map[string][]models.Zone
}

// NewIndex builds an Index over the given zone table.
func NewIndex(zones []models.Zone) *Index {
	byID := make(map[string]models.Zone, len(zones))
	for _, z := range zones {
		byID[z.ZoneID] = z
	}
	return &Index{
		byID:          byID,
		all:           zones,
		pathCache:     map[string][]models.Zone{},
		namePathCache: map[string][]models.Zone{},
	}
}

// Path returns the full ancestry of zoneID, root first. Unknown ids return
// an empty path. Cyclic or malformed parent pointers terminate: every zone
// is visited at most once.
func (ix *Index) Path(zoneID string) []models.Zone {
	if cached, ok := ix.pathCache[zoneID]; ok {
		return cached
	}

	var reversed []models.Zone
	visited := map[string]bool{}

	for id := zoneID; id != ""; {
		if visited[id] {
			break // cycle in provider data
		}
		visited[id] = true

		zone, ok := ix.byID[id]
		if !ok {
			break
		}
		reversed = append(reversed, zone)
		id = zone.ParentID
	}

	path := make([]models.Zone, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}

	ix.pathCache[zoneID] = path
	return path
}

// PathByName resolves a '|'-separated sequence of zone names into the
// matching path, matching each segment against children of the previously
// matched zone. Unmatched segments are skipped, mirroring the lenient
// provider behavior for partially known paths.
func (ix *Index) PathByName(zonePath string) []models.Zone {
	if cached, ok := ix.namePathCache[zonePath]; ok {
		return cached
	}

	var path []models.Zone
	lastParentID := ""

	for _, name := range strings.Split(zonePath, "|") {
		for _, zone := range ix.all {
			if zone.Name == name && zone.ParentID == lastParentID {
				path = append(path, zone)
				lastParentID = zone.ZoneID
				break
			}
		}
	}

	ix.namePathCache[zonePath] = path
	return path
}

// Len returns the number of zones in the table.
func (ix *Index) Len() int {
	return len(ix.all)
}
