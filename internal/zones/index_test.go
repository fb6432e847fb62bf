// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package zones

import (
	"testing"

	"github.com/tmwatch/recordwatch/internal/models"
)

func testZones() []models.Zone {
	return []models.Zone{
		{ZoneID: "z-world", Name: "World"},
		{ZoneID: "z-eu", ParentID: "z-world", Name: "Europe"},
		{ZoneID: "z-fr", ParentID: "z-eu", Name: "France"},
		{ZoneID: "z-idf", ParentID: "z-fr", Name: "Ile-de-France"},
		{ZoneID: "z-na", ParentID: "z-world", Name: "North America"},
	}
}

func TestIndexPath(t *testing.T) {
	t.Run("returns full ancestry root first", func(t *testing.T) {
		ix := NewIndex(testZones())

		path := ix.Path("z-idf")
		want := []string{"World", "Europe", "France", "Ile-de-France"}
		if len(path) != len(want) {
			t.Fatalf("path length = %d, want %d", len(path), len(want))
		}
		for i, name := range want {
			if path[i].Name != name {
				t.Errorf("path[%d].Name = %q, want %q", i, path[i].Name, name)
			}
		}
	})

	t.Run("root zone has single-element path", func(t *testing.T) {
		ix := NewIndex(testZones())

		path := ix.Path("z-world")
		if len(path) != 1 || path[0].Name != "World" {
			t.Fatalf("path = %v, want [World]", path)
		}
	})

	t.Run("unknown zone returns empty path", func(t *testing.T) {
		ix := NewIndex(testZones())

		if path := ix.Path("nope"); len(path) != 0 {
			t.Fatalf("path = %v, want empty", path)
		}
	})

	t.Run("repeated lookups hit the cache", func(t *testing.T) {
		ix := NewIndex(testZones())

		first := ix.Path("z-fr")
		second := ix.Path("z-fr")
		if len(second) != len(first) {
			t.Fatalf("cached path differs: %v vs %v", first, second)
		}
		if _, ok := ix.pathCache["z-fr"]; !ok {
			t.Fatal("expected z-fr in path cache")
		}
	})

	t.Run("cyclic parent pointers terminate", func(t *testing.T) {
		ix := NewIndex([]models.Zone{
			{ZoneID: "a", ParentID: "b", Name: "A"},
			{ZoneID: "b", ParentID: "a", Name: "B"},
		})

		path := ix.Path("a")
		if len(path) != 2 {
			t.Fatalf("path length = %d, want 2 (each zone visited once)", len(path))
		}
	})
}

func TestIndexPathByName(t *testing.T) {
	t.Run("resolves pipe separated names", func(t *testing.T) {
		ix := NewIndex(testZones())

		path := ix.PathByName("World|Europe|France")
		if len(path) != 3 {
			t.Fatalf("path length = %d, want 3", len(path))
		}
		if path[2].ZoneID != "z-fr" {
			t.Errorf("path[2].ZoneID = %q, want z-fr", path[2].ZoneID)
		}
	})

	t.Run("skips segments that match no child", func(t *testing.T) {
		ix := NewIndex(testZones())

		path := ix.PathByName("World|Atlantis|Europe")
		if len(path) != 2 {
			t.Fatalf("path length = %d, want 2 (Atlantis skipped, Europe still matched)", len(path))
		}
		if path[1].ZoneID != "z-eu" {
			t.Errorf("path[1].ZoneID = %q, want z-eu", path[1].ZoneID)
		}
	})
}

func TestIndexLen(t *testing.T) {
	ix := NewIndex(testZones())
	if ix.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", ix.Len())
	}
}
