// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package nadeo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type staticTokens struct{}

func (staticTokens) CoreToken(context.Context) (string, error) { return "core-token", nil }
func (staticTokens) LiveToken(context.Context) (string, error) { return "live-token", nil }

func TestClientLeaderboard(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{
			"groupUid": "season-1",
			"tops": [{"zoneName": "World", "top": [
				{"accountId": "acc-1", "zoneId": "z-fr", "position": 1, "score": 52317}
			]}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(staticTokens{}, WithLiveURL(srv.URL))

	t.Run("track leaderboard", func(t *testing.T) {
		resp, err := c.Leaderboard(context.Background(), "season-1", "map-uid-1", 0, 5)
		if err != nil {
			t.Fatalf("Leaderboard: %v", err)
		}
		if gotPath != "/leaderboard/group/season-1/map/map-uid-1/top" {
			t.Errorf("path = %s", gotPath)
		}
		if !strings.Contains(gotQuery, "onlyWorld=1") || !strings.Contains(gotQuery, "length=5") {
			t.Errorf("query = %s, want onlyWorld=1 and length=5", gotQuery)
		}
		if gotAuth != "nadeo_v1 t=live-token" {
			t.Errorf("auth = %q", gotAuth)
		}

		top := resp.WorldTop()
		if len(top) != 1 || top[0].Score != 52317 {
			t.Fatalf("top = %v", top)
		}
	})

	t.Run("campaign ranking omits the map segment", func(t *testing.T) {
		if _, err := c.Leaderboard(context.Background(), "season-1", "", 0, 5); err != nil {
			t.Fatalf("Leaderboard: %v", err)
		}
		if gotPath != "/leaderboard/group/season-1/top" {
			t.Errorf("path = %s", gotPath)
		}
	})
}

func TestClientMaps(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if got := r.Header.Get("Authorization"); got != "nadeo_v1 t=core-token" {
			t.Errorf("auth = %q", got)
		}
		_, _ = w.Write([]byte(`[{"mapId": "map-id-1", "mapUid": "uid-1", "name": "01"}]`))
	}))
	defer srv.Close()

	c := NewClient(staticTokens{}, WithCoreURL(srv.URL))

	t.Run("short ids query by uid", func(t *testing.T) {
		infos, err := c.Maps(context.Background(), []string{"uid-1", "uid-2"})
		if err != nil {
			t.Fatalf("Maps: %v", err)
		}
		if !strings.Contains(gotQuery, "mapUidList=uid-1,uid-2") {
			t.Errorf("query = %s, want mapUidList", gotQuery)
		}
		if len(infos) != 1 || infos[0].MapID != "map-id-1" {
			t.Fatalf("infos = %v", infos)
		}
	})

	t.Run("36-char ids query by id", func(t *testing.T) {
		id := strings.Repeat("a", 36)
		if _, err := c.Maps(context.Background(), []string{id}); err != nil {
			t.Fatalf("Maps: %v", err)
		}
		if !strings.Contains(gotQuery, "mapIdList=") {
			t.Errorf("query = %s, want mapIdList", gotQuery)
		}
	})

	t.Run("empty input skips the network", func(t *testing.T) {
		infos, err := c.Maps(context.Background(), nil)
		if err != nil || infos != nil {
			t.Fatalf("Maps = %v, %v; want nil, nil", infos, err)
		}
	})
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream broken"))
	}))
	defer srv.Close()

	c := NewClient(staticTokens{}, WithCoreURL(srv.URL))
	_, err := c.Zones(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream broken") {
		t.Fatalf("error %q lacks status and body", err)
	}
}
