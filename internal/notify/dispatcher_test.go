// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/tmwatch/recordwatch/internal/models"
	"github.com/tmwatch/recordwatch/internal/store"
)

func dispatcherJob(webhookURL string) *models.Job {
	rec := &models.Record{
		UID:         "uid-1",
		CampaignUID: "camp-1",
		TrackUID:    "track-1",
		Score:       52317,
		User:        models.RecordUser{ID: "acc-1", Name: "Player One"},
	}
	return &models.Job{
		Kind:       models.JobKindRecord,
		Record:     rec,
		Track:      &models.Track{UID: "track-1", Name: "Winter 2026 - 01"},
		WebhookURL: webhookURL,
	}
}

func testQueueStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestDispatcherHandle(t *testing.T) {
	t.Run("delivers record message to the job webhook", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte(`{"id":"msg-1"}`))
		}))
		defer srv.Close()

		d := NewDispatcher(testQueueStore(t), NewClient(), nil, "")
		if err := d.handle(context.Background(), dispatcherJob(srv.URL)); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if hits.Load() != 1 {
			t.Fatalf("webhook hits = %d, want 1", hits.Load())
		}
	})

	t.Run("falls back to the global record webhook", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte(`{"id":"msg-1"}`))
		}))
		defer srv.Close()

		d := NewDispatcher(testQueueStore(t), NewClient(), nil, srv.URL)
		if err := d.handle(context.Background(), dispatcherJob("")); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if hits.Load() != 1 {
			t.Fatalf("webhook hits = %d, want 1", hits.Load())
		}
	})

	t.Run("webhook failure leaves the job retryable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		d := NewDispatcher(testQueueStore(t), NewClient(), nil, "")
		if err := d.handle(context.Background(), dispatcherJob(srv.URL)); err == nil {
			t.Fatal("expected error so the queue redelivers")
		}
	})

	t.Run("unknown kind is dropped without error", func(t *testing.T) {
		d := NewDispatcher(testQueueStore(t), NewClient(), nil, "")
		if err := d.handle(context.Background(), &models.Job{Kind: "mystery"}); err != nil {
			t.Fatalf("handle: %v", err)
		}
	})

	t.Run("malformed record job is dropped without error", func(t *testing.T) {
		d := NewDispatcher(testQueueStore(t), NewClient(), nil, "")
		if err := d.handle(context.Background(), &models.Job{Kind: models.JobKindRecord}); err != nil {
			t.Fatalf("handle: %v", err)
		}
	})
}
