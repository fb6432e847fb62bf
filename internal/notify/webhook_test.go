// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientPost(t *testing.T) {
	var gotPath, gotQuery, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-42"}`))
	}))
	defer srv.Close()

	id, err := NewClient().Post(context.Background(), srv.URL+"/hook", &Message{Content: "hello"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if id != "msg-42" {
		t.Fatalf("id = %q, want msg-42", id)
	}
	if gotPath != "/hook" || gotQuery != "wait=true" {
		t.Errorf("request = %s?%s, want /hook?wait=true", gotPath, gotQuery)
	}
	if !strings.Contains(gotBody, `"hello"`) {
		t.Errorf("body = %q, want the content", gotBody)
	}
}

func TestClientEdit(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := NewClient().Edit(context.Background(), srv.URL+"/hook", "msg-42", &Message{Content: "edited"})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	if gotPath != "/hook/messages/msg-42" {
		t.Errorf("path = %s, want /hook/messages/msg-42", gotPath)
	}
}

func TestClientErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	_, err := NewClient().Post(context.Background(), srv.URL, &Message{Content: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error %q lacks the response body", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error %q lacks the status code", err)
	}
}
