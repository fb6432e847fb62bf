// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package nadeo

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// DefaultUbisoftURL is the Ubisoft public services endpoint.
const DefaultUbisoftURL = "https://public-ubiservices.ubi.com"

// ubisoftAppID is the Ubi-AppId the game client authenticates as.
const ubisoftAppID = "86263886-327a-4328-ac69-527f0d20a237"

// UbisoftSession is the platform-level session ticket. Its validity window
// is an explicit expiration field rather than an embedded claim.
type UbisoftSession struct {
	Ticket     string `json:"ticket"`
	Expiration string `json:"expiration"` // RFC 3339
	SessionID  string `json:"sessionId,omitempty"`
	UserID     string `json:"userId,omitempty"`
}

// Valid reports whether the ticket is still usable at now.
func (s *UbisoftSession) Valid(now time.Time) bool {
	if s == nil || s.Ticket == "" {
		return false
	}
	exp, err := time.Parse(time.RFC3339, s.Expiration)
	if err != nil {
		return false
	}
	return now.Add(expiryMargin).Before(exp)
}

// UbisoftClient issues platform sessions from account credentials.
type UbisoftClient struct {
	baseURL    string
	basicAuth  string
	httpClient *http.Client
}

// NewUbisoftClient creates a client for the given account credentials.
func NewUbisoftClient(email, password string) *UbisoftClient {
	return &UbisoftClient{
		baseURL:   DefaultUbisoftURL,
		basicAuth: base64.StdEncoding.EncodeToString([]byte(email + ":" + password)),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL overrides the endpoint. Used by tests.
func (c *UbisoftClient) SetBaseURL(url string) {
	c.baseURL = url
}

// Login performs a full platform authentication and returns a fresh session.
func (c *UbisoftClient) Login(ctx context.Context) (*UbisoftSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/profiles/sessions", nil)
	if err != nil {
		return nil, fmt.Errorf("build ubisoft login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ubi-AppId", ubisoftAppID)
	req.Header.Set("Authorization", "Basic "+c.basicAuth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ubisoft login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ubisoft login returned status %d: %s", resp.StatusCode, string(body))
	}

	var session UbisoftSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode ubisoft session: %w", err)
	}
	if session.Ticket == "" {
		return nil, fmt.Errorf("ubisoft login returned an empty ticket")
	}

	return &session, nil
}
