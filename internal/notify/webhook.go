// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Client delivers webhook messages. Creation uses ?wait=true so the endpoint
// returns the created message and its id can be cached for later edits.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a webhook Client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// createdMessage is the relevant slice of the endpoint's message object.
type createdMessage struct {
	ID string `json:"id"`
}

// Post creates a new webhook message and returns its id.
func (c *Client) Post(ctx context.Context, webhookURL string, msg *Message) (string, error) {
	data, err := c.do(ctx, http.MethodPost, webhookURL+"?wait=true", msg)
	if err != nil {
		return "", err
	}
	var created createdMessage
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("decode webhook response: %w", err)
	}
	return created.ID, nil
}

// Edit replaces the content of a previously created webhook message.
func (c *Client) Edit(ctx context.Context, webhookURL, messageID string, msg *Message) error {
	_, err := c.do(ctx, http.MethodPatch, webhookURL+"/messages/"+messageID, msg)
	return err
}

// do sends one webhook request. Non-2xx responses surface the response body
// as error detail; webhook endpoints put the rejection reason there.
func (c *Client) do(ctx context.Context, method, url string, msg *Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
