// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package nadeo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultOAuthURL is the public OAuth API endpoint.
const DefaultOAuthURL = "https://api.trackmania.com/api"

// OAuthClient resolves account ids to display names through the public
// OAuth API using the client-credentials grant.
type OAuthClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	accessToken string
}

// NewOAuthClient creates a client for the given API credentials.
func NewOAuthClient(clientID, clientSecret string) *OAuthClient {
	return &OAuthClient{
		baseURL:      DefaultOAuthURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL overrides the endpoint. Used by tests.
func (c *OAuthClient) SetBaseURL(url string) {
	c.baseURL = strings.TrimSuffix(url, "/")
}

// Login obtains a fresh client-credentials access token.
func (c *OAuthClient) Login(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/access_token", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("build oauth login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("oauth login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("oauth login returned status %d: %s", resp.StatusCode, string(body))
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("decode oauth token: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("oauth login returned an empty access token")
	}

	c.accessToken = token.AccessToken
	return nil
}

// DisplayNames resolves account ids to display names in one batched call.
// A stale token is replaced by a single re-login followed by one retry.
// Ids the API does not know are simply absent from the result.
func (c *OAuthClient) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	if c.accessToken == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.fetchDisplayNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		if err := c.Login(ctx); err != nil {
			return nil, fmt.Errorf("oauth re-login: %w", err)
		}
		resp, err = c.fetchDisplayNames(ctx, ids)
		if err != nil {
			return nil, err
		}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read display names: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("display names returned status %d: %s", resp.StatusCode, string(data))
	}

	// The API answers with an empty array instead of an empty object when
	// no id resolves.
	if len(data) > 0 && data[0] == '[' {
		return map[string]string{}, nil
	}

	names := map[string]string{}
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode display names: %w", err)
	}
	return names, nil
}

func (c *OAuthClient) fetchDisplayNames(ctx context.Context, ids []string) (*http.Response, error) {
	query := "accountId[]=" + strings.Join(ids, "&accountId[]=")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/display-names?"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("build display names request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("display names request failed: %w", err)
	}
	return resp, nil
}
