// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package nadeo implements the upstream API clients of the tracker: the
// Ubisoft platform identity service, the Nadeo core and live game services,
// and the OAuth display-name API. The clients are plain request/response
// wrappers returning typed JSON; retry policy beyond the session layer is
// not their business.
package nadeo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tmwatch/recordwatch/internal/models"
)

// Default service endpoints.
const (
	DefaultCoreURL = "https://prod.trackmania.core.nadeo.online"
	DefaultLiveURL = "https://live-services.trackmania.nadeo.live/api/token"
)

// Audiences of the Nadeo service token.
const (
	AudienceLiveServices = "NadeoLiveServices"
	AudienceClubServices = "NadeoClubServices"
)

// TokenSource supplies valid access tokens for authenticated data requests.
// Implemented by session.Manager, which owns the credential lifecycles.
type TokenSource interface {
	// CoreToken returns a valid core-services access token.
	CoreToken(ctx context.Context) (string, error)
	// LiveToken returns a valid live-services access token.
	LiveToken(ctx context.Context) (string, error)
}

// Client talks to the Nadeo core and live services. Data requests are rate
// limited (the upstream enforces per-account limits) and pass through a
// circuit breaker so a broken upstream fails fast instead of burning the
// whole polling cycle on timeouts.
type Client struct {
	coreURL    string
	liveURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	tokens     TokenSource
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithCoreURL overrides the core services endpoint. Used by tests.
func WithCoreURL(url string) ClientOption {
	return func(c *Client) { c.coreURL = strings.TrimSuffix(url, "/") }
}

// WithLiveURL overrides the live services endpoint. Used by tests.
func WithLiveURL(url string) ClientOption {
	return func(c *Client) { c.liveURL = strings.TrimSuffix(url, "/") }
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewClient creates a Client drawing access tokens from tokens.
func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		coreURL: DefaultCoreURL,
		liveURL: DefaultLiveURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(8), 8),
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "nadeo",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

// do performs one authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, url, auth string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s returned status %d: %s", url, resp.StatusCode, string(data))
		}
		return data, nil
	})
}

// getCore performs an authenticated GET against the core services.
func getCore[T any](ctx context.Context, c *Client, route string) (T, error) {
	var out T
	token, err := c.tokens.CoreToken(ctx)
	if err != nil {
		return out, err
	}
	data, err := c.do(ctx, http.MethodGet, c.coreURL+route, "nadeo_v1 t="+token, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", route, err)
	}
	return out, nil
}

// getLive performs an authenticated GET against the live services.
func getLive[T any](ctx context.Context, c *Client, route string) (T, error) {
	var out T
	token, err := c.tokens.LiveToken(ctx)
	if err != nil {
		return out, err
	}
	data, err := c.do(ctx, http.MethodGet, c.liveURL+route, "nadeo_v1 t="+token, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", route, err)
	}
	return out, nil
}

// LoginUbiservices exchanges a Ubisoft ticket for a core-services token.
func (c *Client) LoginUbiservices(ctx context.Context, ticket string) (*Token, error) {
	data, err := c.do(ctx, http.MethodPost,
		c.coreURL+"/v2/authentication/token/ubiservices", "ubi_v1 t="+ticket, nil)
	if err != nil {
		return nil, fmt.Errorf("core login: %w", err)
	}
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode core token: %w", err)
	}
	return &token, nil
}

// LoginNadeoServices exchanges a core access token for an audience-scoped
// service token.
func (c *Client) LoginNadeoServices(ctx context.Context, coreAccess, audience string) (*Token, error) {
	body, err := json.Marshal(map[string]string{"audience": audience})
	if err != nil {
		return nil, fmt.Errorf("marshal audience: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost,
		c.coreURL+"/v2/authentication/token/nadeoservices", "nadeo_v1 t="+coreAccess, body)
	if err != nil {
		return nil, fmt.Errorf("service login (%s): %w", audience, err)
	}
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode service token: %w", err)
	}
	return &token, nil
}

// Refresh trades a refresh token for a fresh token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	data, err := c.do(ctx, http.MethodPost,
		c.coreURL+"/v2/authentication/token/refresh", "nadeo_v1 t="+refreshToken, nil)
	if err != nil {
		return nil, fmt.Errorf("token refresh: %w", err)
	}
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode refreshed token: %w", err)
	}
	return &token, nil
}

// Zones fetches the flat geographic zone table. The response carries more
// fields than the tracker needs; decoding into models.Zone prunes it to
// zoneId, parentId and name at the edge.
func (c *Client) Zones(ctx context.Context) ([]models.Zone, error) {
	return getCore[[]models.Zone](ctx, c, "/zones")
}

// Maps resolves map metadata for the given ids. 36-character ids are
// treated as map ids, everything else as map uids.
func (c *Client) Maps(ctx context.Context, ids []string) ([]MapInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	idType := "Uid"
	if len(ids[0]) == 36 {
		idType = "Id"
	}
	route := fmt.Sprintf("/maps?map%sList=%s", idType, strings.Join(ids, ","))
	return getCore[[]MapInfo](ctx, c, route)
}

// MapRecords fetches the detailed records of the given accounts on the
// given maps. Needed because leaderboard entries lack the record's storage
// identity (the dedup key and replay handle).
func (c *Client) MapRecords(ctx context.Context, accountIDs, mapIDs []string) ([]MapRecord, error) {
	route := fmt.Sprintf("/mapRecords?accountIdList=%s&mapIdList=%s",
		strings.Join(accountIDs, ","), strings.Join(mapIDs, ","))
	return getCore[[]MapRecord](ctx, c, route)
}

// Leaderboard fetches the ranked world top of a season group, optionally
// scoped to a single map. Pass an empty mapUID for the campaign-wide
// score ranking.
func (c *Client) Leaderboard(ctx context.Context, groupUID, mapUID string, offset, length int) (*LeaderboardResponse, error) {
	route := "/leaderboard/group/" + groupUID
	if mapUID != "" {
		route += "/map/" + mapUID
	}
	route += fmt.Sprintf("/top?offset=%d&length=%d&onlyWorld=1", offset, length)
	resp, err := getLive[LeaderboardResponse](ctx, c, route)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClubActivity fetches a club's recent activity feed.
func (c *Client) ClubActivity(ctx context.Context, clubID string, offset, length int) (*ClubActivityResponse, error) {
	route := fmt.Sprintf("/club/%s/activity?offset=%d&length=%d&active=1", clubID, offset, length)
	resp, err := getLive[ClubActivityResponse](ctx, c, route)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClubCampaign fetches the campaign detail of a club activity.
func (c *Client) ClubCampaign(ctx context.Context, clubID string, campaignID int64) (*ClubCampaignResponse, error) {
	route := fmt.Sprintf("/club/%s/campaign/%d", clubID, campaignID)
	resp, err := getLive[ClubCampaignResponse](ctx, c, route)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadReplay streams the replay storage object of a record to w.
// The download is anonymous.
func (c *Client) DownloadReplay(ctx context.Context, recordUID string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.coreURL+"/storageObjects/"+recordUID, nil)
	if err != nil {
		return fmt.Errorf("build replay request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("replay download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("replay download returned status %d: %s", resp.StatusCode, string(body))
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("write replay: %w", err)
	}
	return nil
}
