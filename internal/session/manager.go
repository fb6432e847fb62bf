// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package session owns the chained credential lifecycles of the tracker:
// the Ubisoft platform ticket, the Nadeo core token and the Nadeo live
// token. Each chain link is reused while valid, refreshed while its refresh
// token lives, and fully re-authenticated otherwise. The credential set is
// persisted as a JSON file so restarts reuse unexpired sessions instead of
// hammering the identity provider.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/tmwatch/recordwatch/internal/logging"
	"github.com/tmwatch/recordwatch/internal/nadeo"
)

// ErrNotAuthenticated is returned by the token accessors when Login has not
// produced a valid credential for the requested service.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// PlatformClient issues Ubisoft platform sessions.
type PlatformClient interface {
	Login(ctx context.Context) (*nadeo.UbisoftSession, error)
}

// AuthClient performs the Nadeo token exchanges.
type AuthClient interface {
	LoginUbiservices(ctx context.Context, ticket string) (*nadeo.Token, error)
	LoginNadeoServices(ctx context.Context, coreAccess, audience string) (*nadeo.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*nadeo.Token, error)
}

// state is the persisted credential set.
type state struct {
	Ubisoft *nadeo.UbisoftSession `json:"ubisoft"`
	Core    *nadeo.Token          `json:"core"`
	Live    *nadeo.Token          `json:"live"`
}

// Manager owns the credential set. It is not safe for concurrent use; the
// synchronizer drives it from a single goroutine at the start of each cycle.
type Manager struct {
	platform PlatformClient
	auth     AuthClient
	file     string

	state    state
	restored bool

	now func() time.Time
}

// NewManager creates a Manager persisting credentials at file. An empty
// file path keeps the credential set in memory only.
func NewManager(platform PlatformClient, auth AuthClient, file string) *Manager {
	return &Manager{
		platform: platform,
		auth:     auth,
		file:     file,
		now:      time.Now,
	}
}

// Login ensures valid core- and live-services credentials, reusing,
// refreshing or re-authenticating each link as its state requires. It
// reports whether any new credential was obtained (and therefore persisted).
// Failures are fatal for the current cycle only; the caller logs and retries
// next tick.
func (m *Manager) Login(ctx context.Context) (bool, error) {
	if !m.restored {
		m.restore()
		m.restored = true
	}

	now := m.now()
	fresh := false

	// Every cycle consumes core-services endpoints directly (zones, maps,
	// map records), so the core link is repaired even while the live token
	// is still valid.
	if err := m.ensureCore(ctx, now, &fresh); err != nil {
		return false, err
	}

	if !m.state.Live.AccessValid(now) {
		switch {
		case m.state.Live.RefreshValid(now):
			token, err := m.auth.Refresh(ctx, m.state.Live.RefreshToken)
			if err != nil {
				return false, fmt.Errorf("refresh live token: %w", err)
			}
			m.state.Live = token
			fresh = true
			logging.Debug().Msg("Live token refreshed")

		default:
			token, err := m.auth.LoginNadeoServices(ctx, m.state.Core.AccessToken, nadeo.AudienceLiveServices)
			if err != nil {
				return false, fmt.Errorf("live login: %w", err)
			}
			m.state.Live = token
			fresh = true
			logging.Info().Msg("Live services session established")
		}
	}

	if fresh {
		if err := m.persist(); err != nil {
			// Persistence failure is not fatal for the cycle: the
			// credentials are valid in memory, only restart reuse is lost.
			logging.Warn().Err(err).Msg("Failed to persist session")
		}
	}
	return fresh, nil
}

// ensureCore makes the core token usable, walking up to the platform ticket
// when the whole chain is unusable.
func (m *Manager) ensureCore(ctx context.Context, now time.Time, fresh *bool) error {
	if m.state.Core.AccessValid(now) {
		return nil
	}

	if m.state.Core.RefreshValid(now) {
		token, err := m.auth.Refresh(ctx, m.state.Core.RefreshToken)
		if err != nil {
			return fmt.Errorf("refresh core token: %w", err)
		}
		m.state.Core = token
		*fresh = true
		logging.Debug().Msg("Core token refreshed")
		return nil
	}

	if !m.state.Ubisoft.Valid(now) {
		sess, err := m.platform.Login(ctx)
		if err != nil {
			return fmt.Errorf("platform login: %w", err)
		}
		m.state.Ubisoft = sess
		*fresh = true
		logging.Info().Msg("Platform session established")
	}

	token, err := m.auth.LoginUbiservices(ctx, m.state.Ubisoft.Ticket)
	if err != nil {
		return fmt.Errorf("core login: %w", err)
	}
	m.state.Core = token
	*fresh = true
	return nil
}

// CoreToken implements nadeo.TokenSource.
func (m *Manager) CoreToken(ctx context.Context) (string, error) {
	if !m.state.Core.AccessValid(m.now()) {
		return "", fmt.Errorf("core token: %w", ErrNotAuthenticated)
	}
	return m.state.Core.AccessToken, nil
}

// LiveToken implements nadeo.TokenSource.
func (m *Manager) LiveToken(ctx context.Context) (string, error) {
	if !m.state.Live.AccessValid(m.now()) {
		return "", fmt.Errorf("live token: %w", ErrNotAuthenticated)
	}
	return m.state.Live.AccessToken, nil
}

// restore loads a previously persisted credential set. A missing or
// unreadable file simply means a cold start.
func (m *Manager) restore() {
	if m.file == "" {
		return
	}
	data, err := os.ReadFile(m.file)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn().Err(err).Str("file", m.file).Msg("Failed to read session file")
		}
		return
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		logging.Warn().Err(err).Str("file", m.file).Msg("Ignoring malformed session file")
		return
	}
	m.state = st
	logging.Info().Str("file", m.file).Msg("Session restored")
}

// persist writes the current credential set to the session file.
func (m *Manager) persist() error {
	if m.file == "" {
		return nil
	}
	data, err := json.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(m.file, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
