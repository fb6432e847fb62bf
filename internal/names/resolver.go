// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package names resolves opaque account ids to display names through the
// OAuth identity API, batching lookups and caching results for the duration
// of one polling cycle. Names can change, so the Resolver is constructed
// fresh at tick start rather than kept across cycles.
package names

import (
	"context"
	"fmt"
)

// IdentityClient is the batched display-name lookup.
// Implemented by nadeo.OAuthClient.
type IdentityClient interface {
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}

// Resolver caches display-name lookups for one cycle.
// Not safe for concurrent use.
type Resolver struct {
	client IdentityClient
	cache  map[string]string
}

// NewResolver creates an empty cycle-scoped Resolver.
func NewResolver(client IdentityClient) *Resolver {
	return &Resolver{
		client: client,
		cache:  map[string]string{},
	}
}

// Get returns the display name of one account, resolving it through a
// single-id batch call on a cache miss. Accounts the API does not know
// resolve (and cache) as the empty string.
func (r *Resolver) Get(ctx context.Context, accountID string) (string, error) {
	if name, ok := r.cache[accountID]; ok {
		return name, nil
	}

	names, err := r.client.DisplayNames(ctx, []string{accountID})
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", accountID, err)
	}

	name := names[accountID]
	r.cache[accountID] = name
	return name, nil
}

// ResolveAll warms the cache for the given accounts. Ids already cached are
// filtered out first; when nothing remains the network call is skipped
// entirely.
func (r *Resolver) ResolveAll(ctx context.Context, accountIDs []string) error {
	var toResolve []string
	for _, id := range accountIDs {
		if _, ok := r.cache[id]; !ok {
			toResolve = append(toResolve, id)
		}
	}
	if len(toResolve) == 0 {
		return nil
	}

	names, err := r.client.DisplayNames(ctx, toResolve)
	if err != nil {
		return fmt.Errorf("resolve %d accounts: %w", len(toResolve), err)
	}
	for _, id := range toResolve {
		r.cache[id] = names[id]
	}
	return nil
}

// Cached returns the cached name of an account without a network fallback.
// Used after a ResolveAll pass when assembling presentation payloads.
func (r *Resolver) Cached(accountID string) string {
	return r.cache[accountID]
}
