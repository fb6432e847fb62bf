// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/tmwatch/recordwatch/internal/logging"
)

// Cycler runs one polling cycle. Implemented by sync.Synchronizer.
type Cycler interface {
	Cycle(ctx context.Context) error
}

// PollService drives a Cycler on a fixed interval. A failed cycle is
// returned to the supervisor, whose failure backoff spaces out the retries;
// successful cycles just wait for the next tick.
type PollService struct {
	cycler   Cycler
	interval time.Duration
}

// NewPollService creates a PollService ticking at interval.
func NewPollService(cycler Cycler, interval time.Duration) *PollService {
	return &PollService{cycler: cycler, interval: interval}
}

// Serve implements suture.Service. The first cycle runs immediately.
func (p *PollService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.cycler.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Error().Err(err).Msg("Polling cycle failed")
			return fmt.Errorf("polling cycle: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *PollService) String() string { return "sync-poller" }
