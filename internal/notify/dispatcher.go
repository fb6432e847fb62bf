// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package notify delivers the tracker's outbound notifications: webhook
// messages for new world records and ranking summaries, plus optional
// archival of replay binaries. The dispatcher consumes the store's durable
// job queue with at-least-once semantics, fully decoupled from the polling
// cycle that produced the jobs.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmwatch/recordwatch/internal/logging"
	"github.com/tmwatch/recordwatch/internal/metrics"
	"github.com/tmwatch/recordwatch/internal/models"
	"github.com/tmwatch/recordwatch/internal/store"
)

// Dispatcher consumes notification jobs from the durable queue. A job is
// deleted only after its handler returns success, so a crash between webhook
// delivery and deletion redelivers on restart; an occasional duplicate
// message is the accepted cost of never losing one.
type Dispatcher struct {
	store    *store.Store
	webhooks *Client

	// archive is nil when replay archival is disabled.
	archive *Archive

	// recordURL receives record messages for jobs without their own
	// subscription webhook.
	recordURL string
}

// NewDispatcher creates a Dispatcher. Pass a nil archive to disable replay
// archival.
func NewDispatcher(st *store.Store, webhooks *Client, archive *Archive, recordURL string) *Dispatcher {
	return &Dispatcher{
		store:     st,
		webhooks:  webhooks,
		archive:   archive,
		recordURL: recordURL,
	}
}

// Serve implements suture.Service. It blocks consuming the queue until the
// context is canceled.
func (d *Dispatcher) Serve(ctx context.Context) error {
	if pending, err := d.store.PendingJobs(); err == nil {
		metrics.QueueDepth.Set(float64(len(pending)))
	}
	return d.store.ConsumeQueue(ctx, d.handle)
}

// handle processes one queued job. Returning an error leaves the job pending
// for redelivery; returning nil deletes it.
func (d *Dispatcher) handle(ctx context.Context, job *models.Job) error {
	var err error
	switch job.Kind {
	case models.JobKindRecord:
		err = d.handleRecord(ctx, job)
	default:
		// Unknown kinds are logged and dropped: leaving them pending would
		// retry forever without ever succeeding.
		logging.Error().Str("kind", string(job.Kind)).Msg("Dropping job of unknown kind")
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.JobsHandled.WithLabelValues(outcome).Inc()

	if pending, perr := d.store.PendingJobs(); perr == nil {
		metrics.QueueDepth.Set(float64(len(pending)))
	}
	return err
}

// handleRecord delivers one new-record notification: the webhook message and,
// when enabled, the replay archival. The two are independent; an archival
// failure never blocks or retries the webhook and vice versa. Only a webhook
// failure leaves the job pending.
func (d *Dispatcher) handleRecord(ctx context.Context, job *models.Job) error {
	if job.Record == nil || job.Track == nil {
		logging.Error().Msg("Dropping malformed record job")
		return nil
	}

	webhookErr := d.deliverRecord(ctx, job)

	if d.archive != nil {
		switch err := d.archive.Store(ctx, job.Record, job.Track); {
		case errors.Is(err, ErrReplayExists):
			// Redelivered job; the replay landed on a previous attempt.
			logging.Debug().Str("record", job.Record.UID).Msg("Replay already archived")
		case err != nil:
			metrics.ReplayArchiveFailures.Inc()
			logging.Warn().Err(err).Str("record", job.Record.UID).Msg("Replay archival failed")
		}
	}

	return webhookErr
}

// deliverRecord posts the record message to the job's webhook.
func (d *Dispatcher) deliverRecord(ctx context.Context, job *models.Job) error {
	url := job.WebhookURL
	if url == "" {
		url = d.recordURL
	}
	if url == "" {
		logging.Warn().Str("record", job.Record.UID).Msg("No webhook configured for record job")
		return nil
	}

	if _, err := d.webhooks.Post(ctx, url, RecordMessage(job.Record, job.Track)); err != nil {
		metrics.WebhookFailures.Inc()
		logging.Warn().Err(err).Str("record", job.Record.UID).Msg("Record webhook delivery failed")
		return fmt.Errorf("deliver record %s: %w", job.Record.UID, err)
	}

	logging.Info().
		Str("record", job.Record.UID).
		Str("track", job.Track.Name).
		Str("player", job.Record.User.Name).
		Int("score", job.Record.Score).
		Msg("World record announced")
	return nil
}
