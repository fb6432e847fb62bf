// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package store

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/tmwatch/recordwatch/internal/logging"
	"github.com/tmwatch/recordwatch/internal/models"
)

// queueSweepInterval bounds how long a job left pending by a failed handler
// waits for redelivery when no new enqueue wakes the consumer.
const queueSweepInterval = 30 * time.Second

// JobHandler processes one dequeued job. Delivery is at-least-once: a crash
// between dequeue and completion redelivers the job on the next drain, so
// handlers must be safe to repeat. Returning nil completes (deletes) the
// job; returning an error leaves it pending for the next sweep.
type JobHandler func(ctx context.Context, job *models.Job) error

// ConsumeQueue drains the durable job queue with the given handler until
// the context is canceled. On startup it immediately drains whatever is
// pending (crash recovery), then waits for enqueue signals or the periodic
// redelivery sweep. It is intended to run as a single supervised goroutine.
func (s *Store) ConsumeQueue(ctx context.Context, handle JobHandler) error {
	ticker := time.NewTicker(queueSweepInterval)
	defer ticker.Stop()

	// Initial drain picks up jobs left over from a previous run.
	s.drainQueue(ctx, handle)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.queueSignal:
			s.drainQueue(ctx, handle)
		case <-ticker.C:
			s.drainQueue(ctx, handle)
		}
	}
}

// wakeQueue pokes the consumer without blocking the producer.
func (s *Store) wakeQueue() {
	select {
	case s.queueSignal <- struct{}{}:
	default:
	}
}

type pendingJob struct {
	key string
	job models.Job
}

func (s *Store) drainQueue(ctx context.Context, handle JobHandler) {
	var pending []pendingJob

	err := s.ListRaw(queuePrefix, func(key string, val []byte) error {
		var job models.Job
		if err := json.Unmarshal(val, &job); err != nil {
			// A malformed payload can never succeed; drop it rather than
			// wedge the queue.
			logging.Error().Err(err).Str("key", key).Msg("Dropping malformed queue job")
			pending = append(pending, pendingJob{key: key})
			return nil
		}
		pending = append(pending, pendingJob{key: key, job: job})
		return nil
	})
	if err != nil {
		logging.Error().Err(err).Msg("Queue scan failed")
		return
	}

	for _, p := range pending {
		if ctx.Err() != nil {
			return
		}

		if p.job.Kind != "" {
			if err := handle(ctx, &p.job); err != nil {
				logging.Warn().Err(err).Str("key", p.key).Msg("Job handling failed, leaving pending")
				continue
			}
		}

		// Completion: only now is the job removed. A crash before this
		// point redelivers on restart.
		if err := s.Delete(p.key); err != nil {
			logging.Error().Err(err).Str("key", p.key).Msg("Failed to remove completed job")
		}
	}
}

// PendingJobs returns the jobs currently waiting in the queue, in order.
// Used by tests and the ops surface; the consumer uses its own drain loop.
func (s *Store) PendingJobs() ([]models.Job, error) {
	return List[models.Job](s, queuePrefix)
}
