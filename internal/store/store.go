// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

// Package store provides the persistent substrate of the tracker: an
// ordered key-value store backed by BadgerDB with point get/set, prefix
// scans, conditional creation, and a durable notification queue whose
// enqueue operation commits in the same transaction as the record insert.
//
// All cross-cycle safety of the tracker derives from two primitives here:
// InsertRecord (atomic check-and-set on the record uid, the dedup boundary)
// and CreateIfAbsent (idempotent reference-data creation). There are no
// other locks anywhere in the system.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tmwatch/recordwatch/internal/logging"
	"github.com/tmwatch/recordwatch/internal/models"
)

// Errors returned by store operations.
var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("store: key not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store: closed")
)

// Store is a BadgerDB-backed ordered key-value store.
type Store struct {
	db     *badger.DB
	closed bool

	// queueSignal wakes the queue consumer after a successful enqueue.
	// Buffered so producers never block.
	queueSignal chan struct{}
}

// Open opens (or creates) the store at the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	logging.Info().Str("path", path).Msg("Store opened")

	return &Store{
		db:          db,
		queueSignal: make(chan struct{}, 1),
	}, nil
}

// OpenInMemory opens an ephemeral in-memory store. Intended for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger in-memory: %w", err)
	}

	return &Store{
		db:          db,
		queueSignal: make(chan struct{}, 1),
	}, nil
}

// Close shuts the store down. Safe to call more than once.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	return nil
}

// Get unmarshals the value at key into v. Returns ErrNotFound when absent.
func (s *Store) Get(key string, v any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return err
}

// Set marshals v and writes it at key, overwriting any prior value.
func (s *Store) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// CreateIfAbsent writes v at key only when the key does not exist yet.
// It reports whether this call created the entry. Losing a creation race
// (the key appeared concurrently) returns (false, nil): callers re-read and
// proceed with whichever value is now stored.
func (s *Store) CreateIfAbsent(key string, v any) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", key, err)
	}

	created := false
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil // already present
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get %s: %w", key, err)
		}
		if err := txn.Set([]byte(key), data); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		created = true
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		// A concurrent writer won the race; treat as already present.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return created, nil
}

// ListRaw invokes fn for every entry under prefix, in key order.
// Returning an error from fn stops the scan.
func (s *Store) ListRaw(prefix string, fn func(key string, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(val []byte) error {
				return fn(key, val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// List collects every value stored under prefix, in key order.
func List[T any](s *Store, prefix string) ([]T, error) {
	var out []T
	err := s.ListRaw(prefix, func(key string, val []byte) error {
		var v T
		if err := json.Unmarshal(val, &v); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InsertRecord persists a record and enqueues its notification job as one
// atomic unit, conditioned on the record's uid not existing yet. This single
// check-and-set is the deduplication boundary of the whole system: when the
// record is already present nothing is written or queued and (false, nil) is
// returned - the expected steady state once a WR has been observed.
func (s *Store) InsertRecord(rec *models.Record, job *models.Job) (bool, error) {
	key := RecordKey(rec.CampaignUID, rec.TrackUID, rec.UID)

	recData, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}
	jobData, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("marshal job: %w", err)
	}

	inserted := false
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil // dedup: record already observed
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get %s: %w", key, err)
		}
		if err := txn.Set([]byte(key), recData); err != nil {
			return fmt.Errorf("set record: %w", err)
		}
		if err := txn.Set([]byte(jobKey(time.Now())), jobData); err != nil {
			return fmt.Errorf("enqueue job: %w", err)
		}
		inserted = true
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if inserted {
		s.wakeQueue()
	}
	return inserted, nil
}
