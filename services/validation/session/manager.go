// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package session coordinates review sessions over a loaded dataset.

A Session ties one reviewer's identity (name + seed) to a derived
presentation order, a progress tracker, and a durable results log. The
manager keeps open sessions in a registry so a reviewer reconnecting
mid-run reuses the same state, and replays the results log on first open
so resume-after-crash serves exactly the remaining unrated items.

# Serialization

All mutating operations of one session run under its own mutex, so two
near-simultaneous submissions cannot interleave the append-only log or
double-count progress. The store append is confirmed durable before the
in-memory tracker is updated: on-disk state is never behind acknowledged
in-memory state.
*/
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianValidate/pkg/validation"
	"github.com/AleutianAI/AleutianValidate/services/validation/dataset"
	"github.com/AleutianAI/AleutianValidate/services/validation/datatypes"
	"github.com/AleutianAI/AleutianValidate/services/validation/observability"
	"github.com/AleutianAI/AleutianValidate/services/validation/sequencer"
	"github.com/AleutianAI/AleutianValidate/services/validation/store"
	"github.com/AleutianAI/AleutianValidate/services/validation/tracker"
)

// ErrUnknownSessionItem indicates a submission referencing a transition id
// that is not part of the session's derived order. Rejected, not fatal.
var ErrUnknownSessionItem = errors.New("unknown session item")

// SubmitResult reports the outcome of a rating submission.
type SubmitResult string

const (
	// SubmitAccepted means the rating was durably persisted.
	SubmitAccepted SubmitResult = "accepted"

	// SubmitDuplicate means the item was already rated in this session.
	// Nothing was written; the prior record stands.
	SubmitDuplicate SubmitResult = "duplicate"
)

// Manager opens and caches review sessions over one dataset and one
// results store.
type Manager struct {
	ds    *dataset.Dataset
	store *store.Store
	seed  int64

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
//
// seed is the default for sessions that have no results file yet; a
// resumed session keeps the seed recorded in its header regardless.
func NewManager(ds *dataset.Dataset, st *store.Store, seed int64) *Manager {
	return &Manager{
		ds:       ds,
		store:    st,
		seed:     seed,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for name, creating or resuming it as needed.
//
// # Description
//
// On first open of a name this run, the manager loads the session's
// results log, derives (or merges) the presentation order, writes the
// session header if the file is new, and replays prior ratings into a
// fresh tracker. Subsequent opens return the cached session.
//
// For a resumed session whose dataset gained items since the header was
// written, known ids keep their recorded order and new ids are appended
// deterministically; ids that vanished are dropped.
func (m *Manager) Open(name string) (*Session, error) {
	if err := validation.ValidateSessionName(name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[name]; ok {
		return s, nil
	}

	header, err := m.store.LoadHeader(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load session header: %w", err)
	}
	records, err := m.store.LoadAll(name)
	if err != nil {
		return nil, fmt.Errorf("failed to replay session results: %w", err)
	}

	seed := m.seed
	var order []string
	ids := m.ds.ItemIDs()
	if header != nil {
		seed = header.Seed
		if header.Seed != m.seed {
			slog.Warn("Resumed session keeps its recorded seed",
				"session", name,
				"recorded_seed", header.Seed,
				"configured_seed", m.seed)
		}
		order = sequencer.MergeOrder(header.Order, ids, seed)
	} else {
		order = sequencer.DeriveOrder(ids, seed)
	}

	log, err := m.store.Open(name)
	if err != nil {
		return nil, err
	}
	if header == nil {
		h := datatypes.SessionHeader{
			SessionName:      name,
			Seed:             seed,
			StartTime:        time.Now().UTC(),
			SourceDataFile:   m.ds.SourcePath,
			TotalTransitions: len(order),
			Order:            order,
			ErrorCategories:  datatypes.ErrorCategories(),
			Metadata:         m.ds.Metadata,
		}
		if err := log.WriteHeader(h); err != nil {
			_ = log.Close()
			return nil, fmt.Errorf("failed to write session header: %w", err)
		}
	}

	trk := tracker.New(order)
	trk.Replay(records)

	s := &Session{
		name:    name,
		seed:    seed,
		ds:      m.ds,
		log:     log,
		tracker: trk,
	}
	m.sessions[name] = s
	observability.SessionOpened()

	progress := trk.Progress()
	slog.Info("Opened review session",
		"session", name,
		"seed", seed,
		"completed", progress.Completed,
		"total", progress.Total)
	return s, nil
}

// Close releases every open session log.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for name, s := range m.sessions {
		if err := s.log.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close session %s: %w", name, err)
		}
		delete(m.sessions, name)
		observability.SessionClosed()
	}
	return firstErr
}

// =============================================================================
// Session
// =============================================================================

// Session is one reviewer's engagement with the dataset.
type Session struct {
	name string
	seed int64
	ds   *dataset.Dataset

	// mu serializes rate-then-persist sequences. Reads take it too; the
	// critical sections are tiny and a stale NextPending under load would
	// only re-offer an item the idempotent submit path already handles.
	mu      sync.Mutex
	log     *store.SessionLog
	tracker *tracker.Tracker
}

// Name returns the session name.
func (s *Session) Name() string { return s.name }

// Seed returns the seed pinned to this session.
func (s *Session) Seed() int64 { return s.seed }

// GetNext returns the next unrated item in the derived order.
// The boolean is false once every item has been rated.
func (s *Session) GetNext() (datatypes.ReviewItem, datatypes.Progress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress := s.tracker.Progress()
	id, ok := s.tracker.NextPending()
	if !ok {
		observability.RecordNext("done")
		return datatypes.ReviewItem{}, progress, false
	}
	item, found := s.ds.Item(id)
	if !found {
		// Order and dataset disagree; MergeOrder filters vanished ids at
		// open, so this means the dataset mutated in memory. Treat as done
		// rather than serving a phantom.
		slog.Error("derived order references missing item", "session", s.name, "transition_id", id)
		return datatypes.ReviewItem{}, progress, false
	}
	observability.RecordNext("item")
	return item, progress, true
}

// SubmitRating durably records the reviewer's judgment for transitionID.
//
// # Description
//
// Returns SubmitDuplicate without touching the log when the item is
// already rated. Otherwise appends the record, waits for the store to
// confirm durability, and only then marks the item rated. A storage
// failure leaves the item unrated so the reviewer can resubmit.
//
// # Outputs
//
//   - SubmitResult: accepted or duplicate.
//   - error: ErrUnknownSessionItem for ids outside the derived order, or a
//     store.ErrStorageWrite-wrapped error when persistence failed.
func (s *Session) SubmitRating(transitionID string, payload json.RawMessage) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracker.Contains(transitionID) {
		observability.RecordRating("unknown_item")
		return "", fmt.Errorf("%w: %q", ErrUnknownSessionItem, transitionID)
	}
	if s.tracker.IsRated(transitionID) {
		observability.RecordRating("duplicate")
		return SubmitDuplicate, nil
	}

	rec := datatypes.RatingRecord{
		RecordID:     uuid.NewString(),
		TransitionID: transitionID,
		SessionName:  s.name,
		Seed:         s.seed,
		Timestamp:    time.Now().UTC(),
		Payload:      payload,
	}

	start := time.Now()
	if err := s.log.Append(rec); err != nil {
		observability.RecordRating("storage_error")
		return "", err
	}
	observability.ObserveAppend(time.Since(start).Seconds())

	// Disk confirmed; now (and only now) advance in-memory progress.
	s.tracker.MarkRated(transitionID)
	observability.RecordRating("accepted")

	slog.Info("Saved validation rating",
		"session", s.name,
		"transition_id", transitionID)
	return SubmitAccepted, nil
}

// Skip records that the reviewer passed over transitionID.
//
// Persisted as a rating record with a skip payload so the item stays
// completed across restarts instead of silently reappearing.
func (s *Session) Skip(transitionID string) (SubmitResult, error) {
	return s.SubmitRating(transitionID, datatypes.SkippedPayload)
}

// Progress returns completed/total/remaining counts.
func (s *Session) Progress() datatypes.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Progress()
}

// Order returns the session's derived presentation order.
func (s *Session) Order() []string {
	return s.tracker.Order()
}
