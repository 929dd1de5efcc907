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
Package tracker maintains per-session review progress.

A Tracker holds the derived presentation order and the set of transition
identifiers already rated. It is rebuilt at session open by replaying the
session's persisted rating records, which is what makes resume-after-crash
show exactly the remaining unrated items in the original order.

# Thread Safety

Tracker is safe for concurrent use. The session manager additionally
serializes rate-then-persist sequences under its own per-session lock; the
Tracker mutex alone does not order a MarkRated against the store append it
belongs to.
*/
package tracker

import (
	"sync"

	"github.com/AleutianAI/AleutianValidate/services/validation/datatypes"
)

// Tracker tracks which items of a derived order have been rated.
type Tracker struct {
	mu    sync.RWMutex
	order []string
	rated map[string]struct{}

	// inOrder mirrors order for O(1) membership checks.
	inOrder map[string]struct{}
}

// New creates a Tracker over a derived presentation order.
// The order slice is copied; later caller mutations are not observed.
func New(order []string) *Tracker {
	t := &Tracker{
		order:   make([]string, len(order)),
		rated:   make(map[string]struct{}),
		inOrder: make(map[string]struct{}, len(order)),
	}
	copy(t.order, order)
	for _, id := range order {
		t.inOrder[id] = struct{}{}
	}
	return t
}

// Replay marks every transition id in records as rated.
//
// Used at session open to rebuild state from the results store. Records
// referencing ids outside the order are ignored; they belong to an earlier
// dataset snapshot and must not corrupt progress counts.
func (t *Tracker) Replay(records []datatypes.RatingRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range records {
		if _, ok := t.inOrder[rec.TransitionID]; ok {
			t.rated[rec.TransitionID] = struct{}{}
		}
	}
}

// NextPending returns the first identifier in the derived order that has
// not been rated. The second return is false once every item is rated.
func (t *Tracker) NextPending() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.order {
		if _, done := t.rated[id]; !done {
			return id, true
		}
	}
	return "", false
}

// MarkRated records id as rated. Marking an already-rated id is a no-op,
// so replayed or duplicate submissions from a flaky client are harmless.
func (t *Tracker) MarkRated(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inOrder[id]; ok {
		t.rated[id] = struct{}{}
	}
}

// IsRated reports whether id has been rated in this session.
func (t *Tracker) IsRated(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rated[id]
	return ok
}

// Contains reports whether id is part of the derived order at all.
func (t *Tracker) Contains(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.inOrder[id]
	return ok
}

// Order returns a copy of the derived presentation order.
func (t *Tracker) Order() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Progress returns completed/total/remaining counts for the session.
func (t *Tracker) Progress() datatypes.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return datatypes.Progress{
		Completed: len(t.rated),
		Total:     len(t.order),
		Remaining: len(t.order) - len(t.rated),
	}
}
