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
Package sequencer derives the presentation order for a review session.

Reviewers must see items in a reproducible but non-authoring order: a seeded
shuffle removes dataset-authoring bias while letting two reviewers with the
same seed compare identical sequences, or reviewers with different seeds
produce independent orderings for inter-rater reliability.

# Determinism

DeriveOrder must return a byte-for-byte identical sequence for a given
(identifier set, seed) pair across runs, processes, and platforms. Two
properties guarantee that:

  - Input identifiers are sorted before shuffling, so map iteration order
    and dataset insertion order never leak into the result.
  - The shuffle draws exclusively from math/rand seeded with the session
    seed. The Go 1 generator algorithm is frozen by the compatibility
    promise, so the permutation is stable across Go releases and
    architectures.
*/
package sequencer

import (
	"math/rand"
	"sort"
)

// DefaultSeed is used when the operator does not choose a seed explicitly.
// A fixed constant keeps unseeded sessions reproducible; true randomness is
// strictly opt-in.
const DefaultSeed int64 = 42

// DeriveOrder returns a deterministic pseudo-random permutation of ids.
//
// # Description
//
// Sorts a copy of ids lexicographically, then applies a Fisher-Yates
// shuffle driven by a generator seeded with seed. The input slice is never
// mutated. An empty or nil input yields an empty (non-nil) order.
//
// # Inputs
//
//   - ids: Transition identifiers to order. Duplicates are the caller's
//     responsibility; the dataset loader rejects them at load time.
//   - seed: Sole source of randomness for the permutation.
//
// # Outputs
//
//   - []string: The derived presentation order.
//
// # Examples
//
//	order := sequencer.DeriveOrder(ds.ItemIDs(), 42)
//	first := order[0] // identical on every run for this dataset+seed
func DeriveOrder(ids []string, seed int64) []string {
	order := make([]string, len(ids))
	copy(order, ids)
	sort.Strings(order)

	rng := rand.New(rand.NewSource(seed))
	for i := len(order) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	return order
}

// MergeOrder reconciles a previously derived order with the identifier set
// of a freshly loaded dataset.
//
// # Description
//
// Known identifiers keep their position from prior (minus any that vanished
// from the dataset). Identifiers the prior order has never seen are shuffled
// among themselves with the same seed and appended, so a grown dataset
// extends a resumed session deterministically instead of reshuffling items
// the reviewer has already been sequenced through.
//
// # Inputs
//
//   - prior: Order recorded in the session header. May be empty.
//   - ids: Identifier set of the current dataset.
//   - seed: Session seed, used only for ordering the appended newcomers.
//
// # Outputs
//
//   - []string: prior filtered to live ids, followed by new ids in derived
//     order.
func MergeOrder(prior []string, ids []string, seed int64) []string {
	live := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		live[id] = struct{}{}
	}

	merged := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(prior))
	for _, id := range prior {
		if _, ok := live[id]; !ok {
			continue
		}
		merged = append(merged, id)
		seen[id] = struct{}{}
	}

	var fresh []string
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	merged = append(merged, DeriveOrder(fresh, seed)...)

	return merged
}
