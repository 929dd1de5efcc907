// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianValidate/services/validation/dataset"
	"github.com/AleutianAI/AleutianValidate/services/validation/observability"
	"github.com/AleutianAI/AleutianValidate/services/validation/store"
)

const testSeed int64 = 7

func testDataset(t *testing.T, transitionIDs ...string) *dataset.Dataset {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(`{"comparisons": [`)
	for i, id := range transitionIDs {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{
			"transition_id": %q,
			"action": {"name": "transfer"},
			"predictions": [{"llm_provider": "p", "prediction": {"reasoning": "ok"}}]
		}`, id)
	}
	sb.WriteString(`]}`)
	ds, err := dataset.Parse(strings.NewReader(sb.String()))
	require.NoError(t, err)
	return ds
}

func newTestManager(t *testing.T, ds *dataset.Dataset) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	mgr := NewManager(ds, st, testSeed)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr, st
}

func ratingPayload() json.RawMessage {
	return json.RawMessage(`{"is_plausible": true, "error_categories": []}`)
}

func TestOpen_NewSessionWritesHeader(t *testing.T) {
	ds := testDataset(t, "t1", "t2", "t3")
	mgr, st := newTestManager(t, ds)

	s, err := mgr.Open("alice")
	require.NoError(t, err)
	assert.Equal(t, testSeed, s.Seed())
	assert.ElementsMatch(t, []string{"t1_0", "t2_0", "t3_0"}, s.Order())

	header, err := st.LoadHeader("alice")
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, testSeed, header.Seed)
	assert.Equal(t, s.Order(), header.Order)
	assert.Equal(t, 3, header.TotalTransitions)
	assert.Len(t, header.ErrorCategories, 10)
}

func TestOpen_CachesSessions(t *testing.T) {
	ds := testDataset(t, "t1")
	mgr, _ := newTestManager(t, ds)

	s1, err := mgr.Open("alice")
	require.NoError(t, err)
	s2, err := mgr.Open("alice")
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestOpen_RejectsInvalidName(t *testing.T) {
	ds := testDataset(t, "t1")
	mgr, _ := newTestManager(t, ds)

	_, err := mgr.Open("../escape")
	require.Error(t, err)
	_, err = mgr.Open("")
	require.Error(t, err)
}

func TestSessionsAreIndependent(t *testing.T) {
	ds := testDataset(t, "t1", "t2")
	mgr, _ := newTestManager(t, ds)

	alice, err := mgr.Open("alice")
	require.NoError(t, err)
	bob, err := mgr.Open("bob")
	require.NoError(t, err)

	// Same seed, same dataset: both reviewers see the same derived order
	assert.Equal(t, alice.Order(), bob.Order())

	_, err = alice.SubmitRating("t1_0", ratingPayload())
	require.NoError(t, err)

	assert.Equal(t, 1, alice.Progress().Completed)
	assert.Equal(t, 0, bob.Progress().Completed, "one reviewer's rating must not advance another's session")
}

func TestGetNext_WalksDerivedOrder(t *testing.T) {
	ds := testDataset(t, "t1", "t2", "t3")
	mgr, _ := newTestManager(t, ds)

	s, err := mgr.Open("alice")
	require.NoError(t, err)

	var served []string
	for {
		item, _, ok := s.GetNext()
		if !ok {
			break
		}
		served = append(served, item.TransitionID)
		result, err := s.SubmitRating(item.TransitionID, ratingPayload())
		require.NoError(t, err)
		assert.Equal(t, SubmitAccepted, result)
	}

	assert.Equal(t, s.Order(), served)

	progress := s.Progress()
	assert.Equal(t, 3, progress.Completed)
	assert.Equal(t, 0, progress.Remaining)
}

func TestSubmitRating_DuplicateIsRejectedWithoutWrite(t *testing.T) {
	ds := testDataset(t, "t1")
	mgr, st := newTestManager(t, ds)

	s, err := mgr.Open("alice")
	require.NoError(t, err)

	result, err := s.SubmitRating("t1_0", ratingPayload())
	require.NoError(t, err)
	assert.Equal(t, SubmitAccepted, result)

	result, err = s.SubmitRating("t1_0", json.RawMessage(`{"is_plausible": false}`))
	require.NoError(t, err)
	assert.Equal(t, SubmitDuplicate, result)

	records, err := st.LoadAll("alice")
	require.NoError(t, err)
	require.Len(t, records, 1, "the first record stands; nothing appended for the duplicate")
	assert.JSONEq(t, `{"is_plausible": true, "error_categories": []}`, string(records[0].Payload))
}

func TestSubmitRating_UnknownItem(t *testing.T) {
	ds := testDataset(t, "t1")
	mgr, _ := newTestManager(t, ds)

	s, err := mgr.Open("alice")
	require.NoError(t, err)

	_, err = s.SubmitRating("t9_0", ratingPayload())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSessionItem)
	assert.Equal(t, 0, s.Progress().Completed)
}

func TestSkip_PersistsAndCompletesItem(t *testing.T) {
	ds := testDataset(t, "t1", "t2")
	mgr, st := newTestManager(t, ds)

	s, err := mgr.Open("alice")
	require.NoError(t, err)

	first := s.Order()[0]
	result, err := s.Skip(first)
	require.NoError(t, err)
	assert.Equal(t, SubmitAccepted, result)

	item, _, ok := s.GetNext()
	require.True(t, ok)
	assert.Equal(t, s.Order()[1], item.TransitionID, "skipped item is not re-served")

	records, err := st.LoadAll("alice")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"skipped": true}`, string(records[0].Payload))
}

func TestResume_AfterRestart(t *testing.T) {
	ds := testDataset(t, "t1", "t2", "t3")
	dir := t.TempDir()

	st, err := store.New(dir)
	require.NoError(t, err)
	mgr := NewManager(ds, st, testSeed)

	s, err := mgr.Open("alice")
	require.NoError(t, err)
	order := s.Order()

	item, _, ok := s.GetNext()
	require.True(t, ok)
	_, err = s.SubmitRating(item.TransitionID, ratingPayload())
	require.NoError(t, err)
	require.NoError(t, mgr.Close())

	// Fresh manager over the same results directory, as after a restart
	st2, err := store.New(dir)
	require.NoError(t, err)
	mgr2 := NewManager(ds, st2, testSeed)
	t.Cleanup(func() { _ = mgr2.Close() })

	resumed, err := mgr2.Open("alice")
	require.NoError(t, err)
	assert.Equal(t, order, resumed.Order(), "presentation order is stable across restarts")
	assert.Equal(t, 1, resumed.Progress().Completed)

	next, _, ok := resumed.GetNext()
	require.True(t, ok)
	assert.Equal(t, order[1], next.TransitionID, "resume picks up at the first unrated item")
}

func TestResume_RecordedSeedWinsOverConfigured(t *testing.T) {
	ds := testDataset(t, "t1", "t2", "t3")
	dir := t.TempDir()

	st, err := store.New(dir)
	require.NoError(t, err)
	mgr := NewManager(ds, st, testSeed)
	s, err := mgr.Open("alice")
	require.NoError(t, err)
	order := s.Order()
	require.NoError(t, mgr.Close())

	st2, err := store.New(dir)
	require.NoError(t, err)
	mgr2 := NewManager(ds, st2, testSeed+100)
	t.Cleanup(func() { _ = mgr2.Close() })

	resumed, err := mgr2.Open("alice")
	require.NoError(t, err)
	assert.Equal(t, testSeed, resumed.Seed())
	assert.Equal(t, order, resumed.Order())
}

func TestResume_DatasetGrewSinceHeader(t *testing.T) {
	dir := t.TempDir()

	st, err := store.New(dir)
	require.NoError(t, err)
	mgr := NewManager(testDataset(t, "t1", "t2"), st, testSeed)
	s, err := mgr.Open("alice")
	require.NoError(t, err)
	originalOrder := s.Order()

	_, err = s.SubmitRating(originalOrder[0], ratingPayload())
	require.NoError(t, err)
	require.NoError(t, mgr.Close())

	// Same session resumed against a dataset with an extra comparison
	st2, err := store.New(dir)
	require.NoError(t, err)
	mgr2 := NewManager(testDataset(t, "t1", "t2", "t3"), st2, testSeed)
	t.Cleanup(func() { _ = mgr2.Close() })

	resumed, err := mgr2.Open("alice")
	require.NoError(t, err)
	mergedOrder := resumed.Order()

	require.Len(t, mergedOrder, 3)
	assert.Equal(t, originalOrder, mergedOrder[:2], "known items keep their recorded positions")
	assert.Equal(t, "t3_0", mergedOrder[2], "new items are appended after the recorded order")

	progress := resumed.Progress()
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, 3, progress.Total)
}

func TestClose_ReleasesOpenSessionGauge(t *testing.T) {
	metrics := observability.InitMetrics()
	before := testutil.ToFloat64(metrics.SessionsOpen)

	ds := testDataset(t, "t1")
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	mgr := NewManager(ds, st, testSeed)

	_, err = mgr.Open("alice")
	require.NoError(t, err)
	_, err = mgr.Open("bob")
	require.NoError(t, err)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.SessionsOpen))

	require.NoError(t, mgr.Close())
	assert.Equal(t, before, testutil.ToFloat64(metrics.SessionsOpen),
		"closing the manager releases every open session")
}

func TestGetNext_DoneWhenAllRated(t *testing.T) {
	ds := testDataset(t, "t1")
	mgr, _ := newTestManager(t, ds)

	s, err := mgr.Open("alice")
	require.NoError(t, err)

	_, err = s.SubmitRating("t1_0", ratingPayload())
	require.NoError(t, err)

	_, progress, ok := s.GetNext()
	assert.False(t, ok)
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, 0, progress.Remaining)
}
