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
Package dataset loads transition comparison files for review.

The input is a JSON document with a top-level "comparisons" array. The
loader validates structural integrity (ids present and unique, at least one
prediction per record), fans each prediction out into its own reviewable
item, and builds the material barcode lookup used to render action
parameters with human-readable names. It never interprets the semantic
content of materials, observations, or predictions.
*/
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianValidate/services/validation/datatypes"
)

var (
	// ErrMalformedDataset indicates a structurally invalid input document.
	// Fatal at load, before any session starts.
	ErrMalformedDataset = errors.New("malformed dataset")

	// ErrDuplicateTransitionID indicates a transition_id appearing more
	// than once in the dataset. Fatal at load.
	ErrDuplicateTransitionID = errors.New("duplicate transition id")
)

// document is the raw top-level shape of a comparison file.
type document struct {
	Comparisons []datatypes.TransitionRecord `json:"comparisons"`
	Metadata    map[string]any               `json:"metadata"`
}

// Dataset is an immutable, loaded comparison file.
//
// Records holds the comparison entries as authored; Items holds the
// per-prediction fan-out actually presented to reviewers. Both are
// read-only after Load returns.
type Dataset struct {
	SourcePath string
	Records    []datatypes.TransitionRecord
	Items      []datatypes.ReviewItem
	Metadata   map[string]any

	lookup    MaterialLookup
	itemsByID map[string]int
}

// Load reads and validates a comparison file from disk.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		return nil, err
	}
	ds.SourcePath = path

	slog.Info("Loaded transition dataset",
		"path", path,
		"comparisons", len(ds.Records),
		"review_items", len(ds.Items),
		"material_lookup_entries", len(ds.lookup))
	return ds, nil
}

// Parse decodes and validates a comparison document from r.
//
// # Description
//
// Enforces the loader contract: the "comparisons" collection must be
// present, every record needs a transition_id unique within the dataset,
// and every record needs at least one prediction. Violations return
// ErrMalformedDataset or ErrDuplicateTransitionID with detail wrapped in.
//
// Predictions that recorded a pipeline error are excluded from the fan-out;
// they were never valid judgments to collect.
func Parse(r io.Reader) (*Dataset, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
	}
	if doc.Comparisons == nil {
		return nil, fmt.Errorf("%w: missing top-level \"comparisons\" collection", ErrMalformedDataset)
	}

	validate := validator.New()
	seen := make(map[string]struct{}, len(doc.Comparisons))
	for i, rec := range doc.Comparisons {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: comparison %d: %v", ErrMalformedDataset, i, err)
		}
		if _, dup := seen[rec.TransitionID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTransitionID, rec.TransitionID)
		}
		seen[rec.TransitionID] = struct{}{}
	}

	ds := &Dataset{
		Records:  doc.Comparisons,
		Metadata: doc.Metadata,
		lookup:   BuildMaterialLookup(doc.Comparisons),
	}
	ds.fanOut()
	return ds, nil
}

// fanOut expands each comparison into one ReviewItem per usable prediction.
func (d *Dataset) fanOut() {
	d.itemsByID = make(map[string]int)
	for _, rec := range d.Records {
		for i, pred := range rec.Predictions {
			if pred.Error != "" {
				continue
			}
			item := datatypes.ReviewItem{
				TransitionID:         fmt.Sprintf("%s_%d", rec.TransitionID, i),
				OriginalTransitionID: rec.TransitionID,
				PredictionIndex:      i,
				Action:               d.lookup.ResolveAction(rec.Action),
				InputMaterials:       rec.InputMaterials,
				InputObservations:    rec.InputObservations,
				Prediction:           pred,
			}
			item.Prediction.Prediction.Reasoning = datatypes.TruncateAtSecret(pred.Prediction.Reasoning)
			d.itemsByID[item.TransitionID] = len(d.Items)
			d.Items = append(d.Items, item)
		}
	}
}

// ItemIDs returns the identifiers of all reviewable items, in dataset order.
func (d *Dataset) ItemIDs() []string {
	ids := make([]string, len(d.Items))
	for i, item := range d.Items {
		ids[i] = item.TransitionID
	}
	return ids
}

// Item returns the review item for id.
func (d *Dataset) Item(id string) (datatypes.ReviewItem, bool) {
	idx, ok := d.itemsByID[id]
	if !ok {
		return datatypes.ReviewItem{}, false
	}
	return d.Items[idx], true
}

// Lookup returns the material barcode lookup built at load time.
func (d *Dataset) Lookup() MaterialLookup {
	return d.lookup
}
