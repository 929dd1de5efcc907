// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the shared data model for the validation service.
//
// The types here mirror the transition comparison JSON produced by the
// prediction pipeline. Material and observation payloads are opaque to this
// service; they are parsed only far enough to resolve display names and are
// otherwise forwarded verbatim to the review UI.
package datatypes

import (
	"encoding/json"
)

// Action is the state-changing operation a transition documents.
type Action struct {
	Name       string         `json:"name" validate:"required"`
	Parameters map[string]any `json:"parameters"`
}

// Prediction is a model's predicted outcome for a transition.
//
// NewMaterials entries are kept as loose maps so the material lookup can
// inspect barcode/name pairs without committing to a schema. Observations
// are fully opaque.
type Prediction struct {
	NewMaterials    []map[string]any  `json:"new_materials"`
	NewObservations []json.RawMessage `json:"new_observations"`
	Reasoning       string            `json:"reasoning"`
}

// PredictionEntry is one provider's prediction nested under a
// TransitionRecord. Entries with a non-empty Error are excluded from review.
type PredictionEntry struct {
	LLMProvider string         `json:"llm_provider" validate:"required"`
	Error       string         `json:"error,omitempty"`
	Prediction  Prediction     `json:"prediction"`
	Config      map[string]any `json:"config,omitempty"`
}

// TransitionRecord is one comparison entry from the input dataset: an action
// applied to input materials/observations plus the predictions to be judged.
//
// Records are immutable after load. The dataset loader owns parsing and
// structural validation; everything downstream treats them as read-only.
type TransitionRecord struct {
	TransitionID      string            `json:"transition_id" validate:"required"`
	Action            Action            `json:"action"`
	InputMaterials    []map[string]any  `json:"input_materials"`
	InputObservations []json.RawMessage `json:"input_observations"`
	Predictions       []PredictionEntry `json:"predictions" validate:"required,min=1"`
}

// ReviewItem is the unit of review presented to a human: a single
// prediction fanned out from its parent TransitionRecord.
//
// The TransitionID is the parent id suffixed with the prediction index
// ("<parent>_<index>"), matching the ids written to the results log.
type ReviewItem struct {
	TransitionID         string            `json:"transition_id"`
	OriginalTransitionID string            `json:"original_transition_id"`
	PredictionIndex      int               `json:"prediction_index"`
	Action               Action            `json:"action"`
	InputMaterials       []map[string]any  `json:"input_materials"`
	InputObservations    []json.RawMessage `json:"input_observations"`
	Prediction           PredictionEntry   `json:"prediction"`
}

// Progress summarizes how far a review session has advanced.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}
