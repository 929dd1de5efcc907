// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"time"
)

// Record type discriminators for the session results log.
//
// Every line in a session log is a JSON object carrying a "type" field so
// headers and ratings can share one append-only file.
const (
	RecordTypeHeader = "header"
	RecordTypeRating = "rating"
)

// RatingRecord is one persisted reviewer judgment.
//
// Records are append-only: once written to a session log they are never
// mutated or deleted. Payload is the reviewer's structured judgment and is
// opaque to the core; its schema belongs to the review UI.
type RatingRecord struct {
	Type         string          `json:"type"`
	RecordID     string          `json:"record_id"`
	TransitionID string          `json:"transition_id"`
	SessionName  string          `json:"session_name"`
	Seed         int64           `json:"seed"`
	Timestamp    time.Time       `json:"timestamp"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// SkippedPayload marks a review item the reviewer chose to pass over.
// Skips are persisted as ordinary rating records so they survive restarts.
var SkippedPayload = json.RawMessage(`{"skipped":true}`)

// SessionHeader is the first line of a session results log. It pins the
// session identity (name + seed), the derived presentation order, and the
// catalog shown to the reviewer, so a later run can reproduce the session
// exactly even if the dataset file changed underneath it.
type SessionHeader struct {
	Type             string          `json:"type"`
	SessionName      string          `json:"session_name"`
	Seed             int64           `json:"seed"`
	StartTime        time.Time       `json:"start_time"`
	SourceDataFile   string          `json:"source_data_file,omitempty"`
	TotalTransitions int             `json:"total_transitions"`
	Order            []string        `json:"order,omitempty"`
	ErrorCategories  []ErrorCategory `json:"error_categories,omitempty"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
}
