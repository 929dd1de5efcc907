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

// ErrorCategory is one entry in the fixed error taxonomy reviewers pick
// from when marking a prediction implausible.
type ErrorCategory struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ErrorCategories returns the review error taxonomy.
//
// The catalog is embedded in every session header so result files remain
// interpretable even if the taxonomy changes in a later release.
func ErrorCategories() []ErrorCategory {
	return []ErrorCategory{
		{
			ID:          "materials_missing",
			Label:       "Missing Expected Materials",
			Description: "Expected materials were not predicted",
		},
		{
			ID:          "materials_incorrect",
			Label:       "Incorrect Material Properties",
			Description: "Material properties don't match expected values",
		},
		{
			ID:          "materials_extra",
			Label:       "Unexpected Materials",
			Description: "Materials predicted that shouldn't exist",
		},
		{
			ID:          "observations_missing",
			Label:       "Missing Expected Observations",
			Description: "Expected observations were not predicted",
		},
		{
			ID:          "observations_incorrect",
			Label:       "Incorrect Observation Values",
			Description: "Observation values don't match expected results",
		},
		{
			ID:          "observations_extra",
			Label:       "Unexpected Observations",
			Description: "Observations predicted that shouldn't occur",
		},
		{
			ID:          "timing_wrong",
			Label:       "Incorrect Timing",
			Description: "Events predicted at wrong time points",
		},
		{
			ID:          "physical_impossible",
			Label:       "Physically Impossible",
			Description: "Predictions violate physical laws or constraints",
		},
		{
			ID:          "reasoning_flawed",
			Label:       "Flawed Reasoning",
			Description: "Logical errors in the model's reasoning",
		},
		{
			ID:          "context_ignored",
			Label:       "Context Ignored",
			Description: "Model ignored important contextual information",
		},
	}
}
