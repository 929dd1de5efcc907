// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"github.com/AleutianAI/AleutianValidate/services/validation/datatypes"
)

// MaterialLookup maps material barcodes to display names.
//
// Action parameters reference materials by barcode; reviewers need names.
// The lookup is built once at load from every material descriptor in the
// dataset (inputs and predicted outputs alike) and is read-only after that.
type MaterialLookup map[string]string

// BuildMaterialLookup scans all material descriptors for barcode/name pairs.
func BuildMaterialLookup(records []datatypes.TransitionRecord) MaterialLookup {
	lookup := make(MaterialLookup)
	add := func(materials []map[string]any) {
		for _, m := range materials {
			barcode, bok := m["barcode"].(string)
			name, nok := m["name"].(string)
			if bok && nok && barcode != "" {
				lookup[barcode] = name
			}
		}
	}
	for _, rec := range records {
		add(rec.InputMaterials)
		for _, pred := range rec.Predictions {
			add(pred.Prediction.NewMaterials)
		}
	}
	return lookup
}

// ResolveAction returns a copy of a with parameter values resolved from
// barcodes to names. The original action is not modified.
func (l MaterialLookup) ResolveAction(a datatypes.Action) datatypes.Action {
	if len(a.Parameters) == 0 {
		return a
	}
	resolved := datatypes.Action{
		Name:       a.Name,
		Parameters: make(map[string]any, len(a.Parameters)),
	}
	for key, value := range a.Parameters {
		resolved.Parameters[key] = l.resolveValue(value)
	}
	return resolved
}

// resolveValue recursively substitutes barcodes inside nested structures.
// Strings with no lookup entry pass through unchanged.
func (l MaterialLookup) resolveValue(value any) any {
	switch v := value.(type) {
	case string:
		if name, ok := l[v]; ok {
			return name
		}
		return v
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = l.resolveValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = l.resolveValue(item)
		}
		return out
	default:
		return value
	}
}
