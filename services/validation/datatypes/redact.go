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

import "strings"

// secretMarker separates reviewer-visible reasoning from pipeline-internal
// notes. Everything from the marker on must not reach the review UI.
const secretMarker = "SECRET:"

// TruncateAtSecret cuts reasoning text at the first internal marker.
// Text without a marker is returned unchanged.
func TruncateAtSecret(text string) string {
	if idx := strings.Index(text, secretMarker); idx != -1 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}
