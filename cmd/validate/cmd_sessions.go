// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianValidate/cmd/validate/config"
	"github.com/AleutianAI/AleutianValidate/services/validation/store"
)

// runSessionsCommand lists sessions and their recorded progress without
// starting the server.
func runSessionsCommand(cmd *cobra.Command, args []string) {
	dir := resultsDir
	if dir == "" {
		dir = config.Global.Review.ResultsDir
	}

	st, err := store.New(dir)
	if err != nil {
		log.Fatalf("Failed to open results directory: %v", err)
	}

	names, err := st.ListSessions()
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	if len(names) == 0 {
		fmt.Printf("No sessions found in %s\n", dir)
		return
	}

	for _, name := range names {
		header, err := st.LoadHeader(name)
		if err != nil {
			fmt.Printf("%s: unreadable (%v)\n", name, err)
			continue
		}
		records, err := st.LoadAll(name)
		if err != nil {
			fmt.Printf("%s: unreadable (%v)\n", name, err)
			continue
		}
		// Count distinct rated items; replays of the same id are one rating
		rated := make(map[string]struct{}, len(records))
		for _, rec := range records {
			rated[rec.TransitionID] = struct{}{}
		}
		if header != nil {
			fmt.Printf("%s: %d/%d completed (seed %d, started %s)\n",
				name, len(rated), header.TotalTransitions, header.Seed,
				header.StartTime.Format("2006-01-02 15:04"))
		} else {
			fmt.Printf("%s: %d rated (no header)\n", name, len(rated))
		}
	}
}
