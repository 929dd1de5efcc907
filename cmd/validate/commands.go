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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	dataFile    string
	resultsDir  string
	sessionName string
	seed        int64
	port        int
	host        string

	rootCmd = &cobra.Command{
		Use:   "validate",
		Short: "A cli to review LLM transition model predictions",
		Long: `Validate serves a local web interface that presents machine-generated
				transition predictions to a human reviewer and persists the
				resulting plausibility ratings per session.`,
	}

	// --- Serve ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the review web interface against a comparison dataset",
		Run:   runServeCommand, // Defined in cmd_serve.go
	}

	// --- Sessions ---
	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "List review sessions found in the results directory",
		Run:   runSessionsCommand, // Defined in cmd_sessions.go
	}
)

func init() {
	serveCmd.Flags().StringVarP(&dataFile, "data-file", "d", "./transition_comparisons.json",
		"JSON file containing transition comparison data")
	serveCmd.Flags().StringVarP(&resultsDir, "results-dir", "r", "",
		"Directory to save validation results (default from config)")
	serveCmd.Flags().StringVarP(&sessionName, "session-name", "s", "",
		"Pre-open a named session at startup")
	serveCmd.Flags().Int64Var(&seed, "random-seed", 0,
		"Random seed for reproducible ordering across reviewers (default from config)")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0,
		"Port to run the web server on (default from config)")
	serveCmd.Flags().StringVar(&host, "host", "",
		"Host to run the web server on (default from config)")

	sessionsCmd.Flags().StringVarP(&resultsDir, "results-dir", "r", "",
		"Directory containing validation results (default from config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
}
