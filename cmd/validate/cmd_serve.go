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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianValidate/cmd/validate/config"
	"github.com/AleutianAI/AleutianValidate/pkg/logging"
	"github.com/AleutianAI/AleutianValidate/services/validation"
)

// runServeCommand starts the review web interface.
//
// Flags override the yaml config; the config supplies defaults so a bare
// `validate serve -d data.json` works on a fresh machine.
func runServeCommand(cmd *cobra.Command, args []string) {
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  "~/.aleutian/logs",
		Service: "validate",
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	if _, err := os.Stat(dataFile); err != nil {
		log.Fatalf("Data file %s not found. Please prepare transition data first.", dataFile)
	}

	cfg := validation.Config{
		DataFile:   dataFile,
		ResultsDir: resultsDir,
		Host:       host,
		Port:       port,
		Seed:       seed,
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = config.Global.Review.ResultsDir
	}
	if cfg.Host == "" {
		cfg.Host = config.Global.Server.Host
	}
	if cfg.Port == 0 {
		cfg.Port = config.Global.Server.Port
	}
	if cmd.Flags().Changed("random-seed") {
		cfg.SeedSet = true
	} else {
		cfg.Seed = config.Global.Review.Seed
	}

	svc, err := validation.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start the validation service: %v", err)
	}

	// Pre-open the named session so resume progress is visible immediately
	if sessionName != "" {
		s, err := svc.Sessions().Open(sessionName)
		if err != nil {
			log.Fatalf("Failed to open session %q: %v", sessionName, err)
		}
		p := s.Progress()
		fmt.Printf("Session %q: %d/%d completed\n", sessionName, p.Completed, p.Total)
	}

	fmt.Printf("Starting validation interface on http://%s:%d\n", cfg.Host, cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := svc.Run(); err != nil {
		log.Fatalf("Validation service error: %v", err)
	}
}
