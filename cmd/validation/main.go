// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command validation starts the AleutianValidate review HTTP server.
//
// This is the entry point for the containerized validation service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - VALIDATION_PORT: HTTP server port (default: 12250)
//   - VALIDATION_HOST: Listen address (default: 127.0.0.1)
//   - VALIDATION_DATA_FILE: Transition comparison JSON (required)
//   - VALIDATION_RESULTS_DIR: Results directory (default: ./validation_results)
//   - VALIDATION_SEED: Presentation order seed (default: 42)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//
// # Usage
//
//	# Build
//	go build -o validation ./cmd/validation
//
//	# Run
//	VALIDATION_DATA_FILE=transition_comparisons.json ./validation
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/AleutianAI/AleutianValidate/services/validation"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := validation.Config{
		Port:         getEnvInt("VALIDATION_PORT", 12250),
		Host:         getEnvString("VALIDATION_HOST", "127.0.0.1"),
		DataFile:     os.Getenv("VALIDATION_DATA_FILE"),
		ResultsDir:   getEnvString("VALIDATION_RESULTS_DIR", "./validation_results"),
		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	if raw := os.Getenv("VALIDATION_SEED"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Fatalf("Invalid VALIDATION_SEED %q: %v", raw, err)
		}
		cfg.Seed = seed
		cfg.SeedSet = true
	}

	slog.Info("Starting validation service",
		"port", cfg.Port,
		"data_file", cfg.DataFile,
		"results_dir", cfg.ResultsDir,
	)

	svc, err := validation.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create validation service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Validation service error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
