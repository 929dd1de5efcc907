// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

type ValidateConfig struct {
	// Server: where the review interface listens
	Server ServerConfig `yaml:"server"`

	// Review: dataset and results defaults
	Review ReviewConfig `yaml:"review"`
}

type ServerConfig struct {
	Host string `yaml:"host"` // e.g. 127.0.0.1
	Port int    `yaml:"port"` // e.g. 12250
}

type ReviewConfig struct {
	ResultsDir string `yaml:"results_dir"` // e.g. ./validation_results
	Seed       int64  `yaml:"seed"`        // fixed default keeps sessions reproducible
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() ValidateConfig {
	return ValidateConfig{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 12250,
		},
		Review: ReviewConfig{
			ResultsDir: "./validation_results",
			Seed:       42,
		},
	}
}
