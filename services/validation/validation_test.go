// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianValidate/services/validation/sequencer"
)

func writeTestDataFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comparisons.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0640))
	return path
}

func newTestService(t *testing.T) Service {
	t.Helper()
	dataFile := writeTestDataFile(t, `{
		"comparisons": [{
			"transition_id": "t1",
			"action": {"name": "transfer"},
			"predictions": [{"llm_provider": "p", "prediction": {"reasoning": "ok"}}]
		}]
	}`)

	svc, err := New(Config{
		DataFile:   dataFile,
		ResultsDir: t.TempDir(),
		GinMode:    gin.TestMode,
	})
	require.NoError(t, err)
	return svc
}

func TestNew_RequiresDataFile(t *testing.T) {
	_, err := New(Config{ResultsDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data file")
}

func TestNew_RejectsMalformedDataFile(t *testing.T) {
	dataFile := writeTestDataFile(t, `{"metadata": {}}`)

	_, err := New(Config{DataFile: dataFile, ResultsDir: t.TempDir(), GinMode: gin.TestMode})
	require.Error(t, err)
}

func TestNew_AppliesDefaults(t *testing.T) {
	cfg := applyConfigDefaults(Config{})
	assert.Equal(t, 12250, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "./validation_results", cfg.ResultsDir)
	assert.Equal(t, sequencer.DefaultSeed, cfg.Seed)
	assert.False(t, cfg.DisableMetrics)
	assert.False(t, cfg.DisableWatch)
}

func TestNew_ExplicitZeroSeedIsKept(t *testing.T) {
	cfg := applyConfigDefaults(Config{Seed: 0, SeedSet: true})
	assert.Equal(t, int64(0), cfg.Seed)
}

func TestNew_DisableFlagsAreHonored(t *testing.T) {
	cfg := applyConfigDefaults(Config{DisableMetrics: true, DisableWatch: true})
	assert.True(t, cfg.DisableMetrics, "defaults must not overwrite an explicit opt-out")
	assert.True(t, cfg.DisableWatch, "defaults must not overwrite an explicit opt-out")

	dataFile := writeTestDataFile(t, `{
		"comparisons": [{
			"transition_id": "t1",
			"action": {"name": "transfer"},
			"predictions": [{"llm_provider": "p", "prediction": {"reasoning": "ok"}}]
		}]
	}`)
	svc, err := New(Config{
		DataFile:       dataFile,
		ResultsDir:     t.TempDir(),
		GinMode:        gin.TestMode,
		DisableMetrics: true,
		DisableWatch:   true,
	})
	require.NoError(t, err)

	impl := svc.(*service)
	assert.Nil(t, impl.watcher, "no watcher goroutine when watching is disabled")
}

func TestRouter_RecoversFromHandlerPanic(t *testing.T) {
	svc := newTestService(t)
	svc.Router().GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	svc.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestService_ServesHealthAndReviewFlow(t *testing.T) {
	svc := newTestService(t)

	w := httptest.NewRecorder()
	svc.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	svc.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/sessions/alice/next", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "t1_0")

	s, err := svc.Sessions().Open("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1_0"}, s.Order())
}
