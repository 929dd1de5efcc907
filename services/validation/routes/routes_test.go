// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianValidate/services/validation/dataset"
	"github.com/AleutianAI/AleutianValidate/services/validation/session"
	"github.com/AleutianAI/AleutianValidate/services/validation/store"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ds, err := dataset.Parse(strings.NewReader(`{
		"comparisons": [{
			"transition_id": "t1",
			"action": {"name": "transfer"},
			"predictions": [{"llm_provider": "p", "prediction": {"reasoning": "ok"}}]
		}]
	}`))
	require.NoError(t, err)
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	mgr := session.NewManager(ds, st, 7)
	t.Cleanup(func() { _ = mgr.Close() })

	router := gin.New()
	SetupRoutes(router, mgr)
	return router
}

func TestSetupRoutes_RegistersExpectedEndpoints(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/v1/categories", http.StatusOK},
		{http.MethodGet, "/v1/sessions/alice/next", http.StatusOK},
		{http.MethodGet, "/v1/sessions/alice/progress", http.StatusOK},
		{http.MethodGet, "/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSetupRoutes_MethodMismatch(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/alice/ratings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
