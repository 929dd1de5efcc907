// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
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

const testDocument = `{
  "comparisons": [
    {
      "transition_id": "t1",
      "action": {"name": "transfer"},
      "predictions": [{"llm_provider": "p", "prediction": {"reasoning": "ok"}}]
    },
    {
      "transition_id": "t2",
      "action": {"name": "incubate"},
      "predictions": [{"llm_provider": "p", "prediction": {"reasoning": "ok"}}]
    }
  ]
}`

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ds, err := dataset.Parse(strings.NewReader(testDocument))
	require.NoError(t, err)
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	mgr := session.NewManager(ds, st, 7)
	t.Cleanup(func() { _ = mgr.Close() })

	router := gin.New()
	router.GET("/health", HealthCheck)
	router.GET("/v1/categories", ListCategories())
	router.GET("/v1/sessions/:session/next", GetNext(mgr))
	router.POST("/v1/sessions/:session/ratings", SubmitRating(mgr))
	router.POST("/v1/sessions/:session/skip", SkipTransition(mgr))
	router.GET("/v1/sessions/:session/progress", GetProgress(mgr))
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestListCategories(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(router, http.MethodGet, "/v1/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ErrorCategories []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"error_categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.ErrorCategories, 10)
	assert.Equal(t, "materials_missing", resp.ErrorCategories[0].ID)
}

func TestGetNext_ServesItemsUntilDone(t *testing.T) {
	router := setupTestRouter(t)

	for i := 0; i < 2; i++ {
		w := doJSON(router, http.MethodGet, "/v1/sessions/alice/next", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Done       bool `json:"done"`
			Transition struct {
				TransitionID string `json:"transition_id"`
			} `json:"transition"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.False(t, resp.Done)

		rate := doJSON(router, http.MethodPost, "/v1/sessions/alice/ratings", gin.H{
			"transition_id": resp.Transition.TransitionID,
			"payload":       gin.H{"is_plausible": true},
		})
		require.Equal(t, http.StatusOK, rate.Code)
	}

	w := doJSON(router, http.MethodGet, "/v1/sessions/alice/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Done     bool `json:"done"`
		Progress struct {
			Completed int `json:"completed"`
			Remaining int `json:"remaining"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Done)
	assert.Equal(t, 2, resp.Progress.Completed)
	assert.Equal(t, 0, resp.Progress.Remaining)
}

func TestSubmitRating_DuplicateReturnsConflict(t *testing.T) {
	router := setupTestRouter(t)

	body := gin.H{"transition_id": "t1_0", "payload": gin.H{"is_plausible": true}}

	w := doJSON(router, http.MethodPost, "/v1/sessions/alice/ratings", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/v1/sessions/alice/ratings", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate")
}

func TestSubmitRating_UnknownItemReturns404(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(router, http.MethodPost, "/v1/sessions/alice/ratings", gin.H{
		"transition_id": "t9_0",
		"payload":       gin.H{"is_plausible": true},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitRating_BadRequestBodies(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing transition id", `{"payload": {"is_plausible": true}}`},
		{"missing payload", `{"transition_id": "t1_0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions/alice/ratings",
				strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSkipTransition(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(router, http.MethodPost, "/v1/sessions/alice/skip", gin.H{
		"transition_id": "t1_0",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accepted")

	// A skip completes the item like a rating does
	w = doJSON(router, http.MethodGet, "/v1/sessions/alice/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		Completed int `json:"completed"`
		Total     int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, 2, progress.Total)
}

func TestInvalidSessionNameReturns400(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(router, http.MethodGet, fmt.Sprintf("/v1/sessions/%s/next", "bad.name"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgress_FreshSession(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(router, http.MethodGet, "/v1/sessions/carol/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"completed": 0, "total": 2, "remaining": 2}`, w.Body.String())
}
