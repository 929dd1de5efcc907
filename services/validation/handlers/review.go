// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP surface of the validation service.
//
// Handlers are thin: they translate HTTP requests into session manager
// calls and map the manager's errors onto status codes. All review
// semantics live below this layer.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianValidate/services/validation/datatypes"
	"github.com/AleutianAI/AleutianValidate/services/validation/session"
	"github.com/AleutianAI/AleutianValidate/services/validation/store"
)

// RatingRequest is the submission body for a rating.
// Payload is the reviewer's structured judgment, opaque to the service.
type RatingRequest struct {
	TransitionID string          `json:"transition_id" binding:"required"`
	Payload      json.RawMessage `json:"payload" binding:"required"`
}

// SkipRequest identifies the item the reviewer passed over.
type SkipRequest struct {
	TransitionID string `json:"transition_id" binding:"required"`
}

// GetNext serves the next unrated transition for a session.
func GetNext(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := openSession(c, mgr)
		if !ok {
			return
		}
		item, progress, more := s.GetNext()
		if !more {
			c.JSON(http.StatusOK, gin.H{"done": true, "progress": progress})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"done":       false,
			"transition": item,
			"progress":   progress,
		})
	}
}

// SubmitRating persists a reviewer judgment.
func SubmitRating(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := openSession(c, mgr)
		if !ok {
			return
		}
		var req RatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rating request: " + err.Error()})
			return
		}
		result, err := s.SubmitRating(req.TransitionID, req.Payload)
		writeSubmitResponse(c, s, req.TransitionID, result, err)
	}
}

// SkipTransition records a skip for the given item.
func SkipTransition(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := openSession(c, mgr)
		if !ok {
			return
		}
		var req SkipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip request: " + err.Error()})
			return
		}
		result, err := s.Skip(req.TransitionID)
		writeSubmitResponse(c, s, req.TransitionID, result, err)
	}
}

// GetProgress reports completed/total/remaining for a session.
func GetProgress(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := openSession(c, mgr)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, s.Progress())
	}
}

// ListCategories serves the error taxonomy for the rating form.
func ListCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"error_categories": datatypes.ErrorCategories()})
	}
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// openSession resolves the :session path param, writing the error response
// itself when the name is rejected.
func openSession(c *gin.Context, mgr *session.Manager) (*session.Session, bool) {
	name := c.Param("session")
	s, err := mgr.Open(name)
	if err != nil {
		slog.Warn("rejected session open", "session", name, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return s, true
}

func writeSubmitResponse(c *gin.Context, s *session.Session, transitionID string, result session.SubmitResult, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownSessionItem):
		slog.Warn("submission for unknown transition",
			"session", s.Name(), "transition_id", transitionID)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrStorageWrite):
		slog.Error("failed to persist rating",
			"session", s.Name(), "transition_id", transitionID, "error", err)
		c.JSON(http.StatusServiceUnavailable,
			gin.H{"error": "rating was not saved, please resubmit", "detail": err.Error()})
	case err != nil:
		slog.Error("submission failed",
			"session", s.Name(), "transition_id", transitionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case result == session.SubmitDuplicate:
		c.JSON(http.StatusConflict, gin.H{
			"status":   string(result),
			"progress": s.Progress(),
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"status":   string(result),
			"progress": s.Progress(),
		})
	}
}
