// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package store implements the durable results store for review sessions.

Each session owns one append-only JSONL file under the results directory,
so sessions from different reviewers never interleave or collide. The first
line is a session header; every later line is one rating record. A record is
framed by its terminating newline: a line without one is a crash-truncated
tail and is discarded on reload rather than corrupting the file.

# Durability Contract

Append writes the marshaled record plus newline and calls File.Sync before
returning. Callers must not update in-memory progress until Append returns
nil; that ordering keeps on-disk state never behind acknowledged in-memory
state. Existing records are never rewritten or reordered by later runs.

# Why JSONL

The same trade as our metrics persistence: human-readable, no query
surface to inject into, and a truncated write damages at most the final
line. An embedded store could replace this file as long as it preserves
append atomicity and truncation-tolerant reload.
*/
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AleutianAI/AleutianValidate/services/validation/datatypes"
)

// ErrStorageWrite marks a write that could not be confirmed durable.
// A submission failing with this error must be surfaced to the reviewer;
// the corresponding item stays unrated.
var ErrStorageWrite = errors.New("results store write failed")

const (
	sessionFilePrefix    = "validation_session_"
	sessionFileExtension = ".jsonl"
)

// Store manages per-session results logs inside one results directory.
//
// # Thread Safety
//
// Store itself is stateless after construction. Serialization of writes
// happens per SessionLog; reads of one session never block writers of
// another.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("results directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the results directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the results file path for a session name.
func (s *Store) Path(sessionName string) string {
	name := sessionFilePrefix + sanitizeSessionName(sessionName) + sessionFileExtension
	return filepath.Join(s.dir, name)
}

// Open opens (creating if absent) the append-only log for a session.
//
// A file left without its final newline by a crash mid-write is repaired
// first: the partial tail is truncated away so the next append starts on a
// fresh line instead of fusing with the fragment into one unreadable line.
//
// The file handle is held open with O_APPEND for the lifetime of the
// SessionLog; close it with Close when the session is released.
func (s *Store) Open(sessionName string) (*SessionLog, error) {
	path := s.Path(sessionName)
	if err := repairTruncatedTail(path); err != nil {
		return nil, fmt.Errorf("failed to repair session log %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log %s: %w", path, err)
	}
	return &SessionLog{f: f, path: path}, nil
}

// repairTruncatedTail truncates an unterminated final line off the session
// file. Complete records always end in a newline; anything after the last
// newline is a crash fragment and was never acknowledged.
func repairTruncatedTail(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return nil
	}
	keep := bytes.LastIndexByte(data, '\n') + 1
	slog.Warn("truncating partial trailing record before reopening session log",
		"path", path, "bytes", len(data)-keep)
	return os.Truncate(path, int64(keep))
}

// LoadAll returns every complete rating record for a session, in the order
// they were appended.
//
// # Description
//
// Scans the session file line-wise. The trailing line is discarded if it
// lacks a terminating newline or does not parse; that is the crash-mid-write
// case and is a recoverable condition, logged at info level, never an error.
// A malformed interior line is skipped with a warning so one bad record
// cannot take the whole session hostage. A missing file simply yields no
// records: the session has not started yet.
//
// # Outputs
//
//   - []datatypes.RatingRecord: Complete rating records, oldest first.
//   - error: Non-nil only for I/O failures, never for content damage.
func (s *Store) LoadAll(sessionName string) ([]datatypes.RatingRecord, error) {
	var records []datatypes.RatingRecord
	err := s.scan(sessionName, func(line []byte) {
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(line, &probe); err != nil || probe.Type != datatypes.RecordTypeRating {
			if probe.Type != datatypes.RecordTypeHeader {
				slog.Warn("skipping malformed results line", "session", sessionName)
			}
			return
		}
		var rec datatypes.RatingRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			slog.Warn("skipping malformed rating record", "session", sessionName, "error", err)
			return
		}
		records = append(records, rec)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// LoadHeader returns the session header, or nil if the session file does
// not exist or carries no header yet (crash between create and header
// write).
func (s *Store) LoadHeader(sessionName string) (*datatypes.SessionHeader, error) {
	var header *datatypes.SessionHeader
	err := s.scan(sessionName, func(line []byte) {
		if header != nil {
			return
		}
		var h datatypes.SessionHeader
		if err := json.Unmarshal(line, &h); err != nil || h.Type != datatypes.RecordTypeHeader {
			return
		}
		header = &h
	})
	if err != nil {
		return nil, err
	}
	return header, nil
}

// ListSessions returns the session names that have a results file.
func (s *Store) ListSessions() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list results directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, sessionFilePrefix) || !strings.HasSuffix(name, sessionFileExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(name, sessionFilePrefix), sessionFileExtension))
	}
	return names, nil
}

// scan reads a session file line by line, handing complete lines to fn.
// A trailing line without its newline is dropped as crash-truncated.
func (s *Store) scan(sessionName string, fn func(line []byte)) error {
	f, err := os.Open(s.Path(sessionName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open session log: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			if len(line) > 0 {
				// Partial tail from a crash mid-write. Complete records
				// always end in a newline, so this one never made it.
				slog.Info("discarding truncated trailing record",
					"session", sessionName, "bytes", len(line))
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read session log: %w", err)
		}
		trimmed := strings.TrimSpace(string(line))
		if trimmed == "" {
			continue
		}
		fn([]byte(trimmed))
	}
}

// =============================================================================
// SessionLog
// =============================================================================

// SessionLog is the open append handle for one session's results file.
//
// # Thread Safety
//
// All writes are serialized by an internal mutex. The session manager
// additionally orders Append against progress updates under its own lock.
type SessionLog struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// Path returns the file backing this log.
func (l *SessionLog) Path() string {
	return l.path
}

// WriteHeader appends the session header line.
//
// Call only when LoadHeader reported no header; the log is append-only and
// a second header would be ignored by readers but waste a line.
func (l *SessionLog) WriteHeader(h datatypes.SessionHeader) error {
	h.Type = datatypes.RecordTypeHeader
	return l.appendLine(h)
}

// Append durably appends one rating record.
//
// # Description
//
// Marshals rec, writes it with its framing newline, and fsyncs before
// returning. On any failure the returned error wraps ErrStorageWrite and
// the caller must treat the record as not persisted.
//
// # Inputs
//
//   - rec: Record to persist. Type is forced to "rating".
//
// # Outputs
//
//   - error: Non-nil if the write or sync could not be confirmed.
func (l *SessionLog) Append(rec datatypes.RatingRecord) error {
	rec.Type = datatypes.RecordTypeRating
	return l.appendLine(rec)
}

// Sync forces buffered data to stable storage.
func (l *SessionLog) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Sync()
}

// Close syncs and closes the underlying file.
func (l *SessionLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.f.Sync(); err != nil {
		_ = l.f.Close()
		return fmt.Errorf("failed to sync session log: %w", err)
	}
	return l.f.Close()
}

func (l *SessionLog) appendLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrStorageWrite, err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorageWrite, l.path, err)
	}
	// Flush to stable storage before acknowledging. The in-memory tracker
	// is only updated after this returns nil.
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %v", ErrStorageWrite, l.path, err)
	}
	return nil
}

// sanitizeSessionName keeps session-derived filenames filesystem-safe.
// Anything outside [A-Za-z0-9_-] becomes an underscore, mirroring how we
// sanitize diagnostic filename hints elsewhere in the product.
func sanitizeSessionName(name string) string {
	var result strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			result.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			result.WriteRune(r)
		case r >= '0' && r <= '9':
			result.WriteRune(r)
		case r == '-' || r == '_':
			result.WriteRune(r)
		default:
			result.WriteRune('_')
		}
	}
	s := result.String()
	if len(s) > 64 {
		s = s[:64]
	}
	if s == "" {
		s = "default"
	}
	return s
}
