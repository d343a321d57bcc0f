// Package sink provides append-only newline-delimited JSON sinks for traces,
// actions, and fetched events.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink is anything that durably appends one JSON record.
type Sink interface {
	Append(ctx context.Context, v any) error
}

// JSONL appends records to a local NDJSON file, one object per line. Safe
// for concurrent use; each Append is a single write call.
type JSONL struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// OpenJSONL opens (or creates) the file in append mode, creating parent
// directories as needed.
func OpenJSONL(path string) (*JSONL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sink dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}
	return &JSONL{path: path, f: f}, nil
}

// Append writes one record as a JSON line.
func (s *JSONL) Append(_ context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(b); err != nil {
		return fmt.Errorf("append to %s: %w", s.path, err)
	}
	return nil
}

// Path returns the sink's file path.
func (s *JSONL) Path() string { return s.path }

// Close closes the underlying file.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
