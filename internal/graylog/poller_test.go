package graylog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

type recordingSink struct {
	mu      sync.Mutex
	records []any
}

func (s *recordingSink) Append(_ context.Context, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, v)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestPoller_AppendsFetchedEvents(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []any{
				map[string]any{"message": map[string]any{"_id": "p1", "event_type": "alert"}},
				map[string]any{"message": map[string]any{"_id": "p2", "event_type": "fileinfo"}},
			},
		})
	}))
	defer srv.Close()

	events := &recordingSink{}
	p := NewPoller(New(srv.URL, "u", "p", ""), events, time.Hour, 2*time.Minute, 500, log.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for events.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}

	if events.count() != 2 {
		t.Fatalf("appended events = %d, want 2", events.count())
	}
}

func TestPoller_SurvivesFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	events := &recordingSink{}
	p := NewPoller(New(srv.URL, "u", "p", ""), events, 10*time.Millisecond, time.Minute, 10, log.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := p.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run returned %v, want context.DeadlineExceeded", err)
	}
	if events.count() != 0 {
		t.Errorf("appended events = %d, want 0", events.count())
	}
}
