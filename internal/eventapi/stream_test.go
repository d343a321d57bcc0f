package eventapi

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/linnemanlabs/warden/internal/classifier"
	"github.com/linnemanlabs/warden/internal/triage"
)

func dialStream(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	api := New(nil, &fakeProcessor{}, &sliceHistory{}, hub)
	r := chi.NewRouter()
	api.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/traces/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers() < n && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Subscribers() < n {
		t.Fatalf("subscribers = %d, want %d", hub.Subscribers(), n)
	}
}

func TestHub_StreamsPublishedTraces(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	conn := dialStream(t, hub)
	waitForSubscribers(t, hub, 1)

	hub.Publish(&triage.Trace{
		ID:         "stream-1",
		Classifier: classifier.Skipped("rule_based_benign"),
	})

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var tr triage.Trace
	if err := conn.ReadJSON(&tr); err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if tr.ID != "stream-1" {
		t.Errorf("trace.ID = %q, want %q", tr.ID, "stream-1")
	}
}

func TestHub_MultipleSubscribersEachReceive(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	a := dialStream(t, hub)
	b := dialStream(t, hub)
	waitForSubscribers(t, hub, 2)

	hub.Publish(&triage.Trace{
		ID:         "fanout",
		Classifier: classifier.Skipped("rule_based_benign"),
	})

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var tr triage.Trace
		if err := conn.ReadJSON(&tr); err != nil {
			t.Fatalf("read trace: %v", err)
		}
		if tr.ID != "fanout" {
			t.Errorf("trace.ID = %q, want %q", tr.ID, "fanout")
		}
	}
}

func TestHub_UnsubscribesOnDisconnect(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	conn := dialStream(t, hub)
	waitForSubscribers(t, hub, 1)

	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Subscribers() != 0 {
		t.Errorf("subscribers = %d after disconnect, want 0", hub.Subscribers())
	}
}

func TestHub_PublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			hub.Publish(&triage.Trace{ID: "noop"})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}
