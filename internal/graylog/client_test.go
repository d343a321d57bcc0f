package graylog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearch_RequestShape(t *testing.T) {
	t.Parallel()

	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, "admin", "secret", "")
	if _, err := c.Search(context.Background(), 2*time.Minute, 500); err != nil {
		t.Fatal(err)
	}

	if gotReq.URL.Path != "/api/search/universal/relative" {
		t.Errorf("path = %q, want /api/search/universal/relative", gotReq.URL.Path)
	}
	q := gotReq.URL.Query()
	if q.Get("query") != DefaultQuery {
		t.Errorf("query = %q, want default query", q.Get("query"))
	}
	if q.Get("range") != "120" {
		t.Errorf("range = %q, want %q", q.Get("range"), "120")
	}
	if q.Get("limit") != "500" {
		t.Errorf("limit = %q, want %q", q.Get("limit"), "500")
	}
	if q.Get("sort") != "timestamp:desc" {
		t.Errorf("sort = %q, want %q", q.Get("sort"), "timestamp:desc")
	}
	user, pass, ok := gotReq.BasicAuth()
	if !ok || user != "admin" || pass != "secret" {
		t.Errorf("basic auth = %q/%q (%v), want admin/secret", user, pass, ok)
	}
}

func TestSearch_FlattensNestedFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []any{
				map[string]any{
					"message": map[string]any{
						"_id":        "msg-1",
						"event_type": "alert",
						"src_ip":     "203.0.113.5",
						"alert": map[string]any{
							"signature": "ET SCAN Nmap",
							"severity":  2,
						},
						"flow": map[string]any{
							"pkts_toserver": 340,
						},
						"http": map[string]any{
							"http_method": "GET",
						},
						"unrelated_field": "dropped",
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "admin", "secret", "")
	events, err := c.Search(context.Background(), time.Minute, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	ev := events[0]
	if ev["_id"] != "msg-1" {
		t.Errorf("_id = %v, want msg-1", ev["_id"])
	}
	if ev["alert_signature"] != "ET SCAN Nmap" {
		t.Errorf("alert_signature = %v, want ET SCAN Nmap", ev["alert_signature"])
	}
	if got := ev["flow_pkts_toserver"]; got != float64(340) {
		t.Errorf("flow_pkts_toserver = %v, want 340", got)
	}
	if ev["http_http_method"] != "GET" {
		t.Errorf("http_http_method = %v, want GET", ev["http_http_method"])
	}
	if _, ok := ev["unrelated_field"]; ok {
		t.Error("fields outside the unified layout should be dropped")
	}
	if _, ok := ev["fileinfo_filename"]; ok {
		t.Error("absent fields should be omitted, not carried as nulls")
	}
}

func TestSearch_PrefersAlreadyFlatFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []any{
				map[string]any{
					"message": map[string]any{
						"alert_signature": "flat wins",
						"alert": map[string]any{
							"signature": "nested loses",
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "p", "")
	events, err := c.Search(context.Background(), time.Minute, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := events[0]["alert_signature"]; got != "flat wins" {
		t.Errorf("alert_signature = %v, want flat field to win", got)
	}
}

func TestSearch_NonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "wrong", "")
	if _, err := c.Search(context.Background(), time.Minute, 10); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestSearch_BadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "p", "")
	if _, err := c.Search(context.Background(), time.Minute, 10); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestNew_CustomQuery(t *testing.T) {
	t.Parallel()

	c := New("http://graylog:9000/", "u", "p", "event_type:alert")
	if c.query != "event_type:alert" {
		t.Errorf("query = %q, want custom query preserved", c.query)
	}
	if c.baseURL != "http://graylog:9000" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
}
