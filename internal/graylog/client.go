// Package graylog pulls Suricata events out of a Graylog server's relative
// search API and normalizes them into the flat field layout the rest of the
// pipeline expects.
package graylog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultQuery selects the Suricata event kinds worth triaging.
const DefaultQuery = "filebeat_source:suricata AND (event_type:alert OR event_type:fileinfo)"

const maxResponseBytes = 32 << 20

// fieldOrder is the unified flat schema for alert and fileinfo events.
// Downstream consumers key on these names.
var fieldOrder = []string{
	"timestamp", "event_type", "app_proto", "proto",
	"src_ip", "src_port", "dest_ip", "dest_port", "direction",

	"alert_signature_id", "alert_signature", "alert_rev",
	"alert_severity", "alert_action", "alert_category",

	"fileinfo_filename", "fileinfo_size", "fileinfo_state", "fileinfo_stored",

	"http_protocol", "http_hostname", "http_http_method",
	"http_url", "http_status", "http_http_content_type",

	"flow_id", "flow_pkts_toserver", "flow_pkts_toclient",
	"flow_bytes_toserver", "flow_bytes_toclient", "flow_start",

	"source", "filebeat_host_name", "_id",
}

// nestedPrefixes are the Suricata sub-documents Graylog sometimes leaves
// unflattened. "http_http_method" falls back to message["http"]["http_method"].
var nestedPrefixes = []string{"http_", "fileinfo_", "flow_", "alert_"}

// Client queries one Graylog server with basic auth.
type Client struct {
	baseURL    string
	username   string
	password   string
	query      string
	httpClient *http.Client
}

// New creates a client for the given Graylog base URL (scheme://host:port).
// An empty query falls back to DefaultQuery.
func New(baseURL, username, password, query string) *Client {
	if query == "" {
		query = DefaultQuery
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		query:    query,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type searchResponse struct {
	Messages []struct {
		Message map[string]any `json:"message"`
	} `json:"messages"`
}

// Search fetches events from the last window, newest first, up to limit,
// flattened to the unified field layout.
func (c *Client) Search(ctx context.Context, window time.Duration, limit int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("query", c.query)
	q.Set("range", strconv.Itoa(int(window.Seconds())))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "timestamp:desc")

	u := c.baseURL + "/api/search/universal/relative?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build graylog request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graylog search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read graylog response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graylog search: status %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("decode graylog response: %w", err)
	}

	out := make([]map[string]any, 0, len(sr.Messages))
	for _, m := range sr.Messages {
		out = append(out, flatten(m.Message))
	}
	return out, nil
}

// flatten projects a raw Graylog message onto the unified field layout,
// resolving nested Suricata sub-documents where Graylog did not flatten them.
// Absent fields are omitted rather than carried as nulls.
func flatten(msg map[string]any) map[string]any {
	out := make(map[string]any, len(fieldOrder))
	for _, field := range fieldOrder {
		if v := lookup(msg, field); v != nil {
			out[field] = v
		}
	}
	return out
}

func lookup(msg map[string]any, field string) any {
	if v, ok := msg[field]; ok {
		return v
	}
	for _, prefix := range nestedPrefixes {
		if !strings.HasPrefix(field, prefix) {
			continue
		}
		sub, ok := msg[strings.TrimSuffix(prefix, "_")].(map[string]any)
		if !ok {
			return nil
		}
		return sub[strings.TrimPrefix(field, prefix)]
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
