// Package event defines the flat security event record consumed by the
// triage pipeline. Events arrive as arbitrary JSON objects (Suricata alert
// and fileinfo records flattened by the collector) so the type is a map with
// typed accessors rather than a fixed struct.
package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Event is one security-relevant observation. Field presence varies by
// record kind; accessors tolerate missing and mistyped values.
type Event map[string]any

// addressFields is the ordered set of fields consulted when extracting a
// target address for response actions. Order matters: the first non-empty
// value wins.
var addressFields = []string{"flow_src_ip", "source_ip", "gl2_remote_ip", "src_ip"}

// ID returns the event identity: the first non-empty of an explicit record
// id or the flow identifier. Empty when neither is present.
func (e Event) ID() string {
	if id := e.Str("_id"); id != "" {
		return id
	}
	return e.Str("flow_id")
}

// Kind returns the lowercased event kind ("alert", "fileinfo", ...).
func (e Event) Kind() string {
	return strings.ToLower(e.Str("event_type"))
}

// IsAlert reports whether the event is a native IDS alert record.
func (e Event) IsAlert() bool {
	return e.Kind() == "alert"
}

// Str returns the named field coerced to a string, or "" when absent or nil.
// Numeric values (e.g. flow_id) are formatted without an exponent.
func (e Event) Str(key string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Int returns the named field coerced to an integer, or 0 when the field is
// absent, nil, or not a number.
func (e Event) Int(key string) int64 {
	v, ok := e[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int:
		return int64(t)
	case int64:
		return t
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0
		}
		return n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// FirstInt returns the first non-zero integer among the named fields.
// A field holding zero is treated the same as an absent field, matching the
// upstream record format where zero counters are routinely omitted.
func (e Event) FirstInt(keys ...string) int64 {
	for _, k := range keys {
		if n := e.Int(k); n != 0 {
			return n
		}
	}
	return 0
}

// SourceAddr returns the first non-empty address-like field, or "" when the
// event carries no usable address.
func (e Event) SourceAddr() string {
	for _, k := range addressFields {
		if v := e.Str(k); v != "" {
			return v
		}
	}
	return ""
}

// Text returns the canonical JSON serialization of the event, used for
// keyword scans and classifier prompts. Events decoded from JSON always
// re-serialize cleanly; on the impossible marshal failure this returns "{}".
func (e Event) Text() string {
	b, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(b)
}
