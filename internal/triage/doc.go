// Package triage provides the core decision pipeline: rule scoring,
// conditional classifier escalation, response dispatch, and the Trace record
// that captures the outcome of each processed event.
package triage
