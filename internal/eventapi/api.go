// Package eventapi exposes the triage pipeline over HTTP: synchronous event
// submission, recent trace queries, and a live WebSocket trace stream.
package eventapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/warden/internal/event"
	"github.com/linnemanlabs/warden/internal/triage"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
	maxEventBytes      = 1 << 20
)

// Processor runs one event through the pipeline to a terminal trace.
type Processor interface {
	Process(ctx context.Context, ev event.Event) *triage.Trace
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger    log.Logger
	processor Processor
	history   triage.History
	hub       *Hub
}

// New creates a new API handler. hub may be nil to disable the stream route.
func New(logger log.Logger, processor Processor, history triage.History, hub *Hub) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if processor == nil {
		panic(xerrors.New("processor is required"))
	}
	if history == nil {
		panic(xerrors.New("history is required"))
	}
	return &API{
		logger:    logger,
		processor: processor,
		history:   history,
		hub:       hub,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/events", a.handleSubmitEvent)
		r.Get("/traces/recent", a.handleRecentTraces)
		if a.hub != nil {
			r.Get("/traces/stream", a.hub.handleStream)
		}
	})
}

// handleSubmitEvent triages one event synchronously and returns its trace.
func (a *API) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	var ev event.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&ev); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if len(ev) == 0 {
		http.Error(w, `{"error":"empty event"}`, http.StatusBadRequest)
		return
	}

	tr := a.processor.Process(r.Context(), ev)

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("warden.trace.id", tr.ID),
		attribute.String("warden.trace.outcome", string(tr.Outcome())),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tr)
}

func (a *API) handleRecentTraces(w http.ResponseWriter, r *http.Request) {
	n := defaultRecentLimit
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, `{"error":"n must be a positive integer"}`, http.StatusBadRequest)
			return
		}
		n = parsed
	}
	if n > maxRecentLimit {
		n = maxRecentLimit
	}

	traces := a.history.Recent(n)
	if traces == nil {
		traces = []*triage.Trace{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"traces": traces,
		"count":  len(traces),
	})
}
