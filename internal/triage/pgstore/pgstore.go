// Package pgstore provides a PostgreSQL implementation of triage.Archive.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/warden/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/warden/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store archives completed traces in PostgreSQL. It implements
// triage.Archive; the history ring stays the source for hot reads, the
// archive exists for durable audit.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool is owned by
// the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Append inserts one completed trace. Re-appending the same trace ID is a
// no-op, so crash-replayed traces do not duplicate rows.
func (s *Store) Append(ctx context.Context, tr *triage.Trace) error {
	ctx, span := tracer.Start(ctx, "pgstore.Append", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	matchedJSON, err := json.Marshal(tr.Rule.MatchedRules)
	if err != nil {
		return fmt.Errorf("marshal matched rules: %w", err)
	}
	classifierJSON, err := json.Marshal(tr.Classifier)
	if err != nil {
		return fmt.Errorf("marshal classifier verdict: %w", err)
	}
	responseJSON, err := json.Marshal(tr.Response)
	if err != nil {
		return fmt.Errorf("marshal response record: %w", err)
	}

	query := `INSERT INTO traces (
		id, event_id, outcome, rule_score, rule_verdict, matched_rules, classifier, response, logged_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (id) DO NOTHING`

	_, err = s.pool.Exec(ctx, query,
		tr.ID, tr.EventID, string(tr.Outcome()), tr.Rule.Score, string(tr.Rule.Verdict),
		matchedJSON, classifierJSON, responseJSON, tr.LoggedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert trace: %w", err)
	}
	return nil
}

// Recent returns up to n archived traces, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]*triage.Trace, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Recent", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT id, event_id, rule_score, rule_verdict, matched_rules, classifier, response, logged_at
		 FROM traces ORDER BY logged_at DESC LIMIT $1`, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	var out []*triage.Trace
	for rows.Next() {
		var (
			tr            triage.Trace
			matchedJSON   []byte
			classifierRaw []byte
			responseRaw   []byte
		)
		if err := rows.Scan(&tr.ID, &tr.EventID, &tr.Rule.Score, &tr.Rule.Verdict,
			&matchedJSON, &classifierRaw, &responseRaw, &tr.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		if len(matchedJSON) > 0 {
			if err := json.Unmarshal(matchedJSON, &tr.Rule.MatchedRules); err != nil {
				return nil, fmt.Errorf("unmarshal matched rules: %w", err)
			}
		}
		if err := unmarshalNullable(classifierRaw, &tr.Classifier); err != nil {
			return nil, fmt.Errorf("unmarshal classifier verdict: %w", err)
		}
		if err := unmarshalNullable(responseRaw, &tr.Response); err != nil {
			return nil, fmt.Errorf("unmarshal response record: %w", err)
		}
		out = append(out, &tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	return out, nil
}

func unmarshalNullable[T any](raw []byte, dst **T) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}
