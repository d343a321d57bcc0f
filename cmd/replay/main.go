// Replay runs a recorded NDJSON event log through the triage pipeline in a
// single batch and prints a per-trace summary. Useful for tuning rule
// policies against captured traffic without a running server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/log"
	v "github.com/linnemanlabs/go-core/version"

	wc "github.com/linnemanlabs/warden/internal/cfg"
	"github.com/linnemanlabs/warden/internal/classifier"
	"github.com/linnemanlabs/warden/internal/classifier/claude"
	"github.com/linnemanlabs/warden/internal/classifier/ollama"
	"github.com/linnemanlabs/warden/internal/geoip"
	"github.com/linnemanlabs/warden/internal/ingest"
	"github.com/linnemanlabs/warden/internal/responder"
	"github.com/linnemanlabs/warden/internal/rules"
	"github.com/linnemanlabs/warden/internal/sink"
	"github.com/linnemanlabs/warden/internal/triage"
	"github.com/linnemanlabs/warden/internal/triage/history"
)

const appName = "warden"
const component = "replay"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v.AppName = appName
	v.Component = component

	var (
		appCfg wc.Config
		logCfg log.Config
	)
	appCfg.RegisterFlags(flag.CommandLine)
	logCfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg.FillFromEnv(flag.CommandLine, "WARDEN_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := errors.Join(appCfg.Validate(), logCfg.Validate()); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	lg, err := log.New(logCfg.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()
	L := lg.With("component", component)
	ctx = log.WithContext(ctx, L)

	ruleCfg := rules.DefaultConfig()
	if appCfg.RulesFile != "" {
		ruleCfg, err = rules.LoadConfig(appCfg.RulesFile)
		if err != nil {
			return fmt.Errorf("load rules file: %w", err)
		}
	}
	if err := ruleCfg.Validate(); err != nil {
		return fmt.Errorf("invalid rule policy: %w", err)
	}
	engine := rules.NewEngine(ruleCfg)

	var provider classifier.Provider
	switch appCfg.ClassifierProvider {
	case wc.ProviderClaude:
		provider = claude.New(appCfg.ClaudeAPIKey, appCfg.ClaudeModel)
	default:
		provider = ollama.New(appCfg.OllamaURL, appCfg.OllamaModel)
	}
	cls := classifier.New(provider, time.Duration(appCfg.ClassifierTimeoutSeconds)*time.Second, L)

	tracesSink, err := sink.OpenJSONL(appCfg.TracesFile)
	if err != nil {
		return fmt.Errorf("open traces sink: %w", err)
	}
	defer func() { _ = tracesSink.Close() }()

	actionsSink, err := sink.OpenJSONL(appCfg.ActionsFile)
	if err != nil {
		return fmt.Errorf("open actions sink: %w", err)
	}
	defer func() { _ = actionsSink.Close() }()

	var geo *geoip.Resolver
	if appCfg.GeoIPDB != "" {
		geo, err = geoip.Open(appCfg.GeoIPDB)
		if err != nil {
			return fmt.Errorf("open geoip database: %w", err)
		}
		defer func() { _ = geo.Close() }()
	}

	dispatcher := responder.New(actionsSink, geo, L)
	ring := history.New(appCfg.HistoryCapacity)

	pipeline := triage.NewPipeline(engine, cls, dispatcher, ring, tracesSink, nil, nil, L, triage.Hooks{})

	events, err := ingest.ReadBatch(appCfg.EventsFile, L)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	L.Info(ctx, "replaying events", "path", appCfg.EventsFile, "count", len(events))

	counts := map[triage.Outcome]int{}
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		tr := pipeline.Process(ctx, ev)
		counts[tr.Outcome()]++
		printTrace(tr)
	}

	fmt.Printf("\n%d events: %d short-circuited, %d no action, %d actions\n",
		len(events),
		counts[triage.OutcomeShortCircuit],
		counts[triage.OutcomeNoAction],
		counts[triage.OutcomeAction],
	)
	return nil
}

func printTrace(tr *triage.Trace) {
	line := fmt.Sprintf("%s event=%s rule=%s score=%.2f", tr.ID, orDash(tr.EventID), tr.Rule.Verdict, tr.Rule.Score)
	if tr.Classifier != nil {
		if tr.Classifier.Verdict == classifier.VerdictSkipped {
			line += " classifier=skipped"
		} else {
			line += fmt.Sprintf(" classifier=%s score=%.2f", tr.Classifier.Verdict, tr.Classifier.Score)
		}
	}
	if tr.Response != nil {
		line += fmt.Sprintf(" action=%s target=%s", tr.Response.Action, orDash(tr.Response.Target))
	}
	fmt.Println(line)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
