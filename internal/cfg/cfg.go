package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Classifier provider names accepted by CLASSIFIER_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderClaude = "claude"
)

// Config adds pipeline-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string

	ClassifierProvider       string
	ClassifierTimeoutSeconds int
	OllamaURL                string
	OllamaModel              string
	ClaudeAPIKey             string
	ClaudeModel              string

	RulesFile       string
	EventsFile      string
	TracesFile      string
	ActionsFile     string
	TailPollMillis  int
	HistoryCapacity int

	DatabaseURL     string
	GeoIPDB         string
	SlackWebhookURL string

	GraylogURL          string
	GraylogUsername     string
	GraylogPassword     string
	GraylogQuery        string
	GraylogPollSeconds  int
	GraylogRangeSeconds int
	GraylogLimit        int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token for the event API (empty = no auth)")

	fs.StringVar(&c.ClassifierProvider, "classifier-provider", ProviderOllama, "LLM provider for the classifier stage (ollama or claude)")
	fs.IntVar(&c.ClassifierTimeoutSeconds, "classifier-timeout-seconds", 60, "per-call classifier timeout (1..600)")
	fs.StringVar(&c.OllamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	fs.StringVar(&c.OllamaModel, "ollama-model", "phi3:mini", "Ollama model for event classification")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model for event classification")

	fs.StringVar(&c.RulesFile, "rules-file", "", "YAML rule policy file (empty = built-in defaults)")
	fs.StringVar(&c.EventsFile, "events-file", "data/logs.ndjson", "NDJSON event log tailed by the pipeline")
	fs.StringVar(&c.TracesFile, "traces-file", "data/traces.ndjson", "NDJSON trace audit log")
	fs.StringVar(&c.ActionsFile, "actions-file", "data/actions.ndjson", "NDJSON simulated action log")
	fs.IntVar(&c.TailPollMillis, "tail-poll-millis", 500, "poll interval for the event log tailer in milliseconds (1..60000)")
	fs.IntVar(&c.HistoryCapacity, "history-capacity", 1000, "max traces kept in the in-memory history (1..1000000)")

	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL for the trace archive (empty = no archive)")
	fs.StringVar(&c.GeoIPDB, "geoip-db", "", "MaxMind GeoIP2 country database path (empty = no geo enrichment)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for action notifications (empty = disabled)")

	fs.StringVar(&c.GraylogURL, "graylog-url", "", "Graylog base URL for event polling (empty = poller disabled)")
	fs.StringVar(&c.GraylogUsername, "graylog-username", "", "Graylog basic auth username")
	fs.StringVar(&c.GraylogPassword, "graylog-password", "", "Graylog basic auth password")
	fs.StringVar(&c.GraylogQuery, "graylog-query", "", "Graylog search query (empty = built-in Suricata query)")
	fs.IntVar(&c.GraylogPollSeconds, "graylog-poll-seconds", 60, "interval between Graylog polls (1..3600)")
	fs.IntVar(&c.GraylogRangeSeconds, "graylog-range-seconds", 120, "relative search window per poll (1..86400)")
	fs.IntVar(&c.GraylogLimit, "graylog-limit", 500, "max events fetched per poll (1..10000)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	switch c.ClassifierProvider {
	case ProviderOllama:
		if c.OllamaURL == "" {
			errs = append(errs, errors.New("OLLAMA_URL is required for the ollama provider"))
		}
		if c.OllamaModel == "" {
			errs = append(errs, errors.New("OLLAMA_MODEL is required for the ollama provider"))
		}
	case ProviderClaude:
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required for the claude provider"))
		}
		if c.ClaudeModel == "" {
			errs = append(errs, errors.New("CLAUDE_MODEL is required for the claude provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid CLASSIFIER_PROVIDER %q (must be ollama or claude)", c.ClassifierProvider))
	}

	if c.ClassifierTimeoutSeconds <= 0 || c.ClassifierTimeoutSeconds > 600 {
		errs = append(errs, fmt.Errorf("invalid CLASSIFIER_TIMEOUT_SECONDS %d (must be 1..600)", c.ClassifierTimeoutSeconds))
	}

	if c.EventsFile == "" {
		errs = append(errs, errors.New("EVENTS_FILE is required"))
	}
	if c.TracesFile == "" {
		errs = append(errs, errors.New("TRACES_FILE is required"))
	}
	if c.ActionsFile == "" {
		errs = append(errs, errors.New("ACTIONS_FILE is required"))
	}
	if c.TailPollMillis <= 0 || c.TailPollMillis > 60000 {
		errs = append(errs, fmt.Errorf("invalid TAIL_POLL_MILLIS %d (must be 1..60000)", c.TailPollMillis))
	}
	if c.HistoryCapacity <= 0 || c.HistoryCapacity > 1_000_000 {
		errs = append(errs, fmt.Errorf("invalid HISTORY_CAPACITY %d (must be 1..1000000)", c.HistoryCapacity))
	}

	if c.GraylogURL != "" {
		if c.GraylogUsername == "" || c.GraylogPassword == "" {
			errs = append(errs, errors.New("GRAYLOG_USERNAME and GRAYLOG_PASSWORD are required when GRAYLOG_URL is set"))
		}
		if c.GraylogPollSeconds <= 0 || c.GraylogPollSeconds > 3600 {
			errs = append(errs, fmt.Errorf("invalid GRAYLOG_POLL_SECONDS %d (must be 1..3600)", c.GraylogPollSeconds))
		}
		if c.GraylogRangeSeconds <= 0 || c.GraylogRangeSeconds > 86400 {
			errs = append(errs, fmt.Errorf("invalid GRAYLOG_RANGE_SECONDS %d (must be 1..86400)", c.GraylogRangeSeconds))
		}
		if c.GraylogLimit <= 0 || c.GraylogLimit > 10000 {
			errs = append(errs, fmt.Errorf("invalid GRAYLOG_LIMIT %d (must be 1..10000)", c.GraylogLimit))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
