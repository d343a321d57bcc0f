package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the immutable heuristic policy for a rule engine. Engines never
// read ambient state, so differently tuned engines can coexist in one
// process.
type Config struct {
	// Keywords scored against the serialized event text, +0.25 each.
	Keywords []string `yaml:"keywords"`

	// PacketThreshold is the connection/packet count above which the volume
	// heuristic fires (+0.3).
	PacketThreshold int64 `yaml:"packet_threshold"`

	// ByteThreshold is the byte count above which the byte-volume heuristic
	// fires (+0.2).
	ByteThreshold int64 `yaml:"byte_threshold"`

	// HighRiskSignatures are phrases that mark an alert signature as high
	// risk (+0.6).
	HighRiskSignatures []string `yaml:"high_risk_signatures"`

	// SuspiciousThreshold and MonitorThreshold map the clamped score to a
	// verdict. The suspicious comparison runs first regardless of how the
	// two values relate; with the defaults (0.2 and 0.3) the suspicious band
	// swallows the monitor band. That ordering is deliberate policy carried
	// over from the deployed rule set and must not be "fixed" here: operators
	// tune both values, including configurations where the bands overlap.
	SuspiciousThreshold float64 `yaml:"suspicious_threshold"`
	MonitorThreshold    float64 `yaml:"monitor_threshold"`
}

// DefaultConfig returns the stock policy.
func DefaultConfig() Config {
	return Config{
		Keywords: []string{
			"failed_login", "bruteforce", "dns_tunnel", "malicious",
			"compression bomb", "port scan", "port scanning", "suspicious",
			"sql injection", "exploit",
		},
		PacketThreshold:     100,
		ByteThreshold:       100_000,
		HighRiskSignatures:  []string{"compression bomb", "compression"},
		SuspiciousThreshold: 0.2,
		MonitorThreshold:    0.3,
	}
}

// LoadConfig reads a YAML policy file. Absent fields keep their defaults, so
// a file may override only the keyword list or only the thresholds.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse rules file: %w", err)
	}
	return c.normalized(), nil
}

// normalized lowercases keywords and signature phrases; matching is always
// case-insensitive against lowercased event text.
func (c Config) normalized() Config {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	c.Keywords = lower(c.Keywords)
	c.HighRiskSignatures = lower(c.HighRiskSignatures)
	return c
}

// Validate checks the policy for values the engine cannot score with.
func (c Config) Validate() error {
	if c.PacketThreshold < 0 {
		return fmt.Errorf("packet_threshold %d must be >= 0", c.PacketThreshold)
	}
	if c.ByteThreshold < 0 {
		return fmt.Errorf("byte_threshold %d must be >= 0", c.ByteThreshold)
	}
	if c.SuspiciousThreshold < 0 || c.SuspiciousThreshold > 1 {
		return fmt.Errorf("suspicious_threshold %v must be in [0,1]", c.SuspiciousThreshold)
	}
	if c.MonitorThreshold < 0 || c.MonitorThreshold > 1 {
		return fmt.Errorf("monitor_threshold %v must be in [0,1]", c.MonitorThreshold)
	}
	return nil
}
