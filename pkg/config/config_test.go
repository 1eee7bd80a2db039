package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
environment: test
server:
  port: 8080
index:
  schedule: "0,30 * * * *"
  components:
    - { symbol: SPY, name: "S&P 500", weight: 0.5 }
    - { symbol: ^VIX, name: "VIX", weight: 0.3, inverse: true }
    - { symbol: NEWS_SENTIMENT, name: "News Sentiment", weight: 0.2 }
quotes:
  base_url: https://example.test/api
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Index.Components) != 3 {
		t.Fatalf("expected 3 components, got %d", len(cfg.Index.Components))
	}
	if !cfg.Index.Components[1].Inverse {
		t.Fatal("expected ^VIX to be inverse")
	}
	if cfg.Index.Schedule != "0,30 * * * *" {
		t.Fatalf("unexpected schedule %q", cfg.Index.Schedule)
	}
}

func TestLoadRejectsBadWeightSum(t *testing.T) {
	bad := `
environment: test
index:
  components:
    - { symbol: SPY, name: "S&P 500", weight: 0.5 }
    - { symbol: QQQ, name: "Nasdaq 100", weight: 0.4 }
quotes:
  base_url: https://example.test/api
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected weight sum error")
	}
}

func TestLoadRejectsDuplicateSymbol(t *testing.T) {
	bad := `
environment: test
index:
  components:
    - { symbol: SPY, name: "a", weight: 0.5 }
    - { symbol: SPY, name: "b", weight: 0.5 }
quotes:
  base_url: https://example.test/api
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected duplicate symbol error")
	}
}

func TestLoadRejectsMissingBaseURL(t *testing.T) {
	bad := `
environment: test
index:
  components:
    - { symbol: SPY, name: "a", weight: 1.0 }
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected base_url error")
	}
}

func TestInstrumentSymbolsSkipsSentiment(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	syms := cfg.InstrumentSymbols()
	if len(syms) != 2 {
		t.Fatalf("expected 2 instrument symbols, got %v", syms)
	}
	for _, s := range syms {
		if s == "NEWS_SENTIMENT" {
			t.Fatal("pseudo-component must not be fetched")
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("QUOTES_API_KEY", "env-key")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quotes.APIKey != "env-key" {
		t.Fatalf("api key not overridden: %q", cfg.Quotes.APIKey)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers not overridden: %v", cfg.Kafka.Brokers)
	}
}
