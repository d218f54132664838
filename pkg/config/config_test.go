package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimal = `
environment: test
data:
  source: csv
  path: data/prices.csv
predictors:
  model_dir: models
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 || c.Prediction.FailurePolicy != "isolate" || c.Data.Table != "raw_prices" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.Scheduler.SnapshotTTL != 24*time.Hour || c.Delimiter() != ',' {
		t.Fatalf("unexpected scheduler/delimiter defaults")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"environment":    strings.Replace(minimal, "environment: test", "", 1),
		"source":         strings.Replace(minimal, "source: csv", "source: parquet", 1),
		"policy":         minimal + "prediction:\n  failure_policy: retry\n",
		"model dir":      strings.Replace(minimal, "model_dir: models", "model_dir: \"\"", 1),
		"watchlist":      minimal + "scheduler:\n  enabled: true\n",
		"kafka brokers":  minimal + "kafka:\n  enabled: true\n",
		"postgres dsn":   strings.Replace(minimal, "source: csv", "source: postgres", 1),
		"log collection": minimal + "logging:\n  collect:\n    enabled: true\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("DATA_SOURCE", "sqlite")
	t.Setenv("MODEL_DIR", "/srv/models")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WATCHLIST", "PETR4,VALE3")

	body := minimal + "sqlite:\n  path: raw.db\n"
	c, err := LoadWithEnv(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Data.Source != "sqlite" || c.Predictors.ModelDir != "/srv/models" || c.Logging.Level != "debug" {
		t.Fatalf("env overrides not applied: %+v", c)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 || len(c.Scheduler.Watchlist) != 2 {
		t.Fatalf("list overrides not applied: %+v", c.Kafka)
	}
}
