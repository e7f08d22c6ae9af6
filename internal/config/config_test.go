package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
app:
  name: dispatcher
  env: test
dispatcher:
  tick_interval: 30s
  batch_size: 25
gateway:
  provider: mock
  default_country_code: "+44"
queue:
  key: "custom:queue"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "dispatcher" {
		t.Errorf("app name = %q", cfg.App.Name)
	}
	if cfg.Dispatcher.TickInterval != 30*time.Second {
		t.Errorf("tick interval = %v", cfg.Dispatcher.TickInterval)
	}
	if cfg.Dispatcher.BatchSize != 25 {
		t.Errorf("batch size = %d", cfg.Dispatcher.BatchSize)
	}
	if cfg.Gateway.DefaultCountryCode != "+44" {
		t.Errorf("country code = %q", cfg.Gateway.DefaultCountryCode)
	}
	if cfg.Queue.Key != "custom:queue" {
		t.Errorf("queue key = %q", cfg.Queue.Key)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := new(Config)
	cfg.applyDefaults()

	if cfg.Dispatcher.BatchSize != 100 || cfg.Dispatcher.Concurrency != 5 || cfg.Dispatcher.MaxAttempts != 3 {
		t.Errorf("dispatcher defaults = %+v", cfg.Dispatcher)
	}
	if cfg.Dispatcher.TickInterval != time.Minute {
		t.Errorf("tick interval default = %v", cfg.Dispatcher.TickInterval)
	}
	if cfg.Queue.Key != "dispatch:call-queue" || cfg.Queue.PopBatch != 10 {
		t.Errorf("queue defaults = %+v", cfg.Queue)
	}
	if cfg.Gateway.DefaultCountryCode != "+1" {
		t.Errorf("country code default = %q", cfg.Gateway.DefaultCountryCode)
	}
	if cfg.Telephony.PageSize != 100 {
		t.Errorf("telephony page size default = %d", cfg.Telephony.PageSize)
	}
}
