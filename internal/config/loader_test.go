package config

import (
	"strings"
	"testing"
	"time"
)

const fullConfig = `
server:
  log_level: debug
  metrics_addr: ":9090"
pipeline:
  max_concurrent_runs: 8
  stt_wait: 20m
  language_code: ko-KR
  boost_phrases: ["혈압약", "경로당"]
  history_window_days: 60
  weight_mode: adaptive
  default_weights:
    voice: 0.3
    text: 0.4
    deep: 0.3
speaker:
  tag_offset: 1
  acceptance_threshold: 0.3
providers:
  stt:
    name: google
  acoustic:
    name: native
  language:
    - name: gemini
      api_key: key-1
    - name: openai
      api_key: key-2
      model: gpt-4o
  deep:
    enabled: true
    models:
      depression: models/dep_v3.json
artifacts:
  s3:
    bucket: maeum-artifacts
    region: ap-northeast-2
history:
  postgres_dsn: postgres://localhost/maeum
breaker:
  max_failures: 5
  reset_timeout: 30s
`

func TestLoadFromReader_Full(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(fullConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("log level = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Pipeline.STTWait != 20*time.Minute {
		t.Errorf("stt wait = %v, want 20m", cfg.Pipeline.STTWait)
	}
	if cfg.Pipeline.MaxConcurrentRuns != 8 {
		t.Errorf("max concurrent runs = %d, want 8", cfg.Pipeline.MaxConcurrentRuns)
	}
	if len(cfg.Pipeline.BoostPhrases) != 2 {
		t.Errorf("boost phrases = %v, want 2", cfg.Pipeline.BoostPhrases)
	}
	if cfg.Speaker.TagOffset == nil || *cfg.Speaker.TagOffset != 1 {
		t.Errorf("tag offset = %v, want 1", cfg.Speaker.TagOffset)
	}
	if len(cfg.Providers.Language) != 2 {
		t.Fatalf("language providers = %d, want 2", len(cfg.Providers.Language))
	}
	if cfg.Providers.Language[1].Model != "gpt-4o" {
		t.Errorf("language[1].model = %q, want gpt-4o", cfg.Providers.Language[1].Model)
	}
	if !cfg.Providers.Deep.Enabled {
		t.Error("deep.enabled = false, want true")
	}
	if cfg.Artifacts.S3.Bucket != "maeum-artifacts" {
		t.Errorf("bucket = %q, want maeum-artifacts", cfg.Artifacts.S3.Bucket)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("pipeline:\n  stt_timeout: 5m\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "loud" },
			wantErr: "server.log_level",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Pipeline.MaxConcurrentRuns = -1 },
			wantErr: "max_concurrent_runs",
		},
		{
			name:    "bad weight mode",
			mutate:  func(c *Config) { c.Pipeline.WeightMode = "dynamic" },
			wantErr: "weight_mode",
		},
		{
			name: "weights do not sum to one",
			mutate: func(c *Config) {
				c.Pipeline.DefaultWeights = WeightsConfig{Voice: 0.5, Text: 0.4, Deep: 0.3}
			},
			wantErr: "must sum to 1.0",
		},
		{
			name: "negative weight",
			mutate: func(c *Config) {
				c.Pipeline.DefaultWeights = WeightsConfig{Voice: -0.1, Text: 0.8, Deep: 0.3}
			},
			wantErr: "must not be negative",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Speaker.AcceptanceThreshold = 1.5 },
			wantErr: "acceptance_threshold",
		},
		{
			name: "duplicate language provider",
			mutate: func(c *Config) {
				c.Providers.Language = []ProviderEntry{{Name: "gemini"}, {Name: "gemini"}}
			},
			wantErr: "duplicate",
		},
		{
			name: "forced provider not in chain",
			mutate: func(c *Config) {
				c.Providers.Language = []ProviderEntry{{Name: "gemini"}}
				c.Providers.ForceLanguage = "openai"
			},
			wantErr: "force_language",
		},
		{
			name: "deep enabled without models",
			mutate: func(c *Config) {
				c.Providers.Deep = DeepConfig{Enabled: true}
				c.Artifacts.S3.Bucket = "b"
			},
			wantErr: "deep.models",
		},
		{
			name: "deep enabled without bucket",
			mutate: func(c *Config) {
				c.Providers.Deep = DeepConfig{Enabled: true, Models: map[string]string{"depression": "m"}}
				c.Artifacts.S3.Bucket = ""
			},
			wantErr: "s3.bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	if err := Validate(&Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
