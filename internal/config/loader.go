package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":      {"google", "mock"},
	"acoustic": {"native", "mock"},
	"language": {"gemini", "openai", "xai", "anthropic", "ollama", "deepseek", "mistral", "groq", "mock"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Pipeline
	if cfg.Pipeline.MaxConcurrentRuns < 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_concurrent_runs %d must not be negative", cfg.Pipeline.MaxConcurrentRuns))
	}
	if cfg.Pipeline.STTWait < 0 {
		errs = append(errs, fmt.Errorf("pipeline.stt_wait %s must not be negative", cfg.Pipeline.STTWait))
	}
	if cfg.Pipeline.HistoryWindowDays < 0 {
		errs = append(errs, fmt.Errorf("pipeline.history_window_days %d must not be negative", cfg.Pipeline.HistoryWindowDays))
	}
	if cfg.Pipeline.WeightMode != "" && !cfg.Pipeline.WeightMode.IsValid() {
		errs = append(errs, fmt.Errorf("pipeline.weight_mode %q is invalid; valid values: fixed, adaptive", cfg.Pipeline.WeightMode))
	}
	if w := cfg.Pipeline.DefaultWeights; !w.IsZero() {
		if w.Voice < 0 || w.Text < 0 || w.Deep < 0 {
			errs = append(errs, errors.New("pipeline.default_weights components must not be negative"))
		} else if sum := w.Voice + w.Text + w.Deep; math.Abs(sum-1) > 1e-6 {
			errs = append(errs, fmt.Errorf("pipeline.default_weights must sum to 1.0, got %.4f", sum))
		}
	}

	// Speaker
	if t := cfg.Speaker.AcceptanceThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("speaker.acceptance_threshold %.2f is out of range [0, 1]", t))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("acoustic", cfg.Providers.Acoustic.Name)
	langSeen := make(map[string]int, len(cfg.Providers.Language))
	for i, entry := range cfg.Providers.Language {
		prefix := fmt.Sprintf("providers.language[%d]", i)
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := langSeen[entry.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of providers.language[%d]", prefix, entry.Name, prev))
		}
		langSeen[entry.Name] = i
		validateProviderName("language", entry.Name)
	}
	if f := cfg.Providers.ForceLanguage; f != "" {
		if _, ok := langSeen[f]; !ok {
			errs = append(errs, fmt.Errorf("providers.force_language %q is not in the providers.language list", f))
		}
	}
	if len(cfg.Providers.Language) == 0 {
		slog.Warn("no language providers configured; semantic analysis will always fall back to rule-based output")
	}

	// Deep classifier
	if cfg.Providers.Deep.Enabled {
		if len(cfg.Providers.Deep.Models) == 0 {
			errs = append(errs, errors.New("providers.deep.enabled is true but providers.deep.models is empty"))
		}
		if cfg.Providers.Deep.MaxConcurrentInference < 0 {
			errs = append(errs, fmt.Errorf("providers.deep.max_concurrent_inference %d must not be negative", cfg.Providers.Deep.MaxConcurrentInference))
		}
		if cfg.Artifacts.S3.Bucket == "" {
			errs = append(errs, errors.New("providers.deep.enabled is true but artifacts.s3.bucket is not configured"))
		}
	}

	// History
	if cfg.History.PostgresDSN == "" {
		slog.Warn("history.postgres_dsn is empty; indicator history will not be persisted and trends degrade to unknown")
	}

	// Breaker
	if cfg.Breaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("breaker.max_failures %d must not be negative", cfg.Breaker.MaxFailures))
	}
	if cfg.Breaker.ResetTimeout < 0 {
		errs = append(errs, fmt.Errorf("breaker.reset_timeout %s must not be negative", cfg.Breaker.ResetTimeout))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
