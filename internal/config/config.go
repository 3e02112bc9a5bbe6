// Package config provides the configuration schema and loader for the maeum
// analysis service.
package config

import (
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

// LogLevel controls log verbosity for the maeum service.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// WeightMode selects how per-indicator modality weights are derived.
type WeightMode string

const (
	// WeightModeFixed always uses the configured default weights.
	WeightModeFixed WeightMode = "fixed"

	// WeightModeAdaptive rebalances weights per run from data quality.
	WeightModeAdaptive WeightMode = "adaptive"
)

// IsValid reports whether m is a recognised weight mode.
func (m WeightMode) IsValid() bool {
	return m == WeightModeFixed || m == WeightModeAdaptive
}

// Config is the root configuration structure for the maeum service.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Speaker   SpeakerConfig   `yaml:"speaker"`
	Providers ProvidersConfig `yaml:"providers"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	History   HistoryConfig   `yaml:"history"`
	Breaker   BreakerConfig   `yaml:"breaker"`
}

// ServerConfig holds logging and observability settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address serving the Prometheus scrape endpoint
	// (e.g., ":9090"). Empty disables the metrics listener.
	MetricsAddr string `yaml:"metrics_addr"`
}

// PipelineConfig tunes pipeline-wide behaviour.
type PipelineConfig struct {
	// MaxConcurrentRuns bounds how many analyses run at once. Default: 4.
	MaxConcurrentRuns int `yaml:"max_concurrent_runs"`

	// STTWait caps how long a run waits for the transcription backend.
	// Default: 30m.
	STTWait time.Duration `yaml:"stt_wait"`

	// LanguageCode is the recording language passed to STT. Default: "ko-KR".
	LanguageCode string `yaml:"language_code"`

	// BoostPhrases are recognition hints passed to STT in addition to the
	// built-in elder-care vocabulary.
	BoostPhrases []string `yaml:"boost_phrases"`

	// HistoryWindowDays is how far back trend analysis looks. Default: 30.
	HistoryWindowDays int `yaml:"history_window_days"`

	// WeightMode selects fixed or adaptive modality weighting.
	// Default: adaptive.
	WeightMode WeightMode `yaml:"weight_mode"`

	// DefaultWeights are the baseline modality weights. They must sum to 1
	// when all three are set; all-zero selects the built-in 0.3/0.4/0.3.
	DefaultWeights WeightsConfig `yaml:"default_weights"`
}

// WeightsConfig is the YAML form of modality weights.
type WeightsConfig struct {
	Voice float64 `yaml:"voice"`
	Text  float64 `yaml:"text"`
	Deep  float64 `yaml:"deep"`
}

// IsZero reports whether no weight was configured.
func (w WeightsConfig) IsZero() bool {
	return w.Voice == 0 && w.Text == 0 && w.Deep == 0
}

// ModalityWeights converts the YAML form into the domain type.
func (w WeightsConfig) ModalityWeights() types.ModalityWeights {
	return types.ModalityWeights{Voice: w.Voice, Text: w.Text, Deep: w.Deep}
}

// SpeakerConfig tunes speaker role attribution.
type SpeakerConfig struct {
	// TagOffset is added to engine speaker tags before matching. Engines
	// that number speakers from 0 while role attribution numbers from 1
	// need an offset of 1. Default: 1.
	TagOffset *int `yaml:"tag_offset"`

	// AcceptanceThreshold is the minimum attribution confidence for the
	// senior/guardian split to be used instead of whole-conversation
	// fallback. Default: 0.3.
	AcceptanceThreshold float64 `yaml:"acceptance_threshold"`
}

// ProvidersConfig declares the engines behind each analysis modality.
type ProvidersConfig struct {
	STT      ProviderEntry   `yaml:"stt"`
	Acoustic ProviderEntry   `yaml:"acoustic"`
	Language []ProviderEntry `yaml:"language"`

	// ForceLanguage, when set, bypasses chain order and uses only the named
	// language provider. Intended for evaluation runs.
	ForceLanguage string `yaml:"force_language"`

	Deep DeepConfig `yaml:"deep"`
}

// ProviderEntry is the common configuration block shared by all provider types.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "gemini", "openai", "xai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// DeepConfig configures the deep classifier gateway.
type DeepConfig struct {
	// Enabled turns the deep modality on. Default: false (the modality is
	// skipped, not errored).
	Enabled bool `yaml:"enabled"`

	// Models maps class names to artifact names in the store
	// (e.g., depression: "models/dep_model_10500_raw.bin").
	Models map[string]string `yaml:"models"`

	// CacheDir is the local directory artifacts are downloaded into.
	// Default: os.TempDir()/maeum-models.
	CacheDir string `yaml:"cache_dir"`

	// MaxConcurrentInference bounds simultaneous inference passes.
	// Default: 2.
	MaxConcurrentInference int `yaml:"max_concurrent_inference"`
}

// ArtifactsConfig configures the object store for audio, models and reports.
type ArtifactsConfig struct {
	S3 S3Config `yaml:"s3"`

	// ReportPrefix is where exported analysis reports are written.
	// Default: "reports".
	ReportPrefix string `yaml:"report_prefix"`
}

// S3Config holds S3 (or S3-compatible) connection settings. Credentials come
// from the standard AWS environment/credential chain.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`

	// Endpoint overrides the S3 endpoint for MinIO/R2 style backends.
	Endpoint string `yaml:"endpoint"`
}

// HistoryConfig configures the indicator history store.
type HistoryConfig struct {
	// PostgresDSN is the connection string for the history database.
	// Empty disables persistence; trend analysis then only sees history
	// passed explicitly by the caller.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BreakerConfig holds circuit breaker tuning shared by all provider groups.
type BreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}
