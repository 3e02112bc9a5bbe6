// Command maeum analyzes recorded senior/guardian conversations and prints a
// mental-health assessment report per recording.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"

	"github.com/maeumlabs/maeum/internal/config"
	"github.com/maeumlabs/maeum/internal/deepmodel"
	"github.com/maeumlabs/maeum/internal/health"
	"github.com/maeumlabs/maeum/internal/observe"
	"github.com/maeumlabs/maeum/internal/pipeline"
	"github.com/maeumlabs/maeum/internal/resilience"
	"github.com/maeumlabs/maeum/internal/semantic"
	"github.com/maeumlabs/maeum/pkg/artifact"
	"github.com/maeumlabs/maeum/pkg/history"
	historypg "github.com/maeumlabs/maeum/pkg/history/postgres"
	acousticnative "github.com/maeumlabs/maeum/pkg/provider/acoustic/native"
	deepnative "github.com/maeumlabs/maeum/pkg/provider/deep/native"
	"github.com/maeumlabs/maeum/pkg/provider/language"
	"github.com/maeumlabs/maeum/pkg/provider/language/anyllm"
	oailang "github.com/maeumlabs/maeum/pkg/provider/language/openai"
	"github.com/maeumlabs/maeum/pkg/provider/stt"
	sttgoogle "github.com/maeumlabs/maeum/pkg/provider/stt/google"
	"github.com/maeumlabs/maeum/pkg/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	userID := flag.String("user", "", "user id keying indicator history (optional)")
	age := flag.Int("age", 0, "senior's age (optional)")
	gender := flag.String("gender", "", "senior's gender (optional)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: maeum [flags] <audio-file> [audio-file ...]")
		flag.PrintDefaults()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "maeum: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "maeum: %v\n", err)
		}
		return 1
	}

	slog.SetDefault(newLogger(cfg.Server.LogLevel))
	slog.Info("maeum starting",
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
		"weight_mode", cfg.Pipeline.WeightMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: pipeline.Version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	if cfg.Server.MetricsAddr != "" {
		go serveMetrics(cfg.Server.MetricsAddr, healthChecks(deps)...)
	}

	orch, err := pipeline.New(*cfg, deps)
	if err != nil {
		slog.Error("failed to initialise pipeline", "err", err)
		return 1
	}

	profile := types.UserProfile{
		UserID:           *userID,
		Age:              *age,
		Gender:           *gender,
		HasPriorAnalysis: *userID != "",
	}

	results, err := orch.AnalyzeBatch(ctx, flag.Args(), profile)
	for _, res := range results {
		printResult(res)
	}
	if err != nil {
		slog.Error("batch analysis aborted", "err", err)
		return 1
	}
	for _, res := range results {
		if res.Status == pipeline.StatusError {
			return 1
		}
	}
	return 0
}

// buildDeps instantiates every engine named in the configuration.
func buildDeps(ctx context.Context, cfg *config.Config) (pipeline.Deps, error) {
	var deps pipeline.Deps

	// STT.
	sttProvider, err := buildSTT(ctx, cfg.Providers.STT)
	if err != nil {
		return deps, fmt.Errorf("create stt provider %q: %w", cfg.Providers.STT.Name, err)
	}
	deps.STT = sttProvider
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	// Acoustic.
	switch cfg.Providers.Acoustic.Name {
	case "", "native":
		deps.Acoustic = acousticnative.New()
	default:
		return deps, fmt.Errorf("unknown acoustic provider %q", cfg.Providers.Acoustic.Name)
	}
	slog.Info("provider created", "kind", "acoustic", "name", deps.Acoustic.Name())

	// Language chain.
	providers := make([]language.Provider, 0, len(cfg.Providers.Language))
	for _, entry := range cfg.Providers.Language {
		p, err := buildLanguage(entry)
		if err != nil {
			return deps, fmt.Errorf("create language provider %q: %w", entry.Name, err)
		}
		providers = append(providers, p)
		slog.Info("provider created", "kind", "language", "name", entry.Name, "model", entry.Model)
	}
	var chainOpts []semantic.Option
	if cfg.Providers.ForceLanguage != "" {
		chainOpts = append(chainOpts, semantic.WithForcedProvider(cfg.Providers.ForceLanguage))
		slog.Warn("language chain pinned to a single provider", "provider", cfg.Providers.ForceLanguage)
	}
	chain, err := semantic.NewChain(providers, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.Breaker.MaxFailures,
			ResetTimeout: cfg.Breaker.ResetTimeout,
			HalfOpenMax:  cfg.Breaker.HalfOpenMax,
		},
	}, chainOpts...)
	if err != nil {
		return deps, err
	}
	deps.Chain = chain

	// Artifact store, shared by deep models and report export.
	var store artifact.Store
	if cfg.Artifacts.S3.Bucket != "" {
		client, err := buildS3Client(ctx, cfg.Artifacts.S3)
		if err != nil {
			return deps, fmt.Errorf("create s3 client: %w", err)
		}
		store = artifact.NewS3(client, cfg.Artifacts.S3.Bucket, cfg.Artifacts.S3.Prefix)
		deps.Reports = store
		deps.ReportPrefix = cfg.Artifacts.ReportPrefix
	}

	// Deep classifier gateway.
	if cfg.Providers.Deep.Enabled {
		gateway, err := deepmodel.NewGateway(deepmodel.Config{
			Store:                  store,
			Runtime:                deepnative.NewRuntime(),
			CacheDir:               cfg.Providers.Deep.CacheDir,
			Models:                 cfg.Providers.Deep.Models,
			MaxConcurrentInference: int64(cfg.Providers.Deep.MaxConcurrentInference),
		})
		if err != nil {
			return deps, fmt.Errorf("create deep gateway: %w", err)
		}
		deps.Deep = gateway
		slog.Info("deep gateway ready", "models", len(cfg.Providers.Deep.Models))
	}

	// Indicator history.
	if cfg.History.PostgresDSN != "" {
		var hs history.Store
		hs, err = historypg.NewStore(ctx, cfg.History.PostgresDSN)
		if err != nil {
			return deps, fmt.Errorf("connect history store: %w", err)
		}
		deps.History = hs
		slog.Info("history store connected")
	}

	return deps, nil
}

func buildSTT(ctx context.Context, entry config.ProviderEntry) (stt.Provider, error) {
	switch entry.Name {
	case "", "google":
		var opts []option.ClientOption
		if entry.APIKey != "" {
			opts = append(opts, option.WithAPIKey(entry.APIKey))
		}
		if cred := optString(entry.Options, "credentials_file"); cred != "" {
			opts = append(opts, option.WithCredentialsFile(cred))
		}
		if entry.BaseURL != "" {
			opts = append(opts, option.WithEndpoint(entry.BaseURL))
		}
		return sttgoogle.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown stt provider %q", entry.Name)
	}
}

// optString extracts a string value from a provider Options map. Returns ""
// if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func buildLanguage(entry config.ProviderEntry) (language.Provider, error) {
	switch entry.Name {
	case "openai":
		var opts []oailang.Option
		if entry.BaseURL != "" {
			opts = append(opts, oailang.WithBaseURL(entry.BaseURL))
		}
		return oailang.New(entry.APIKey, entry.Model, opts...)
	default:
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New(entry.Name, entry.Model, opts...)
	}
}

func buildS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// healthChecks derives readiness checkers from the wired dependencies.
func healthChecks(deps pipeline.Deps) []health.Checker {
	var checks []health.Checker
	if deps.History != nil {
		checks = append(checks, health.HistoryCheck(deps.History))
	}
	if deps.Reports != nil {
		checks = append(checks, health.ArtifactCheck(deps.Reports))
	}
	return checks
}

func serveMetrics(addr string, checks ...health.Checker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	health.New(pipeline.Version, checks...).Register(mux)
	slog.Info("metrics listener started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics listener stopped", "err", err)
	}
}

func printResult(res *pipeline.Result) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		slog.Error("encode result", "run_id", res.RunID, "err", err)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
