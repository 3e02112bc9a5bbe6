// Package deepmodel manages deep audio-classifier models: fetching versioned
// artifacts from remote storage into a local disk cache, holding deserialized
// models in a process-lifetime memory cache, and running inference through a
// bounded worker pool so CPU-bound work cannot stall pipeline orchestration.
package deepmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/maeumlabs/maeum/internal/observe"
	"github.com/maeumlabs/maeum/pkg/artifact"
	"github.com/maeumlabs/maeum/pkg/provider/deep"
)

// ErrUnavailable is returned when a model cannot be loaded. Callers treat
// the deep modality as skipped, never as a run failure.
var ErrUnavailable = errors.New("deepmodel: model unavailable")

// DefaultMaxConcurrentInference bounds simultaneous inference calls.
const DefaultMaxConcurrentInference = 2

// Config wires a Gateway.
type Config struct {
	// Store is the remote artifact store models are downloaded from.
	Store artifact.Store

	// Runtime deserializes and runs downloaded model files.
	Runtime deep.Runtime

	// CacheDir is the local directory downloaded artifacts persist in.
	CacheDir string

	// Models maps a classifier class (e.g. "depression") to its artifact
	// name in Store.
	Models map[string]string

	// MaxConcurrentInference caps simultaneous Infer calls. Zero means
	// DefaultMaxConcurrentInference.
	MaxConcurrentInference int64

	// Metrics overrides the default metrics sink.
	Metrics *observe.Metrics
}

// Gateway is the two-level model cache plus inference pool. Safe for
// concurrent use: the memory cache is populated single-writer-per-key, so
// concurrent first callers for the same class share one download and load.
type Gateway struct {
	store    artifact.Store
	runtime  deep.Runtime
	cacheDir string
	models   map[string]string
	sem      *semaphore.Weighted
	metrics  *observe.Metrics

	flight singleflight.Group

	mu     sync.Mutex
	loaded map[string]deep.Model
}

// NewGateway validates cfg and builds a Gateway.
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("deepmodel: artifact store is required")
	}
	if cfg.Runtime == nil {
		return nil, fmt.Errorf("deepmodel: runtime is required")
	}
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("deepmodel: no models configured")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "maeum-models")
	}
	if cfg.MaxConcurrentInference <= 0 {
		cfg.MaxConcurrentInference = DefaultMaxConcurrentInference
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Gateway{
		store:    cfg.Store,
		runtime:  cfg.Runtime,
		cacheDir: cfg.CacheDir,
		models:   cfg.Models,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrentInference),
		metrics:  cfg.Metrics,
		loaded:   make(map[string]deep.Model),
	}, nil
}

// Classes returns the configured classifier classes in sorted order.
func (g *Gateway) Classes() []string {
	classes := make([]string, 0, len(g.models))
	for class := range g.models {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

// Model returns the loaded model for class, downloading and deserializing it
// on first use. Concurrent callers for the same class wait on one in-flight
// load. Failures return ErrUnavailable wrapped with the cause.
func (g *Gateway) Model(ctx context.Context, class string) (deep.Model, error) {
	artifactName, ok := g.models[class]
	if !ok {
		return nil, fmt.Errorf("%w: class %q not configured", ErrUnavailable, class)
	}

	g.mu.Lock()
	if m, ok := g.loaded[class]; ok {
		g.mu.Unlock()
		g.metrics.RecordModelCacheEvent(ctx, "memory", "hit")
		return m, nil
	}
	g.mu.Unlock()
	g.metrics.RecordModelCacheEvent(ctx, "memory", "miss")

	v, err, _ := g.flight.Do(class, func() (any, error) {
		path, err := g.ensureLocal(ctx, artifactName)
		if err != nil {
			return nil, err
		}
		m, err := g.runtime.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		g.mu.Lock()
		g.loaded[class] = m
		g.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v.(deep.Model), nil
}

// Infer runs the class's model over the audio file through the bounded pool.
func (g *Gateway) Infer(ctx context.Context, class, audioPath string) (*deep.Result, error) {
	m, err := g.Model(ctx, class)
	if err != nil {
		return nil, err
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("deepmodel: acquire inference slot: %w", err)
	}
	defer g.sem.Release(1)
	return m.Infer(ctx, audioPath)
}

// InferAll runs every configured class over the audio and merges the
// predictions into one Result. A class whose model is unavailable is logged
// and skipped; InferAll errors only when no class produced a prediction.
func (g *Gateway) InferAll(ctx context.Context, audioPath string) (*deep.Result, error) {
	merged := &deep.Result{Predictions: make(map[string]deep.Prediction)}
	var lastErr error
	for _, class := range g.Classes() {
		r, err := g.Infer(ctx, class, audioPath)
		if err != nil {
			observe.Logger(ctx).Warn("deep classifier skipped",
				"class", class, "error", err)
			lastErr = err
			continue
		}
		for k, p := range r.Predictions {
			merged.Predictions[k] = p
		}
		if r.ModelVersion != "" {
			merged.ModelVersion = r.ModelVersion
		}
	}
	if len(merged.Predictions) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrUnavailable
	}
	return merged, nil
}

// ensureLocal downloads the artifact into the disk cache unless a file with
// the same name is already there.
func (g *Gateway) ensureLocal(ctx context.Context, name string) (string, error) {
	path := filepath.Join(g.cacheDir, filepath.Base(name))
	if _, err := os.Stat(path); err == nil {
		g.metrics.RecordModelCacheEvent(ctx, "disk", "hit")
		return path, nil
	}
	g.metrics.RecordModelCacheEvent(ctx, "disk", "miss")

	if err := os.MkdirAll(g.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	src, err := g.store.Read(ctx, name)
	if err != nil {
		return "", fmt.Errorf("fetch artifact %s: %w", name, err)
	}
	defer src.Close()

	// Download to a temp file and rename, so a torn download never
	// satisfies the skip-if-exists check.
	tmp, err := os.CreateTemp(g.cacheDir, filepath.Base(name)+".part-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("install artifact %s: %w", name, err)
	}
	return path, nil
}

// ClearMemory drops every deserialized model, closing each, without touching
// the disk cache. The next Model call reloads from disk.
func (g *Gateway) ClearMemory() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for class, m := range g.loaded {
		if err := m.Close(); err != nil {
			observe.Logger(context.Background()).Warn("closing cached model",
				"class", class, "error", err)
		}
		delete(g.loaded, class)
	}
}
