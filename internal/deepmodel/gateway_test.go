package deepmodel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	artifactmock "github.com/maeumlabs/maeum/pkg/artifact/mock"
	"github.com/maeumlabs/maeum/pkg/provider/deep"
	deepmock "github.com/maeumlabs/maeum/pkg/provider/deep/mock"
)

func testGateway(t *testing.T, store *artifactmock.Store, runtime *deepmock.Runtime) *Gateway {
	t.Helper()
	g, err := NewGateway(Config{
		Store:    store,
		Runtime:  runtime,
		CacheDir: t.TempDir(),
		Models: map[string]string{
			deep.ClassDepression: "models/depression-v3.json",
			deep.ClassInsomnia:   "models/insomnia-v2.json",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func seededStore() *artifactmock.Store {
	store := &artifactmock.Store{}
	store.Seed("models/depression-v3.json", []byte(`{"version":"v3"}`))
	store.Seed("models/insomnia-v2.json", []byte(`{"version":"v2"}`))
	return store
}

func TestNewGateway_Validation(t *testing.T) {
	store := seededStore()
	runtime := &deepmock.Runtime{}

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no store", cfg: Config{Runtime: runtime, Models: map[string]string{"a": "b"}}},
		{name: "no runtime", cfg: Config{Store: store, Models: map[string]string{"a": "b"}}},
		{name: "no models", cfg: Config{Store: store, Runtime: runtime}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGateway(tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestGateway_Classes(t *testing.T) {
	g := testGateway(t, seededStore(), &deepmock.Runtime{})

	got := g.Classes()
	want := []string{deep.ClassDepression, deep.ClassInsomnia}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("classes = %v, want %v", got, want)
	}
}

func TestGateway_Model_DownloadsOnceThenCaches(t *testing.T) {
	store := seededStore()
	runtime := &deepmock.Runtime{}
	g := testGateway(t, store, runtime)
	ctx := context.Background()

	first, err := g.Model(ctx, deep.ClassDepression)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := g.Model(ctx, deep.ClassDepression)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("second call returned a different model, want memory cache hit")
	}
	if len(store.Reads) != 1 {
		t.Errorf("store reads = %d, want 1", len(store.Reads))
	}
	if len(runtime.LoadCalls) != 1 {
		t.Errorf("runtime loads = %d, want 1", len(runtime.LoadCalls))
	}
}

func TestGateway_Model_SkipsDownloadWhenOnDisk(t *testing.T) {
	store := seededStore()
	runtime := &deepmock.Runtime{}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "depression-v3.json"), []byte(`{"version":"v3"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := NewGateway(Config{
		Store:    store,
		Runtime:  runtime,
		CacheDir: dir,
		Models:   map[string]string{deep.ClassDepression: "models/depression-v3.json"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := g.Model(context.Background(), deep.ClassDepression); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.Reads) != 0 {
		t.Errorf("store reads = %d, want 0 with a warm disk cache", len(store.Reads))
	}
}

func TestGateway_Model_UnknownClass(t *testing.T) {
	g := testGateway(t, seededStore(), &deepmock.Runtime{})

	_, err := g.Model(context.Background(), "anxiety")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestGateway_Model_LoadFailure(t *testing.T) {
	runtime := &deepmock.Runtime{LoadErr: errors.New("corrupt artifact")}
	g := testGateway(t, seededStore(), runtime)

	_, err := g.Model(context.Background(), deep.ClassDepression)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestGateway_ClearMemory(t *testing.T) {
	model := &deepmock.Model{}
	runtime := &deepmock.Runtime{Model: model}
	store := seededStore()
	g := testGateway(t, store, runtime)
	ctx := context.Background()

	if _, err := g.Model(ctx, deep.ClassDepression); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.ClearMemory()
	if !model.Closed {
		t.Error("cached model not closed")
	}

	// Reload hits disk, not the remote store.
	reads := len(store.Reads)
	if _, err := g.Model(ctx, deep.ClassDepression); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.Reads) != reads {
		t.Errorf("store reads = %d after reload, want %d (disk cache)", len(store.Reads), reads)
	}
	if len(runtime.LoadCalls) != 2 {
		t.Errorf("runtime loads = %d, want 2", len(runtime.LoadCalls))
	}
}

func TestGateway_InferAll_MergesAndSkipsUnavailable(t *testing.T) {
	depModel := &deepmock.Model{Result: &deep.Result{
		Predictions:  map[string]deep.Prediction{deep.ClassDepression: {Probability: 0.3, Confidence: 0.9}},
		ModelVersion: "v3",
	}}
	runtime := &deepmock.Runtime{Model: depModel}
	store := &artifactmock.Store{}
	// Only the depression artifact exists; insomnia read fails.
	store.Seed("models/depression-v3.json", []byte(`{"version":"v3"}`))

	g := testGateway(t, store, runtime)
	got, err := g.InferAll(context.Background(), "/tmp/senior.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Predictions) != 1 {
		t.Fatalf("predictions = %v, want the available class only", got.Predictions)
	}
	if got.ModelVersion != "v3" {
		t.Errorf("model version = %q, want v3", got.ModelVersion)
	}
}

func TestGateway_InferAll_NothingAvailable(t *testing.T) {
	store := &artifactmock.Store{} // nothing seeded
	g := testGateway(t, store, &deepmock.Runtime{})

	if _, err := g.InferAll(context.Background(), "/tmp/senior.wav"); err == nil {
		t.Fatal("expected error when no class produced a prediction")
	}
}
