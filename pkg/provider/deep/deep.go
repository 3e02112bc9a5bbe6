// Package deep defines the deep audio classifier abstraction: pretrained
// models that score clinical risk directly from raw audio, without an
// intermediate transcript.
//
// Models are distributed as versioned artifact files. The analysis pipeline
// downloads and caches them through its model gateway and hands local file
// paths to a Runtime for loading.
package deep

import (
	"context"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Model classes currently trained for the elder-care domain.
const (
	ClassDepression = "depression"
	ClassInsomnia   = "insomnia"
)

// Prediction is a single class probability with the model's own confidence
// in that prediction. Both values are in [0, 1].
type Prediction struct {
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
}

// Result is the output of one inference pass over a recording.
type Result struct {
	// Predictions maps class names (ClassDepression, ...) to predictions.
	Predictions map[string]Prediction `json:"predictions"`

	// ModelVersion identifies the artifact that produced the result.
	ModelVersion string `json:"model_version"`
}

// Model is a loaded classifier ready for inference.
type Model interface {
	// Version returns the loaded artifact's version string.
	Version() string

	// Infer classifies the audio file at path. Implementations must stop
	// and return ctx.Err() promptly when the context is cancelled.
	Infer(ctx context.Context, path string) (*Result, error)

	// Close releases the model's memory. A closed model must not be used.
	Close() error
}

// Runtime loads classifier artifacts from local disk.
type Runtime interface {
	// Name returns a short identifier for logs and reports.
	Name() string

	// Load reads the artifact at path and prepares it for inference.
	Load(ctx context.Context, path string) (Model, error)
}

// IndicatorsFromResult maps class probabilities onto indicator scores.
// Classifiers predict risk (higher probability = worse), indicators report
// condition (higher = better), so each covered indicator is the inverted
// probability. Indicators no class speaks to are omitted; the fusion engine
// redistributes their weight across the modalities that did report.
func IndicatorsFromResult(r *Result) types.Scores {
	if r == nil || len(r.Predictions) == 0 {
		return nil
	}

	scores := types.Scores{}
	if p, ok := r.Predictions[ClassDepression]; ok {
		scores[types.DRI] = clamp01(1 - p.Probability)
	}
	if p, ok := r.Predictions[ClassInsomnia]; ok {
		scores[types.SDI] = clamp01(1 - p.Probability)
	}
	if len(scores) == 0 {
		return nil
	}
	return scores
}

// Confidence returns the mean confidence across all predictions, or 0 when
// the result is empty.
func Confidence(r *Result) float64 {
	if r == nil || len(r.Predictions) == 0 {
		return 0
	}
	var sum float64
	for _, p := range r.Predictions {
		sum += p.Confidence
	}
	return sum / float64(len(r.Predictions))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
