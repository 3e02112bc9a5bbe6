// Package native runs deep-classifier artifacts exported as linear model
// weight files. The artifact is JSON: a model version plus, per class, a
// bias and a weight per acoustic feature. Inference extracts the acoustic
// feature map from the audio and applies logistic regression per class.
//
// This keeps the classifier runtime dependency-free; heavier model formats
// plug in behind the same deep.Runtime interface.
package native

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/maeumlabs/maeum/pkg/provider/acoustic"
	acousticnative "github.com/maeumlabs/maeum/pkg/provider/acoustic/native"
	"github.com/maeumlabs/maeum/pkg/provider/deep"
)

// modelFile is the on-disk artifact schema.
type modelFile struct {
	Version string                `json:"version"`
	Classes map[string]classModel `json:"classes"`
}

type classModel struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

// Runtime loads linear weight artifacts.
type Runtime struct {
	extractor acoustic.Provider
}

var _ deep.Runtime = (*Runtime)(nil)

// NewRuntime returns a Runtime extracting features with the native
// acoustic extractor.
func NewRuntime() *Runtime {
	return &Runtime{extractor: acousticnative.New()}
}

// Name implements deep.Runtime.
func (*Runtime) Name() string { return "native" }

// Load implements deep.Runtime.
func (r *Runtime) Load(ctx context.Context, path string) (deep.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("native: read model: %w", err)
	}
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("native: parse model %s: %w", path, err)
	}
	if len(mf.Classes) == 0 {
		return nil, fmt.Errorf("native: model %s declares no classes", path)
	}
	return &Model{file: mf, extractor: r.extractor}, nil
}

// Model is one loaded weight file.
type Model struct {
	file      modelFile
	extractor acoustic.Provider
}

var _ deep.Model = (*Model)(nil)

// Version implements deep.Model.
func (m *Model) Version() string { return m.file.Version }

// Close implements deep.Model. Linear models hold no resources.
func (m *Model) Close() error { return nil }

// Infer implements deep.Model: extract the feature map, then score each
// class with its logistic regression.
func (m *Model) Infer(ctx context.Context, audioPath string) (*deep.Result, error) {
	features, err := m.extractor.ExtractFeatures(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("native: extract features: %w", err)
	}

	predictions := make(map[string]deep.Prediction, len(m.file.Classes))
	for class, cm := range m.file.Classes {
		z := cm.Bias
		for feature, w := range cm.Weights {
			z += w * features.Values[feature]
		}
		p := sigmoid(z)
		predictions[class] = deep.Prediction{
			Probability: p,
			// Distance from the decision boundary, rescaled to [0,1].
			Confidence: math.Abs(2*p - 1),
		}
	}
	return &deep.Result{
		Predictions:  predictions,
		ModelVersion: m.file.Version,
	}, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
