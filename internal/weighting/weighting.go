// Package weighting derives per-indicator modality blending ratios from the
// run's data quality. It never fails: with no quality signal at all it falls
// back to equal weights at a fixed mid confidence, so fusion always has
// something to work with.
package weighting

import (
	"math"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Default fixed weights, used when adaptive mode is off or a run has no
// quality signal to adapt to.
const (
	DefaultVoiceWeight = 0.3
	DefaultTextWeight  = 0.4
	DefaultDeepWeight  = 0.3
)

// neutralConfidence marks indicators weighted without any quality signal.
const neutralConfidence = 0.5

// Calculator derives weights and per-indicator confidences.
type Calculator struct {
	// Adaptive enables quality-driven weighting. When false every
	// indicator gets the fixed default ratio.
	Adaptive bool

	// Defaults overrides the fixed weights when non-zero.
	Defaults types.ModalityWeights
}

func (c *Calculator) defaults() types.ModalityWeights {
	d := c.Defaults
	if d.Sum() == 0 {
		return types.ModalityWeights{
			Voice: DefaultVoiceWeight,
			Text:  DefaultTextWeight,
			Deep:  DefaultDeepWeight,
		}
	}
	return d
}

// Weights computes the blending ratio for every indicator, plus a confidence
// per indicator. Quality maps modality to its [0,1] quality score; results
// says which modalities produced which indicators, so weights renormalize
// over only the modalities that actually reported each indicator.
func (c *Calculator) Weights(
	quality map[types.Modality]float64,
	results map[types.Modality]types.ModalityResult,
	profile types.UserProfile,
) (types.Weights, map[types.IndicatorKind]float64) {
	weights := make(types.Weights, len(types.IndicatorKinds()))
	confidences := make(map[types.IndicatorKind]float64, len(types.IndicatorKinds()))

	for _, kind := range types.IndicatorKinds() {
		w, conf := c.indicatorWeights(kind, quality, results)
		weights[kind] = w
		confidences[kind] = conf
	}
	return weights, confidences
}

// indicatorWeights weights one indicator over the modalities that reported
// it. Absent modalities get weight zero and the rest renormalize to sum 1.
func (c *Calculator) indicatorWeights(
	kind types.IndicatorKind,
	quality map[types.Modality]float64,
	results map[types.Modality]types.ModalityResult,
) (types.ModalityWeights, float64) {
	present := presentModalities(kind, results)
	if len(present) == 0 {
		// Nothing reported this indicator. Equal weights keep the
		// invariant intact; neutral confidence marks the gap.
		n := float64(len(types.Modalities()))
		return types.ModalityWeights{
			Voice: 1 / n,
			Text:  1 / n,
			Deep:  1 / n,
		}, neutralConfidence
	}

	base := c.defaults()
	raw := make(map[types.Modality]float64, len(present))
	var sum float64
	for _, m := range present {
		v := base.Get(m)
		if c.Adaptive {
			if q := quality[m]; q > 0 {
				v *= q
			}
		}
		raw[m] = v
		sum += v
	}
	if sum <= 0 {
		for _, m := range present {
			raw[m] = 1
		}
		sum = float64(len(present))
	}

	var w types.ModalityWeights
	for m, v := range raw {
		switch m {
		case types.ModalityVoice:
			w.Voice = v / sum
		case types.ModalityText:
			w.Text = v / sum
		case types.ModalityDeep:
			w.Deep = v / sum
		}
	}
	return w, confidence(present, quality, w)
}

// presentModalities lists the modalities whose result carries this indicator.
func presentModalities(kind types.IndicatorKind, results map[types.Modality]types.ModalityResult) []types.Modality {
	var present []types.Modality
	for _, m := range types.Modalities() {
		r, ok := results[m]
		if !ok || !r.Contributed() {
			continue
		}
		if _, ok := r.Indicators[kind]; ok {
			present = append(present, m)
		}
	}
	return present
}

// countFactors scale confidence by how many modalities contributed:
// one lone estimate is weak, full coverage is trusted.
var countFactors = map[int]float64{1: 0.6, 2: 0.85, 3: 1.0}

// confidence blends the contributing modalities' mean quality with a
// coverage factor, penalizing runs where one modality dominated the blend.
func confidence(present []types.Modality, quality map[types.Modality]float64, w types.ModalityWeights) float64 {
	var qSum float64
	for _, m := range present {
		qSum += quality[m]
	}
	conf := qSum / float64(len(present)) * countFactors[len(present)]

	if spread(present, w) > 0.5 {
		conf -= 0.2
	}
	return clamp01(conf)
}

// spread is the gap between the largest and smallest weight among the
// contributing modalities.
func spread(present []types.Modality, w types.ModalityWeights) float64 {
	if len(present) < 2 {
		return 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, m := range present {
		v := w.Get(m)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
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
