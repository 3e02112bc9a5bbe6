// Package fusion combines the per-modality indicator estimates into the
// final five-indicator set. Fusion is pure arithmetic: deterministic,
// idempotent, and total — any combination of skipped, failed, and successful
// modalities produces a usable result.
package fusion

import (
	"math"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Result is one fused assessment plus the cross-modality agreement score.
type Result struct {
	// Values holds the fused score per indicator.
	Values types.Scores

	// Confidence holds the per-indicator confidence carried over from
	// the weighting layer.
	Confidence map[types.IndicatorKind]float64

	// Consistency measures agreement among contributing modalities over
	// all indicators, in [0,1]. Defined as 1.0 when fewer than two
	// modalities contributed.
	Consistency float64

	// Contributing lists the modalities whose indicators entered the
	// blend, in canonical order.
	Contributing []types.Modality
}

// Engine fuses modality results under the weighting layer's ratios.
// The zero value is ready to use.
type Engine struct{}

// Fuse blends each indicator as the weighted sum of the modalities that
// reported it. Weights arrive already renormalized per indicator over the
// present modalities; a modality absent for an indicator carries weight 0.
// Indicators no modality reported fuse to the neutral 0.5.
func (Engine) Fuse(
	results map[types.Modality]types.ModalityResult,
	weights types.Weights,
	confidences map[types.IndicatorKind]float64,
) Result {
	values := make(types.Scores, len(types.IndicatorKinds()))
	for _, kind := range types.IndicatorKinds() {
		values[kind] = fuseIndicator(kind, results, weights[kind])
	}

	conf := make(map[types.IndicatorKind]float64, len(confidences))
	for k, v := range confidences {
		conf[k] = v
	}

	return Result{
		Values:       values,
		Confidence:   conf,
		Consistency:  Consistency(results),
		Contributing: contributing(results),
	}
}

func fuseIndicator(kind types.IndicatorKind, results map[types.Modality]types.ModalityResult, w types.ModalityWeights) float64 {
	var sum, weightSum float64
	for _, m := range types.Modalities() {
		r, ok := results[m]
		if !ok || !r.Contributed() {
			continue
		}
		v, ok := r.Indicators[kind]
		if !ok {
			continue
		}
		weight := w.Get(m)
		sum += weight * v
		weightSum += weight
	}
	if weightSum == 0 {
		return 0.5
	}
	return sum / weightSum
}

// Consistency scores cross-modality agreement: the mean over indicators of
// max(0, 1 - 2*stddev) across the modalities that reported each indicator.
// With fewer than two contributing modalities there is nothing to disagree
// about, so consistency is 1.0 by definition.
func Consistency(results map[types.Modality]types.ModalityResult) float64 {
	if len(contributing(results)) < 2 {
		return 1.0
	}

	var sum float64
	var counted int
	for _, kind := range types.IndicatorKinds() {
		var vals []float64
		for _, m := range types.Modalities() {
			r, ok := results[m]
			if !ok || !r.Contributed() {
				continue
			}
			if v, ok := r.Indicators[kind]; ok {
				vals = append(vals, v)
			}
		}
		if len(vals) < 2 {
			continue
		}
		sum += math.Max(0, 1-2*stddev(vals))
		counted++
	}
	if counted == 0 {
		return 1.0
	}
	return sum / float64(counted)
}

func contributing(results map[types.Modality]types.ModalityResult) []types.Modality {
	var out []types.Modality
	for _, m := range types.Modalities() {
		if r, ok := results[m]; ok && r.Contributed() {
			out = append(out, m)
		}
	}
	return out
}

func stddev(vals []float64) float64 {
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	var variance float64
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(vals))
	return math.Sqrt(variance)
}
