// Package trend derives per-indicator direction from historical snapshots.
// With fewer than two snapshots every indicator trends "unknown".
package trend

import (
	"sort"
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

// stableBand is the slope magnitude (score units per assessment) below
// which an indicator counts as stable.
const stableBand = 0.02

// Analysis is the per-indicator trend over a window of snapshots.
type Analysis struct {
	// Directions holds one trend per indicator.
	Directions map[types.IndicatorKind]types.Trend

	// Slopes holds the fitted slope per indicator, in score units per
	// assessment. Zero when unknown.
	Slopes map[types.IndicatorKind]float64

	// Samples is how many snapshots entered the fit.
	Samples int

	// From and To bound the window the snapshots span. Zero when
	// Samples is zero.
	From, To time.Time
}

// Unknown is the analysis for runs with no usable history.
func Unknown() Analysis {
	directions := make(map[types.IndicatorKind]types.Trend, len(types.IndicatorKinds()))
	for _, k := range types.IndicatorKinds() {
		directions[k] = types.TrendUnknown
	}
	return Analysis{
		Directions: directions,
		Slopes:     make(map[types.IndicatorKind]float64),
	}
}

// Analyze fits a least-squares line per indicator over the snapshots,
// ordered chronologically, and classifies the slope. Indicators are
// higher-is-better, so a positive slope is improving.
func Analyze(snapshots []types.IndicatorSnapshot) Analysis {
	if len(snapshots) < 2 {
		a := Unknown()
		a.Samples = len(snapshots)
		return a
	}

	ordered := make([]types.IndicatorSnapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	a := Analysis{
		Directions: make(map[types.IndicatorKind]types.Trend, len(types.IndicatorKinds())),
		Slopes:     make(map[types.IndicatorKind]float64, len(types.IndicatorKinds())),
		Samples:    len(ordered),
		From:       ordered[0].Timestamp,
		To:         ordered[len(ordered)-1].Timestamp,
	}
	for _, kind := range types.IndicatorKinds() {
		slope, ok := fitSlope(ordered, kind)
		if !ok {
			a.Directions[kind] = types.TrendUnknown
			continue
		}
		a.Slopes[kind] = slope
		switch {
		case slope > stableBand:
			a.Directions[kind] = types.TrendImproving
		case slope < -stableBand:
			a.Directions[kind] = types.TrendDeclining
		default:
			a.Directions[kind] = types.TrendStable
		}
	}
	return a
}

// fitSlope runs an ordinary least-squares fit of the indicator's value
// against its snapshot index. Snapshots missing the indicator are skipped;
// fewer than two remaining points yield ok=false.
func fitSlope(ordered []types.IndicatorSnapshot, kind types.IndicatorKind) (slope float64, ok bool) {
	var xs, ys []float64
	for i, snap := range ordered {
		v, present := snap.Values[kind]
		if !present {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, v)
	}
	if len(xs) < 2 {
		return 0, false
	}

	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}
