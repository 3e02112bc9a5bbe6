package trend

import (
	"math"
	"testing"
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

func snap(ts time.Time, v float64) types.IndicatorSnapshot {
	values := make(types.Scores, len(types.IndicatorKinds()))
	for _, k := range types.IndicatorKinds() {
		values[k] = v
	}
	return types.IndicatorSnapshot{Timestamp: ts, Values: values}
}

func TestAnalyze_TooFewSnapshots(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	for _, snaps := range [][]types.IndicatorSnapshot{nil, {snap(base, 0.6)}} {
		got := Analyze(snaps)
		if got.Samples != len(snaps) {
			t.Errorf("samples = %d, want %d", got.Samples, len(snaps))
		}
		for _, kind := range types.IndicatorKinds() {
			if got.Directions[kind] != types.TrendUnknown {
				t.Errorf("%d snapshots, %s = %q, want unknown", len(snaps), kind, got.Directions[kind])
			}
		}
	}
}

func TestAnalyze_Directions(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		values []float64
		want   types.Trend
	}{
		{name: "improving", values: []float64{0.3, 0.4, 0.5, 0.6}, want: types.TrendImproving},
		{name: "declining", values: []float64{0.8, 0.7, 0.6, 0.5}, want: types.TrendDeclining},
		{name: "stable", values: []float64{0.6, 0.61, 0.6, 0.61}, want: types.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snaps []types.IndicatorSnapshot
			for i, v := range tt.values {
				snaps = append(snaps, snap(base.AddDate(0, 0, i), v))
			}
			got := Analyze(snaps)
			for _, kind := range types.IndicatorKinds() {
				if got.Directions[kind] != tt.want {
					t.Errorf("%s = %q, want %q", kind, got.Directions[kind], tt.want)
				}
			}
			if got.Samples != len(snaps) {
				t.Errorf("samples = %d, want %d", got.Samples, len(snaps))
			}
			if !got.From.Equal(snaps[0].Timestamp) || !got.To.Equal(snaps[len(snaps)-1].Timestamp) {
				t.Errorf("window = %v..%v, want %v..%v", got.From, got.To, snaps[0].Timestamp, snaps[len(snaps)-1].Timestamp)
			}
		})
	}
}

func TestAnalyze_OrdersChronologically(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	// Same series as the declining case, delivered out of order.
	snaps := []types.IndicatorSnapshot{
		snap(base.AddDate(0, 0, 2), 0.6),
		snap(base, 0.8),
		snap(base.AddDate(0, 0, 3), 0.5),
		snap(base.AddDate(0, 0, 1), 0.7),
	}

	got := Analyze(snaps)
	if got.Directions[types.DRI] != types.TrendDeclining {
		t.Errorf("DRI = %q, want declining", got.Directions[types.DRI])
	}
	if math.Abs(got.Slopes[types.DRI]-(-0.1)) > 1e-9 {
		t.Errorf("slope = %v, want -0.1", got.Slopes[types.DRI])
	}
}

func TestAnalyze_MissingIndicatorIsUnknown(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	snaps := []types.IndicatorSnapshot{
		{Timestamp: base, Values: types.Scores{types.DRI: 0.4}},
		{Timestamp: base.AddDate(0, 0, 1), Values: types.Scores{types.DRI: 0.5}},
		{Timestamp: base.AddDate(0, 0, 2), Values: types.Scores{types.DRI: 0.6}},
	}

	got := Analyze(snaps)
	if got.Directions[types.DRI] != types.TrendImproving {
		t.Errorf("DRI = %q, want improving", got.Directions[types.DRI])
	}
	if got.Directions[types.SDI] != types.TrendUnknown {
		t.Errorf("SDI = %q, want unknown with no data points", got.Directions[types.SDI])
	}
}
