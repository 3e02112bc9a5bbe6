package acoustic

import (
	"testing"
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

func TestTimeout(t *testing.T) {
	const mb = 1024 * 1024

	tests := []struct {
		name string
		size int64
		want time.Duration
	}{
		{name: "empty file", size: 0, want: 60 * time.Second},
		{name: "one megabyte", size: 1 * mb, want: 80 * time.Second},
		{name: "five megabytes", size: 5 * mb, want: 160 * time.Second},
		{name: "nine megabytes clamps", size: 9 * mb, want: 240 * time.Second},
		{name: "huge file clamps", size: 100 * mb, want: 240 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Timeout(tt.size); got != tt.want {
				t.Errorf("Timeout(%d) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestIndicatorsFromFeatures_Nil(t *testing.T) {
	if got := IndicatorsFromFeatures(nil); got != nil {
		t.Errorf("IndicatorsFromFeatures(nil) = %v, want nil", got)
	}
}

func TestIndicatorsFromFeatures_AllInRange(t *testing.T) {
	f := &Features{Values: map[string]float64{
		FeaturePitchMean:      180,
		FeaturePitchStd:       27,
		FeatureEnergyMean:     0.6,
		FeatureSpeakingRate:   4.0,
		FeaturePauseRatio:     0.2,
		FeatureVoiceClarity:   0.7,
		FeatureVoiceStability: 0.8,
		FeatureTremorAmp:      0.1,
	}}

	got := IndicatorsFromFeatures(f)
	if len(got) != len(types.IndicatorKinds()) {
		t.Fatalf("indicators = %v, want all five", got)
	}
	for _, kind := range types.IndicatorKinds() {
		v, ok := got[kind]
		if !ok {
			t.Errorf("%s missing", kind)
			continue
		}
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, want in [0,1]", kind, v)
		}
	}
}

func TestIndicatorsFromFeatures_SparseDegradesTowardNeutral(t *testing.T) {
	got := IndicatorsFromFeatures(&Features{Values: map[string]float64{}})

	for _, kind := range types.IndicatorKinds() {
		v := got[kind]
		if v < 0.3 || v > 0.8 {
			t.Errorf("%s = %v from empty features, want near neutral", kind, v)
		}
	}
}

func TestIndicatorsFromFeatures_FlatSpeechScoresLow(t *testing.T) {
	lively := IndicatorsFromFeatures(&Features{Values: map[string]float64{
		FeatureEnergyMean:   0.7,
		FeatureSpeakingRate: 4.5,
		FeaturePauseRatio:   0.15,
		FeaturePitchMean:    180,
		FeaturePitchStd:     27, // ~15% relative deviation, natural intonation
	}})
	flat := IndicatorsFromFeatures(&Features{Values: map[string]float64{
		FeatureEnergyMean:   0.1,
		FeatureSpeakingRate: 1.0,
		FeaturePauseRatio:   0.7,
		FeaturePitchMean:    180,
		FeaturePitchStd:     0, // monotone
	}})

	if flat[types.DRI] >= lively[types.DRI] {
		t.Errorf("flat DRI %v >= lively DRI %v, want flat speech scoring worse",
			flat[types.DRI], lively[types.DRI])
	}
	if flat[types.OV] >= lively[types.OV] {
		t.Errorf("flat OV %v >= lively OV %v, want flat speech scoring worse",
			flat[types.OV], lively[types.OV])
	}
}

func TestIndicatorsFromFeatures_OutOfRangeClamps(t *testing.T) {
	f := &Features{Values: map[string]float64{
		FeatureEnergyMean:   5.0,  // beyond the normalized range
		FeatureSpeakingRate: 20.0, // implausibly fast
		FeaturePauseRatio:   -1.0,
	}}

	got := IndicatorsFromFeatures(f)
	for _, kind := range types.IndicatorKinds() {
		if v := got[kind]; v < 0 || v > 1 {
			t.Errorf("%s = %v, want clamped to [0,1]", kind, v)
		}
	}
}
