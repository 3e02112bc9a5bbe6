package weighting

import (
	"math"
	"testing"

	"github.com/maeumlabs/maeum/pkg/types"
)

func contributed(m types.Modality, scores types.Scores) types.ModalityResult {
	return types.ModalityResult{
		Modality:   m,
		Status:     types.StatusSuccess,
		Indicators: scores,
	}
}

func allIndicators(v float64) types.Scores {
	scores := make(types.Scores, len(types.IndicatorKinds()))
	for _, k := range types.IndicatorKinds() {
		scores[k] = v
	}
	return scores
}

// Whatever combination of modalities contributed, the weights for every
// indicator must sum to 1 within 1e-6.
func TestCalculator_WeightsSumToOne(t *testing.T) {
	voice := contributed(types.ModalityVoice, allIndicators(0.6))
	text := contributed(types.ModalityText, allIndicators(0.7))
	deep := contributed(types.ModalityDeep, types.Scores{types.DRI: 0.4, types.SDI: 0.5})

	cases := []struct {
		name    string
		results map[types.Modality]types.ModalityResult
		quality map[types.Modality]float64
	}{
		{
			name: "all three",
			results: map[types.Modality]types.ModalityResult{
				types.ModalityVoice: voice,
				types.ModalityText:  text,
				types.ModalityDeep:  deep,
			},
			quality: map[types.Modality]float64{
				types.ModalityVoice: 0.9,
				types.ModalityText:  0.5,
				types.ModalityDeep:  0.8,
			},
		},
		{
			name: "voice only",
			results: map[types.Modality]types.ModalityResult{
				types.ModalityVoice: voice,
			},
			quality: map[types.Modality]float64{types.ModalityVoice: 0.3},
		},
		{
			name: "text skipped",
			results: map[types.Modality]types.ModalityResult{
				types.ModalityVoice: voice,
				types.ModalityText:  types.SkippedResult(types.ModalityText, "no_transcript"),
				types.ModalityDeep:  deep,
			},
			quality: map[types.Modality]float64{
				types.ModalityVoice: 0.7,
				types.ModalityDeep:  0.8,
			},
		},
		{
			name:    "nothing contributed",
			results: map[types.Modality]types.ModalityResult{},
			quality: map[types.Modality]float64{},
		},
	}

	for _, adaptive := range []bool{false, true} {
		c := Calculator{Adaptive: adaptive}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				weights, confidences := c.Weights(tc.quality, tc.results, types.UserProfile{})
				for _, kind := range types.IndicatorKinds() {
					sum := weights[kind].Sum()
					if math.Abs(sum-1.0) > 1e-6 {
						t.Errorf("adaptive=%v %s: weight sum = %v, want 1.0", adaptive, kind, sum)
					}
					conf := confidences[kind]
					if conf < 0 || conf > 1 {
						t.Errorf("adaptive=%v %s: confidence = %v, want in [0,1]", adaptive, kind, conf)
					}
				}
			})
		}
	}
}

func TestCalculator_FixedWeights(t *testing.T) {
	results := map[types.Modality]types.ModalityResult{
		types.ModalityVoice: contributed(types.ModalityVoice, allIndicators(0.6)),
		types.ModalityText:  contributed(types.ModalityText, allIndicators(0.7)),
		types.ModalityDeep:  contributed(types.ModalityDeep, allIndicators(0.5)),
	}
	quality := map[types.Modality]float64{
		types.ModalityVoice: 0.1, // must be ignored in fixed mode
		types.ModalityText:  1.0,
		types.ModalityDeep:  1.0,
	}

	c := Calculator{Adaptive: false}
	weights, _ := c.Weights(quality, results, types.UserProfile{})

	w := weights[types.DRI]
	if w.Voice != DefaultVoiceWeight || w.Text != DefaultTextWeight || w.Deep != DefaultDeepWeight {
		t.Errorf("weights = %+v, want defaults %v/%v/%v",
			w, DefaultVoiceWeight, DefaultTextWeight, DefaultDeepWeight)
	}
}

func TestCalculator_AdaptiveScalesByQuality(t *testing.T) {
	results := map[types.Modality]types.ModalityResult{
		types.ModalityVoice: contributed(types.ModalityVoice, allIndicators(0.6)),
		types.ModalityText:  contributed(types.ModalityText, allIndicators(0.7)),
	}
	quality := map[types.Modality]float64{
		types.ModalityVoice: 1.0,
		types.ModalityText:  0.25,
	}

	c := Calculator{Adaptive: true}
	weights, _ := c.Weights(quality, results, types.UserProfile{})

	// voice 0.3*1.0 = 0.3, text 0.4*0.25 = 0.1, renormalized 0.75/0.25.
	w := weights[types.DRI]
	if math.Abs(w.Voice-0.75) > 1e-9 {
		t.Errorf("voice weight = %v, want 0.75", w.Voice)
	}
	if math.Abs(w.Text-0.25) > 1e-9 {
		t.Errorf("text weight = %v, want 0.25", w.Text)
	}
	if w.Deep != 0 {
		t.Errorf("deep weight = %v, want 0 for absent modality", w.Deep)
	}
}

func TestCalculator_RenormalizesOverReportingModalities(t *testing.T) {
	// Deep only reports DRI and SDI; the other indicators must split the
	// weight between voice and text alone.
	results := map[types.Modality]types.ModalityResult{
		types.ModalityVoice: contributed(types.ModalityVoice, allIndicators(0.6)),
		types.ModalityText:  contributed(types.ModalityText, allIndicators(0.7)),
		types.ModalityDeep:  contributed(types.ModalityDeep, types.Scores{types.DRI: 0.4, types.SDI: 0.5}),
	}

	c := Calculator{Adaptive: false}
	weights, _ := c.Weights(nil, results, types.UserProfile{})

	if w := weights[types.DRI]; w.Deep == 0 {
		t.Error("DRI deep weight = 0, want nonzero")
	}
	if w := weights[types.CFL]; w.Deep != 0 {
		t.Errorf("CFL deep weight = %v, want 0", w.Deep)
	}
	// voice/text renormalized from 0.3/0.4 to 3/7 and 4/7.
	w := weights[types.CFL]
	if math.Abs(w.Voice-3.0/7.0) > 1e-9 || math.Abs(w.Text-4.0/7.0) > 1e-9 {
		t.Errorf("CFL weights = %+v, want 3/7 voice, 4/7 text", w)
	}
}

func TestCalculator_NoContributorsGivesNeutralConfidence(t *testing.T) {
	c := Calculator{Adaptive: true}
	weights, confidences := c.Weights(nil, nil, types.UserProfile{})

	for _, kind := range types.IndicatorKinds() {
		w := weights[kind]
		third := 1.0 / 3.0
		if math.Abs(w.Voice-third) > 1e-9 || math.Abs(w.Text-third) > 1e-9 || math.Abs(w.Deep-third) > 1e-9 {
			t.Errorf("%s: weights = %+v, want equal thirds", kind, w)
		}
		if confidences[kind] != 0.5 {
			t.Errorf("%s: confidence = %v, want 0.5", kind, confidences[kind])
		}
	}
}

func TestCalculator_ConfidenceCoverageFactor(t *testing.T) {
	voice := contributed(types.ModalityVoice, allIndicators(0.6))
	text := contributed(types.ModalityText, allIndicators(0.7))
	deep := contributed(types.ModalityDeep, allIndicators(0.5))
	fullQuality := map[types.Modality]float64{
		types.ModalityVoice: 1.0,
		types.ModalityText:  1.0,
		types.ModalityDeep:  1.0,
	}

	c := Calculator{Adaptive: false}

	_, one := c.Weights(fullQuality, map[types.Modality]types.ModalityResult{
		types.ModalityVoice: voice,
	}, types.UserProfile{})
	_, two := c.Weights(fullQuality, map[types.Modality]types.ModalityResult{
		types.ModalityVoice: voice,
		types.ModalityText:  text,
	}, types.UserProfile{})
	_, three := c.Weights(fullQuality, map[types.Modality]types.ModalityResult{
		types.ModalityVoice: voice,
		types.ModalityText:  text,
		types.ModalityDeep:  deep,
	}, types.UserProfile{})

	if math.Abs(one[types.DRI]-0.6) > 1e-9 {
		t.Errorf("one modality confidence = %v, want 0.6", one[types.DRI])
	}
	if math.Abs(two[types.DRI]-0.85) > 1e-9 {
		t.Errorf("two modality confidence = %v, want 0.85", two[types.DRI])
	}
	if math.Abs(three[types.DRI]-1.0) > 1e-9 {
		t.Errorf("three modality confidence = %v, want 1.0", three[types.DRI])
	}
}

func TestCalculator_ImbalancePenalty(t *testing.T) {
	results := map[types.Modality]types.ModalityResult{
		types.ModalityVoice: contributed(types.ModalityVoice, allIndicators(0.6)),
		types.ModalityText:  contributed(types.ModalityText, allIndicators(0.7)),
	}
	quality := map[types.Modality]float64{
		types.ModalityVoice: 1.0,
		types.ModalityText:  0.1,
	}

	c := Calculator{Adaptive: true}
	weights, confidences := c.Weights(quality, results, types.UserProfile{})

	// voice 0.3, text 0.04 -> ~0.88 vs ~0.12: spread > 0.5 costs 0.2.
	w := weights[types.DRI]
	if w.Voice-w.Text <= 0.5 {
		t.Fatalf("weights = %+v, expected spread > 0.5", w)
	}
	want := (1.0+0.1)/2*0.85 - 0.2
	if math.Abs(confidences[types.DRI]-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", confidences[types.DRI], want)
	}
}
