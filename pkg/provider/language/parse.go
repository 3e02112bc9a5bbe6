package language

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/maeumlabs/maeum/pkg/types"
)

// ErrMalformed reports that a provider responded but its output could not be
// turned into a valid Analysis. Chains treat it like any other provider
// failure and fall through to the next provider.
var ErrMalformed = errors.New("language: malformed analysis response")

// ParseAnalysis decodes a provider's raw response into an Analysis.
//
// Models wrap JSON in markdown fences, truncate output, or emit trailing
// commas often enough that strict decoding alone loses usable responses.
// ParseAnalysis strips fences, then decodes, and on a syntax error repairs
// the JSON and retries once. Indicator, sentiment, emotion and coherence
// values are clamped into [0, 1].
func ParseAnalysis(raw string) (*Analysis, error) {
	cleaned := stripFences(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformed)
	}

	var a Analysis
	if err := unmarshalRepairing([]byte(cleaned), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(a.Indicators) == 0 {
		return nil, fmt.Errorf("%w: missing indicators object", ErrMalformed)
	}
	for _, kind := range types.IndicatorKinds() {
		if _, ok := a.Indicators[kind]; !ok {
			return nil, fmt.Errorf("%w: indicator %s missing", ErrMalformed, kind)
		}
	}

	clampAnalysis(&a)
	return &a, nil
}

// unmarshalRepairing unmarshals JSON, attempting to repair malformed JSON.
// If the initial unmarshal fails with a syntax error, it repairs the payload
// with jsonrepair and retries once.
func unmarshalRepairing(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return repairErr
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampAnalysis(a *Analysis) {
	for kind, v := range a.Indicators {
		a.Indicators[kind] = clamp01(v)
	}
	a.Sentiment.Positive = clamp01(a.Sentiment.Positive)
	a.Sentiment.Negative = clamp01(a.Sentiment.Negative)
	a.Sentiment.Neutral = clamp01(a.Sentiment.Neutral)
	a.Emotions.Joy = clamp01(a.Emotions.Joy)
	a.Emotions.Sadness = clamp01(a.Emotions.Sadness)
	a.Emotions.Anger = clamp01(a.Emotions.Anger)
	a.Emotions.Fear = clamp01(a.Emotions.Fear)
	a.Emotions.Surprise = clamp01(a.Emotions.Surprise)
	a.Coherence = clamp01(a.Coherence)
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
