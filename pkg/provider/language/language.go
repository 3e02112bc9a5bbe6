// Package language defines the semantic analysis provider abstraction: an
// LLM-backed engine that reads the senior's transcribed speech and scores the
// five mental-health indicators alongside sentiment, emotion and coherence.
//
// All providers share one response contract (see ParseAnalysis) so that the
// analysis chain can fall through providers without reinterpreting output.
package language

import (
	"context"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Sentiment is the positive/negative/neutral split of the analyzed text.
// The three components are each in [0, 1] and need not sum to 1.
type Sentiment struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Emotions scores the five basic emotions detected in the text, each in [0, 1].
type Emotions struct {
	Joy      float64 `json:"joy"`
	Sadness  float64 `json:"sadness"`
	Anger    float64 `json:"anger"`
	Fear     float64 `json:"fear"`
	Surprise float64 `json:"surprise"`
}

// Analysis is a provider's structured reading of the senior's speech.
type Analysis struct {
	// Indicators holds the five indicator scores, each in [0, 1] with
	// higher values meaning better condition.
	Indicators types.Scores `json:"indicators"`

	Sentiment Sentiment `json:"sentiment"`
	Emotions  Emotions  `json:"emotions"`

	// KeyTopics are the conversation subjects the model identified.
	KeyTopics []string `json:"key_topics"`

	// Concerns are specific worrying statements or patterns.
	Concerns []string `json:"concerns"`

	// Coherence scores how organized and connected the speech is, in [0, 1].
	Coherence float64 `json:"coherence_score"`

	// Interpretation is the model's free-text summary in Korean.
	Interpretation string `json:"interpretation"`
}

// Context carries optional facts about the senior that sharpen the analysis.
type Context struct {
	// Age in years. Zero means unknown.
	Age int

	// Gender as free text ("남성", "여성", ...). Empty means unknown.
	Gender string

	// HasPriorAnalysis indicates earlier analyses exist for this senior.
	HasPriorAnalysis bool
}

// Provider analyzes Korean senior speech and returns a structured Analysis.
type Provider interface {
	// Name returns a short identifier for logs, reports and config lookup
	// (e.g. "gemini", "openai").
	Name() string

	// Analyze scores the given text. Implementations should return
	// ErrMalformed (possibly wrapped) when the backend responded but its
	// output could not be parsed into the response contract, so the chain
	// can distinguish bad output from transport failure.
	Analyze(ctx context.Context, text string, meta Context) (*Analysis, error)
}
