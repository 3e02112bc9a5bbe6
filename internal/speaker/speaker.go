// Package speaker decides which voice in a recorded conversation belongs to
// the senior and which to the guardian.
//
// Diarization gives anonymous numbered voices; the text itself carries the
// role signal (honorifics, address terms, sentence endings). The Reconciler
// runs a fixed ladder of text heuristics from strongest to weakest and
// accepts the first whose confidence clears the acceptance threshold. The
// resulting role label is then mapped back onto the engine's numeric speaker
// tags to cut the senior-only audio.
package speaker

import (
	"strings"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Method identifies which heuristic produced an Assignment.
type Method string

const (
	MethodExplicitMarkers  Method = "explicit_markers"
	MethodKeywordScoring   Method = "keyword_scoring"
	MethodSentencePatterns Method = "sentence_patterns"
	MethodTurnTaking       Method = "turn_taking"
	MethodDefault          Method = "default"
)

// DefaultAcceptanceThreshold is the minimum confidence a strategy must
// produce for its assignment to be accepted.
const DefaultAcceptanceThreshold = 0.3

// Assignment is the outcome of role attribution over a conversation.
type Assignment struct {
	// SeniorText and GuardianText are the sentences attributed to each
	// role, joined with single spaces.
	SeniorText   string
	GuardianText string

	// Confidence is the strategy's confidence in the split, in [0, 1].
	Confidence float64

	// Method names the strategy that produced the assignment.
	Method Method
}

// Reconciler attributes conversation text to the senior and guardian roles.
// The zero value uses DefaultAcceptanceThreshold.
type Reconciler struct {
	// Threshold overrides the acceptance threshold when positive.
	Threshold float64
}

func (r *Reconciler) threshold() float64 {
	if r.Threshold > 0 {
		return r.Threshold
	}
	return DefaultAcceptanceThreshold
}

// Assign splits the conversation text between senior and guardian. Strategies
// run strongest first; the first whose confidence exceeds the threshold wins.
// When nothing clears the threshold the entire text is attributed to the
// senior with confidence 0.1 and method "default", so downstream analysis
// still has input to work with.
//
// Assign is deterministic: identical text and profile always produce the
// same assignment.
func (r *Reconciler) Assign(text string, profile types.UserProfile) Assignment {
	text = strings.TrimSpace(text)
	if text == "" {
		return Assignment{Confidence: 0.1, Method: MethodDefault}
	}

	strategies := []func(string) Assignment{
		explicitMarkers,
		keywordScoring,
		sentencePatterns,
		turnTaking,
	}
	for _, strategy := range strategies {
		if a := strategy(text); a.Confidence > r.threshold() {
			return a
		}
	}

	return Assignment{
		SeniorText: text,
		Confidence: 0.1,
		Method:     MethodDefault,
	}
}

// splitSentences cuts conversation text into sentences on Korean sentence
// boundaries. Terminators are kept attached to their sentence so ending-based
// heuristics still see them.
func splitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	for _, r := range text {
		current.WriteRune(r)
		switch r {
		case '.', '?', '!', '\n':
			flush()
		}
	}
	flush()
	return sentences
}

func joinSentences(sentences []string) string {
	return strings.Join(sentences, " ")
}
