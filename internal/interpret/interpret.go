// Package interpret turns a fused indicator set into a caregiver-facing
// narrative. The narrative normally comes from the language analysis chain;
// when no provider answers, a deterministic rule-based interpretation takes
// over at a deliberately lower confidence so consumers can tell them apart.
package interpret

import (
	"context"
	"fmt"
	"strings"

	"github.com/maeumlabs/maeum/internal/risk"
	"github.com/maeumlabs/maeum/internal/semantic"
	"github.com/maeumlabs/maeum/pkg/provider/language"
	"github.com/maeumlabs/maeum/pkg/types"
)

// Status summarises the senior's state for the report reader.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusCaution  Status = "caution"
	StatusRisk     Status = "risk"
	StatusHighRisk Status = "high_risk"
)

// ReviewWindow says when the next assessment or action should happen.
type ReviewWindow string

const (
	ReviewImmediate    ReviewWindow = "immediate"
	ReviewWithinWeek   ReviewWindow = "within_1_week"
	ReviewWithin2Weeks ReviewWindow = "within_2_weeks"
	ReviewWithinMonth  ReviewWindow = "within_1_month"
)

// RuleBasedConfidence marks rule-derived interpretations. Always below any
// LLM-derived confidence.
const RuleBasedConfidence = 0.4

// Interpretation is the narrative block of the final report.
type Interpretation struct {
	Status    Status       `json:"status"`
	Narrative string       `json:"narrative"`
	Review    ReviewWindow `json:"review_window"`

	// Findings names the concerns raised by low indicators.
	Findings []string `json:"findings,omitempty"`

	// Lifestyle and Medical are the two recommendation tiers.
	Lifestyle []string `json:"lifestyle_recommendations,omitempty"`
	Medical   []string `json:"medical_recommendations,omitempty"`

	// Source is the provider that wrote the narrative, or "rule_based".
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// Interpreter produces interpretations. Chain may be nil, in which case
// every interpretation is rule-based.
type Interpreter struct {
	Chain *semantic.Chain
}

// Interpret builds the narrative for one assessment. It never fails: LLM
// trouble degrades to the rule-based path.
func (in *Interpreter) Interpret(
	ctx context.Context,
	values types.Scores,
	assessment risk.Assessment,
	profile types.UserProfile,
) Interpretation {
	base := RuleBased(values, assessment)
	if in.Chain == nil {
		return base
	}

	outcome := in.Chain.Analyze(ctx, summaryText(values, assessment), language.Context{
		Age:              profile.Age,
		Gender:           profile.Gender,
		HasPriorAnalysis: profile.HasPriorAnalysis,
	})
	if outcome.Provider == semantic.RuleBasedProvider ||
		strings.TrimSpace(outcome.Analysis.Interpretation) == "" {
		return base
	}

	base.Narrative = outcome.Analysis.Interpretation
	base.Source = outcome.Provider
	base.Confidence = outcome.Confidence
	return base
}

// RuleBased classifies the mean of the five indicators into a status and
// review window, with confidence fixed at RuleBasedConfidence.
func RuleBased(values types.Scores, assessment risk.Assessment) Interpretation {
	avg := values.Mean()

	var (
		status Status
		review ReviewWindow
	)
	switch {
	case avg >= 0.7:
		status, review = StatusNormal, ReviewWithinMonth
	case avg >= 0.5:
		status, review = StatusCaution, ReviewWithin2Weeks
	case avg >= 0.3:
		status, review = StatusRisk, ReviewWithinWeek
	default:
		status, review = StatusHighRisk, ReviewImmediate
	}

	lifestyle, medical := risk.Recommendations(assessment, values)
	return Interpretation{
		Status:     status,
		Narrative:  ruleNarrative(status, avg, assessment),
		Review:     review,
		Findings:   assessment.Findings,
		Lifestyle:  lifestyle,
		Medical:    medical,
		Source:     semantic.RuleBasedProvider,
		Confidence: RuleBasedConfidence,
	}
}

func ruleNarrative(status Status, avg float64, assessment risk.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall mental-health score %.2f (%s).", avg, status)
	if len(assessment.HighRisk) > 0 {
		fmt.Fprintf(&b, " Indicators needing attention: %s.",
			strings.Join(assessment.HighRisk, ", "))
	}
	return b.String()
}

// summaryText renders the indicator values and risk picture as plain text
// for the language chain to interpret.
func summaryText(values types.Scores, assessment risk.Assessment) string {
	var b strings.Builder
	b.WriteString("Summarize the following mental-health assessment for a caregiver.\n")
	for _, kind := range types.IndicatorKinds() {
		v, ok := values[kind]
		if !ok {
			v = 0.5
		}
		fmt.Fprintf(&b, "%s: %.2f (%s)\n", kind, v, risk.Level(kind, v))
	}
	fmt.Fprintf(&b, "overall risk: %s, urgency: %s\n", assessment.Overall, assessment.Urgency)
	return b.String()
}
