// Package risk maps a fused indicator set onto an actionable risk picture:
// an overall grade, the indicators driving it, and the urgency and
// intervention tier a caregiver should act on. Pure and deterministic.
package risk

import (
	"fmt"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Grade is the overall risk grade of an assessment.
type Grade string

const (
	GradeLow      Grade = "low"
	GradeModerate Grade = "moderate"
	GradeHigh     Grade = "high"
	GradeCritical Grade = "critical"
)

// Urgency is how soon action is warranted.
type Urgency string

const (
	UrgencyImmediate  Urgency = "immediate"
	UrgencyWithin24h  Urgency = "within_24h"
	UrgencyWithinWeek Urgency = "within_week"
	UrgencyRoutine    Urgency = "routine"
)

// Intervention is the recommended care tier.
type Intervention string

const (
	InterventionUrgentCare   Intervention = "urgent_care"
	InterventionConsultation Intervention = "consultation"
	InterventionMonitoring   Intervention = "monitoring"
	InterventionNone         Intervention = "none"
)

// Assessment is the deterministic risk picture derived from one IndicatorSet.
type Assessment struct {
	Overall      Grade        `json:"overall_risk"`
	HighRisk     []string     `json:"high_risk_indicators"`
	Urgency      Urgency      `json:"urgency"`
	Intervention Intervention `json:"intervention"`
	Priority     string       `json:"priority"`
	Findings     []string     `json:"findings"`
}

// Score thresholds shared by both band families. Indicators are
// higher-is-better, so low values mean trouble.
const (
	bandGood     = 0.7
	bandCaution  = 0.4
	bandSerious  = 0.2
	findingFloor = 0.4
)

// Level returns the categorical band for one indicator value. DRI and SDI
// are risk indices and report risk bands; CFL, ES, and OV are capability
// scores and report severity bands.
func Level(kind types.IndicatorKind, value float64) string {
	switch kind {
	case types.DRI, types.SDI:
		switch {
		case value >= bandGood:
			return "low"
		case value >= bandCaution:
			return "moderate"
		case value >= bandSerious:
			return "high"
		default:
			return "critical"
		}
	default:
		switch {
		case value >= bandGood:
			return "normal"
		case value >= bandCaution:
			return "mild"
		case value >= bandSerious:
			return "moderate"
		default:
			return "severe"
		}
	}
}

// grade maps a single indicator value onto the shared risk scale.
func grade(value float64) Grade {
	switch {
	case value >= bandGood:
		return GradeLow
	case value >= bandCaution:
		return GradeModerate
	case value >= bandSerious:
		return GradeHigh
	default:
		return GradeCritical
	}
}

var gradeRank = map[Grade]int{
	GradeLow:      0,
	GradeModerate: 1,
	GradeHigh:     2,
	GradeCritical: 3,
}

// findingLabels name the concern each low indicator raises.
var findingLabels = map[types.IndicatorKind]string{
	types.DRI: "elevated depression risk",
	types.SDI: "signs of sleep disorder",
	types.CFL: "reduced cognitive function",
	types.ES:  "emotional instability",
	types.OV:  "low overall vitality",
}

// Assessor derives the risk picture. The zero value is ready to use.
type Assessor struct{}

// Assess grades the indicator set. The overall grade is the worst
// per-indicator grade; indicators below the caution band are listed as
// high-risk with a named finding each.
func (Assessor) Assess(values types.Scores) Assessment {
	overall := GradeLow
	var highRisk, findings []string

	for _, kind := range types.IndicatorKinds() {
		v, ok := values[kind]
		if !ok {
			v = 0.5
		}
		if g := grade(v); gradeRank[g] > gradeRank[overall] {
			overall = g
		}
		if v < findingFloor {
			highRisk = append(highRisk, string(kind))
			findings = append(findings,
				fmt.Sprintf("%s (%s: %.2f)", findingLabels[kind], kind, v))
		}
	}

	urgency, intervention, priority := actions(overall)
	return Assessment{
		Overall:      overall,
		HighRisk:     highRisk,
		Urgency:      urgency,
		Intervention: intervention,
		Priority:     priority,
		Findings:     findings,
	}
}

func actions(g Grade) (Urgency, Intervention, string) {
	switch g {
	case GradeCritical:
		return UrgencyImmediate, InterventionUrgentCare, "high"
	case GradeHigh:
		return UrgencyWithin24h, InterventionConsultation, "high"
	case GradeModerate:
		return UrgencyWithinWeek, InterventionMonitoring, "medium"
	default:
		return UrgencyRoutine, InterventionNone, "low"
	}
}

// Recommendations derives lifestyle and medical advice tiers from the
// assessment and the raw values that produced it.
func Recommendations(a Assessment, values types.Scores) (lifestyle, medical []string) {
	if v, ok := values[types.SDI]; ok && v < bandCaution {
		lifestyle = append(lifestyle,
			"keep a regular sleep schedule and limit evening screen time")
	}
	if v, ok := values[types.OV]; ok && v < bandCaution {
		lifestyle = append(lifestyle,
			"encourage light daily activity such as short walks")
	}
	if v, ok := values[types.ES]; ok && v < bandCaution {
		lifestyle = append(lifestyle,
			"increase regular social contact with family or community")
	}

	switch a.Overall {
	case GradeCritical:
		medical = append(medical,
			"seek professional mental-health evaluation immediately")
	case GradeHigh:
		medical = append(medical,
			"schedule a consultation with a mental-health professional within 24 hours")
	case GradeModerate:
		medical = append(medical,
			"monitor closely and consult a professional if indicators decline further")
	}
	for _, name := range a.HighRisk {
		if name == string(types.CFL) {
			medical = append(medical,
				"consider a cognitive-function screening at the next checkup")
		}
	}
	return lifestyle, medical
}
