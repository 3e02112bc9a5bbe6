// Package types defines the shared types used across all maeum packages.
//
// These types form the lingua franca between providers, analysis engines,
// the weighting layer, and the orchestrator. They are intentionally minimal —
// each package defines its own domain types, but cross-cutting data structures
// live here to avoid circular imports.
package types

import "time"

// TranscriptSegment is a single diarized utterance produced by the STT
// provider. Segments are immutable once produced; the speaker reconciler
// consumes them but never mutates them.
type TranscriptSegment struct {
	// SpeakerTag is the provider-assigned numeric speaker identifier.
	// Google-style diarization numbers speakers starting at 1.
	SpeakerTag int

	// RawSpeaker preserves the provider's original speaker label when it was
	// not numeric (e.g. "speaker_1"). Empty when the provider only emits tags.
	RawSpeaker string

	// Text is the transcribed utterance.
	Text string

	// Start and End bound the utterance relative to the start of the recording.
	Start time.Duration
	End   time.Duration

	// Confidence is the provider's transcription confidence (0.0–1.0).
	Confidence float64

	// Words contains per-word detail when the provider supports it. May be nil.
	Words []WordDetail
}

// Duration returns the length of the segment.
func (s TranscriptSegment) Duration() time.Duration {
	return s.End - s.Start
}

// WordDetail holds per-word metadata from STT providers that support it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// SpeakerStats summarises one diarized speaker's share of a recording.
type SpeakerStats struct {
	WordCount    int
	SegmentCount int

	// SpeechDuration is the total time this speaker held the floor.
	SpeechDuration time.Duration

	// AvgConfidence is the mean transcription confidence over this speaker's words.
	AvgConfidence float64
}

// Role is a conversational role this system distinguishes. The senior is the
// subject of the mental-health assessment; the guardian is the caregiver on
// the other side of the call.
type Role string

const (
	RoleSenior   Role = "senior"
	RoleGuardian Role = "guardian"
	RoleUnknown  Role = "unknown"
)

// UserProfile carries known facts about the senior being assessed.
// All fields are optional; an empty profile is valid input everywhere.
type UserProfile struct {
	// UserID keys the indicator history store. Empty disables persistence
	// and history-backed trend lookup.
	UserID string

	// Age in years. Zero means unknown.
	Age int

	// Gender as free text ("female", "male", ...). Empty means unknown.
	Gender string

	// HasPriorAnalysis indicates earlier assessments exist for this user.
	HasPriorAnalysis bool
}

// Modality identifies one of the three independent analysis engines.
type Modality string

const (
	ModalityVoice Modality = "voice"
	ModalityText  Modality = "text"
	ModalityDeep  Modality = "deep"
)

// Modalities lists all modalities in canonical order.
func Modalities() []Modality {
	return []Modality{ModalityVoice, ModalityText, ModalityDeep}
}

// IndicatorKind names one of the five fused mental-health indicators.
type IndicatorKind string

const (
	// DRI is the depression-risk index.
	DRI IndicatorKind = "DRI"
	// SDI is the sleep-disorder index.
	SDI IndicatorKind = "SDI"
	// CFL is the cognitive-function level.
	CFL IndicatorKind = "CFL"
	// ES is the emotional stability score.
	ES IndicatorKind = "ES"
	// OV is the overall vitality score.
	OV IndicatorKind = "OV"
)

// IndicatorKinds lists the five indicators in canonical order.
func IndicatorKinds() []IndicatorKind {
	return []IndicatorKind{DRI, SDI, CFL, ES, OV}
}

// Scores maps indicator kinds to raw values in [0,1]. Higher is always
// better: a high DRI means low depression risk.
type Scores map[IndicatorKind]float64

// Mean returns the average over the five canonical indicators, defaulting
// missing entries to 0.5 (neutral).
func (s Scores) Mean() float64 {
	sum := 0.0
	for _, k := range IndicatorKinds() {
		v, ok := s[k]
		if !ok {
			v = 0.5
		}
		sum += v
	}
	return sum / float64(len(IndicatorKinds()))
}

// Clone returns a copy of s. A nil receiver yields nil.
func (s Scores) Clone() Scores {
	if s == nil {
		return nil
	}
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Trend describes how an indicator has moved across recent assessments.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendUnknown   Trend = "unknown"
)

// Indicator is one fused mental-health indicator as reported to callers.
type Indicator struct {
	// Value is the fused score in [0,1]; higher is better.
	Value float64 `json:"value"`

	// Level is the categorical band for Value. The band vocabulary depends on
	// the indicator family: DRI/SDI report risk bands (low/moderate/high/critical),
	// CFL/ES/OV report severity bands (normal/mild/moderate/severe).
	Level string `json:"level"`

	// Confidence is how much the pipeline trusts Value (0.0–1.0).
	Confidence float64 `json:"confidence"`

	// Trend is the recent direction of this indicator, or TrendUnknown when
	// no history was available.
	Trend Trend `json:"trend"`
}

// IndicatorSet is the complete fused assessment, one entry per IndicatorKind.
type IndicatorSet map[IndicatorKind]Indicator

// Values extracts the raw score of each indicator.
func (is IndicatorSet) Values() Scores {
	out := make(Scores, len(is))
	for k, v := range is {
		out[k] = v.Value
	}
	return out
}

// ModalityStatus tags the outcome of one analysis engine.
type ModalityStatus string

const (
	// StatusSuccess means the engine produced usable indicators.
	StatusSuccess ModalityStatus = "success"

	// StatusPartial means the engine timed out or degraded but returned
	// whatever it had. Treated as success for fusion, flagged in metadata.
	StatusPartial ModalityStatus = "partial"

	// StatusSkipped means the engine was not configured or not applicable.
	StatusSkipped ModalityStatus = "skipped"

	// StatusError means the engine failed. Failures never propagate past the
	// engine boundary; they are captured in this variant instead.
	StatusError ModalityStatus = "error"
)

// ModalityResult is the tagged outcome of one analysis engine. Exactly one
// of the payload fields is meaningful depending on Status.
type ModalityResult struct {
	Modality Modality
	Status   ModalityStatus

	// Reason explains Skipped/Error/Partial states (machine-readable code or
	// wrapped error text). Empty on success.
	Reason string

	// Indicators holds the engine's per-indicator estimates on success.
	Indicators Scores

	// Features holds the engine's raw feature map (pitch/energy/… for voice,
	// class probabilities for deep). Nil for engines without a flat feature surface.
	Features map[string]float64
}

// Contributed reports whether this result carries indicators usable by fusion.
func (r ModalityResult) Contributed() bool {
	return (r.Status == StatusSuccess || r.Status == StatusPartial) && len(r.Indicators) > 0
}

// SkippedResult builds a Skipped ModalityResult with the given reason code.
func SkippedResult(m Modality, reason string) ModalityResult {
	return ModalityResult{Modality: m, Status: StatusSkipped, Reason: reason}
}

// ErrorResult builds an Error ModalityResult from err.
func ErrorResult(m Modality, err error) ModalityResult {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return ModalityResult{Modality: m, Status: StatusError, Reason: reason}
}

// ModalityWeights is the blending ratio applied to one indicator across the
// three modalities. Weights over present modalities sum to 1.0 (±1e-6);
// absent modalities carry weight 0.
type ModalityWeights struct {
	Voice float64 `json:"voice"`
	Text  float64 `json:"text"`
	Deep  float64 `json:"deep"`
}

// Get returns the weight for modality m.
func (w ModalityWeights) Get(m Modality) float64 {
	switch m {
	case ModalityVoice:
		return w.Voice
	case ModalityText:
		return w.Text
	case ModalityDeep:
		return w.Deep
	}
	return 0
}

// Sum returns Voice + Text + Deep.
func (w ModalityWeights) Sum() float64 {
	return w.Voice + w.Text + w.Deep
}

// Weights maps each indicator to its per-modality blending ratio.
type Weights map[IndicatorKind]ModalityWeights

// IndicatorSnapshot is one historical assessment as stored by the history
// collaborator: the five raw values plus when they were recorded.
type IndicatorSnapshot struct {
	// Timestamp is when the assessment completed.
	Timestamp time.Time

	// Values holds the five indicator scores of that assessment.
	Values Scores
}
