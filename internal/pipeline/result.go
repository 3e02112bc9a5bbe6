package pipeline

import (
	"time"

	"github.com/maeumlabs/maeum/internal/interpret"
	"github.com/maeumlabs/maeum/internal/risk"
	"github.com/maeumlabs/maeum/internal/speaker"
	"github.com/maeumlabs/maeum/internal/trend"
	"github.com/maeumlabs/maeum/pkg/types"
)

// Status is a run's terminal state. Error is reserved for unrecoverable
// orchestration failures; engine degradations surface through modality
// statuses and reason codes instead.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Phase names one pipeline stage for timing and logging.
type Phase string

const (
	PhaseValidation     Phase = "validation"
	PhaseTranscription  Phase = "transcription"
	PhaseSpeaker        Phase = "speaker_resolution"
	PhaseAcoustic       Phase = "acoustic_analysis"
	PhaseLanguage       Phase = "language_analysis"
	PhaseDeep           Phase = "deep_analysis"
	PhaseWeighting      Phase = "weighting"
	PhaseFusion         Phase = "fusion"
	PhaseRisk           Phase = "risk_assessment"
	PhaseTrend          Phase = "trend_analysis"
	PhaseInterpretation Phase = "interpretation"
	PhaseReport         Phase = "report_assembly"
)

// TranscriptInfo summarises transcription and role attribution for the report.
type TranscriptInfo struct {
	// Text is the full conversation transcript.
	Text string `json:"text"`

	// SeniorText and GuardianText are the role-attributed halves.
	SeniorText   string `json:"senior_text"`
	GuardianText string `json:"guardian_text"`

	// Method and Confidence describe how the roles were attributed.
	Method     speaker.Method `json:"attribution_method"`
	Confidence float64        `json:"attribution_confidence"`

	// SeniorTag is the diarization tag selected as the senior, 0 when
	// selection fell back to the whole conversation.
	SeniorTag int `json:"senior_tag,omitempty"`

	// Segments and SeniorSegments count utterances before and after
	// senior selection.
	Segments       int `json:"segments"`
	SeniorSegments int `json:"senior_segments"`

	// DiarizationConfidence is the duration-weighted mean STT confidence.
	DiarizationConfidence float64 `json:"diarization_confidence"`

	// AudioDuration is the recording length as reported by STT.
	AudioDuration time.Duration `json:"audio_duration"`

	// SeniorSpeech is the total speech time of the senior's segments.
	SeniorSpeech time.Duration `json:"senior_speech"`

	// Degraded is set when transcription failed or the senior could not be
	// isolated; Reason then carries the machine-readable cause.
	Degraded bool   `json:"degraded,omitempty"`
	Reason   string `json:"reason,omitempty"`

	// Warnings carries non-fatal observations from the STT layer.
	Warnings []string `json:"warnings,omitempty"`
}

// Metadata is the processing block of the final report.
type Metadata struct {
	PipelineVersion string    `json:"pipeline_version"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`

	// PhaseDurations records wall time per executed phase.
	PhaseDurations map[Phase]time.Duration `json:"phase_durations"`

	// ModelVersions labels the engines that contributed (STT provider,
	// language provider, deep model version).
	ModelVersions map[string]string `json:"model_versions,omitempty"`

	// DataCompleteness is the share of modalities that contributed, 0-1.
	DataCompleteness float64 `json:"data_completeness"`

	// Limitations lists caveats a reader should know before trusting the
	// numbers (degraded transcription, skipped modalities, ...).
	Limitations []string `json:"limitations,omitempty"`
}

// Result is the complete outcome of one analysis run.
type Result struct {
	RunID  string `json:"run_id"`
	Status Status `json:"status"`

	// Error carries detail when Status is StatusError.
	Error string `json:"error,omitempty"`

	Transcript TranscriptInfo `json:"transcript"`

	// Modalities holds each engine's tagged outcome.
	Modalities map[types.Modality]types.ModalityResult `json:"modalities"`

	// Quality and Weights expose the blending inputs for auditability.
	Quality map[types.Modality]float64 `json:"quality"`
	Weights types.Weights              `json:"weights"`

	// Indicators is the fused five-indicator assessment.
	Indicators types.IndicatorSet `json:"indicators"`

	// Consistency is the cross-modality agreement score.
	Consistency float64 `json:"consistency"`

	// Confidence is the integrated confidence over all indicators.
	Confidence float64 `json:"confidence"`

	Risk           risk.Assessment          `json:"risk"`
	Trend          trend.Analysis           `json:"trend"`
	Interpretation interpret.Interpretation `json:"interpretation"`

	Metadata Metadata `json:"metadata"`
}

// limitation appends a caveat to the report metadata, deduplicating.
func (r *Result) limitation(msg string) {
	for _, l := range r.Metadata.Limitations {
		if l == msg {
			return
		}
	}
	r.Metadata.Limitations = append(r.Metadata.Limitations, msg)
}
