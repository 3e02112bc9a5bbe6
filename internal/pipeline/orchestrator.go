// Package pipeline sequences one analysis run through its phases:
// transcription, speaker resolution, the three analysis modalities,
// weighting, fusion, risk assessment, trend lookup, interpretation, and
// report assembly. Phases run strictly sequentially within a run; failures
// degrade the run instead of aborting it, and every phase's output survives
// later-phase failures.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"

	"github.com/maeumlabs/maeum/internal/config"
	"github.com/maeumlabs/maeum/internal/deepmodel"
	"github.com/maeumlabs/maeum/internal/fusion"
	"github.com/maeumlabs/maeum/internal/interpret"
	"github.com/maeumlabs/maeum/internal/observe"
	"github.com/maeumlabs/maeum/internal/quality"
	"github.com/maeumlabs/maeum/internal/risk"
	"github.com/maeumlabs/maeum/internal/semantic"
	"github.com/maeumlabs/maeum/internal/speaker"
	"github.com/maeumlabs/maeum/internal/trend"
	"github.com/maeumlabs/maeum/internal/weighting"
	"github.com/maeumlabs/maeum/pkg/artifact"
	"github.com/maeumlabs/maeum/pkg/audio"
	"github.com/maeumlabs/maeum/pkg/history"
	"github.com/maeumlabs/maeum/pkg/provider/acoustic"
	"github.com/maeumlabs/maeum/pkg/provider/deep"
	"github.com/maeumlabs/maeum/pkg/provider/language"
	"github.com/maeumlabs/maeum/pkg/provider/stt"
	"github.com/maeumlabs/maeum/pkg/types"
)

// Version labels reports produced by this pipeline revision.
const Version = "1.0.0"

// Reason codes attached to degraded transcription results.
const (
	reasonTranscriptionFailed = "transcription_failed"
	reasonNoSpeech            = "no_speech"
)

// Deps wires an Orchestrator. STT, Acoustic, and Chain are required; the
// rest are optional and disable their feature when nil.
type Deps struct {
	STT      stt.Provider
	Acoustic acoustic.Provider
	Chain    *semantic.Chain

	// Deep is the classifier gateway; nil skips the deep modality.
	Deep *deepmodel.Gateway

	// History feeds trend analysis and persists completed snapshots;
	// nil limits trends to caller-supplied history.
	History history.Store

	// Reports receives the exported report JSON per completed run;
	// nil disables export.
	Reports      artifact.Store
	ReportPrefix string

	// Metrics overrides the default metrics sink.
	Metrics *observe.Metrics
}

// Orchestrator owns the engines and runs analyses. Safe for concurrent use;
// concurrent runs are bounded by the configured limit.
type Orchestrator struct {
	cfg  config.PipelineConfig
	deps Deps

	reconciler speaker.Reconciler
	tags       speaker.TagAdapter
	assessor   quality.Assessor
	calculator weighting.Calculator
	fuser      fusion.Engine
	risk       risk.Assessor
	interp     interpret.Interpreter
	metrics    *observe.Metrics

	runs *semaphore.Weighted
}

// New builds an Orchestrator from configuration and dependencies.
func New(cfg config.Config, deps Deps) (*Orchestrator, error) {
	if deps.STT == nil {
		return nil, fmt.Errorf("pipeline: stt provider is required")
	}
	if deps.Acoustic == nil {
		return nil, fmt.Errorf("pipeline: acoustic provider is required")
	}
	if deps.Chain == nil {
		return nil, fmt.Errorf("pipeline: language chain is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = observe.DefaultMetrics()
	}

	maxRuns := cfg.Pipeline.MaxConcurrentRuns
	if maxRuns <= 0 {
		maxRuns = 4
	}
	reportPrefix := deps.ReportPrefix
	if reportPrefix == "" {
		reportPrefix = cfg.Artifacts.ReportPrefix
	}
	if reportPrefix == "" {
		reportPrefix = "reports"
	}
	deps.ReportPrefix = reportPrefix

	return &Orchestrator{
		cfg:  cfg.Pipeline,
		deps: deps,
		reconciler: speaker.Reconciler{
			Threshold: cfg.Speaker.AcceptanceThreshold,
		},
		tags: speaker.TagAdapter{Offset: cfg.Speaker.TagOffset},
		calculator: weighting.Calculator{
			Adaptive: cfg.Pipeline.WeightMode != config.WeightModeFixed,
			Defaults: cfg.Pipeline.DefaultWeights.ModalityWeights(),
		},
		interp:  interpret.Interpreter{Chain: deps.Chain},
		metrics: deps.Metrics,
		runs:    semaphore.NewWeighted(int64(maxRuns)),
	}, nil
}

// Analyze runs the full pipeline over one audio file. It always returns a
// structured result; a non-nil error accompanies only StatusError results
// (unrecoverable orchestration failures), never engine degradations.
//
// prior carries caller-supplied history snapshots folded into trend analysis
// alongside anything the history store returns.
func (o *Orchestrator) Analyze(ctx context.Context, audioPath string, profile types.UserProfile, prior []types.IndicatorSnapshot) (*Result, error) {
	if err := o.runs.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("pipeline: acquire run slot: %w", err)
	}
	defer o.runs.Release(1)

	ctx, span := observe.StartSpan(ctx, "pipeline.analyze")
	defer span.End()

	o.metrics.ActiveRuns.Add(ctx, 1)
	defer o.metrics.ActiveRuns.Add(ctx, -1)

	res := &Result{
		RunID:      uuid.NewString(),
		Status:     StatusProcessing,
		Modalities: make(map[types.Modality]types.ModalityResult, 3),
		Metadata: Metadata{
			PipelineVersion: Version,
			StartedAt:       time.Now().UTC(),
			PhaseDurations:  make(map[Phase]time.Duration),
			ModelVersions:   make(map[string]string),
		},
	}
	log := observe.Logger(ctx).With("run_id", res.RunID)

	var cleanups []func()
	defer func() {
		for _, fn := range cleanups {
			fn()
		}
	}()

	fail := func(phase Phase, err error) (*Result, error) {
		res.Status = StatusError
		res.Error = fmt.Sprintf("%s: %v", phase, err)
		res.Metadata.CompletedAt = time.Now().UTC()
		o.metrics.Runs.Add(ctx, 1, withAttr("status", string(StatusError)))
		log.Error("run failed", "phase", string(phase), "error", err)
		return res, err
	}

	// Validation.
	if _, err := o.phaseValidate(ctx, res, audioPath); err != nil {
		return fail(PhaseValidation, err)
	}

	// Transcription and speaker resolution. Failure here degrades the run
	// to full-conversation analysis rather than aborting it.
	seniorAudio := audioPath
	sttResult := o.phaseTranscribe(ctx, res, audioPath)
	if sttResult != nil {
		if path, cleanup := o.phaseResolveSpeaker(ctx, res, audioPath, sttResult, profile); path != "" {
			seniorAudio = path
			if cleanup != nil {
				cleanups = append(cleanups, cleanup)
			}
		}
	}

	// The three analysis modalities.
	o.phaseAcoustic(ctx, res, seniorAudio)
	o.phaseLanguage(ctx, res, profile)
	o.phaseDeep(ctx, res, seniorAudio)
	for _, m := range types.Modalities() {
		o.metrics.RecordModality(ctx, string(m), string(res.Modalities[m].Status))
	}

	// Weighting and fusion.
	fused := o.phaseFuse(ctx, res, profile)

	// Risk, trend, interpretation.
	o.phaseRisk(ctx, res, fused)
	trendAnalysis := o.phaseTrend(ctx, res, profile, prior)
	o.applyTrend(res, fused, trendAnalysis)
	o.phaseInterpret(ctx, res, fused, profile)

	// Report assembly and persistence.
	o.phaseReport(ctx, res, fused, profile)

	res.Status = StatusCompleted
	res.Metadata.CompletedAt = time.Now().UTC()
	o.metrics.Runs.Add(ctx, 1, withAttr("status", string(StatusCompleted)))
	o.metrics.RunDuration.Record(ctx, res.Metadata.CompletedAt.Sub(res.Metadata.StartedAt).Seconds())
	log.Info("run completed",
		"risk", string(res.Risk.Overall),
		"consistency", res.Consistency,
		"completeness", res.Metadata.DataCompleteness)
	return res, nil
}

// AnalyzeBatch analyzes the files in order, folding each completed run's
// indicators into the next run's trend input. Per-run failures are recorded
// in that run's result and do not stop the batch.
func (o *Orchestrator) AnalyzeBatch(ctx context.Context, audioPaths []string, profile types.UserProfile) ([]*Result, error) {
	if len(audioPaths) == 0 {
		return nil, fmt.Errorf("pipeline: no audio files given")
	}

	results := make([]*Result, 0, len(audioPaths))
	var prior []types.IndicatorSnapshot
	for _, p := range audioPaths {
		res, err := o.Analyze(ctx, p, profile, prior)
		if err != nil {
			if res == nil {
				return results, err
			}
			results = append(results, res)
			continue
		}
		results = append(results, res)
		prior = append(prior, types.IndicatorSnapshot{
			Timestamp: res.Metadata.CompletedAt,
			Values:    res.Indicators.Values(),
		})
	}
	return results, nil
}

// timePhase runs fn under a span, recording its wall time in the result and
// metrics.
func (o *Orchestrator) timePhase(ctx context.Context, res *Result, phase Phase, fn func()) {
	_, span := observe.StartSpan(ctx, "pipeline."+string(phase))
	start := time.Now()
	fn()
	elapsed := time.Since(start)
	span.End()
	res.Metadata.PhaseDurations[phase] = elapsed
	o.metrics.RecordPhase(ctx, string(phase), elapsed.Seconds())
}

func (o *Orchestrator) phaseValidate(ctx context.Context, res *Result, audioPath string) (int64, error) {
	var (
		size int64
		err  error
	)
	o.timePhase(ctx, res, PhaseValidation, func() {
		size, err = audio.ValidateFile(audioPath)
	})
	return size, err
}

// phaseTranscribe runs STT with diarization. On failure it marks the
// transcript degraded and returns nil; the run continues on the full audio.
func (o *Orchestrator) phaseTranscribe(ctx context.Context, res *Result, audioPath string) *stt.Result {
	var result *stt.Result
	o.timePhase(ctx, res, PhaseTranscription, func() {
		f, err := os.Open(audioPath)
		if err != nil {
			res.Transcript.Degraded = true
			res.Transcript.Reason = reasonTranscriptionFailed
			observe.Logger(ctx).Error("open audio for transcription", "error", err)
			return
		}
		defer f.Close()

		wait := o.cfg.STTWait
		if wait <= 0 {
			wait = 30 * time.Minute
		}
		sttCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()

		result, err = o.deps.STT.TranscribeWithDiarization(sttCtx, f, stt.Options{
			LanguageCode: o.cfg.LanguageCode,
			BoostPhrases: o.cfg.BoostPhrases,
			MinSpeakers:  1,
			MaxSpeakers:  2,
		})
		o.metrics.RecordProviderRequest(ctx, o.deps.STT.Name(), "stt", statusLabel(err))
		if err != nil {
			res.Transcript.Degraded = true
			if errors.Is(err, stt.ErrNoSpeech) {
				res.Transcript.Reason = reasonNoSpeech
			} else {
				res.Transcript.Reason = reasonTranscriptionFailed
			}
			o.metrics.RecordProviderError(ctx, o.deps.STT.Name(), "stt")
			observe.Logger(ctx).Warn("transcription failed, analyzing full audio",
				"provider", o.deps.STT.Name(), "reason", res.Transcript.Reason, "error", err)
			result = nil
			return
		}

		res.Metadata.ModelVersions["stt"] = o.deps.STT.Name()
		res.Transcript.Text = result.Transcript
		res.Transcript.Segments = len(result.Segments)
		res.Transcript.AudioDuration = result.AudioDuration
		res.Transcript.Warnings = result.Warnings
	})
	if res.Transcript.Degraded {
		res.limitation("transcription unavailable; analysis covers the whole conversation")
	}
	return result
}

// phaseResolveSpeaker attributes roles, selects the senior's segments, and
// extracts senior-only audio. Returns the extracted path (empty to keep the
// original audio) plus its cleanup.
func (o *Orchestrator) phaseResolveSpeaker(ctx context.Context, res *Result, audioPath string, sttResult *stt.Result, profile types.UserProfile) (string, func()) {
	var (
		outPath string
		cleanup func()
	)
	o.timePhase(ctx, res, PhaseSpeaker, func() {
		segments := stt.Normalize(sttResult.Segments)
		res.Transcript.DiarizationConfidence = stt.OverallConfidence(segments)
		res.Transcript.Warnings = append(res.Transcript.Warnings,
			stt.ImbalanceWarnings(stt.Stats(segments))...)

		assignment := o.reconciler.Assign(sttResult.Transcript, profile)
		res.Transcript.SeniorText = assignment.SeniorText
		res.Transcript.GuardianText = assignment.GuardianText
		res.Transcript.Method = assignment.Method
		res.Transcript.Confidence = assignment.Confidence

		sel := o.tags.SelectByText(segments, assignment.SeniorText)
		res.Transcript.SeniorTag = sel.Tag
		res.Transcript.SeniorSegments = len(sel.Segments)
		res.Transcript.SeniorSpeech = sel.Duration()
		if sel.Fallback {
			res.Transcript.Degraded = true
			res.Transcript.Reason = sel.Reason
			res.limitation("senior voice not isolated; acoustic analysis covers all speakers")
			observe.Logger(ctx).Warn("senior selection degraded", "reason", sel.Reason)
			if sel.Reason == speaker.ReasonNoSpeakerInfo {
				return
			}
		}
		if len(sel.Segments) == 0 {
			return
		}

		p, c, err := extractSeniorAudio(audioPath, sel)
		if err != nil {
			res.limitation("senior-only audio extraction unavailable; acoustic analysis covers the original recording")
			observe.Logger(ctx).Warn("senior audio extraction failed", "error", err)
			return
		}
		outPath, cleanup = p, c
	})
	return outPath, cleanup
}

// phaseAcoustic extracts voice features under the size-scaled timeout.
func (o *Orchestrator) phaseAcoustic(ctx context.Context, res *Result, audioPath string) {
	o.timePhase(ctx, res, PhaseAcoustic, func() {
		info, err := os.Stat(audioPath)
		if err != nil {
			res.Modalities[types.ModalityVoice] = types.ErrorResult(types.ModalityVoice, err)
			return
		}

		acCtx, cancel := context.WithTimeout(ctx, acoustic.Timeout(info.Size()))
		defer cancel()

		features, err := o.deps.Acoustic.ExtractFeatures(acCtx, audioPath)
		o.metrics.RecordProviderRequest(ctx, o.deps.Acoustic.Name(), "acoustic", statusLabel(err))
		switch {
		case err == nil:
			res.Modalities[types.ModalityVoice] = types.ModalityResult{
				Modality:   types.ModalityVoice,
				Status:     types.StatusSuccess,
				Indicators: acoustic.IndicatorsFromFeatures(features),
				Features:   features.Values,
			}
			res.Metadata.ModelVersions["acoustic"] = o.deps.Acoustic.Name()
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			res.Modalities[types.ModalityVoice] = types.SkippedResult(types.ModalityVoice, "timeout")
			res.limitation("acoustic analysis timed out and was skipped")
			o.metrics.RecordProviderError(ctx, o.deps.Acoustic.Name(), "acoustic")
		default:
			res.Modalities[types.ModalityVoice] = types.ErrorResult(types.ModalityVoice, err)
			res.limitation("acoustic analysis failed")
			o.metrics.RecordProviderError(ctx, o.deps.Acoustic.Name(), "acoustic")
		}
	})
}

// phaseLanguage runs the provider chain over the senior's text. The chain
// never fails; its rule-based substitute becomes a partial modality result.
func (o *Orchestrator) phaseLanguage(ctx context.Context, res *Result, profile types.UserProfile) {
	o.timePhase(ctx, res, PhaseLanguage, func() {
		text := res.Transcript.SeniorText
		if text == "" {
			text = res.Transcript.Text
		}
		if text == "" {
			res.Modalities[types.ModalityText] = types.SkippedResult(types.ModalityText, "no_transcript")
			res.limitation("no transcript; language analysis skipped")
			return
		}

		outcome := o.deps.Chain.Analyze(ctx, text, languageContext(profile))
		if outcome.Provider == semantic.RuleBasedProvider {
			res.Modalities[types.ModalityText] = types.ModalityResult{
				Modality:   types.ModalityText,
				Status:     types.StatusPartial,
				Reason:     semantic.RuleBasedProvider,
				Indicators: outcome.Analysis.Indicators,
			}
			res.limitation("language analysis degraded to the rule-based substitute")
			return
		}

		res.Modalities[types.ModalityText] = types.ModalityResult{
			Modality:   types.ModalityText,
			Status:     types.StatusSuccess,
			Indicators: outcome.Analysis.Indicators,
		}
		res.Metadata.ModelVersions["language"] = outcome.Provider
	})
}

// phaseDeep runs the deep classifiers when the gateway is configured.
func (o *Orchestrator) phaseDeep(ctx context.Context, res *Result, audioPath string) {
	if o.deps.Deep == nil {
		res.Modalities[types.ModalityDeep] = types.SkippedResult(types.ModalityDeep, "not_configured")
		return
	}
	o.timePhase(ctx, res, PhaseDeep, func() {
		result, err := o.deps.Deep.InferAll(ctx, audioPath)
		if err != nil {
			res.Modalities[types.ModalityDeep] = types.SkippedResult(types.ModalityDeep, "unavailable")
			res.limitation("deep classifier unavailable; assessment rests on voice and text only")
			observe.Logger(ctx).Warn("deep modality skipped", "error", err)
			return
		}

		features := make(map[string]float64, len(result.Predictions))
		for class, p := range result.Predictions {
			features[class] = p.Probability
		}
		res.Modalities[types.ModalityDeep] = types.ModalityResult{
			Modality:   types.ModalityDeep,
			Status:     types.StatusSuccess,
			Indicators: deep.IndicatorsFromResult(result),
			Features:   features,
		}
		if result.ModelVersion != "" {
			res.Metadata.ModelVersions["deep"] = result.ModelVersion
		}
	})
}

// phaseFuse assesses data quality, derives weights, and fuses the modality
// indicators.
func (o *Orchestrator) phaseFuse(ctx context.Context, res *Result, profile types.UserProfile) fusion.Result {
	var confidences map[types.IndicatorKind]float64
	o.timePhase(ctx, res, PhaseWeighting, func() {
		res.Quality = o.assessor.Assess(quality.Inputs{
			AudioDuration:        audioDuration(res),
			TextLength:           utf8.RuneCountInString(seniorText(res)),
			TranscriptConfidence: res.Transcript.DiarizationConfidence,
		}, res.Modalities)
		res.Weights, confidences = o.calculator.Weights(res.Quality, res.Modalities, profile)
	})

	var fused fusion.Result
	o.timePhase(ctx, res, PhaseFusion, func() {
		fused = o.fuser.Fuse(res.Modalities, res.Weights, confidences)
	})
	res.Consistency = fused.Consistency
	res.Confidence = meanConfidence(fused.Confidence)
	return fused
}

func (o *Orchestrator) phaseRisk(ctx context.Context, res *Result, fused fusion.Result) {
	o.timePhase(ctx, res, PhaseRisk, func() {
		res.Risk = o.risk.Assess(fused.Values)
	})
}

// phaseTrend merges caller-supplied snapshots with the history store's
// recent window and fits trends. History trouble degrades to unknown trends.
func (o *Orchestrator) phaseTrend(ctx context.Context, res *Result, profile types.UserProfile, prior []types.IndicatorSnapshot) trend.Analysis {
	var analysis trend.Analysis
	o.timePhase(ctx, res, PhaseTrend, func() {
		snapshots := append([]types.IndicatorSnapshot(nil), prior...)
		if o.deps.History != nil && profile.UserID != "" {
			days := o.cfg.HistoryWindowDays
			if days <= 0 {
				days = 30
			}
			recent, err := o.deps.History.Recent(ctx, profile.UserID, days)
			if err != nil {
				res.limitation("indicator history unavailable; trends unknown")
				observe.Logger(ctx).Warn("history lookup failed",
					"user_id", profile.UserID, "error", err)
			} else {
				snapshots = append(snapshots, recent...)
			}
		}
		analysis = trend.Analyze(snapshots)
	})
	res.Trend = analysis
	return analysis
}

// applyTrend builds the final IndicatorSet from fused values, per-indicator
// confidence, and trend directions.
func (o *Orchestrator) applyTrend(res *Result, fused fusion.Result, analysis trend.Analysis) {
	set := make(types.IndicatorSet, len(types.IndicatorKinds()))
	for _, kind := range types.IndicatorKinds() {
		v := fused.Values[kind]
		dir, ok := analysis.Directions[kind]
		if !ok {
			dir = types.TrendUnknown
		}
		set[kind] = types.Indicator{
			Value:      v,
			Level:      risk.Level(kind, v),
			Confidence: fused.Confidence[kind],
			Trend:      dir,
		}
	}
	res.Indicators = set
}

func (o *Orchestrator) phaseInterpret(ctx context.Context, res *Result, fused fusion.Result, profile types.UserProfile) {
	o.timePhase(ctx, res, PhaseInterpretation, func() {
		res.Interpretation = o.interp.Interpret(ctx, fused.Values, res.Risk, profile)
	})
}

// phaseReport finalizes metadata, persists the snapshot, and exports the
// report JSON. Export and persistence are best-effort.
func (o *Orchestrator) phaseReport(ctx context.Context, res *Result, fused fusion.Result, profile types.UserProfile) {
	o.timePhase(ctx, res, PhaseReport, func() {
		res.Metadata.DataCompleteness = float64(len(fused.Contributing)) / float64(len(types.Modalities()))

		if o.deps.History != nil && profile.UserID != "" {
			err := o.deps.History.Append(ctx, profile.UserID, types.IndicatorSnapshot{
				Timestamp: time.Now().UTC(),
				Values:    fused.Values,
			})
			if err != nil {
				observe.Logger(ctx).Warn("history append failed",
					"user_id", profile.UserID, "error", err)
			}
		}

		if o.deps.Reports != nil {
			if err := o.exportReport(ctx, res); err != nil {
				observe.Logger(ctx).Warn("report export failed",
					"run_id", res.RunID, "error", err)
			}
		}
	})
}

func (o *Orchestrator) exportReport(ctx context.Context, res *Result) error {
	w, err := o.deps.Reports.Write(ctx, path.Join(o.deps.ReportPrefix, res.RunID+".json"))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func languageContext(profile types.UserProfile) language.Context {
	return language.Context{
		Age:              profile.Age,
		Gender:           profile.Gender,
		HasPriorAnalysis: profile.HasPriorAnalysis,
	}
}

func seniorText(res *Result) string {
	if res.Transcript.SeniorText != "" {
		return res.Transcript.SeniorText
	}
	return res.Transcript.Text
}

// audioDuration is how much speech the voice and deep engines saw: the
// senior-only selection when one was cut, otherwise the whole recording.
func audioDuration(res *Result) time.Duration {
	if res.Transcript.SeniorSpeech > 0 {
		return res.Transcript.SeniorSpeech
	}
	return res.Transcript.AudioDuration
}

func meanConfidence(conf map[types.IndicatorKind]float64) float64 {
	if len(conf) == 0 {
		return 0
	}
	var sum float64
	for _, v := range conf {
		sum += v
	}
	return sum / float64(len(conf))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func withAttr(key, value string) metric.AddOption {
	return metric.WithAttributes(observe.Attr(key, value))
}
