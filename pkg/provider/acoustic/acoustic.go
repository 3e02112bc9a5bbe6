// Package acoustic defines the low-level voice feature extraction provider
// used by the analysis pipeline, plus the mapping from raw features to the
// five mental-health indicators.
//
// Extraction is CPU-bound and scales with recording length, so callers bound
// each request with Timeout, which grows with file size up to a hard cap.
package acoustic

import (
	"context"
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Feature keys produced by extraction backends. Backends may report a subset;
// IndicatorsFromFeatures treats missing keys as neutral.
const (
	FeaturePitchMean      = "pitch_mean"      // Hz
	FeaturePitchStd       = "pitch_std"       // Hz
	FeaturePitchRange     = "pitch_range"     // Hz
	FeatureEnergyMean     = "energy_mean"     // normalized RMS, 0..1
	FeatureEnergyStd      = "energy_std"      // normalized, 0..1
	FeatureSpeakingRate   = "speaking_rate"   // syllables per second
	FeaturePauseRatio     = "pause_ratio"     // silence share, 0..1
	FeatureVoiceClarity   = "voice_clarity"   // harmonics-to-noise proxy, 0..1
	FeatureVoiceStability = "voice_stability" // inverse of shimmer, 0..1
	FeatureTremorAmp      = "tremor_amplitude"
	FeatureTremorFreq     = "tremor_frequency" // Hz
)

// Features is the result of acoustic extraction over a single recording.
type Features struct {
	// Values maps feature keys to measured values.
	Values map[string]float64

	// AudioDuration is the analyzed recording length.
	AudioDuration time.Duration
}

// Provider extracts acoustic features from an audio file on local disk.
type Provider interface {
	// Name returns a short identifier for logs and reports.
	Name() string

	// ExtractFeatures analyzes the audio file at path. Implementations must
	// stop and return ctx.Err() promptly when the context is cancelled.
	ExtractFeatures(ctx context.Context, path string) (*Features, error)
}

const (
	timeoutBase  = 60 * time.Second
	timeoutPerMB = 20 * time.Second
	timeoutMax   = 240 * time.Second
)

// Timeout returns the extraction deadline for a recording of the given byte
// size: 60s plus 20s per megabyte, capped at 4 minutes.
func Timeout(sizeBytes int64) time.Duration {
	mb := float64(sizeBytes) / (1024 * 1024)
	d := timeoutBase + time.Duration(mb*float64(timeoutPerMB))
	if d > timeoutMax {
		return timeoutMax
	}
	return d
}

// Typical healthy ranges used to normalize raw features. Values outside a
// range are clamped; the ranges are tuned for elderly Korean speakers.
const (
	pitchHealthyLow  = 85.0  // Hz
	pitchHealthyHigh = 255.0 // Hz
	rateHealthyLow   = 2.0   // syllables/s
	rateHealthyHigh  = 6.0   // syllables/s
)

// IndicatorsFromFeatures maps raw acoustic features onto the five indicator
// scores, each in [0, 1] with higher values meaning better condition.
// Missing features contribute their neutral value, so a sparse feature map
// degrades toward 0.5 rather than toward an extreme.
func IndicatorsFromFeatures(f *Features) types.Scores {
	if f == nil {
		return nil
	}

	energy := clamp01(lookup(f.Values, FeatureEnergyMean, 0.5))
	rate := normalize(lookup(f.Values, FeatureSpeakingRate, (rateHealthyLow+rateHealthyHigh)/2), rateHealthyLow, rateHealthyHigh)
	activity := 1 - clamp01(lookup(f.Values, FeaturePauseRatio, 0.3))
	clarity := clamp01(lookup(f.Values, FeatureVoiceClarity, 0.5))
	stability := clamp01(lookup(f.Values, FeatureVoiceStability, 0.5))
	steadiness := 1 - clamp01(lookup(f.Values, FeatureTremorAmp, 0.2))
	pitchVar := pitchVariability(f.Values)

	return types.Scores{
		// Depressed speech is flat, quiet and slow with long pauses.
		types.DRI: clamp01(0.35*energy + 0.25*rate + 0.25*activity + 0.15*pitchVar),
		// Poor sleep shows as low vocal energy and degraded clarity.
		types.SDI: clamp01(0.40*energy + 0.35*clarity + 0.25*stability),
		// Cognitive load shows in hesitation and slowed articulation.
		types.CFL: clamp01(0.35*rate + 0.35*activity + 0.30*clarity),
		// Emotional instability shows as tremor and erratic phonation.
		types.ES: clamp01(0.40*stability + 0.35*steadiness + 0.25*pitchVar),
		// Overall vitality is the broad energy/engagement picture.
		types.OV: clamp01(0.30*energy + 0.25*rate + 0.25*activity + 0.20*clarity),
	}
}

// pitchVariability scores moderate intonation highest. A perfectly flat pitch
// (monotone) and a wildly swinging one both score low.
func pitchVariability(values map[string]float64) float64 {
	mean, ok := values[FeaturePitchMean]
	if !ok || mean <= 0 {
		return 0.5
	}
	std := values[FeaturePitchStd]
	rel := std / mean
	// ~15% relative deviation is lively, natural speech.
	const target = 0.15
	diff := rel - target
	if diff < 0 {
		diff = -diff
	}
	return clamp01(1 - diff/target)
}

func lookup(values map[string]float64, key string, neutral float64) float64 {
	if v, ok := values[key]; ok {
		return v
	}
	return neutral
}

func normalize(v, low, high float64) float64 {
	if high <= low {
		return 0.5
	}
	return clamp01((v - low) / (high - low))
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
