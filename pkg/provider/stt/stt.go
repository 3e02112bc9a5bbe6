// Package stt defines the batch speech-to-text provider abstraction used by
// the analysis pipeline.
//
// Providers transcribe a full recording with speaker diarization enabled and
// return numbered speaker tags. Tag numbering is provider-specific: some
// engines start at 0, some at 1. The pipeline normalizes tags via a
// configurable offset before role attribution, so providers should return
// tags exactly as the engine emitted them.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

// ErrNoSpeech is returned when the engine produced no transcribable speech.
var ErrNoSpeech = errors.New("stt: no speech recognized")

// Options controls a transcription request.
type Options struct {
	// LanguageCode is the BCP-47 language of the recording (e.g. "ko-KR").
	LanguageCode string

	// BoostPhrases are domain phrases hinted to the recognizer to improve
	// accuracy on vocabulary common in elder-care conversations.
	BoostPhrases []string

	// MinSpeakers and MaxSpeakers bound the diarizer's speaker count search.
	// Zero values leave the engine default in place.
	MinSpeakers int
	MaxSpeakers int
}

// Result is a completed diarized transcription.
type Result struct {
	// Segments are the diarized utterances in chronological order.
	Segments []types.TranscriptSegment

	// Transcript is the full text of the recording, segment texts joined
	// with single spaces.
	Transcript string

	// SpeakerStats aggregates per-speaker-tag word counts and durations.
	SpeakerStats map[int]types.SpeakerStats

	// AudioDuration is the recording length as reported by the engine.
	AudioDuration time.Duration

	// Warnings carries non-fatal quality observations (e.g. speaker
	// imbalance) surfaced to the final report.
	Warnings []string
}

// Provider is a batch speech-to-text engine with diarization.
type Provider interface {
	// Name returns a short identifier for logs and reports.
	Name() string

	// TranscribeWithDiarization transcribes the full recording. The reader
	// holds encoded audio bytes; the provider is responsible for any upload
	// or polling its backend requires. Implementations must honor ctx
	// cancellation during long waits.
	TranscribeWithDiarization(ctx context.Context, audio io.Reader, opts Options) (*Result, error)
}

// minMergeDuration is the segment length below which a same-speaker segment
// is merged into its predecessor instead of standing alone.
const minMergeDuration = 500 * time.Millisecond

// minSegmentConfidence is the confidence below which a segment is dropped
// from role attribution entirely.
const minSegmentConfidence = 0.5

// imbalanceThreshold flags recordings where one speaker holds less than this
// share of total speech time.
const imbalanceThreshold = 0.10

// Normalize applies segment hygiene to raw engine output: it sorts segments
// chronologically, merges sub-half-second fragments into an adjacent segment
// of the same speaker, and drops segments whose confidence is below 0.5.
// The input slice is not modified.
func Normalize(segments []types.TranscriptSegment) []types.TranscriptSegment {
	if len(segments) == 0 {
		return nil
	}

	sorted := make([]types.TranscriptSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var out []types.TranscriptSegment
	for _, seg := range sorted {
		if seg.Confidence < minSegmentConfidence {
			continue
		}
		if n := len(out); n > 0 &&
			out[n-1].SpeakerTag == seg.SpeakerTag &&
			seg.Duration() < minMergeDuration {
			prev := &out[n-1]
			prev.Text = prev.Text + " " + seg.Text
			if seg.End > prev.End {
				prev.End = seg.End
			}
			prev.Words = append(prev.Words, seg.Words...)
			continue
		}
		out = append(out, seg)
	}
	return out
}

// OverallConfidence returns the duration-weighted mean confidence of the
// given segments, or 0 when the slice is empty.
func OverallConfidence(segments []types.TranscriptSegment) float64 {
	var weighted, total float64
	for _, seg := range segments {
		d := seg.Duration().Seconds()
		weighted += seg.Confidence * d
		total += d
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// Stats aggregates per-tag speaker statistics from the given segments.
func Stats(segments []types.TranscriptSegment) map[int]types.SpeakerStats {
	stats := make(map[int]types.SpeakerStats)
	conf := make(map[int]float64)
	for _, seg := range segments {
		s := stats[seg.SpeakerTag]
		s.SegmentCount++
		s.WordCount += len(seg.Words)
		s.SpeechDuration += seg.Duration()
		conf[seg.SpeakerTag] += seg.Confidence
		stats[seg.SpeakerTag] = s
	}
	for tag, s := range stats {
		if s.SegmentCount > 0 {
			s.AvgConfidence = conf[tag] / float64(s.SegmentCount)
		}
		stats[tag] = s
	}
	return stats
}

// ImbalanceWarnings returns a warning per speaker tag whose share of total
// speech time falls below 10%. A recording with a single speaker produces no
// warnings.
func ImbalanceWarnings(stats map[int]types.SpeakerStats) []string {
	if len(stats) < 2 {
		return nil
	}
	var total time.Duration
	for _, s := range stats {
		total += s.SpeechDuration
	}
	if total == 0 {
		return nil
	}

	tags := make([]int, 0, len(stats))
	for tag := range stats {
		tags = append(tags, tag)
	}
	sort.Ints(tags)

	var warnings []string
	for _, tag := range tags {
		share := stats[tag].SpeechDuration.Seconds() / total.Seconds()
		if share < imbalanceThreshold {
			warnings = append(warnings, fmt.Sprintf(
				"speaker %d holds %.0f%% of speech time; diarization may be unreliable", tag, share*100))
		}
	}
	return warnings
}
