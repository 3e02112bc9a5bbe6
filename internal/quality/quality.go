// Package quality scores how trustworthy each modality's input was, feeding
// the adaptive weighting layer. Scores are in [0, 1] and depend only on the
// inputs, never on the analysis outcome.
package quality

import (
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Inputs captures what each modality had to work with on one run.
type Inputs struct {
	// AudioDuration is the length of the senior-only audio fed to the
	// voice and deep engines.
	AudioDuration time.Duration

	// TextLength is the rune count of the senior-attributed text fed to
	// the language engine.
	TextLength int

	// TranscriptConfidence is the STT engine's duration-weighted mean
	// confidence, or 0 when transcription failed.
	TranscriptConfidence float64
}

const (
	// fullAudio is the audio length at which voice quality saturates.
	fullAudio = 60 * time.Second

	// fullText is the text length at which text quality saturates.
	fullText = 200

	// deepQuality is the fixed quality for a deep result. The classifier
	// sees the same audio as the voice engine but its own calibration is
	// opaque, so a constant mid-high score keeps it from dominating.
	deepQuality = 0.8
)

// Assessor derives a per-modality quality score from run inputs.
// The zero value is ready to use.
type Assessor struct{}

// Assess scores every modality that produced indicators. Modalities that
// did not contribute score zero, which removes them from adaptive weighting.
func (Assessor) Assess(in Inputs, results map[types.Modality]types.ModalityResult) map[types.Modality]float64 {
	out := make(map[types.Modality]float64, len(results))
	for m, r := range results {
		if !r.Contributed() {
			out[m] = 0
			continue
		}
		switch m {
		case types.ModalityVoice:
			out[m] = voiceQuality(in.AudioDuration)
		case types.ModalityText:
			out[m] = textQuality(in.TextLength, in.TranscriptConfidence)
		case types.ModalityDeep:
			out[m] = deepQuality
		}
	}
	return out
}

// voiceQuality ramps linearly from 0 at no audio to 1 at fullAudio.
func voiceQuality(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	if d >= fullAudio {
		return 1
	}
	return float64(d) / float64(fullAudio)
}

// textQuality ramps with text length and is damped by poor transcription
// confidence, since garbage transcripts still have length.
func textQuality(runes int, confidence float64) float64 {
	if runes <= 0 {
		return 0
	}
	q := 1.0
	if runes < fullText {
		q = float64(runes) / float64(fullText)
	}
	if confidence > 0 && confidence < 1 {
		q *= 0.5 + 0.5*confidence
	}
	return q
}
