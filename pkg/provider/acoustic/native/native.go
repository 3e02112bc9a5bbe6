// Package native implements acoustic feature extraction in pure Go over PCM
// WAV input. It is intentionally simple signal processing — framewise energy,
// autocorrelation pitch tracking, and envelope statistics — tuned for the
// features the indicator mapping consumes, not a general phonetics toolkit.
package native

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/maeumlabs/maeum/pkg/audio"
	"github.com/maeumlabs/maeum/pkg/provider/acoustic"
)

const (
	frameDuration = 40 * 1e-3 // seconds per analysis frame

	// Pitch search range covering adult speech.
	minPitchHz = 60.0
	maxPitchHz = 400.0

	// silenceRatio of the mean frame energy marks a frame as a pause.
	silenceRatio = 0.15

	// voicedClarity is the minimum autocorrelation peak for a frame to
	// count as voiced pitch.
	voicedClarity = 0.3

	// Tremor band bounds in Hz over the energy envelope.
	tremorLowHz  = 3.0
	tremorHighHz = 12.0
)

// Provider extracts features from WAV files on disk.
type Provider struct{}

var _ acoustic.Provider = (*Provider)(nil)

// New returns a native extractor.
func New() *Provider { return &Provider{} }

// Name implements acoustic.Provider.
func (*Provider) Name() string { return "native" }

// ExtractFeatures implements acoustic.Provider. The context is checked
// between per-frame passes so oversized inputs remain cancelable.
func (p *Provider) ExtractFeatures(ctx context.Context, path string) (*acoustic.Features, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("native: open audio: %w", err)
	}
	defer f.Close()

	pcm, err := audio.DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("native: decode audio: %w", err)
	}
	if len(pcm.Samples) == 0 {
		return nil, fmt.Errorf("native: empty audio")
	}

	samples := monoFloat(pcm)
	frameLen := int(frameDuration * float64(pcm.SampleRate))
	if frameLen <= 0 || len(samples) < frameLen {
		return nil, fmt.Errorf("native: audio shorter than one analysis frame")
	}

	energies := frameEnergies(samples, frameLen)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pitches, clarities := framePitches(ctx, samples, frameLen, pcm.SampleRate)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make(map[string]float64, 11)

	meanEnergy := mean(energies)
	values[acoustic.FeatureEnergyMean] = clamp01(meanEnergy * 4)
	values[acoustic.FeatureEnergyStd] = clamp01(stddev(energies) * 4)

	voiced := voicedFrames(energies, meanEnergy)
	pauseRatio := 1 - float64(voiced)/float64(len(energies))
	values[acoustic.FeaturePauseRatio] = clamp01(pauseRatio)

	pm, ps, pr := pitchStats(pitches)
	values[acoustic.FeaturePitchMean] = pm
	values[acoustic.FeaturePitchStd] = ps
	values[acoustic.FeaturePitchRange] = pr

	values[acoustic.FeatureSpeakingRate] = speakingRate(energies, meanEnergy)
	values[acoustic.FeatureVoiceClarity] = clamp01(mean(clarities))
	values[acoustic.FeatureVoiceStability] = clamp01(1 - shimmer(energies, meanEnergy))

	amp, freq := tremor(energies)
	values[acoustic.FeatureTremorAmp] = amp
	values[acoustic.FeatureTremorFreq] = freq

	return &acoustic.Features{
		Values:        values,
		AudioDuration: pcm.Duration(),
	}, nil
}

// monoFloat mixes the channels down to one normalized float series.
func monoFloat(p *audio.PCM) []float64 {
	ch := p.Channels
	if ch <= 0 {
		ch = 1
	}
	n := len(p.Samples) / ch
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(p.Samples[i*ch+c])
		}
		out[i] = sum / float64(ch) / math.MaxInt16
	}
	return out
}

// frameEnergies computes RMS energy per frame.
func frameEnergies(samples []float64, frameLen int) []float64 {
	n := len(samples) / frameLen
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for _, s := range samples[i*frameLen : (i+1)*frameLen] {
			sum += s * s
		}
		out[i] = math.Sqrt(sum / float64(frameLen))
	}
	return out
}

// framePitches estimates a pitch per frame by normalized autocorrelation,
// returning 0 for unvoiced frames plus each frame's peak clarity.
func framePitches(ctx context.Context, samples []float64, frameLen, sampleRate int) (pitches, clarities []float64) {
	minLag := int(float64(sampleRate) / maxPitchHz)
	maxLag := int(float64(sampleRate) / minPitchHz)
	if maxLag >= frameLen {
		maxLag = frameLen - 1
	}

	n := len(samples) / frameLen
	pitches = make([]float64, n)
	clarities = make([]float64, n)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return pitches[:i], clarities[:i]
		}
		frame := samples[i*frameLen : (i+1)*frameLen]

		var power float64
		for _, s := range frame {
			power += s * s
		}
		if power == 0 {
			continue
		}

		bestLag, bestCorr := 0, 0.0
		for lag := minLag; lag <= maxLag; lag++ {
			var corr float64
			for j := 0; j+lag < len(frame); j++ {
				corr += frame[j] * frame[j+lag]
			}
			corr /= power
			if corr > bestCorr {
				bestLag, bestCorr = lag, corr
			}
		}
		clarities[i] = bestCorr
		if bestLag > 0 && bestCorr >= voicedClarity {
			pitches[i] = float64(sampleRate) / float64(bestLag)
		}
	}
	return pitches, clarities
}

func voicedFrames(energies []float64, meanEnergy float64) int {
	threshold := meanEnergy * silenceRatio
	var n int
	for _, e := range energies {
		if e > threshold {
			n++
		}
	}
	return n
}

// pitchStats summarises the voiced pitch track in Hz.
func pitchStats(pitches []float64) (mean, std, rng float64) {
	var voiced []float64
	for _, p := range pitches {
		if p > 0 {
			voiced = append(voiced, p)
		}
	}
	if len(voiced) == 0 {
		return 0, 0, 0
	}

	var sum, lo, hi float64
	lo, hi = voiced[0], voiced[0]
	for _, p := range voiced {
		sum += p
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	mean = sum / float64(len(voiced))

	var variance float64
	for _, p := range voiced {
		d := p - mean
		variance += d * d
	}
	std = math.Sqrt(variance / float64(len(voiced)))
	return mean, std, hi - lo
}

// speakingRate counts energy peaks (syllable nuclei proxy) per second of
// non-pause speech.
func speakingRate(energies []float64, meanEnergy float64) float64 {
	threshold := meanEnergy * silenceRatio
	var peaks, voiced int
	for i := 1; i < len(energies)-1; i++ {
		if energies[i] > threshold {
			voiced++
			if energies[i] > energies[i-1] && energies[i] >= energies[i+1] {
				peaks++
			}
		}
	}
	if voiced == 0 {
		return 0
	}
	speechSeconds := float64(voiced) * frameDuration
	return float64(peaks) / speechSeconds
}

// shimmer is the mean relative energy difference between consecutive voiced
// frames, a rough amplitude-perturbation measure.
func shimmer(energies []float64, meanEnergy float64) float64 {
	threshold := meanEnergy * silenceRatio
	var sum float64
	var n int
	for i := 1; i < len(energies); i++ {
		if energies[i] <= threshold || energies[i-1] <= threshold {
			continue
		}
		sum += math.Abs(energies[i]-energies[i-1]) / math.Max(energies[i], energies[i-1])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// tremor measures energy-envelope modulation in the tremor band by scanning
// the envelope's autocorrelation for a dominant period between 3 and 12 Hz.
func tremor(energies []float64) (amplitude, frequency float64) {
	if len(energies) < 8 {
		return 0, 0
	}
	frameRate := 1 / frameDuration
	minLag := int(frameRate / tremorHighHz)
	maxLag := int(frameRate / tremorLowHz)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(energies) {
		maxLag = len(energies) - 1
	}

	m := mean(energies)
	centered := make([]float64, len(energies))
	var power float64
	for i, e := range energies {
		centered[i] = e - m
		power += centered[i] * centered[i]
	}
	if power == 0 {
		return 0, 0
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(centered); i++ {
			corr += centered[i] * centered[i+lag]
		}
		corr /= power
		if corr > bestCorr {
			bestLag, bestCorr = lag, corr
		}
	}
	if bestLag == 0 {
		return 0, 0
	}
	return clamp01(bestCorr), frameRate / float64(bestLag)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := mean(vals)
	var variance float64
	for _, v := range vals {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(vals)))
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
