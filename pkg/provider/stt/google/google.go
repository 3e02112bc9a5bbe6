// Package google implements the stt.Provider interface using Google Cloud
// Speech-to-Text batch recognition with speaker diarization.
package google

import (
	"context"
	"fmt"
	"io"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/maeumlabs/maeum/pkg/provider/stt"
	"github.com/maeumlabs/maeum/pkg/types"
)

// pollInterval paces the fallback polling loop when the primary operation
// wait fails for a transient reason.
const pollInterval = 5 * time.Second

// wordGap is the silence between consecutive words that forces a new
// segment even when the speaker did not change.
const wordGap = time.Second

// Provider transcribes via the Cloud Speech batch API.
type Provider struct {
	client *speech.Client
}

// compile-time interface check
var _ stt.Provider = (*Provider)(nil)

// New creates a Provider using application-default credentials unless
// overridden by client options.
func New(ctx context.Context, opts ...option.ClientOption) (*Provider, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: create speech client: %w", err)
	}
	return &Provider{client: client}, nil
}

// Name implements stt.Provider.
func (p *Provider) Name() string { return "google" }

// Close releases the underlying gRPC connection.
func (p *Provider) Close() error { return p.client.Close() }

// TranscribeWithDiarization implements stt.Provider. It submits the audio as
// a long-running recognition job and waits for completion, falling back to
// explicit polling if the wait call itself fails while the context is alive.
func (p *Provider) TranscribeWithDiarization(ctx context.Context, audio io.Reader, opts stt.Options) (*stt.Result, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return nil, fmt.Errorf("google: read audio: %w", err)
	}

	cfg := &speechpb.RecognitionConfig{
		// Encoding left unspecified: the backend reads it from the
		// container header for WAV/FLAC uploads.
		LanguageCode:               opts.LanguageCode,
		EnableWordTimeOffsets:      true,
		EnableWordConfidence:       true,
		EnableAutomaticPunctuation: true,
		DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MinSpeakerCount:          int32(opts.MinSpeakers),
			MaxSpeakerCount:          int32(opts.MaxSpeakers),
		},
	}
	if len(opts.BoostPhrases) > 0 {
		cfg.SpeechContexts = []*speechpb.SpeechContext{
			{Phrases: opts.BoostPhrases},
		}
	}

	op, err := p.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google: submit recognition: %w", err)
	}

	resp, err := p.await(ctx, op)
	if err != nil {
		return nil, err
	}
	return buildResult(resp)
}

// await waits for the operation, degrading to a polling loop when Wait
// errors without the context being done.
func (p *Provider) await(ctx context.Context, op *speech.LongRunningRecognizeOperation) (*speechpb.LongRunningRecognizeResponse, error) {
	resp, err := op.Wait(ctx)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("google: recognition wait: %w", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("google: recognition poll: %w", ctx.Err())
		case <-ticker.C:
		}
		resp, err := op.Poll(ctx)
		if err != nil {
			return nil, fmt.Errorf("google: recognition poll: %w", err)
		}
		if op.Done() {
			return resp, nil
		}
	}
}

// buildResult converts the API response into segments. Diarized word/speaker
// detail comes from the final result, which covers the whole recording;
// words group into a segment until the speaker changes or a long gap occurs.
func buildResult(resp *speechpb.LongRunningRecognizeResponse) (*stt.Result, error) {
	words := diarizedWords(resp)
	if len(words) == 0 {
		return nil, stt.ErrNoSpeech
	}

	var (
		segments []types.TranscriptSegment
		current  *types.TranscriptSegment
		sumConf  float64
		nConf    int
	)
	flush := func() {
		if current != nil {
			if nConf > 0 {
				current.Confidence = sumConf / float64(nConf)
			}
			segments = append(segments, *current)
		}
		current, sumConf, nConf = nil, 0, 0
	}
	for _, w := range words {
		start := w.GetStartTime().AsDuration()
		end := w.GetEndTime().AsDuration()
		tag := int(w.GetSpeakerTag())
		if current == nil || current.SpeakerTag != tag || start-current.End > wordGap {
			flush()
			current = &types.TranscriptSegment{
				SpeakerTag: tag,
				Start:      start,
			}
		}
		if current.Text != "" {
			current.Text += " "
		}
		current.Text += w.GetWord()
		current.End = end
		current.Words = append(current.Words, types.WordDetail{
			Word:       w.GetWord(),
			Start:      start,
			End:        end,
			Confidence: float64(w.GetConfidence()),
		})
		if w.GetConfidence() > 0 {
			sumConf += float64(w.GetConfidence())
			nConf++
		}
	}
	flush()

	transcript := ""
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		if transcript != "" {
			transcript += " "
		}
		transcript += r.GetAlternatives()[0].GetTranscript()
	}

	stats := stt.Stats(segments)
	return &stt.Result{
		Segments:      segments,
		Transcript:    transcript,
		SpeakerStats:  stats,
		AudioDuration: segments[len(segments)-1].End,
		Warnings:      stt.ImbalanceWarnings(stats),
	}, nil
}

// diarizedWords returns the word list carrying speaker tags. Google attaches
// diarization to the words of the last result only.
func diarizedWords(resp *speechpb.LongRunningRecognizeResponse) []*speechpb.WordInfo {
	results := resp.GetResults()
	for i := len(results) - 1; i >= 0; i-- {
		alts := results[i].GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if ws := alts[0].GetWords(); len(ws) > 0 && ws[0].GetSpeakerTag() != 0 {
			return ws
		}
	}
	// No speaker tags at all: fall back to every result's words with a
	// single implicit speaker.
	var all []*speechpb.WordInfo
	for _, r := range results {
		if len(r.GetAlternatives()) > 0 {
			all = append(all, r.GetAlternatives()[0].GetWords()...)
		}
	}
	return all
}
