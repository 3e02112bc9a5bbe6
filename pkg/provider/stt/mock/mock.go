// Package mock provides test doubles for the stt package interfaces.
//
// Use Provider to return a canned diarized transcription and inspect the
// Options the caller passed:
//
//	p := &mock.Provider{Result: &stt.Result{Transcript: "..."}}
//	res, _ := p.TranscribeWithDiarization(ctx, bytes.NewReader(audio), opts)
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/maeumlabs/maeum/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Provider.TranscribeWithDiarization.
type TranscribeCall struct {
	// Ctx is the context passed to the call.
	Ctx context.Context
	// Audio is a copy of the bytes read from the audio reader.
	Audio []byte
	// Opts are the Options passed to the call.
	Opts stt.Options
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// NameValue is returned by Name. Defaults to "mock" when empty.
	NameValue string

	// Result is returned by TranscribeWithDiarization when Err is nil.
	Result *stt.Result

	// Err, if non-nil, is returned as the error from TranscribeWithDiarization.
	Err error

	// Calls records every call to TranscribeWithDiarization.
	Calls []TranscribeCall
}

// Name returns NameValue or "mock".
func (p *Provider) Name() string {
	if p.NameValue == "" {
		return "mock"
	}
	return p.NameValue
}

// TranscribeWithDiarization records the call and returns Result, Err.
func (p *Provider) TranscribeWithDiarization(ctx context.Context, audio io.Reader, opts stt.Options) (*stt.Result, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, TranscribeCall{Ctx: ctx, Audio: data, Opts: opts})
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Result, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
