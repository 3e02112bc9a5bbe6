// Package mock provides a test double for the acoustic package interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/maeumlabs/maeum/pkg/provider/acoustic"
)

// ExtractCall records a single invocation of Provider.ExtractFeatures.
type ExtractCall struct {
	// Ctx is the context passed to the call.
	Ctx context.Context
	// Path is the audio file path passed to the call.
	Path string
}

// Provider is a mock implementation of acoustic.Provider.
type Provider struct {
	mu sync.Mutex

	// NameValue is returned by Name. Defaults to "mock" when empty.
	NameValue string

	// Features is returned by ExtractFeatures when Err is nil.
	Features *acoustic.Features

	// Err, if non-nil, is returned as the error from ExtractFeatures.
	Err error

	// Delay, if set, makes ExtractFeatures wait before returning, honoring
	// context cancellation. Useful for timeout tests.
	Delay func(ctx context.Context) error

	// Calls records every call to ExtractFeatures.
	Calls []ExtractCall
}

// Name returns NameValue or "mock".
func (p *Provider) Name() string {
	if p.NameValue == "" {
		return "mock"
	}
	return p.NameValue
}

// ExtractFeatures records the call and returns Features, Err.
func (p *Provider) ExtractFeatures(ctx context.Context, path string) (*acoustic.Features, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, ExtractCall{Ctx: ctx, Path: path})
	delay := p.Delay
	p.mu.Unlock()

	if delay != nil {
		if err := delay(ctx); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Features, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}

// Ensure Provider implements acoustic.Provider at compile time.
var _ acoustic.Provider = (*Provider)(nil)
