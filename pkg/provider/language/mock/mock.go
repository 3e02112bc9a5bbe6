// Package mock provides a test double for the language package interfaces.
//
// Use Provider to script per-call results for chain fallthrough tests:
//
//	p := &mock.Provider{NameValue: "gemini", Err: errors.New("quota")}
//	q := &mock.Provider{NameValue: "openai", Analysis: &language.Analysis{...}}
package mock

import (
	"context"
	"sync"

	"github.com/maeumlabs/maeum/pkg/provider/language"
)

// AnalyzeCall records a single invocation of Provider.Analyze.
type AnalyzeCall struct {
	// Ctx is the context passed to the call.
	Ctx context.Context
	// Text is the speech text passed to the call.
	Text string
	// Meta is the senior context passed to the call.
	Meta language.Context
}

// Provider is a mock implementation of language.Provider.
type Provider struct {
	mu sync.Mutex

	// NameValue is returned by Name. Defaults to "mock" when empty.
	NameValue string

	// Analysis is returned by Analyze when Err is nil.
	Analysis *language.Analysis

	// Err, if non-nil, is returned as the error from Analyze.
	Err error

	// AnalyzeFunc, if non-nil, overrides Analysis/Err entirely.
	AnalyzeFunc func(ctx context.Context, text string, meta language.Context) (*language.Analysis, error)

	// Calls records every call to Analyze.
	Calls []AnalyzeCall
}

// Name returns NameValue or "mock".
func (p *Provider) Name() string {
	if p.NameValue == "" {
		return "mock"
	}
	return p.NameValue
}

// Analyze records the call and returns Analysis, Err (or delegates to AnalyzeFunc).
func (p *Provider) Analyze(ctx context.Context, text string, meta language.Context) (*language.Analysis, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, AnalyzeCall{Ctx: ctx, Text: text, Meta: meta})
	fn := p.AnalyzeFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, meta)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Analysis, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}

// Ensure Provider implements language.Provider at compile time.
var _ language.Provider = (*Provider)(nil)
