// Package semantic runs language analysis over an ordered chain of LLM
// providers. Providers are tried in registration order behind per-provider
// circuit breakers; when every provider fails the chain degrades to a
// deterministic neutral result instead of returning an error, so the caller
// can always fuse something.
package semantic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maeumlabs/maeum/internal/observe"
	"github.com/maeumlabs/maeum/internal/resilience"
	"github.com/maeumlabs/maeum/pkg/provider/language"
	"github.com/maeumlabs/maeum/pkg/types"
)

// RuleBasedProvider labels results produced by the neutral fallback rather
// than any LLM provider.
const RuleBasedProvider = "rule_based"

// successConfidence is attached to any analysis an LLM produced; the
// rule-based substitute carries 0 so the two are never confusable.
const successConfidence = 0.8

// Status tags how an Outcome was obtained.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFallback Status = "fallback"
)

// Outcome is the result of one chain invocation. Analysis is never nil.
type Outcome struct {
	Status   Status
	Analysis *language.Analysis

	// Provider names the provider that produced Analysis, or
	// RuleBasedProvider for the neutral substitute.
	Provider string

	// FallbackUsed is true when the primary provider did not produce
	// the analysis.
	FallbackUsed bool

	// Confidence is the chain's trust in Analysis: a fixed mid-high
	// value for LLM output, zero for the rule-based substitute.
	Confidence float64

	// Attempts records every provider tried, failures first.
	Attempts []resilience.Attempt
}

// Chain is an ordered multi-provider language analysis chain.
type Chain struct {
	group   *resilience.FallbackGroup[language.Provider]
	byName  map[string]language.Provider
	force   string
	metrics *observe.Metrics
}

// Option configures a Chain.
type Option func(*Chain)

// WithForcedProvider pins the chain to a single named provider, bypassing
// ordering and fallback. Used for canary and operator testing.
func WithForcedProvider(name string) Option {
	return func(c *Chain) { c.force = name }
}

// WithMetrics overrides the default metrics sink.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Chain) { c.metrics = m }
}

// NewChain builds a chain over providers in priority order. At least one
// provider is required.
func NewChain(providers []language.Provider, cfg resilience.FallbackConfig, opts ...Option) (*Chain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("semantic: no language providers configured")
	}

	group := resilience.NewFallbackGroup(providers[0], providers[0].Name(), cfg)
	byName := map[string]language.Provider{providers[0].Name(): providers[0]}
	for _, p := range providers[1:] {
		group.AddFallback(p.Name(), p)
		byName[p.Name()] = p
	}

	c := &Chain{group: group, byName: byName, metrics: observe.DefaultMetrics()}
	for _, opt := range opts {
		opt(c)
	}
	if c.force != "" {
		if _, ok := byName[c.force]; !ok {
			return nil, fmt.Errorf("semantic: forced provider %q is not in the chain", c.force)
		}
	}
	return c, nil
}

// Providers returns the provider names in try order.
func (c *Chain) Providers() []string {
	return c.group.Names()
}

// Analyze runs the chain over the senior's text. It never returns an error:
// total provider exhaustion yields the neutral rule-based Outcome.
func (c *Chain) Analyze(ctx context.Context, text string, meta language.Context) Outcome {
	if c.force != "" {
		return c.analyzeForced(ctx, text, meta)
	}

	primary := c.group.Names()[0]
	analysis, attempts, err := resilience.ExecuteWithResult(c.group,
		func(p language.Provider) (*language.Analysis, error) {
			a, err := p.Analyze(ctx, text, meta)
			c.record(ctx, p.Name(), err)
			return a, err
		})
	if err != nil {
		observe.Logger(ctx).Warn("all language providers failed, using rule-based substitute",
			"providers", c.group.Names(), "error", err)
		return neutralOutcome(attempts)
	}

	winner := attempts[len(attempts)-1].Provider
	return Outcome{
		Status:       StatusSuccess,
		Analysis:     analysis,
		Provider:     winner,
		FallbackUsed: winner != primary,
		Confidence:   successConfidence,
		Attempts:     attempts,
	}
}

// analyzeForced calls exactly one provider, skipping breakers and fallback.
func (c *Chain) analyzeForced(ctx context.Context, text string, meta language.Context) Outcome {
	p := c.byName[c.force]
	analysis, err := p.Analyze(ctx, text, meta)
	c.record(ctx, p.Name(), err)
	attempts := []resilience.Attempt{{Provider: p.Name(), Err: err}}
	if err != nil {
		slog.Warn("forced language provider failed, using rule-based substitute",
			"provider", p.Name(), "error", err)
		return neutralOutcome(attempts)
	}
	return Outcome{
		Status:     StatusSuccess,
		Analysis:   analysis,
		Provider:   p.Name(),
		Confidence: successConfidence,
		Attempts:   attempts,
	}
}

func (c *Chain) record(ctx context.Context, provider string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		c.metrics.RecordProviderError(ctx, provider, "language")
	}
	c.metrics.RecordProviderRequest(ctx, provider, "language", status)
}

// neutralOutcome is the deterministic substitute when no provider answered:
// all five indicators neutral at 0.5, zero coherence, zero confidence.
func neutralOutcome(attempts []resilience.Attempt) Outcome {
	indicators := make(types.Scores, len(types.IndicatorKinds()))
	for _, k := range types.IndicatorKinds() {
		indicators[k] = 0.5
	}
	return Outcome{
		Status: StatusFallback,
		Analysis: &language.Analysis{
			Indicators: indicators,
			Sentiment:  language.Sentiment{Neutral: 1},
			KeyTopics:  []string{"parsing/API error"},
			Coherence:  0,
		},
		Provider:     RuleBasedProvider,
		FallbackUsed: true,
		Confidence:   0,
		Attempts:     attempts,
	}
}
