// Package anyllm provides a language analysis provider backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports OpenAI, Anthropic, Gemini, Ollama, DeepSeek, Mistral, Groq, and more.
//
// Usage:
//
//	p, err := anyllm.NewGemini("gemini-2.0-flash", anyllmlib.WithAPIKey("..."))
//	p, err := anyllm.NewXAI("grok-2-latest", anyllmlib.WithAPIKey("xai-..."))
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/maeumlabs/maeum/pkg/provider/language"
)

// Analysis requests use a low temperature for score stability and enough
// completion budget for the full response schema plus interpretation text.
const (
	analysisTemperature = 0.3
	analysisMaxTokens   = 2000
)

// xaiBaseURL is the OpenAI-compatible endpoint of the xAI API.
const xaiBaseURL = "https://api.x.ai/v1"

// Provider implements language.Provider by wrapping github.com/mozilla-ai/any-llm-go.
type Provider struct {
	backend anyllmlib.Provider
	name    string
	model   string
}

// New creates a new Provider backed by the given LLM provider name.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama",
// "deepseek", "mistral", "groq", "xai".
//
// model is the specific model to use (e.g. "gemini-2.0-flash", "grok-2-latest").
//
// opts are any-llm-go configuration options (e.g. anyllmlib.WithAPIKey,
// anyllmlib.WithBaseURL). If no API key option is provided, the backend falls
// back to the relevant environment variable (GEMINI_API_KEY, XAI_API_KEY, ...).
func New(providerName string, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}

	return &Provider{backend: backend, name: strings.ToLower(providerName), model: model}, nil
}

// NewGemini creates a Provider backed by Google Gemini.
// Without options, it reads the GEMINI_API_KEY or GOOGLE_API_KEY environment variable.
func NewGemini(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("gemini", model, opts...)
}

// NewXAI creates a Provider backed by xAI's OpenAI-compatible API.
// Without options, it reads the OPENAI_API_KEY environment variable, so in
// practice pass anyllmlib.WithAPIKey with an xAI key.
func NewXAI(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("xai", model, opts...)
}

// NewAnthropic creates a Provider backed by Anthropic.
// Without options, it reads the ANTHROPIC_API_KEY environment variable.
func NewAnthropic(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("anthropic", model, opts...)
}

// NewOllama creates a Provider backed by Ollama (local inference).
// Without options, it connects to http://localhost:11434.
func NewOllama(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("ollama", model, opts...)
}

// createBackend creates the underlying any-llm-go provider for the given provider name.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "xai":
		// xAI speaks the OpenAI wire protocol on its own endpoint.
		return anyllmoai.New(append([]anyllmlib.Option{anyllmlib.WithBaseURL(xaiBaseURL)}, opts...)...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, xai, anthropic, gemini, ollama, deepseek, mistral, groq", providerName)
	}
}

// Name implements language.Provider.
func (p *Provider) Name() string {
	return p.name
}

// Analyze implements language.Provider.
func (p *Provider) Analyze(ctx context.Context, text string, meta language.Context) (*language.Analysis, error) {
	temperature := analysisTemperature
	maxTokens := analysisMaxTokens
	params := anyllmlib.CompletionParams{
		Model: p.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleSystem, Content: language.SystemPrompt()},
			{Role: anyllmlib.RoleUser, Content: language.UserPrompt(text, meta)},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}

	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("anyllm: empty choices in response")
	}

	analysis, err := language.ParseAnalysis(resp.Choices[0].Message.ContentString())
	if err != nil {
		return nil, fmt.Errorf("anyllm: %w", err)
	}
	return analysis, nil
}

// Ensure Provider implements language.Provider at compile time.
var _ language.Provider = (*Provider)(nil)
