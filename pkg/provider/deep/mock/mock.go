// Package mock provides test doubles for the deep package interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/maeumlabs/maeum/pkg/provider/deep"
)

// LoadCall records a single invocation of Runtime.Load.
type LoadCall struct {
	// Ctx is the context passed to Load.
	Ctx context.Context
	// Path is the artifact path passed to Load.
	Path string
}

// Runtime is a mock implementation of deep.Runtime.
type Runtime struct {
	mu sync.Mutex

	// NameValue is returned by Name. Defaults to "mock" when empty.
	NameValue string

	// Model is returned by Load when LoadErr is nil. If nil, Load returns
	// a new default Model.
	Model deep.Model

	// LoadErr, if non-nil, is returned as the error from Load.
	LoadErr error

	// LoadCalls records every call to Load.
	LoadCalls []LoadCall
}

// Name returns NameValue or "mock".
func (r *Runtime) Name() string {
	if r.NameValue == "" {
		return "mock"
	}
	return r.NameValue
}

// Load records the call and returns Model, LoadErr.
func (r *Runtime) Load(ctx context.Context, path string) (deep.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.LoadCalls = append(r.LoadCalls, LoadCall{Ctx: ctx, Path: path})
	if r.LoadErr != nil {
		return nil, r.LoadErr
	}
	if r.Model != nil {
		return r.Model, nil
	}
	return &Model{}, nil
}

// Reset clears all recorded calls. Thread-safe.
func (r *Runtime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.LoadCalls = nil
}

// Ensure Runtime implements deep.Runtime at compile time.
var _ deep.Runtime = (*Runtime)(nil)

// InferCall records a single invocation of Model.Infer.
type InferCall struct {
	// Ctx is the context passed to Infer.
	Ctx context.Context
	// Path is the audio path passed to Infer.
	Path string
}

// Model is a mock implementation of deep.Model.
type Model struct {
	mu sync.Mutex

	// VersionValue is returned by Version. Defaults to "mock-1" when empty.
	VersionValue string

	// Result is returned by Infer when InferErr is nil.
	Result *deep.Result

	// InferErr, if non-nil, is returned as the error from Infer.
	InferErr error

	// InferCalls records every call to Infer.
	InferCalls []InferCall

	// Closed reports whether Close has been called.
	Closed bool
}

// Version returns VersionValue or "mock-1".
func (m *Model) Version() string {
	if m.VersionValue == "" {
		return "mock-1"
	}
	return m.VersionValue
}

// Infer records the call and returns Result, InferErr.
func (m *Model) Infer(ctx context.Context, path string) (*deep.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InferCalls = append(m.InferCalls, InferCall{Ctx: ctx, Path: path})
	if m.InferErr != nil {
		return nil, m.InferErr
	}
	return m.Result, nil
}

// Close marks the model closed.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Ensure Model implements deep.Model at compile time.
var _ deep.Model = (*Model)(nil)
