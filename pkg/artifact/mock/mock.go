// Package mock provides an in-memory artifact.Store for tests.
package mock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/maeumlabs/maeum/pkg/artifact"
)

// Store is an in-memory implementation of artifact.Store.
// The zero value is ready to use.
type Store struct {
	mu      sync.Mutex
	objects map[string][]byte

	// ReadErr, WriteErr, DeleteErr and ExistsErr, if non-nil, are returned
	// by the corresponding method before touching the object map.
	ReadErr   error
	WriteErr  error
	DeleteErr error
	ExistsErr error

	// Reads records the names passed to Read, in order.
	Reads []string
}

// Seed stores content under name, replacing any existing object.
func (s *Store) Seed(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[name] = append([]byte(nil), content...)
}

// Read implements artifact.Store.
func (s *Store) Read(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads = append(s.Reads, name)
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("mock: read %s: %w", name, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Write implements artifact.Store.
func (s *Store) Write(_ context.Context, name string) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return nil, s.WriteErr
	}
	return &memWriter{store: s, name: name}, nil
}

// Delete implements artifact.Store.
func (s *Store) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.objects, name)
	return nil
}

// Exists implements artifact.Store.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ExistsErr != nil {
		return false, s.ExistsErr
	}
	_, ok := s.objects[name]
	return ok, nil
}

type memWriter struct {
	store *Store
	name  string
	buf   bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	w.store.Seed(w.name, w.buf.Bytes())
	return nil
}

// Ensure Store implements artifact.Store at compile time.
var _ artifact.Store = (*Store)(nil)
