// Package mock provides an in-memory history.Store for tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/maeumlabs/maeum/pkg/history"
	"github.com/maeumlabs/maeum/pkg/types"
)

// Store is an in-memory implementation of history.Store.
// The zero value is ready to use.
type Store struct {
	mu        sync.Mutex
	snapshots map[string][]types.IndicatorSnapshot

	// RecentErr, if non-nil, is returned by Recent.
	RecentErr error

	// AppendErr, if non-nil, is returned by Append.
	AppendErr error

	// Now, if non-nil, replaces time.Now for window computation.
	Now func() time.Time
}

// Seed stores snapshots for userID, replacing any existing history.
func (s *Store) Seed(userID string, snaps []types.IndicatorSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshots == nil {
		s.snapshots = make(map[string][]types.IndicatorSnapshot)
	}
	s.snapshots[userID] = append([]types.IndicatorSnapshot(nil), snaps...)
}

// Recent implements history.Store.
func (s *Store) Recent(_ context.Context, userID string, days int) ([]types.IndicatorSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RecentErr != nil {
		return nil, s.RecentErr
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := history.Window(now(), days)
	var out []types.IndicatorSnapshot
	for _, snap := range s.snapshots[userID] {
		if !snap.Timestamp.Before(cutoff) {
			out = append(out, snap)
		}
	}
	return out, nil
}

// Append implements history.Store.
func (s *Store) Append(_ context.Context, userID string, snap types.IndicatorSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	if s.snapshots == nil {
		s.snapshots = make(map[string][]types.IndicatorSnapshot)
	}
	s.snapshots[userID] = append(s.snapshots[userID], snap)
	return nil
}

// Ensure Store implements history.Store at compile time.
var _ history.Store = (*Store)(nil)
