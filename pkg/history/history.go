// Package history defines the append-only store of per-user indicator
// snapshots that feeds trend analysis.
package history

import (
	"context"
	"time"

	"github.com/maeumlabs/maeum/pkg/types"
)

// Store persists indicator snapshots keyed by user.
//
// Snapshots are append-only; a completed analysis appends exactly one. Trend
// analysis reads back the recent window in chronological order.
type Store interface {
	// Recent returns the user's snapshots from the last `days` days, oldest
	// first. A user with no history yields an empty slice, not an error.
	Recent(ctx context.Context, userID string, days int) ([]types.IndicatorSnapshot, error)

	// Append stores one snapshot for the user.
	Append(ctx context.Context, userID string, snap types.IndicatorSnapshot) error
}

// Window converts a day count into the cutoff timestamp for Recent queries.
func Window(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
