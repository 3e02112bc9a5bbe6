package health

import (
	"context"

	"github.com/maeumlabs/maeum/pkg/artifact"
	"github.com/maeumlabs/maeum/pkg/history"
)

// HistoryCheck probes the indicator history store with a cheap read for a
// user that never exists.
func HistoryCheck(store history.Store) Checker {
	return Checker{
		Name: "history",
		Check: func(ctx context.Context) error {
			_, err := store.Recent(ctx, "healthcheck", 1)
			return err
		},
	}
}

// ArtifactCheck probes the object store with an existence lookup.
func ArtifactCheck(store artifact.Store) Checker {
	return Checker{
		Name: "artifacts",
		Check: func(ctx context.Context) error {
			_, err := store.Exists(ctx, ".healthcheck")
			return err
		},
	}
}
