// Package artifact abstracts the object store holding the pipeline's binary
// inputs and outputs: recorded audio to analyze, versioned deep-model files,
// and exported analysis reports.
package artifact

import (
	"context"
	"io"
)

// Store is a flat named-object store.
//
// Names are forward-slash separated paths ("models/dep_model_10500.bin",
// "recordings/2026/call-91.wav"). Implementations map them onto their
// backend's key scheme.
type Store interface {
	// Read opens the named object for reading. Returns an error wrapping
	// os.ErrNotExist if the object does not exist.
	Read(ctx context.Context, name string) (io.ReadCloser, error)

	// Write returns a writer that streams data into the named object,
	// replacing any existing content. The caller must close the writer to
	// complete the upload.
	Write(ctx context.Context, name string) (io.WriteCloser, error)

	// Delete removes the named object. Deleting a missing object is not an
	// error.
	Delete(ctx context.Context, name string) error

	// Exists reports whether the named object exists.
	Exists(ctx context.Context, name string) (bool, error)
}
