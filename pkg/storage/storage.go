// Package storage abstracts where a call's byproducts end up: the WAV
// recording and the JSON call-log record calllog/callagent write after
// every call. A FileStore implementation picks the destination — local
// disk for a single-box deployment, S3 for one that archives recordings
// centrally — without either caller needing to know which.
package storage

import (
	"context"
	"io"
)

// FileStore reads and writes whole files addressed by a forward-slash
// path relative to the store's root. Implementations must be safe for
// concurrent use, since a call agent may be writing several calls' worth
// of recordings at once.
type FileStore interface {
	// Read opens path for reading; the caller closes it when done. Read
	// returns an error wrapping os.ErrNotExist if path is absent.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens path for writing, truncating it if present and creating
	// any missing parent directories. The caller must Close the returned
	// WriteCloser for the write to take effect.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes path; deleting an already-absent path is not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether path is present.
	Exists(ctx context.Context, path string) (bool, error)
}
