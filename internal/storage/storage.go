package storage

import (
	"io"
)

// Sink receives the files reconstructed by a download.
type Sink interface {
	// Create opens name for writing, truncating any existing file, and
	// returns the path it will be written to.
	Create(name string) (io.WriteCloser, string, error)
}
