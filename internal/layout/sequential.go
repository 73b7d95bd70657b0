package layout

import (
	"os"

	"github.com/moby/sys/sequential"
)

// sequentialCreate wraps moby/sys/sequential.Create, which on Windows opens
// the file with FILE_FLAG_SEQUENTIAL_SCAN (appropriate for a shim written
// once and never re-read concurrently) and is a plain os.Create elsewhere.
func sequentialCreate(path string) (*os.File, error) {
	return sequential.Create(path)
}
