package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Handle owns the on-disk copy of a classified image's bytes. It is created
// when an image is classified and must be released exactly once, via the
// store's Remove or Clear.
type Handle struct {
	path string
}

// Read returns the spooled image bytes.
func (h *Handle) Read() ([]byte, error) {
	return os.ReadFile(h.path)
}

// Release deletes the spooled file. Releasing an already-released handle is a no-op.
func (h *Handle) Release() error {
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release image file %s: %w", h.path, err)
	}
	return nil
}

// Spool writes classified image bytes to a working directory, one file per
// image, keyed by the image id.
type Spool struct {
	dir string
}

// NewSpool creates the spool directory if needed.
func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Write stores the image bytes and returns the owning handle.
func (s *Spool) Write(id string, data []byte) (*Handle, error) {
	path := filepath.Join(s.dir, id+".img")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to spool image %s: %w", id, err)
	}
	return &Handle{path: path}, nil
}
