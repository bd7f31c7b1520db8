// Package sketch models the program source being generated and fixed.
//
// The on-disk file is the single source of truth: external observers (the
// preview server, an editor) read the same path the compile loop writes, so
// every save must be atomic.
package sketch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sketch is a program source text bound to a storage location.
type Sketch struct {
	Path   string
	Source string
}

// Load reads the sketch at path.
func Load(path string) (*Sketch, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("sketch: read %s: %w", abs, err)
	}
	return &Sketch{Path: abs, Source: string(data)}, nil
}

// New binds source text to a path without touching disk. Call Save to persist.
func New(path, source string) (*Sketch, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Sketch{Path: abs, Source: source}, nil
}

// Save writes the current source to disk atomically: the text lands in a
// temp file in the same directory and is renamed over the target, so a
// concurrent reader sees either the old or the new content, never a torn
// write.
func (s *Sketch) Save() error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("sketch: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".sketch-*.tmp")
	if err != nil {
		return fmt.Errorf("sketch: temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(s.Source); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sketch: write %s: %w", s.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sketch: write %s: %w", s.Path, err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sketch: replace %s: %w", s.Path, err)
	}
	return nil
}

// SetSource replaces the in-memory source. The change is not visible to
// observers until Save.
func (s *Sketch) SetSource(source string) {
	s.Source = source
}

// Name returns the sketch's base name without the .ino extension.
func (s *Sketch) Name() string {
	return strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
}
