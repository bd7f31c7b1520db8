package forge

import (
	"errors"
	"path/filepath"
	"sync"
)

// ErrRunInProgress is returned when a run is requested for a sketch that
// another run in this process already holds.
var ErrRunInProgress = errors.New("a run is already in progress for this sketch")

// sketchLocks serializes runs per resolved sketch path. The on-disk sketch is
// the loop's single source of truth, so two concurrent loops over one path
// would corrupt each other's rewrites.
var sketchLocks = struct {
	mu   sync.Mutex
	held map[string]struct{}
}{held: make(map[string]struct{})}

// acquireSketch claims the sketch path for the calling run. The path is
// resolved to absolute form first so "./blink.ino" and its absolute spelling
// contend for the same slot.
func acquireSketch(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	sketchLocks.mu.Lock()
	defer sketchLocks.mu.Unlock()
	if _, taken := sketchLocks.held[abs]; taken {
		return "", ErrRunInProgress
	}
	sketchLocks.held[abs] = struct{}{}
	return abs, nil
}

func releaseSketch(abs string) {
	sketchLocks.mu.Lock()
	defer sketchLocks.mu.Unlock()
	delete(sketchLocks.held, abs)
}
