package forge

import (
	"context"
	"fmt"
	"strings"

	"github.com/sketchforge/sketchforge/pkg/oracle"
	"github.com/sketchforge/sketchforge/pkg/sketch"
)

// Generate asks the oracle for a complete sketch satisfying a natural-language
// request, sanitizes the reply, and persists it to sketchPath. The result is
// the starting point for a compile-fix run, not a guaranteed-compiling
// program.
func (r *Runner) Generate(ctx context.Context, request, board, sketchPath string) (*sketch.Sketch, error) {
	reply, err := r.Oracle.Generate(ctx, oracle.SketchPrompt(request, board))
	if err != nil {
		return nil, fmt.Errorf("generate sketch: %w", err)
	}
	source := Sanitize(reply)
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("generate sketch: oracle reply was empty after sanitization")
	}

	sk, err := sketch.New(sketchPath, source)
	if err != nil {
		return nil, err
	}
	if err := sk.Save(); err != nil {
		return nil, err
	}
	r.Logger.Info("sketch generated", "path", sk.Path, "bytes", len(source))
	return sk, nil
}
