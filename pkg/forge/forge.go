// Package forge implements the compile-fix loop for Stacktower-style sketch
// generation: resolve required libraries, compile, and on failure ask the
// oracle for a corrected source, bounded by a retry budget.
//
// # Architecture
//
// One run is a small state machine:
//
//	resolving → compiling → {success | requesting_fix → rewriting → resolving}
//
// with terminal states success and failure. Each iteration produces exactly
// one CompileAttempt; the budget caps the number of iterations, and transport
// failures along the way consume budget instead of being retried in place.
//
// # Usage
//
//	runner := forge.NewRunner(oracleClient, tc, resolver, logger)
//	result, err := runner.Run(ctx, forge.Options{
//	    SketchPath:  "blink/blink.ino",
//	    Board:       "Arduino Uno",
//	    FQBN:        "arduino:avr:uno",
//	    RetryBudget: 5,
//	})
//	if result.Success() {
//	    fmt.Println("compiled after", len(result.Attempts), "attempts")
//	}
package forge

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sketchforge/sketchforge/pkg/resolve"
)

// =============================================================================
// Defaults
// =============================================================================

// DefaultRetryBudget is the maximum number of compile attempts per run.
const DefaultRetryBudget = 5

// =============================================================================
// States
// =============================================================================

// State is a phase of the compile-fix loop.
type State string

const (
	StateResolving     State = "resolving"
	StateCompiling     State = "compiling"
	StateRequestingFix State = "requesting_fix"
	StateRewriting     State = "rewriting"
	StateSuccess       State = "success"
	StateFailure       State = "failure"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool { return s == StateSuccess || s == StateFailure }

// =============================================================================
// Options
// =============================================================================

// Options is the run configuration for one compile-fix loop. Board selection
// and sketch location are explicit per run rather than ambient state.
type Options struct {
	// SketchPath is the sketch source file. The on-disk file is the single
	// source of truth: the loop reads it at start and overwrites it after
	// every accepted fix.
	SketchPath string `json:"sketch_path"`

	// Board is the human-readable board name, used in oracle prompts.
	Board string `json:"board"`

	// FQBN is the toolchain's fully qualified board name.
	FQBN string `json:"fqbn"`

	// RetryBudget caps compile attempts. Zero means DefaultRetryBudget.
	RetryBudget int `json:"retry_budget,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.SketchPath == "" {
		return fmt.Errorf("sketch path is required")
	}
	if o.FQBN == "" {
		return fmt.Errorf("fqbn is required")
	}
	if o.Board == "" {
		o.Board = o.FQBN
	}
	if o.RetryBudget <= 0 {
		o.RetryBudget = DefaultRetryBudget
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Results
// =============================================================================

// CompileAttempt is one iteration's outcome. Immutable once created; the
// sequence of attempts is the run's audit trail.
type CompileAttempt struct {
	// Index is the zero-based attempt ordinal.
	Index int `json:"index"`

	// Succeeded reports whether this attempt's compile passed.
	Succeeded bool `json:"succeeded"`

	// Output is the combined stdout and stderr of the compile, or the
	// transport diagnostic when the attempt never reached the compiler.
	Output string `json:"output"`

	// Libraries records how this iteration's requirements resolved.
	Libraries []resolve.Outcome `json:"libraries,omitempty"`

	// Duration covers the whole iteration, resolution included.
	Duration time.Duration `json:"duration"`
}

// Result is the outcome of one compile-fix run.
type Result struct {
	// RunID uniquely identifies the run in logs and the project registry.
	RunID string `json:"run_id"`

	// State is the terminal state, StateSuccess or StateFailure.
	State State `json:"state"`

	// Attempts holds every compile attempt in order.
	Attempts []CompileAttempt `json:"attempts"`

	// FinalSource is the sketch source after the run.
	FinalSource string `json:"final_source"`

	// Duration is total wall-clock time for the run.
	Duration time.Duration `json:"duration"`
}

// Success reports whether the run reached a passing compile.
func (r *Result) Success() bool { return r.State == StateSuccess }

// LastOutput returns the most recent compile output, or "" before any attempt.
func (r *Result) LastOutput() string {
	if len(r.Attempts) == 0 {
		return ""
	}
	return r.Attempts[len(r.Attempts)-1].Output
}
