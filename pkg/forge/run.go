package forge

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sketchforge/sketchforge/pkg/observability"
	"github.com/sketchforge/sketchforge/pkg/oracle"
	"github.com/sketchforge/sketchforge/pkg/resolve"
	"github.com/sketchforge/sketchforge/pkg/sketch"
	"github.com/sketchforge/sketchforge/pkg/toolchain"
)

// LibraryResolver satisfies a set of library requirements for a board.
type LibraryResolver interface {
	Resolve(ctx context.Context, libraries []string, board string) []resolve.Outcome
}

var _ LibraryResolver = (*resolve.Resolver)(nil)

// Runner executes compile-fix loops.
//
// The Runner is stateless apart from its collaborators - it stores no run
// results. Multiple goroutines can use the same Runner for different sketch
// paths; runs against one path are mutually exclusive.
type Runner struct {
	Oracle    oracle.Oracle
	Toolchain toolchain.Toolchain
	Resolver  LibraryResolver
	Logger    *log.Logger
}

// NewRunner creates a runner with the given collaborators.
func NewRunner(o oracle.Oracle, tc toolchain.Toolchain, res LibraryResolver, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Oracle: o, Toolchain: tc, Resolver: res, Logger: logger}
}

// Run drives the compile-fix loop for the sketch named in opts until it
// compiles or the retry budget is spent.
//
// The sketch is read from disk at start; each accepted fix is persisted
// before the next iteration so external observers always see the latest
// source. Oracle transport failures are never retried in place: a failed
// library-list query degrades to compiling without resolution, while a
// failed fix request or sketch write ends the run with an error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	abs, err := acquireSketch(opts.SketchPath)
	if err != nil {
		return nil, err
	}
	defer releaseSketch(abs)

	sk, err := sketch.Load(abs)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID: uuid.NewString(),
		State: StateResolving,
	}
	start := time.Now()
	observability.Forge().OnRunStart(ctx, result.RunID, abs, opts.FQBN)
	logger.Info("starting compile-fix run",
		"run_id", result.RunID,
		"sketch", abs,
		"fqbn", opts.FQBN,
		"budget", opts.RetryBudget)

	for attempt := 0; attempt < opts.RetryBudget; attempt++ {
		observability.Forge().OnAttemptStart(ctx, result.RunID, attempt)
		attemptStart := time.Now()

		// Resolving. Requirements are re-derived from the current source
		// every iteration: a rewrite may pull in libraries the previous
		// source did not need.
		outcomes := r.resolveLibraries(ctx, result.RunID, sk.Source, opts.Board, logger)

		// Compiling.
		r.transition(ctx, result, StateCompiling)
		ok, output := r.Toolchain.Compile(ctx, sk.Path, opts.FQBN)
		ca := CompileAttempt{
			Index:     attempt,
			Succeeded: ok,
			Output:    output,
			Libraries: outcomes,
			Duration:  time.Since(attemptStart),
		}
		result.Attempts = append(result.Attempts, ca)
		observability.Forge().OnAttemptComplete(ctx, result.RunID, attempt, ok, ca.Duration)
		logger.Info("compile attempt finished",
			"run_id", result.RunID,
			"attempt", attempt+1,
			"success", ok)
		logger.Debug("compiler output", "run_id", result.RunID, "attempt", attempt+1, "output", output)

		if ok {
			r.transition(ctx, result, StateSuccess)
			break
		}
		if attempt == opts.RetryBudget-1 {
			r.transition(ctx, result, StateFailure)
			break
		}

		// Requesting fix. One oracle round trip; only a completed reply may
		// touch the sketch. A failed fix request is terminal: without a new
		// candidate source there is nothing further to compile.
		r.transition(ctx, result, StateRequestingFix)
		reply, err := r.Oracle.Generate(ctx, oracle.FixPrompt(output, sk.Source))
		if err != nil {
			r.transition(ctx, result, StateFailure)
			result.FinalSource = sk.Source
			result.Duration = time.Since(start)
			return result, fmt.Errorf("request fix: %w", err)
		}

		// Rewriting.
		r.transition(ctx, result, StateRewriting)
		sk.SetSource(Sanitize(reply))
		if err := sk.Save(); err != nil {
			r.transition(ctx, result, StateFailure)
			result.FinalSource = sk.Source
			result.Duration = time.Since(start)
			return result, err
		}
		r.transition(ctx, result, StateResolving)
	}

	result.FinalSource = sk.Source
	result.Duration = time.Since(start)
	observability.Forge().OnRunComplete(ctx, result.RunID, result.Success(), len(result.Attempts), result.Duration)
	logger.Info("compile-fix run finished",
		"run_id", result.RunID,
		"state", result.State,
		"attempts", len(result.Attempts),
		"duration", result.Duration)
	return result, nil
}

// resolveLibraries asks the oracle which libraries the source requires and
// walks the cascade for each. An oracle failure here is not fatal: the
// compile step will surface any genuinely missing library.
func (r *Runner) resolveLibraries(ctx context.Context, runID, source, board string, logger *log.Logger) []resolve.Outcome {
	reply, err := r.Oracle.Generate(ctx, oracle.LibraryListPrompt(source, board))
	if err != nil {
		logger.Warn("library requirement query failed", "run_id", runID, "error", err)
		return nil
	}
	libs := oracle.ParseLibraryList(reply)
	if len(libs) == 0 {
		return nil
	}
	logger.Debug("resolving libraries", "run_id", runID, "libraries", libs)

	outcomes := r.Resolver.Resolve(ctx, libs, board)
	for _, o := range outcomes {
		observability.Forge().OnLibraryResolved(ctx, runID, o.Library, string(o.Tier))
		if !o.Resolved() {
			logger.Warn("library could not be installed",
				"run_id", runID, "library", o.Library, "detail", o.Detail)
		}
	}
	return outcomes
}

func (r *Runner) transition(ctx context.Context, result *Result, to State) {
	observability.Forge().OnStateChange(ctx, result.RunID, string(result.State), string(to))
	result.State = to
}
