package forge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sketchforge/sketchforge/pkg/resolve"
	"github.com/sketchforge/sketchforge/pkg/toolchain"
)

type stubResolver struct {
	outcomes []resolve.Outcome
	calls    int
}

func (s *stubResolver) Resolve(ctx context.Context, libraries []string, board string) []resolve.Outcome {
	s.calls++
	if s.outcomes != nil {
		return s.outcomes
	}
	out := make([]resolve.Outcome, 0, len(libraries))
	for _, lib := range libraries {
		out = append(out, resolve.Outcome{Library: lib, Tier: resolve.TierAlreadyInstalled})
	}
	return out
}

// scriptedOracle answers library-list prompts with libs and fix prompts with
// successive entries from fixes. err fails every prompt; fixErr fails only
// fix prompts.
type scriptedOracle struct {
	libs     string
	fixes    []string
	fixCalls int
	err      error
	fixErr   error
}

func (s *scriptedOracle) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if strings.Contains(prompt, "compiler errors") {
		if s.fixErr != nil {
			return "", s.fixErr
		}
		s.fixCalls++
		if s.fixCalls <= len(s.fixes) {
			return s.fixes[s.fixCalls-1], nil
		}
		return "void setup() {}\nvoid loop() {}\n", nil
	}
	return s.libs, nil
}

func writeSketch(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.ino")
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunExhaustsBudgetOnPersistentFailure(t *testing.T) {
	path := writeSketch(t, "void setup() {}\n")
	tc := &toolchain.Fake{
		CompileFunc: func(sketchPath, fqbn string) (bool, string) {
			return false, "error: something is wrong"
		},
	}
	ora := &scriptedOracle{libs: "Servo"}
	runner := NewRunner(ora, tc, &stubResolver{}, nil)

	result, err := runner.Run(context.Background(), Options{
		SketchPath:  path,
		Board:       "Arduino Uno",
		FQBN:        "arduino:avr:uno",
		RetryBudget: 3,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.State != StateFailure {
		t.Errorf("State = %q, want %q", result.State, StateFailure)
	}
	if got := len(result.Attempts); got != 3 {
		t.Errorf("attempts = %d, want exactly 3", got)
	}
	if got := len(tc.CallsMatching("compile")); got != 3 {
		t.Errorf("compile invocations = %d, want exactly 3", got)
	}
	if result.LastOutput() != "error: something is wrong" {
		t.Errorf("LastOutput = %q", result.LastOutput())
	}
}

func TestRunSucceedsAtAttemptK(t *testing.T) {
	const k = 3
	path := writeSketch(t, "void setup() { broken\n")

	var compiles int
	tc := &toolchain.Fake{
		CompileFunc: func(sketchPath, fqbn string) (bool, string) {
			compiles++
			if compiles < k {
				return false, fmt.Sprintf("error %d", compiles)
			}
			return true, "Sketch uses 444 bytes"
		},
	}
	ora := &scriptedOracle{
		libs: "",
		fixes: []string{
			"```cpp\nvoid setup() { fix1; }\n```",
			"// header\nvoid setup() { fix2; }\nvoid loop() {}\n",
		},
	}
	runner := NewRunner(ora, tc, &stubResolver{}, nil)

	result, err := runner.Run(context.Background(), Options{
		SketchPath:  path,
		Board:       "Arduino Uno",
		FQBN:        "arduino:avr:uno",
		RetryBudget: 5,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.State != StateSuccess {
		t.Fatalf("State = %q, want %q", result.State, StateSuccess)
	}
	if got := len(result.Attempts); got != k {
		t.Errorf("attempts = %d, want exactly %d", got, k)
	}

	// The sketch on disk must be the sanitized form of the last fix.
	want := Sanitize(ora.fixes[len(ora.fixes)-1])
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != want {
		t.Errorf("on-disk sketch = %q, want %q", data, want)
	}
	if result.FinalSource != want {
		t.Errorf("FinalSource = %q, want %q", result.FinalSource, want)
	}
}

func TestRunSucceedsFirstAttemptWithoutOracleFix(t *testing.T) {
	path := writeSketch(t, "void setup() {}\nvoid loop() {}\n")
	tc := &toolchain.Fake{}
	ora := &scriptedOracle{libs: "Servo"}
	res := &stubResolver{}
	runner := NewRunner(ora, tc, res, nil)

	result, err := runner.Run(context.Background(), Options{
		SketchPath: path,
		Board:      "Arduino Uno",
		FQBN:       "arduino:avr:uno",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success() {
		t.Fatalf("State = %q", result.State)
	}
	if len(result.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(result.Attempts))
	}
	if ora.fixCalls != 0 {
		t.Errorf("fix requests = %d, want 0", ora.fixCalls)
	}
	if res.calls != 1 {
		t.Errorf("resolution passes = %d, want 1", res.calls)
	}
	if len(result.Attempts[0].Libraries) != 1 || result.Attempts[0].Libraries[0].Library != "Servo" {
		t.Errorf("attempt libraries = %+v", result.Attempts[0].Libraries)
	}
}

func TestRunFixRequestFailureEndsRun(t *testing.T) {
	path := writeSketch(t, "void setup() {}\n")
	original := "void setup() {}\n"
	tc := &toolchain.Fake{
		CompileFunc: func(sketchPath, fqbn string) (bool, string) {
			return false, "error: nope"
		},
	}
	ora := &scriptedOracle{libs: "Servo", fixErr: errors.New("quota exceeded")}
	runner := NewRunner(ora, tc, &stubResolver{}, nil)

	result, err := runner.Run(context.Background(), Options{
		SketchPath:  path,
		FQBN:        "arduino:avr:uno",
		RetryBudget: 3,
	})
	if err == nil {
		t.Fatal("Run returned nil error after a failed fix request")
	}
	if result.State != StateFailure {
		t.Errorf("State = %q, want %q", result.State, StateFailure)
	}
	// Terminal at the first failed fix request: no budget left to burn.
	if len(result.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(result.Attempts))
	}
	if got := len(tc.CallsMatching("compile")); got != 1 {
		t.Errorf("compile calls = %d, want 1", got)
	}

	// The sketch is never modified without a completed oracle round trip.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != original {
		t.Errorf("sketch modified despite oracle failure: %q", data)
	}
}

func TestRunLibraryQueryFailureDegradesToCompile(t *testing.T) {
	path := writeSketch(t, "void setup() {}\n")
	tc := &toolchain.Fake{}
	ora := &scriptedOracle{err: errors.New("quota exceeded")}
	res := &stubResolver{}
	runner := NewRunner(ora, tc, res, nil)

	result, err := runner.Run(context.Background(), Options{
		SketchPath:  path,
		FQBN:        "arduino:avr:uno",
		RetryBudget: 3,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success() {
		t.Errorf("State = %q, want %q", result.State, StateSuccess)
	}
	// The failed library query never reached the cascade; the compiler is
	// the arbiter of missing libraries.
	if res.calls != 0 {
		t.Errorf("resolution passes = %d, want 0", res.calls)
	}
}

func TestRunRequiresExistingSketch(t *testing.T) {
	runner := NewRunner(&scriptedOracle{}, &toolchain.Fake{}, &stubResolver{}, nil)
	_, err := runner.Run(context.Background(), Options{
		SketchPath: filepath.Join(t.TempDir(), "missing.ino"),
		FQBN:       "arduino:avr:uno",
	})
	if err == nil {
		t.Fatal("Run succeeded for a missing sketch")
	}
}

func TestRunRejectsConcurrentRunsOnSamePath(t *testing.T) {
	path := writeSketch(t, "void setup() {}\n")

	compileStarted := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	tc := &toolchain.Fake{
		CompileFunc: func(sketchPath, fqbn string) (bool, string) {
			// Only the first compile blocks; the post-release run below
			// must complete unimpeded.
			once.Do(func() {
				close(compileStarted)
				<-release
			})
			return true, "ok"
		},
	}
	runner := NewRunner(&scriptedOracle{}, tc, &stubResolver{}, nil)
	opts := Options{SketchPath: path, FQBN: "arduino:avr:uno"}

	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background(), opts)
		done <- err
	}()
	<-compileStarted

	_, err := runner.Run(context.Background(), opts)
	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second run err = %v, want ErrRunInProgress", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}

	// The lock is released once the first run finishes.
	result, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if !result.Success() {
		t.Errorf("third run state = %q", result.State)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{SketchPath: "x.ino", FQBN: "arduino:avr:uno"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.RetryBudget != DefaultRetryBudget {
		t.Errorf("RetryBudget = %d, want %d", opts.RetryBudget, DefaultRetryBudget)
	}
	if opts.Board != "arduino:avr:uno" {
		t.Errorf("Board default = %q", opts.Board)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	if err := (&Options{FQBN: "arduino:avr:uno"}).ValidateAndSetDefaults(); err == nil {
		t.Error("missing sketch path accepted")
	}
	if err := (&Options{SketchPath: "x.ino"}).ValidateAndSetDefaults(); err == nil {
		t.Error("missing fqbn accepted")
	}
}
