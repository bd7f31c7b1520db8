// Package toolchain wraps the vendor command-line toolchain (arduino-cli)
// used to compile, upload, and manage libraries for a target board.
//
// All operations are blocking subprocess calls. A nonzero exit or a failed
// invocation is folded into the boolean result and the combined output text,
// never raised further; callers decide how to recover.
//
// The [Toolchain] interface has one production adapter ([ArduinoCLI]) and a
// deterministic test double ([Fake]), so the packages driving it can be
// exercised without a real toolchain installation.
package toolchain

import (
	"context"
	"os/exec"
	"strings"
)

// Toolchain is the capability interface for the vendor toolchain.
type Toolchain interface {
	// Compile builds the sketch at sketchPath for the given FQBN.
	// Returns the success flag and the combined stdout/stderr text.
	Compile(ctx context.Context, sketchPath, fqbn string) (bool, string)

	// Upload flashes the compiled sketch to the board on port.
	Upload(ctx context.Context, sketchPath, fqbn, port string) (bool, string)

	// ListInstalled returns the names of currently installed libraries.
	// A failed invocation yields an empty list.
	ListInstalled(ctx context.Context) []string

	// Install installs a library by name via the toolchain's library manager.
	Install(ctx context.Context, library string) bool

	// InstallArchive installs a library from a zip archive on disk.
	InstallArchive(ctx context.Context, zipPath string) (bool, string)
}

// ArduinoCLI is the production Toolchain backed by the arduino-cli binary.
type ArduinoCLI struct {
	path string
}

// NewArduinoCLI creates a toolchain wrapper around the arduino-cli binary at path.
func NewArduinoCLI(path string) *ArduinoCLI {
	return &ArduinoCLI{path: path}
}

// Compile builds the sketch for the given FQBN.
func (t *ArduinoCLI) Compile(ctx context.Context, sketchPath, fqbn string) (bool, string) {
	return t.run(ctx, "compile", "--fqbn", fqbn, sketchPath)
}

// Upload flashes the sketch to the board on port.
func (t *ArduinoCLI) Upload(ctx context.Context, sketchPath, fqbn, port string) (bool, string) {
	return t.run(ctx, "upload", "--fqbn", fqbn, "--port", port, sketchPath)
}

// ListInstalled returns installed library names, one per "lib list" output line.
func (t *ArduinoCLI) ListInstalled(ctx context.Context) []string {
	ok, output := t.run(ctx, "lib", "list")
	if !ok {
		return nil
	}

	var libs []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// First whitespace-separated field is the library name.
		libs = append(libs, strings.Fields(line)[0])
	}
	return libs
}

// Install installs a library by name via the library manager index.
func (t *ArduinoCLI) Install(ctx context.Context, library string) bool {
	ok, _ := t.run(ctx, "lib", "install", library)
	return ok
}

// InstallArchive installs a library from a local zip archive.
func (t *ArduinoCLI) InstallArchive(ctx context.Context, zipPath string) (bool, string) {
	return t.run(ctx, "lib", "install", "--zip-path", zipPath)
}

// run invokes the binary and returns success plus combined output.
// An invocation failure (binary missing, killed) reports the error text as output.
func (t *ArduinoCLI) run(ctx context.Context, args ...string) (bool, string) {
	cmd := exec.CommandContext(ctx, t.path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if len(output) == 0 {
			return false, err.Error()
		}
		return false, string(output)
	}
	return true, string(output)
}

// Ensure ArduinoCLI implements Toolchain.
var _ Toolchain = (*ArduinoCLI)(nil)
