package toolchain

import (
	"context"
	"strings"
	"sync"
)

// Fake is a deterministic in-memory Toolchain for tests.
//
// Behavior is scripted through the function fields; unset fields fall back to
// a simple in-memory library index: Install succeeds and registers the name,
// Compile and Upload succeed, InstallArchive succeeds.
//
// Fake records every call so tests can assert on invocation order.
type Fake struct {
	CompileFunc        func(sketchPath, fqbn string) (bool, string)
	UploadFunc         func(sketchPath, fqbn, port string) (bool, string)
	ListInstalledFunc  func() []string
	InstallFunc        func(library string) bool
	InstallArchiveFunc func(zipPath string) (bool, string)

	mu        sync.Mutex
	installed []string
	Calls     []string
}

// Compile runs the scripted compile behavior.
func (f *Fake) Compile(_ context.Context, sketchPath, fqbn string) (bool, string) {
	f.record("compile " + sketchPath)
	if f.CompileFunc != nil {
		return f.CompileFunc(sketchPath, fqbn)
	}
	return true, "compile ok"
}

// Upload runs the scripted upload behavior.
func (f *Fake) Upload(_ context.Context, sketchPath, fqbn, port string) (bool, string) {
	f.record("upload " + port)
	if f.UploadFunc != nil {
		return f.UploadFunc(sketchPath, fqbn, port)
	}
	return true, "upload ok"
}

// ListInstalled returns the scripted or registered library names.
func (f *Fake) ListInstalled(_ context.Context) []string {
	f.record("lib list")
	if f.ListInstalledFunc != nil {
		return f.ListInstalledFunc()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.installed))
	copy(out, f.installed)
	return out
}

// Install installs a library into the in-memory index unless scripted otherwise.
func (f *Fake) Install(_ context.Context, library string) bool {
	f.record("lib install " + library)
	if f.InstallFunc != nil {
		return f.InstallFunc(library)
	}
	f.AddInstalled(library)
	return true
}

// InstallArchive runs the scripted archive install behavior.
func (f *Fake) InstallArchive(_ context.Context, zipPath string) (bool, string) {
	f.record("lib install --zip-path " + zipPath)
	if f.InstallArchiveFunc != nil {
		return f.InstallArchiveFunc(zipPath)
	}
	return true, "archive ok"
}

// AddInstalled registers a library name in the in-memory index.
func (f *Fake) AddInstalled(library string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installed = append(f.installed, library)
}

// CallsMatching returns recorded calls whose text has the given prefix.
func (f *Fake) CallsMatching(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

// Ensure Fake implements Toolchain.
var _ Toolchain = (*Fake)(nil)
