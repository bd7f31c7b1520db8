// Package resolve satisfies library requirements through a tiered cascade:
// already installed, package-manager install, then source-archive install.
package resolve

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sketchforge/sketchforge/pkg/archive"
	"github.com/sketchforge/sketchforge/pkg/registry"
	"github.com/sketchforge/sketchforge/pkg/toolchain"
)

// Tier identifies which cascade strategy resolved a library.
type Tier string

const (
	TierAlreadyInstalled Tier = "already_installed"
	TierPackageManager   Tier = "package_manager"
	TierSourceArchive    Tier = "source_archive"
	TierFailed           Tier = "failed"
)

// Outcome records how one library requirement was (or was not) satisfied.
// Outcomes are created fresh on every resolution pass; a pass never trusts
// results from an earlier one.
type Outcome struct {
	Library string
	Tier    Tier

	// RepoURL is set when the source-archive tier resolved a repository,
	// even if the subsequent download or install failed.
	RepoURL string

	// Detail carries the diagnostic from whichever step failed, or install
	// output for the archive tier.
	Detail string
}

// Resolved reports whether the library ended up installed.
func (o Outcome) Resolved() bool { return o.Tier != TierFailed }

// ArchiveResolver locates a downloadable source archive for a library.
type ArchiveResolver interface {
	ResolveArchive(ctx context.Context, library, board string) (*registry.Archive, error)
}

// ArchiveInstaller downloads and installs a resolved archive.
type ArchiveInstaller interface {
	Install(ctx context.Context, a *registry.Archive) (bool, string, error)
}

var (
	_ ArchiveResolver  = (*registry.Resolver)(nil)
	_ ArchiveInstaller = (*archive.Installer)(nil)
)

// Resolver walks the cascade for each requirement.
type Resolver struct {
	toolchain toolchain.Toolchain
	repos     ArchiveResolver
	installer ArchiveInstaller
	logger    *log.Logger
}

// NewResolver wires the cascade's collaborators together.
func NewResolver(tc toolchain.Toolchain, repos ArchiveResolver, installer ArchiveInstaller, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Resolver{toolchain: tc, repos: repos, installer: installer, logger: logger}
}

// Resolve produces exactly one Outcome per library, in input order. A failure
// for one library never halts resolution of the rest.
func (r *Resolver) Resolve(ctx context.Context, libraries []string, board string) []Outcome {
	outcomes := make([]Outcome, 0, len(libraries))
	for _, lib := range libraries {
		outcomes = append(outcomes, r.resolveOne(ctx, lib, board))
	}
	return outcomes
}

func (r *Resolver) resolveOne(ctx context.Context, library, board string) Outcome {
	// Tier 1: already installed. Queried fresh every pass; installs from a
	// prior iteration are re-verified, never assumed.
	if installedContains(r.toolchain.ListInstalled(ctx), library) {
		r.logger.Debug("library already installed", "library", library)
		return Outcome{Library: library, Tier: TierAlreadyInstalled}
	}

	// Tier 2: package-manager install. The install's own success report is
	// not trusted; only a matching entry in a fresh installed list counts.
	if r.toolchain.Install(ctx, library) {
		if installedContains(r.toolchain.ListInstalled(ctx), library) {
			r.logger.Info("installed via package manager", "library", library)
			return Outcome{Library: library, Tier: TierPackageManager}
		}
		r.logger.Warn("package manager reported success but library not listed", "library", library)
	}

	// Tier 3: source archive.
	arch, err := r.repos.ResolveArchive(ctx, library, board)
	if err != nil {
		r.logger.Warn("could not resolve source repository", "library", library, "error", err)
		return Outcome{Library: library, Tier: TierFailed, Detail: err.Error()}
	}

	ok, output, err := r.installer.Install(ctx, arch)
	if err != nil {
		return Outcome{Library: library, Tier: TierFailed, RepoURL: arch.RepoURL, Detail: err.Error()}
	}
	if !ok {
		return Outcome{Library: library, Tier: TierFailed, RepoURL: arch.RepoURL, Detail: output}
	}
	r.logger.Info("installed from source archive", "library", library, "repo", arch.RepoURL)
	return Outcome{Library: library, Tier: TierSourceArchive, RepoURL: arch.RepoURL, Detail: output}
}

func installedContains(installed []string, library string) bool {
	for _, name := range installed {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(library)) {
			return true
		}
	}
	return false
}
