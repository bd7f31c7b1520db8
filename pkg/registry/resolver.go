package registry

import (
	"context"
	"fmt"
	"io"
	neturl "net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sketchforge/sketchforge/pkg/cache"
	"github.com/sketchforge/sketchforge/pkg/oracle"
)

// Archive describes a resolved, downloadable source archive for a library.
type Archive struct {
	Library string
	RepoURL string
	Owner   string
	Repo    string
	Branch  string

	// ZipURL is the composed archive location:
	// {repository-host}/{owner}/{repo}/archive/refs/heads/{branch}.zip
	ZipURL string

	// Filename is the canonical local name for the download: {repo}-{branch}.zip
	Filename string
}

// Resolver turns a library name into an [Archive] by asking the oracle for
// the repository homepage and the hosting API for the default branch.
// Successful homepage answers are cached; the mapping from library to
// repository is stable and the oracle round trip is the expensive part.
type Resolver struct {
	oracle oracle.Oracle
	client *Client
	cache  cache.Cache
	logger *log.Logger
}

// NewResolver creates a repository resolver.
// Pass a nil cache to disable homepage caching.
func NewResolver(o oracle.Oracle, client *Client, c cache.Cache, logger *log.Logger) *Resolver {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Resolver{oracle: o, client: client, cache: c, logger: logger}
}

// ResolveArchive resolves the archive location for library on the given board.
//
// Failure modes: [NoRepositoryError] when the oracle reply holds no URL,
// [InvalidRepoURLError] when the URL path is not exactly owner/repo, and
// [LookupError] when the hosting API refuses the branch lookup.
func (r *Resolver) ResolveArchive(ctx context.Context, library, board string) (*Archive, error) {
	repoURL, err := r.lookupHomepage(ctx, library, board)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("extracted repository URL", "library", library, "url", repoURL)

	owner, repo, host, err := splitRepoPath(repoURL)
	if err != nil {
		return nil, err
	}

	branch, err := r.client.DefaultBranch(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	return &Archive{
		Library:  library,
		RepoURL:  repoURL,
		Owner:    owner,
		Repo:     repo,
		Branch:   branch,
		ZipURL:   fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.zip", host, owner, repo, branch),
		Filename: fmt.Sprintf("%s-%s.zip", repo, branch),
	}, nil
}

// lookupHomepage returns the repository URL for library, asking the oracle
// only on a cache miss. Only extracted URLs are cached, never raw replies.
func (r *Resolver) lookupHomepage(ctx context.Context, library, board string) (string, error) {
	key := cache.Key("homepage", library, board)
	if data, hit, _ := r.cache.Get(ctx, key); hit {
		return string(data), nil
	}

	text, err := r.oracle.Generate(ctx, oracle.RepoHomepagePrompt(library, board))
	if err != nil {
		return "", fmt.Errorf("query repository URL for %q: %w", library, err)
	}

	repoURL := ExtractFirstURL(text)
	if repoURL == "" {
		return "", &NoRepositoryError{Library: library, OracleText: text}
	}

	_ = r.cache.Set(ctx, key, []byte(repoURL), cache.TTLOracle)
	return repoURL, nil
}

// splitRepoPath parses a repository homepage URL into owner and repo.
// Exactly two non-empty path segments are required after trimming separators.
func splitRepoPath(repoURL string) (owner, repo, host string, err error) {
	u, perr := neturl.Parse(repoURL)
	if perr != nil || u.Host == "" {
		return "", "", "", &InvalidRepoURLError{URL: repoURL}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", "", "", &InvalidRepoURLError{URL: repoURL}
	}

	return segments[0], segments[1], u.Scheme + "://" + u.Host, nil
}
