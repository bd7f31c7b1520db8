// Package registry resolves library names to downloadable source archives.
//
// Resolution is a two-step dance with two unreliable collaborators: the
// oracle names the repository homepage (free text, run through
// [ExtractFirstURL]), and the hosting API supplies the default branch needed
// to compose an archive URL. Branch lookups are cached because the same
// library is frequently re-resolved across compile-fix iterations.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sketchforge/sketchforge/pkg/cache"
	"github.com/sketchforge/sketchforge/pkg/observability"
)

// Client queries the source-hosting API for repository metadata.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	baseURL string
	token   string
}

// NewClient creates a hosting API client.
// Pass a nil cache to disable lookup caching, and an empty token for
// unauthenticated requests (lower rate limits).
func NewClient(c cache.Cache, token string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   c,
		baseURL: "https://api.github.com",
		token:   token,
	}
}

// repoResponse is the subset of the repository API response we consume.
type repoResponse struct {
	DefaultBranch string `json:"default_branch"`
}

// DefaultBranch returns the repository's default branch name.
//
// Exactly one network round trip is made per uncached lookup. A non-200
// response is a hard failure reported as a [LookupError] carrying the status
// and body.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	key := cache.Key("branch", owner, repo)
	if data, hit, _ := c.cache.Get(ctx, key); hit {
		return string(data), nil
	}

	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	observability.HTTP().OnRequest(ctx, http.MethodGet, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, req.URL.Host, req.URL.Path, err)
		return "", fmt.Errorf("%w: %v", cache.ErrNetwork, err)
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &LookupError{Status: resp.StatusCode, Body: string(body)}
	}

	var data repoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode repository response: %w", err)
	}
	if data.DefaultBranch == "" {
		// The API omits the field for bare repositories; "main" is the
		// hosting provider's default for new repositories.
		data.DefaultBranch = "main"
	}

	_ = c.cache.Set(ctx, key, []byte(data.DefaultBranch), cache.TTLBranch)
	return data.DefaultBranch, nil
}
