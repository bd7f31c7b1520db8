// Package archive downloads library source archives and feeds them to the
// toolchain's archive-install operation.
//
// The defining invariant: no downloaded archive survives past the call,
// success or failure. Many libraries can be installed over a long compile-fix
// run and the transient zips would otherwise accumulate without bound.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sketchforge/sketchforge/pkg/observability"
	"github.com/sketchforge/sketchforge/pkg/registry"
	"github.com/sketchforge/sketchforge/pkg/toolchain"
)

// DownloadError reports a non-200 response while fetching an archive.
type DownloadError struct {
	URL    string
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("archive: download %s: status %d", e.URL, e.Status)
}

// Installer downloads archives into a working directory and installs them
// through the toolchain.
type Installer struct {
	http      *http.Client
	toolchain toolchain.Toolchain
	dir       string
	logger    *log.Logger
}

// NewInstaller creates an installer that stages downloads under dir.
func NewInstaller(tc toolchain.Toolchain, dir string, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Installer{
		http:      &http.Client{Timeout: 5 * time.Minute},
		toolchain: tc,
		dir:       dir,
		logger:    logger,
	}
}

// Install downloads the archive, hands it to the toolchain, and deletes the
// downloaded file regardless of the install outcome. Deletion failure is
// logged as a warning, never escalated.
//
// Returns the toolchain's install success flag and combined output. A non-nil
// error means the archive never reached the toolchain (download or disk
// failure); an install refusal is reported through the flag and output.
func (i *Installer) Install(ctx context.Context, a *registry.Archive) (bool, string, error) {
	zipPath, err := i.download(ctx, a)
	if err != nil {
		return false, "", err
	}
	defer func() {
		if rmErr := os.Remove(zipPath); rmErr != nil {
			i.logger.Warn("could not delete downloaded archive", "path", zipPath, "error", rmErr)
		}
	}()

	i.logger.Debug("installing archive", "library", a.Library, "path", zipPath)
	ok, output := i.toolchain.InstallArchive(ctx, zipPath)
	return ok, output, nil
}

// download fetches the archive bytes to {dir}/{repo}-{branch}.zip.
func (i *Installer) download(ctx context.Context, a *registry.Archive) (string, error) {
	if err := os.MkdirAll(i.dir, 0755); err != nil {
		return "", fmt.Errorf("archive: create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.ZipURL, nil)
	if err != nil {
		return "", err
	}

	i.logger.Debug("downloading archive", "url", a.ZipURL)
	observability.HTTP().OnRequest(ctx, http.MethodGet, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := i.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, req.URL.Host, req.URL.Path, err)
		return "", fmt.Errorf("archive: download %s: %w", a.ZipURL, err)
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", &DownloadError{URL: a.ZipURL, Status: resp.StatusCode}
	}

	zipPath := filepath.Join(i.dir, a.Filename)
	f, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("archive: create %s: %w", zipPath, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(zipPath)
		return "", fmt.Errorf("archive: write %s: %w", zipPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(zipPath)
		return "", fmt.Errorf("archive: write %s: %w", zipPath, err)
	}

	return zipPath, nil
}
