// SPDX-License-Identifier: MIT
// Package media resolves remote media locators into local readable
// files. It is a thin collaborator for the analysis pipeline: given a
// URL it produces a cached local copy or reports failure; it knows
// nothing about audio formats.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"pulse/internal/log"
)

// Fetcher downloads remote media into a content-addressed cache
// directory. Cache keys are derived from the URL, so the same locator is
// downloaded once and served locally afterwards.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching into cacheDir. The directory is
// created on first use.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 5 * time.Minute},
		cacheDir: cacheDir,
	}
}

// IsRemote reports whether target looks like a remote locator rather
// than a local file path.
func IsRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// Fetch returns a local path for rawURL, downloading it into the cache
// unless a cached copy already exists. The download is written to a
// temporary file and renamed into place, so a cached file is never
// partial.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("media: parsing %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("media: unsupported scheme %q", parsed.Scheme)
	}

	local := filepath.Join(f.cacheDir, cacheKey(rawURL))
	if _, err := os.Stat(local); err == nil {
		log.Debugf("media: cache hit for %s", rawURL)
		return local, nil
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("media: creating cache dir: %w", err)
	}

	log.Infof("media: downloading %s", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("media: building request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("media: fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media: fetching %s: unexpected status %s", rawURL, resp.Status)
	}

	tmp, err := os.CreateTemp(f.cacheDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("media: creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("media: downloading %s: %w", rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("media: closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, local); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("media: placing cached file: %w", err)
	}

	log.Infof("media: cached %s", local)
	return local, nil
}

// cacheKey hashes the URL and keeps its extension so downstream format
// detection by suffix still works.
func cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	ext := path.Ext(rawURL)
	if ext == "" || len(ext) > 8 {
		ext = ".wav"
	}
	return hex.EncodeToString(sum[:16]) + ext
}
