// Package wordfreq reads weighted word frequencies from the wordfreq dataset
// so language models can be trained without a local corpus.
package wordfreq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultEndpoint is the PyPI metadata URL for the wordfreq package.
const DefaultEndpoint = "https://pypi.org/pypi/wordfreq/json"

// Wheel describes a cached wordfreq wheel.
type Wheel struct {
	Version  string
	Path     string
	Filename string
	Cached   bool
}

// Fetcher downloads wordfreq wheels into a local cache.
type Fetcher struct {
	Endpoint string
	Client   *http.Client
}

// NewFetcher returns a Fetcher pointed at PyPI.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Endpoint: DefaultEndpoint,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type release struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
	URLs []releaseFile `json:"urls"`
}

type releaseFile struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Packagetype string `json:"packagetype"`
}

// Latest resolves the newest wheel and stores it in cacheDir unless a file
// with the same name is already cached.
func (f *Fetcher) Latest(ctx context.Context, cacheDir string) (Wheel, error) {
	if cacheDir == "" {
		return Wheel{}, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Wheel{}, fmt.Errorf("failed to create cache dir: %w", err)
	}

	var rel release
	if err := f.get(ctx, f.Endpoint, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&rel)
	}); err != nil {
		return Wheel{}, fmt.Errorf("release metadata: %w", err)
	}
	if rel.Info.Version == "" {
		return Wheel{}, errors.New("missing version in release metadata")
	}
	file, ok := pickWheel(rel.URLs)
	if !ok {
		return Wheel{}, errors.New("no suitable wordfreq wheel found")
	}

	wheel := Wheel{Version: rel.Info.Version, Filename: file.Filename}
	wheel.Path = filepath.Join(cacheDir, filepath.Base(file.Filename))
	if _, err := os.Stat(wheel.Path); err == nil {
		wheel.Cached = true
		return wheel, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Wheel{}, fmt.Errorf("failed to stat cached wheel: %w", err)
	}

	tmp, err := os.CreateTemp(cacheDir, "wordfreq-*.whl")
	if err != nil {
		return Wheel{}, fmt.Errorf("failed to create temp wheel: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := f.get(ctx, file.URL, func(body io.Reader) error {
		_, err := io.Copy(tmp, body)
		return err
	}); err != nil {
		return Wheel{}, fmt.Errorf("download wheel: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Wheel{}, fmt.Errorf("failed to close temp wheel: %w", err)
	}
	if err := os.Rename(tmpPath, wheel.Path); err != nil {
		return Wheel{}, fmt.Errorf("failed to move wheel into cache: %w", err)
	}
	return wheel, nil
}

func (f *Fetcher) get(ctx context.Context, url string, consume func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return consume(resp.Body)
}

// pickWheel prefers the pure-python wheel and falls back to any wheel.
func pickWheel(files []releaseFile) (releaseFile, bool) {
	var fallback *releaseFile
	for i, file := range files {
		if file.Packagetype != "bdist_wheel" {
			continue
		}
		if strings.HasSuffix(file.Filename, "py3-none-any.whl") {
			return file, true
		}
		if fallback == nil {
			fallback = &files[i]
		}
	}
	if fallback == nil {
		return releaseFile{}, false
	}
	return *fallback, true
}
