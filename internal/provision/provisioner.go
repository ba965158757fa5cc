package provision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"parkd/internal/common/fsutil"
)

const defaultFetchTimeout = 60 * time.Second

// Config controls where the model artifact lives and where it is fetched from.
type Config struct {
	// URL is the fixed remote location of the artifact.
	URL string
	// Path is the artifact location on local disk.
	Path string
	// Client used for the download. Defaults to a client with a 60s timeout.
	Client *http.Client
}

// Provisioner ensures the model artifact exists on disk. The first Ensure may
// download it; once the artifact is present the resolved path is memoized and
// later calls touch neither storage nor network.
type Provisioner struct {
	cfg Config

	mu    sync.Mutex
	ready bool
	path  string

	downloads atomic.Uint64
}

func New(cfg Config) *Provisioner {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Provisioner{cfg: cfg}
}

// Ensure returns the local artifact path, fetching the artifact on first use.
// A failed transfer removes any partial file and surfaces immediately; there
// is no retry.
func (p *Provisioner) Ensure(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return p.path, nil
	}

	path, err := fsutil.ExpandHome(p.cfg.Path)
	if err != nil {
		return "", provisioningError{msg: err.Error()}
	}
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return "", provisioningError{msg: err.Error()}
	}
	if !fsutil.FileNonEmpty(path) {
		if err := p.download(ctx, path); err != nil {
			return "", err
		}
	}
	p.path = path
	p.ready = true
	return path, nil
}

// Downloads reports how many artifact transfers were performed. Used by
// tests and exported as a metric.
func (p *Provisioner) Downloads() uint64 { return p.downloads.Load() }

func (p *Provisioner) download(ctx context.Context, path string) error {
	if p.cfg.URL == "" {
		return provisioningError{msg: fmt.Sprintf("model artifact missing at %s and no model URL configured", path)}
	}
	p.downloads.Add(1)
	modelDownloadsTotal.Inc()
	log.Info().Str("url", p.cfg.URL).Str("path", path).Msg("downloading model artifact")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return provisioningError{msg: fmt.Sprintf("build download request: %v", err)}
	}
	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return provisioningError{msg: fmt.Sprintf("download model: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provisioningError{msg: fmt.Sprintf("download model: unexpected status %s", resp.Status)}
	}

	f, err := os.Create(path)
	if err != nil {
		return provisioningError{msg: fmt.Sprintf("create model file: %v", err)}
	}
	// Stream to disk in chunks; on any failure drop the partial file so a
	// later attempt starts clean.
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return provisioningError{msg: fmt.Sprintf("write model file: %v", err)}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return provisioningError{msg: fmt.Sprintf("close model file: %v", err)}
	}
	log.Info().Str("path", path).Msg("model artifact ready")
	return nil
}
