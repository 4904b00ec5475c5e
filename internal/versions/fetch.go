package versions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauern/modsync/internal/model"
)

// ErrRemoteManifest wraps every failure to obtain the remote manifest.
var ErrRemoteManifest = errors.New("remote version data unavailable")

const maxManifestBytes = 16 << 20

// Fetcher downloads the remote versionData.json, a JSON array with one
// manifest per group.
type Fetcher struct {
	Client *http.Client
	URL    string
}

// NewFetcher returns a fetcher with a client using timeout.
func NewFetcher(url string, timeout time.Duration) *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: timeout}, URL: url}
}

// Fetch returns the manifest whose id equals group.
func (f *Fetcher) Fetch(ctx context.Context, group string) (model.VersionManifest, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return model.VersionManifest{}, fmt.Errorf("%w: %v", ErrRemoteManifest, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return model.VersionManifest{}, fmt.Errorf("%w: %v", ErrRemoteManifest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.VersionManifest{}, fmt.Errorf("%w: GET %s: %s", ErrRemoteManifest, f.URL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return model.VersionManifest{}, fmt.Errorf("%w: reading %s: %v", ErrRemoteManifest, f.URL, err)
	}

	var manifests []model.VersionManifest
	if err := json.Unmarshal(body, &manifests); err != nil {
		return model.VersionManifest{}, fmt.Errorf("%w: decoding %s: %v", ErrRemoteManifest, f.URL, err)
	}
	for _, m := range manifests {
		if m.GroupIdentity == group {
			return m, nil
		}
	}
	return model.VersionManifest{}, fmt.Errorf("%w: no entry for %q in %s", ErrRemoteManifest, group, f.URL)
}
