package transfer

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/klauern/modsync/internal/cache"
	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/plan"
)

// Item is one file that lands in the download directory: a plan entry's
// archive, or one of the files a metalink entry expands to.
type Item struct {
	Entry    plan.Entry
	Filename string
	// Size is -1 when the server did not report a length.
	Size         int64
	FromMetalink bool
}

// Items is the probed extraction list in plan order.
type Items []Item

// TotalSize sums item sizes. known is false if any size is unknown.
func (it Items) TotalSize() (total int64, known bool) {
	known = true
	for _, i := range it {
		if i.Size < 0 {
			known = false
			continue
		}
		total += i.Size
	}
	return total, known
}

var dispositionPattern = regexp.MustCompile(`filename=(.*)`)

const (
	defaultProbeConcurrency = 4
	maxMetalinkBytes        = 4 << 20
)

// SizeProber discovers the filename and size of each plan entry without
// downloading it. Metalink documents are fetched and parsed instead.
type SizeProber struct {
	Client *http.Client
	// Cache is optional; entries are keyed by plan entry id.
	Cache       *cache.Cache
	Concurrency int
}

// NewSizeProber returns a prober with a client using timeout.
func NewSizeProber(c *cache.Cache, timeout time.Duration) *SizeProber {
	return &SizeProber{
		Client:      &http.Client{Timeout: timeout},
		Cache:       c,
		Concurrency: defaultProbeConcurrency,
	}
}

// Probe queries every entry concurrently and returns items in plan order.
func (p *SizeProber) Probe(ctx context.Context, entries []plan.Entry) (Items, error) {
	results := make([]Items, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	limit := p.Concurrency
	if limit <= 0 {
		limit = defaultProbeConcurrency
	}
	g.SetLimit(limit)

	for i, e := range entries {
		g.Go(func() error {
			items, err := p.probeEntry(gctx, e)
			if err != nil {
				return fmt.Errorf("querying %s: %w", e.URL, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if p.Cache != nil {
		if err := p.Cache.Save(); err != nil {
			logging.Warn("failed to save size cache", logging.Err(err), logging.Path(p.Cache.Path()))
		}
	}

	var out Items
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (p *SizeProber) probeEntry(ctx context.Context, e plan.Entry) (Items, error) {
	if IsMetalink(e.URL) {
		files, err := p.fetchMetalink(ctx, e.URL)
		if err != nil {
			return nil, err
		}
		items := make(Items, 0, len(files))
		for _, f := range files {
			items = append(items, Item{Entry: e, Filename: f.Name, Size: f.Size, FromMetalink: true})
		}
		return items, nil
	}

	if p.Cache != nil {
		if cached, ok := p.Cache.Get(e.ID, e.URL); ok && cached.Filename != "" {
			return Items{{Entry: e, Filename: cached.Filename, Size: cached.Size}}, nil
		}
	}

	resp, err := p.do(ctx, http.MethodHead, e.URL)
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close()

	name := filenameFromResponse(resp, e.URL)
	size := resp.ContentLength
	if p.Cache != nil && size >= 0 {
		p.Cache.Set(e.ID, e.URL, size, name)
	}
	return Items{{Entry: e, Filename: name, Size: size}}, nil
}

func (p *SizeProber) fetchMetalink(ctx context.Context, rawURL string) ([]MetalinkFile, error) {
	resp, err := p.do(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return ParseMetalink(io.LimitReader(resp.Body, maxMetalinkBytes))
}

func (p *SizeProber) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %s", method, rawURL, resp.Status)
	}
	return resp, nil
}

// filenameFromResponse prefers the Content-Disposition filename, then the
// base name of the final (post-redirect) URL, then the requested URL.
func filenameFromResponse(resp *http.Response, rawURL string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
		if m := dispositionPattern.FindStringSubmatch(cd); m != nil {
			name := strings.Trim(strings.TrimSpace(m[1]), `"';`)
			if name != "" {
				return path.Base(name)
			}
		}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		if name := urlBase(resp.Request.URL); name != "" {
			return name
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if name := urlBase(u); name != "" {
			return name
		}
	}
	return path.Base(rawURL)
}

func urlBase(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}
