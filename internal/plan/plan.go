// Package plan turns the update set into the ordered list of downloads
// and extractions for one install attempt.
package plan

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/klauern/modsync/internal/model"
	"github.com/klauern/modsync/internal/versions"
)

// Entry is one file to download and extract.
type Entry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Priority int    `json:"priority"`
	// ExtractionDir is relative to the install directory; "" is the root.
	ExtractionDir string `json:"extraction_dir,omitempty"`
	// Option is set for entries added by a selected mod option.
	Option string `json:"option,omitempty"`
}

// Plan lists entries in non-decreasing priority order. Consumers must not
// reorder it.
type Plan struct {
	Entries []Entry `json:"entries"`
}

// Len returns the number of entries.
func (p Plan) Len() int {
	return len(p.Entries)
}

// URLs returns every entry URL in plan order.
func (p Plan) URLs() []string {
	urls := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		urls = append(urls, e.URL)
	}
	return urls
}

// Validate checks that priorities never decrease and every entry has a URL.
func (p Plan) Validate() error {
	for i, e := range p.Entries {
		if e.URL == "" {
			return fmt.Errorf("plan entry %q has no url", e.ID)
		}
		if i > 0 && e.Priority < p.Entries[i-1].Priority {
			return fmt.Errorf("plan entry %q (priority %d) follows %q (priority %d)",
				e.ID, e.Priority, p.Entries[i-1].ID, p.Entries[i-1].Priority)
		}
	}
	return nil
}

// Build projects the update set onto the resolved order.
func Build(resolved *model.ResolvedFileList, updates versions.Result) (Plan, error) {
	var p Plan
	if resolved == nil {
		return p, nil
	}
	for _, f := range resolved.Files {
		if !updates.Decisions[f.ID].NeedsUpdate {
			continue
		}
		p.Entries = append(p.Entries, Entry{
			ID:            f.ID,
			Name:          f.Name,
			URL:           f.URL,
			Priority:      f.Priority,
			ExtractionDir: filepath.Clean(f.RelativeExtractionPath),
		})
	}
	for i := range p.Entries {
		if p.Entries[i].ExtractionDir == "." {
			p.Entries[i].ExtractionDir = ""
		}
	}
	return p, p.Validate()
}

// WithOptions appends the selected downloadAndExtract options after the base
// entries, ordered by their own priority. Their priorities are raised to at
// least the last base priority so the plan stays non-decreasing.
func WithOptions(p Plan, catalog []model.ModOption, selection model.Selection) (Plan, error) {
	if err := selection.Validate(catalog); err != nil {
		return p, err
	}

	var extras []model.ModOption
	for _, o := range selection.Selected(catalog) {
		if o.Type == model.OptionDownloadAndExtract {
			extras = append(extras, o)
		}
	}
	sort.SliceStable(extras, func(i, j int) bool { return extras[i].Data.Priority < extras[j].Data.Priority })

	out := Plan{Entries: append([]Entry(nil), p.Entries...)}
	floor := 0
	if n := len(out.Entries); n > 0 {
		floor = out.Entries[n-1].Priority
	}
	for _, o := range extras {
		priority := o.Data.Priority
		if priority < floor {
			priority = floor
		}
		dir := filepath.Clean(o.Data.RelativeExtractionPath)
		if dir == "." {
			dir = ""
		}
		out.Entries = append(out.Entries, Entry{
			ID:            o.ID,
			Name:          o.Name,
			URL:           o.Data.URL,
			Priority:      priority,
			ExtractionDir: dir,
			Option:        o.ID,
		})
		floor = priority
	}
	return out, out.Validate()
}

// KeepDownloads reports whether a selected option asks to keep downloads.
func KeepDownloads(catalog []model.ModOption, selection model.Selection) bool {
	for _, o := range selection.Selected(catalog) {
		if o.Type == model.OptionKeepDownloads {
			return true
		}
	}
	return false
}
