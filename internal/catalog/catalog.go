// Package catalog loads the install catalog describing every mod, its
// submods, their files, per-platform overrides and selectable options.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/model"
)

// SupportedVersion is the newest catalog format version understood.
const SupportedVersion = 2

const maxCatalogBytes = 32 << 20

// Format is the encoding of a catalog document.
type Format string

// Supported catalog encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrNotFound is returned by Find when no submod matches.
var ErrNotFound = errors.New("submod not found in catalog")

// Catalog is a parsed install catalog.
type Catalog struct {
	Version int
	SubMods []model.SubMod
}

// FormatFor picks the encoding from the extension of a path or URL.
// Unknown extensions are treated as JSON.
func FormatFor(source string) Format {
	p := source
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads a catalog from a local path or an http(s) URL.
func Load(ctx context.Context, client *http.Client, source string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if isRemote(source) {
		data, err = fetch(ctx, client, source)
	} else {
		data, err = os.ReadFile(filepath.Clean(source))
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", source, err)
	}

	c, err := Parse(data, FormatFor(source))
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", source, err)
	}
	logging.Debug("loaded catalog",
		logging.Path(source),
		logging.Count(len(c.SubMods)),
	)
	return c, nil
}

func fetch(ctx context.Context, client *http.Client, source string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", source, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
}

// Parse decodes a catalog document. Both the versioned object form
// {"version": N, "mods": [...]} and a bare list of mods are accepted.
func Parse(data []byte, format Format) (*Catalog, error) {
	doc, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	if doc.Version > SupportedVersion {
		return nil, fmt.Errorf("catalog version %d is newer than supported version %d", doc.Version, SupportedVersion)
	}
	return build(doc)
}

func decode(data []byte, format Format) (rawDocument, error) {
	var doc rawDocument
	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &doc.Mods); err != nil {
				return doc, err
			}
			return doc, nil
		}
		err := json.Unmarshal(trimmed, &doc)
		return doc, err
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return doc, err
		}
		if len(node.Content) == 0 {
			return doc, nil
		}
		root := node.Content[0]
		if root.Kind == yaml.SequenceNode {
			err := root.Decode(&doc.Mods)
			return doc, err
		}
		err := root.Decode(&doc)
		return doc, err
	case FormatTOML:
		// TOML has no top-level arrays, so only the object form exists.
		_, err := toml.Decode(string(data), &doc)
		return doc, err
	default:
		return doc, fmt.Errorf("unsupported catalog format %q", format)
	}
}

func build(doc rawDocument) (*Catalog, error) {
	c := &Catalog{Version: doc.Version}
	var seq model.Sequence
	for i, m := range doc.Mods {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("mod %d has no name", i)
		}
		for _, sm := range m.SubMods {
			sub, err := buildSubMod(&seq, m, sm)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", m.Name, sm.Name, err)
			}
			c.SubMods = append(c.SubMods, sub)
		}
	}
	return c, nil
}

func buildSubMod(seq *model.Sequence, m rawMod, sm rawSubMod) (model.SubMod, error) {
	if strings.TrimSpace(sm.Name) == "" {
		return model.SubMod{}, errors.New("submod has no name")
	}
	sub := model.SubMod{
		Family:     m.Family,
		ModName:    m.Name,
		SubModName: sm.Name,
		Target:     m.Target,
		DataName:   m.DataName,
	}

	for _, f := range sm.Files {
		cutoff, err := parseDate(f.SkipIfModNewerThan)
		if err != nil {
			return model.SubMod{}, fmt.Errorf("file %q: skipIfModNewerThan: %w", f.Name, err)
		}
		file, err := model.NewModFile(seq, model.ModFileSpec{
			Name:                   f.Name,
			ID:                     f.ID,
			URL:                    f.URL,
			Priority:               f.Priority,
			RelativeExtractionPath: f.RelativeExtractionPath,
			InstallOnRepair:        f.InstallOnRepair,
			SkipIfInstalledAfter:   cutoff,
		})
		if err != nil {
			return model.SubMod{}, err
		}
		sub.Files = append(sub.Files, file)
	}

	for _, o := range sm.FileOverrides {
		override, err := model.NewModFileOverride(model.ModFileOverrideSpec{
			Name:                   o.Name,
			ID:                     o.ID,
			Platforms:              o.OS,
			Steam:                  o.Steam,
			Runtime:                o.Unity,
			URL:                    o.URL,
			RelativeExtractionPath: o.RelativeExtractionPath,
		})
		if err != nil {
			return model.SubMod{}, err
		}
		sub.Overrides = append(sub.Overrides, override)
	}

	for _, g := range m.OptionGroups {
		if !g.appliesTo(sm.Name) {
			continue
		}
		typ := model.OptionType(g.Type)
		if typ != model.OptionDownloadAndExtract && typ != model.OptionKeepDownloads {
			logging.Debug("skipping unsupported option group",
				logging.Group(sub.GroupIdentity()),
				logging.Operation(g.Type),
			)
			continue
		}
		for _, set := range []struct {
			entries []rawOption
			radio   bool
		}{{g.Radio, true}, {g.CheckBox, false}} {
			for _, ro := range set.entries {
				opt, err := model.NewModOption(g.Name, ro.Name, typ, set.radio, ro.Data.payload())
				if err != nil {
					return model.SubMod{}, err
				}
				opt.Description = ro.Description
				sub.Options = append(sub.Options, opt)
			}
		}
	}
	return sub, nil
}

// Find returns the submod named sub of mod. Matching is case-insensitive.
func (c *Catalog) Find(mod, sub string) (model.SubMod, error) {
	for _, s := range c.SubMods {
		if strings.EqualFold(s.ModName, mod) && strings.EqualFold(s.SubModName, sub) {
			return s, nil
		}
	}
	return model.SubMod{}, fmt.Errorf("%w: %s/%s", ErrNotFound, mod, sub)
}

// Mods returns the distinct mod names in catalog order.
func (c *Catalog) Mods() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range c.SubMods {
		if !seen[s.ModName] {
			seen[s.ModName] = true
			out = append(out, s.ModName)
		}
	}
	return out
}

// SubModsOf returns every submod of mod in catalog order.
func (c *Catalog) SubModsOf(mod string) []model.SubMod {
	var out []model.SubMod
	for _, s := range c.SubMods {
		if strings.EqualFold(s.ModName, mod) {
			out = append(out, s)
		}
	}
	return out
}

// parseDate accepts RFC 3339 timestamps and bare dates. Empty is the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
