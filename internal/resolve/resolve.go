// Package resolve picks the downloadable variant of every content file for
// an install target.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/klauern/modsync/internal/model"
)

// Target describes the installation being resolved for.
type Target struct {
	Platform model.Platform
	// Steam is true for the Steam distribution channel.
	Steam bool
	// Runtime is the game's runtime version; empty when unknown.
	Runtime string
}

func (t Target) String() string {
	runtime := t.Runtime
	if runtime == "" {
		runtime = "unknown"
	}
	return fmt.Sprintf("platform=%s steam=%t unity=%s", t.Platform, t.Steam, runtime)
}

// Error reports a file that no override resolved to a URL.
type Error struct {
	Name string
	// Candidates lists every override that targeted Name, matching or not.
	Candidates []model.ModFileOverride
	Platform   model.Platform
	Steam      bool
	Runtime    string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no download resolved for %q (platform=%s steam=%t unity=%q)", e.Name, e.Platform, e.Steam, e.Runtime)
	if len(e.Candidates) == 0 {
		b.WriteString(": no overrides target this file")
		return b.String()
	}
	b.WriteString("; considered:")
	for _, c := range e.Candidates {
		fmt.Fprintf(&b, " %s %s", c.ID, c.Describe())
	}
	return b.String()
}

// Resolve applies overrides to base for target and returns the files in
// extraction order.
//
// Overrides are walked in declaration order and a later match replaces an
// earlier one, so the last matching override wins. The replacement keeps the
// base file's priority and native order.
func Resolve(base []model.ModFile, overrides []model.ModFileOverride, target Target) (*model.ResolvedFileList, error) {
	byName := make(map[string]model.ModFile, len(base))
	names := make([]string, 0, len(base))
	for _, f := range base {
		if _, seen := byName[f.Name]; !seen {
			names = append(names, f.Name)
		}
		byName[f.Name] = f
	}

	for _, o := range overrides {
		f, ok := byName[o.Name]
		if !ok {
			continue
		}
		if !o.Matches(target.Platform, target.Steam, target.Runtime) {
			continue
		}
		f.ID = o.ID
		f.URL = o.URL
		if o.RelativeExtractionPath != "" {
			f.RelativeExtractionPath = o.RelativeExtractionPath
		}
		byName[o.Name] = f
	}

	files := make([]model.ModFile, 0, len(names))
	for _, name := range names {
		files = append(files, byName[name])
	}

	// Native order first, then a stable sort by priority.
	sort.SliceStable(files, func(i, j int) bool { return files[i].NativeOrder < files[j].NativeOrder })
	sort.SliceStable(files, func(i, j int) bool { return files[i].Priority < files[j].Priority })

	if err := checkResolved(files, overrides, target); err != nil {
		return nil, err
	}
	return model.NewResolvedFileList(files), nil
}

// checkResolved reports the first file in native order that has no URL.
func checkResolved(files []model.ModFile, overrides []model.ModFileOverride, target Target) error {
	var failed *model.ModFile
	for i := range files {
		if files[i].Resolved() {
			continue
		}
		if failed == nil || files[i].NativeOrder < failed.NativeOrder {
			failed = &files[i]
		}
	}
	if failed == nil {
		return nil
	}

	var candidates []model.ModFileOverride
	for _, o := range overrides {
		if o.Name == failed.Name {
			candidates = append(candidates, o)
		}
	}
	return &Error{
		Name:       failed.Name,
		Candidates: candidates,
		Platform:   target.Platform,
		Steam:      target.Steam,
		Runtime:    target.Runtime,
	}
}
