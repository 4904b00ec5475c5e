package model

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// ModFile is one logical content file of a group. Files sharing a Name are
// variants of the same content; overrides swap the URL and ID per target.
type ModFile struct {
	// Name is the stable key within a group.
	Name string `json:"name"`
	// ID is the unique key used in version manifests. Defaults to Name.
	ID string `json:"id"`
	// URL is empty until resolved (base entries may declare no URL).
	URL string `json:"url,omitempty"`
	// Priority is the extraction order: lower priorities are extracted
	// first and overwritten by higher ones. Not unique.
	Priority int `json:"priority"`
	// NativeOrder is the declaration order, used as a deterministic tie-break.
	NativeOrder int `json:"native_order"`
	// RelativeExtractionPath is relative to the install directory.
	RelativeExtractionPath string `json:"relative_extraction_path,omitempty"`
	// InstallOnRepair forces reinstallation when repair mode is enabled.
	InstallOnRepair bool `json:"install_on_repair,omitempty"`
	// SkipIfInstalledAfter suppresses an update when the mod was installed
	// after this date.
	SkipIfInstalledAfter time.Time `json:"skip_if_installed_after,omitzero"`
}

// Resolved reports whether a download URL has been chosen.
func (f ModFile) Resolved() bool {
	return f.URL != ""
}

// Sequence hands out declaration-order numbers for ModFiles.
type Sequence struct {
	next atomic.Int64
}

// Next returns the next native order value.
func (s *Sequence) Next() int {
	return int(s.next.Add(1) - 1)
}

// ModFileSpec is the declarative form of a ModFile.
type ModFileSpec struct {
	Name                   string
	ID                     string
	URL                    string
	Priority               int
	RelativeExtractionPath string
	InstallOnRepair        bool
	SkipIfInstalledAfter   time.Time
}

// NewModFile validates spec and assigns it the next native order from seq.
func NewModFile(seq *Sequence, spec ModFileSpec) (ModFile, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return ModFile{}, &ValidationError{Field: "name", Message: "mod file name cannot be empty"}
	}
	id := strings.TrimSpace(spec.ID)
	if id == "" {
		id = name
	}
	return ModFile{
		Name:                   name,
		ID:                     id,
		URL:                    strings.TrimSpace(spec.URL),
		Priority:               spec.Priority,
		NativeOrder:            seq.Next(),
		RelativeExtractionPath: spec.RelativeExtractionPath,
		InstallOnRepair:        spec.InstallOnRepair,
		SkipIfInstalledAfter:   spec.SkipIfInstalledAfter,
	}, nil
}

// ModFileOverride replaces the URL/ID of the ModFile with the same Name when
// every constraint matches the install target.
type ModFileOverride struct {
	Name      string            `json:"name"`
	ID        string            `json:"id"`
	Platforms map[Platform]bool `json:"-"`
	// Steam is the distribution-channel constraint; nil matches any channel.
	Steam *bool `json:"steam,omitempty"`
	// Runtime is an exact-match runtime version constraint; nil matches any.
	Runtime                *string `json:"unity,omitempty"`
	URL                    string  `json:"url"`
	RelativeExtractionPath string  `json:"relative_extraction_path,omitempty"`
}

// ModFileOverrideSpec is the declarative form of a ModFileOverride.
type ModFileOverrideSpec struct {
	Name                   string
	ID                     string
	Platforms              []string
	Steam                  *bool
	Runtime                *string
	URL                    string
	RelativeExtractionPath string
}

// NewModFileOverride validates spec and builds an override.
func NewModFileOverride(spec ModFileOverrideSpec) (ModFileOverride, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return ModFileOverride{}, &ValidationError{Field: "name", Message: "override name cannot be empty"}
	}
	id := strings.TrimSpace(spec.ID)
	if id == "" {
		return ModFileOverride{}, &ValidationError{Field: "id", Message: fmt.Sprintf("override for %q has no id", name)}
	}
	url := strings.TrimSpace(spec.URL)
	if url == "" {
		return ModFileOverride{}, &ValidationError{Field: "url", Message: fmt.Sprintf("override %q has no url", id)}
	}
	if len(spec.Platforms) == 0 {
		return ModFileOverride{}, &ValidationError{Field: "os", Message: fmt.Sprintf("override %q lists no platforms", id)}
	}

	platforms := make(map[Platform]bool, len(spec.Platforms))
	for _, raw := range spec.Platforms {
		p, err := ParsePlatform(raw)
		if err != nil {
			return ModFileOverride{}, &ValidationError{Field: "os", Message: fmt.Sprintf("override %q: %v", id, err)}
		}
		platforms[p] = true
	}

	return ModFileOverride{
		Name:                   name,
		ID:                     id,
		Platforms:              platforms,
		Steam:                  spec.Steam,
		Runtime:                spec.Runtime,
		URL:                    url,
		RelativeExtractionPath: spec.RelativeExtractionPath,
	}, nil
}

// Matches reports whether the override applies to the given target.
func (o ModFileOverride) Matches(platform Platform, steam bool, runtimeVersion string) bool {
	if !o.Platforms[platform] {
		return false
	}
	if o.Steam != nil && *o.Steam != steam {
		return false
	}
	if o.Runtime != nil && *o.Runtime != runtimeVersion {
		return false
	}
	return true
}

// Describe renders the override's constraints for diagnostics,
// e.g. "(steam: true, unity: 5.6.7f1)".
func (o ModFileOverride) Describe() string {
	var parts []string
	if o.Steam != nil {
		parts = append(parts, fmt.Sprintf("steam: %t", *o.Steam))
	}
	if o.Runtime != nil {
		parts = append(parts, "unity: "+*o.Runtime)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ValidationError reports an invalid catalog entry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
