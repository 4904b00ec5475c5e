package model

import (
	"fmt"
	"sort"
	"strings"
)

// OptionType is the kind of action a mod option performs.
type OptionType string

const (
	// OptionDownloadAndExtract downloads an extra archive after the base plan.
	OptionDownloadAndExtract OptionType = "downloadAndExtract"
	// OptionKeepDownloads keeps the per-attempt download directory.
	OptionKeepDownloads OptionType = "keepDownloads"
)

// DownloadAndExtract is the payload of an OptionDownloadAndExtract option.
type DownloadAndExtract struct {
	URL                    string
	RelativeExtractionPath string
	Priority               int
}

// ModOption is a static catalog entry. It carries no selection state.
type ModOption struct {
	ID      string
	Group   string
	Name    string
	Type    OptionType
	IsRadio bool
	Data    *DownloadAndExtract
	// Description is free text shown next to the option.
	Description string
}

// NewModOption validates and builds an option. The id is derived from the
// group and name when empty.
func NewModOption(group, name string, typ OptionType, isRadio bool, data *DownloadAndExtract) (ModOption, error) {
	group = strings.TrimSpace(group)
	name = strings.TrimSpace(name)
	if name == "" {
		return ModOption{}, &ValidationError{Field: "name", Message: "option name cannot be empty"}
	}
	switch typ {
	case OptionDownloadAndExtract:
		if data == nil || strings.TrimSpace(data.URL) == "" {
			return ModOption{}, &ValidationError{Field: "data", Message: fmt.Sprintf("option %q needs a url", name)}
		}
	case OptionKeepDownloads:
	default:
		return ModOption{}, &ValidationError{Field: "type", Message: fmt.Sprintf("option %q has unknown type %q", name, typ)}
	}
	return ModOption{
		ID:      optionID(group, name),
		Group:   group,
		Name:    name,
		Type:    typ,
		IsRadio: isRadio,
		Data:    data,
	}, nil
}

func optionID(group, name string) string {
	if group == "" {
		return name
	}
	return group + ": " + name
}

// DefaultSelection selects the first radio option of every radio group.
func DefaultSelection(catalog []ModOption) Selection {
	seen := make(map[string]bool)
	var ids []string
	for _, o := range catalog {
		if o.IsRadio && !seen[o.Group] {
			seen[o.Group] = true
			ids = append(ids, o.ID)
		}
	}
	return NewSelection(ids...)
}

// Selection is an immutable set of selected option ids.
type Selection struct {
	ids map[string]struct{}
}

// With returns a new selection that also contains ids. Selecting a radio
// option drops any other selected option of the same group.
func (s Selection) With(catalog []ModOption, ids ...string) Selection {
	byID := make(map[string]ModOption, len(catalog))
	for _, o := range catalog {
		byID[o.ID] = o
	}
	replaced := make(map[string]bool)
	for _, id := range ids {
		if o, ok := byID[id]; ok && o.IsRadio {
			replaced[o.Group] = true
		}
	}

	next := make([]string, 0, len(s.ids)+len(ids))
	for id := range s.ids {
		if o, ok := byID[id]; ok && o.IsRadio && replaced[o.Group] {
			continue
		}
		next = append(next, id)
	}
	return NewSelection(append(next, ids...)...)
}

// NewSelection builds a selection from option ids. Blank ids are ignored.
func NewSelection(ids ...string) Selection {
	s := Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in lexical order.
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Validate checks every selected id exists in catalog and that at most one
// option per radio group is selected.
func (s Selection) Validate(catalog []ModOption) error {
	known := make(map[string]ModOption, len(catalog))
	for _, o := range catalog {
		known[o.ID] = o
	}
	radio := make(map[string]string)
	for _, id := range s.IDs() {
		o, ok := known[id]
		if !ok {
			return fmt.Errorf("unknown option %q", id)
		}
		if !o.IsRadio {
			continue
		}
		if prev, dup := radio[o.Group]; dup {
			return fmt.Errorf("options %q and %q are exclusive", prev, id)
		}
		radio[o.Group] = id
	}
	return nil
}

// Selected returns catalog entries whose ids are selected, in catalog order.
func (s Selection) Selected(catalog []ModOption) []ModOption {
	var out []ModOption
	for _, o := range catalog {
		if s.Has(o.ID) {
			out = append(out, o)
		}
	}
	return out
}
