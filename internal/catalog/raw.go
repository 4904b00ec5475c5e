package catalog

import "github.com/klauern/modsync/internal/model"

// The raw types mirror the on-disk document. Keys are shared by all three
// encodings.

type rawDocument struct {
	Version int      `json:"version" yaml:"version" toml:"version"`
	Mods    []rawMod `json:"mods" yaml:"mods" toml:"mods"`
}

type rawMod struct {
	Family       string           `json:"family" yaml:"family" toml:"family"`
	Name         string           `json:"name" yaml:"name" toml:"name"`
	Target       string           `json:"target" yaml:"target" toml:"target"`
	DataName     string           `json:"dataname" yaml:"dataname" toml:"dataname"`
	Identifiers  []string         `json:"identifiers" yaml:"identifiers" toml:"identifiers"`
	SubMods      []rawSubMod      `json:"submods" yaml:"submods" toml:"submods"`
	OptionGroups []rawOptionGroup `json:"modOptionGroups" yaml:"modOptionGroups" toml:"modOptionGroups"`
}

type rawSubMod struct {
	Name          string            `json:"name" yaml:"name" toml:"name"`
	DescriptionID string            `json:"descriptionID" yaml:"descriptionID" toml:"descriptionID"`
	Files         []rawFile         `json:"files" yaml:"files" toml:"files"`
	FileOverrides []rawFileOverride `json:"fileOverrides" yaml:"fileOverrides" toml:"fileOverrides"`
}

type rawFile struct {
	Name                   string `json:"name" yaml:"name" toml:"name"`
	ID                     string `json:"id" yaml:"id" toml:"id"`
	URL                    string `json:"url" yaml:"url" toml:"url"`
	Priority               int    `json:"priority" yaml:"priority" toml:"priority"`
	RelativeExtractionPath string `json:"relativeExtractionPath" yaml:"relativeExtractionPath" toml:"relativeExtractionPath"`
	InstallOnRepair        bool   `json:"installOnRepair" yaml:"installOnRepair" toml:"installOnRepair"`
	SkipIfModNewerThan     string `json:"skipIfModNewerThan" yaml:"skipIfModNewerThan" toml:"skipIfModNewerThan"`
}

type rawFileOverride struct {
	Name                   string   `json:"name" yaml:"name" toml:"name"`
	ID                     string   `json:"id" yaml:"id" toml:"id"`
	OS                     []string `json:"os" yaml:"os" toml:"os"`
	Steam                  *bool    `json:"steam" yaml:"steam" toml:"steam"`
	Unity                  *string  `json:"unity" yaml:"unity" toml:"unity"`
	URL                    string   `json:"url" yaml:"url" toml:"url"`
	RelativeExtractionPath string   `json:"relativeExtractionPath" yaml:"relativeExtractionPath" toml:"relativeExtractionPath"`
}

type rawOptionGroup struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Type string `json:"type" yaml:"type" toml:"type"`
	// SubMods limits the group to the named submods; nil means all.
	SubMods  []string    `json:"submods" yaml:"submods" toml:"submods"`
	Radio    []rawOption `json:"radio" yaml:"radio" toml:"radio"`
	CheckBox []rawOption `json:"checkBox" yaml:"checkBox" toml:"checkBox"`
}

func (g rawOptionGroup) appliesTo(sub string) bool {
	if g.SubMods == nil {
		return true
	}
	for _, s := range g.SubMods {
		if s == sub {
			return true
		}
	}
	return false
}

type rawOption struct {
	Name        string         `json:"name" yaml:"name" toml:"name"`
	Description string         `json:"description" yaml:"description" toml:"description"`
	Data        *rawOptionData `json:"data" yaml:"data" toml:"data"`
	IsGlobal    bool           `json:"isGlobal" yaml:"isGlobal" toml:"isGlobal"`
}

type rawOptionData struct {
	URL                    string `json:"url" yaml:"url" toml:"url"`
	RelativeExtractionPath string `json:"relativeExtractionPath" yaml:"relativeExtractionPath" toml:"relativeExtractionPath"`
	Priority               int    `json:"priority" yaml:"priority" toml:"priority"`
}

func (d *rawOptionData) payload() *model.DownloadAndExtract {
	if d == nil {
		return nil
	}
	return &model.DownloadAndExtract{
		URL:                    d.URL,
		RelativeExtractionPath: d.RelativeExtractionPath,
		Priority:               d.Priority,
	}
}
