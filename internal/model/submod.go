package model

import "fmt"

// SubMod is one installable group: a content set for a given target game.
type SubMod struct {
	Family     string
	ModName    string
	SubModName string
	// Target is the game name the group installs into.
	Target string
	// DataName is the game's data directory name, e.g. "HigurashiEp01_Data".
	DataName  string
	Files     []ModFile
	Overrides []ModFileOverride
	Options   []ModOption
}

// GroupIdentity identifies the installed variant in version manifests.
func (s SubMod) GroupIdentity() string {
	return s.ModName + "/" + s.SubModName
}

// String implements fmt.Stringer.
func (s SubMod) String() string {
	return fmt.Sprintf("%s (%d files, %d overrides)", s.GroupIdentity(), len(s.Files), len(s.Overrides))
}

// Option returns the catalog option with the given id.
func (s SubMod) Option(id string) (ModOption, bool) {
	for _, o := range s.Options {
		if o.ID == id {
			return o, true
		}
	}
	return ModOption{}, false
}
