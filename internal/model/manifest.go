package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FileVersionRecord is an opaque version tag for one file id.
// Versions are compared only for equality.
type FileVersionRecord struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// VersionManifest records which file versions make up an installed group.
type VersionManifest struct {
	GroupIdentity string
	Records       map[string]FileVersionRecord
}

// NewVersionManifest builds a manifest from records. Later records with the
// same id replace earlier ones.
func NewVersionManifest(group string, records ...FileVersionRecord) VersionManifest {
	m := VersionManifest{GroupIdentity: group, Records: make(map[string]FileVersionRecord, len(records))}
	for _, r := range records {
		m.Records[r.ID] = r
	}
	return m
}

// Version returns the version recorded for id.
func (m VersionManifest) Version(id string) (string, bool) {
	r, ok := m.Records[id]
	return r.Version, ok
}

// Only returns a copy of m restricted to ids. Ids without a record are
// ignored.
func (m VersionManifest) Only(ids ...string) VersionManifest {
	out := VersionManifest{GroupIdentity: m.GroupIdentity, Records: make(map[string]FileVersionRecord, len(ids))}
	for _, id := range ids {
		if r, ok := m.Records[id]; ok {
			out.Records[id] = r
		}
	}
	return out
}

// SortedIDs returns the record ids in lexical order.
func (m VersionManifest) SortedIDs() []string {
	ids := make([]string, 0, len(m.Records))
	for id := range m.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type manifestWire struct {
	ID    string              `json:"id"`
	Files []FileVersionRecord `json:"files"`
}

// MarshalJSON writes the versionData.json shape with files sorted by id.
func (m VersionManifest) MarshalJSON() ([]byte, error) {
	w := manifestWire{ID: m.GroupIdentity, Files: make([]FileVersionRecord, 0, len(m.Records))}
	for _, id := range m.SortedIDs() {
		w.Files = append(w.Files, m.Records[id])
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the versionData.json shape.
func (m *VersionManifest) UnmarshalJSON(data []byte) error {
	var w manifestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == "" {
		return fmt.Errorf("version manifest has no id")
	}
	*m = NewVersionManifest(w.ID, w.Files...)
	return nil
}
