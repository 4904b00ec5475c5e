package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVersionManifestJSON(t *testing.T) {
	data := []byte(`{"id":"Onikakushi Ch.1/full","files":[{"id":"script","version":"6.1.0"},{"id":"cg","version":"1.0.0"}]}`)

	var m VersionManifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m.GroupIdentity != "Onikakushi Ch.1/full" {
		t.Errorf("GroupIdentity = %q", m.GroupIdentity)
	}
	if v, ok := m.Version("cg"); !ok || v != "1.0.0" {
		t.Errorf("Version(cg) = %q, %v", v, ok)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"id":"Onikakushi Ch.1/full","files":[{"id":"cg","version":"1.0.0"},{"id":"script","version":"6.1.0"}]}`
	if string(out) != want {
		t.Errorf("Marshal() = %s\nwant %s", out, want)
	}
}

func TestVersionManifestRejectsMissingID(t *testing.T) {
	var m VersionManifest
	err := json.Unmarshal([]byte(`{"files":[]}`), &m)
	if err == nil || !strings.Contains(err.Error(), "no id") {
		t.Errorf("Unmarshal() error = %v, want missing id error", err)
	}
}

func TestResolvedFileListDuplicates(t *testing.T) {
	l := NewResolvedFileList([]ModFile{{ID: "x"}, {ID: "y"}, {ID: "x"}, {ID: "x"}})

	dups := l.DuplicateIDs()
	if len(dups) != 1 || dups[0] != "x" {
		t.Errorf("DuplicateIDs() = %v, want [x]", dups)
	}
	if _, ok := l.ByID("y"); !ok {
		t.Error("ByID(y) not found")
	}
	if _, ok := l.ByID("z"); ok {
		t.Error("ByID(z) should not be found")
	}

	var nilList *ResolvedFileList
	if nilList.Len() != 0 || nilList.IDs() != nil {
		t.Error("nil list should be empty")
	}
}

func TestVersionManifestOnly(t *testing.T) {
	m := NewVersionManifest("g",
		FileVersionRecord{ID: "ui-5", Version: "1"},
		FileVersionRecord{ID: "ui-2017", Version: "1"},
		FileVersionRecord{ID: "cg", Version: "2"},
	)
	got := m.Only("cg", "ui-5", "missing")
	if got.GroupIdentity != "g" {
		t.Errorf("GroupIdentity = %q", got.GroupIdentity)
	}
	if ids := got.SortedIDs(); len(ids) != 2 || ids[0] != "cg" || ids[1] != "ui-5" {
		t.Errorf("Only() ids = %v, want [cg ui-5]", ids)
	}
	if len(m.Records) != 3 {
		t.Error("Only() modified the receiver")
	}
}
