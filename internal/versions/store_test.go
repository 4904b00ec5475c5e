package versions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/modsync/internal/model"
)

func TestStoreLoadMissing(t *testing.T) {
	s := NewStore(t.TempDir())
	m, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m != nil {
		t.Errorf("Load() = %v, want nil for first install", m)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "game")
	s := NewStore(dir)

	want := model.NewVersionManifest(group,
		model.FileVersionRecord{ID: "cg", Version: "1.0.0"},
		model.FileVersionRecord{ID: "script", Version: "6.1.0"},
	)
	if err := s.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.GroupIdentity != group || len(got.Records) != 2 {
		t.Errorf("Load() = %+v", got)
	}
	if v, _ := got.Version("script"); v != "6.1.0" {
		t.Errorf("script version = %q", v)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != LocalFileName {
		t.Errorf("directory has leftover files: %v", entries)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LocalFileName), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(dir).Load(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load() of corrupt file error = %v, want ErrCorrupt", err)
	}
}

func TestStoreModTime(t *testing.T) {
	s := NewStore(t.TempDir())
	if got := s.ModTime(); !got.IsZero() {
		t.Errorf("ModTime() without manifest = %v, want zero", got)
	}
	if err := s.Save(model.NewVersionManifest(group)); err != nil {
		t.Fatal(err)
	}
	if s.ModTime().IsZero() {
		t.Error("ModTime() after Save is zero")
	}
}
