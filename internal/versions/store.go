package versions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauern/modsync/internal/model"
)

// LocalFileName is the installed version manifest inside the install directory.
const LocalFileName = "installedVersionData.json"

// ErrCorrupt is returned by Load when the manifest exists but cannot be parsed.
var ErrCorrupt = errors.New("corrupt version data")

// Store persists the installed version manifest.
type Store struct {
	Path string
}

// NewStore returns a store for the manifest in installDir.
func NewStore(installDir string) *Store {
	return &Store{Path: filepath.Join(installDir, LocalFileName)}
}

// Load reads the manifest. It returns nil, nil when none has been written.
func (s *Store) Load() (*model.VersionManifest, error) {
	data, err := os.ReadFile(s.Path) // #nosec G304 - path is derived from the install directory
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read version data: %w", err)
	}

	var m model.VersionManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorrupt, s.Path, err)
	}
	return &m, nil
}

// ModTime returns when the manifest was last written, or the zero time when
// there is none.
func (s *Store) ModTime() time.Time {
	info, err := os.Stat(s.Path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Save replaces the manifest atomically via a temp file and rename.
func (s *Store) Save(m model.VersionManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal version data: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, LocalFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write version data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync version data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close version data: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("failed to replace version data: %w", err)
	}
	committed = true
	return nil
}
