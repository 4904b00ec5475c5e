package resolve

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AssetsFile is the asset bundle whose header carries the Unity version.
const AssetsFile = "resources.assets"

const (
	headerSize    = 28
	versionOffset = 20
)

// ErrMissingAssets is returned when the data directory has no asset bundle.
var ErrMissingAssets = errors.New("resources.assets not found")

// OldRuntimeError reports a game built with an unsupported Unity version.
type OldRuntimeError struct {
	Version string
}

func (e *OldRuntimeError) Error() string {
	return fmt.Sprintf("unity version %s is too old; update the game before installing", e.Version)
}

// ReadUnityVersion reads the runtime version from the asset bundle header
// in dataDir, e.g. "5.6.7f1".
func ReadUnityVersion(dataDir string) (string, error) {
	path := filepath.Join(dataDir, AssetsFile)
	f, err := os.Open(path) // #nosec G304 - path is the game data directory chosen by the user
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w in %s", ErrMissingAssets, dataDir)
		}
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return "", fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	return parseHeader(header)
}

func parseHeader(header []byte) (string, error) {
	if len(header) < headerSize {
		return "", fmt.Errorf("asset header too short: %d bytes", len(header))
	}
	version := string(bytes.TrimRight(header[versionOffset:headerSize], "\x00"))
	if version == "" {
		return "", errors.New("asset header has no version")
	}

	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return "", fmt.Errorf("unrecognized unity version %q", version)
	}
	if n < 5 {
		return "", &OldRuntimeError{Version: version}
	}
	return version, nil
}
