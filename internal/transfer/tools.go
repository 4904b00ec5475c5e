package transfer

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// ErrToolNotFound is returned when no candidate path for a tool exists.
var ErrToolNotFound = errors.New("tool not found")

// Locate returns the first candidate that resolves to an executable.
// Candidates may be bare names looked up on PATH or explicit paths.
func Locate(candidates ...string) (string, error) {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrToolNotFound, strings.Join(candidates, ", "))
}

// Downloader builds aria2c invocations.
type Downloader struct {
	Path string
	// Connections is the max connections per server (-x).
	Connections int
	// Split is the connections used per item (-s).
	Split int
	// Concurrent is the number of items downloaded in parallel (-j).
	Concurrent int
	RetryWait  time.Duration
	IPv6       bool
	// SummaryInterval forces periodic newline-terminated summaries; 0 omits it.
	SummaryInterval time.Duration
}

// DefaultDownloader returns the settings the installer ships with.
func DefaultDownloader(path string) Downloader {
	d := Downloader{
		Path:        path,
		Connections: 8,
		Split:       8,
		Concurrent:  1,
		RetryWait:   5 * time.Second,
	}
	// aria2c only flushes its console buffer on newlines on Linux.
	if runtime.GOOS == "linux" {
		d.SummaryInterval = 5 * time.Second
	}
	return d
}

// Args returns the arguments to download every URL listed in inputFile
// into dir. Metalinks are followed in memory with integrity checking.
func (d Downloader) Args(dir, inputFile string) []string {
	args := []string{
		"--file-allocation=none",
		"--continue=true",
		"--retry-wait=" + strconv.Itoa(int(d.RetryWait/time.Second)),
		"--max-tries=0",
		"-x", strconv.Itoa(max(d.Connections, 1)),
		"-s", strconv.Itoa(max(d.Split, 1)),
		"-j", strconv.Itoa(max(d.Concurrent, 1)),
		"--follow-metalink=mem",
		"--check-integrity=true",
	}
	if !d.IPv6 {
		args = append(args, "--disable-ipv6=true")
	}
	args = append(args, "-d", dir, "--input-file="+inputFile)
	if d.SummaryInterval > 0 {
		args = append(args, "--summary-interval="+strconv.Itoa(int(d.SummaryInterval/time.Second)))
	}
	return args
}

// Extractor builds 7z invocations.
type Extractor struct {
	Path string
}

// Args returns the arguments to extract archive into outDir, overwriting
// existing files. Progress goes to stdout and errors to stderr.
func (e Extractor) Args(archive, outDir string) []string {
	return []string{"x", archive, "-aoa", "-bso1", "-bsp1", "-bse2", "-o" + outDir}
}

// IsArchive reports whether name is handled by the archive tool rather than
// copied into place.
func IsArchive(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	return strings.Contains(lower, ".7z") || strings.Contains(lower, ".zip")
}
