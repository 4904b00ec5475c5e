package progress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Event is a classified line of tool or installer output.
type Event interface {
	// Kind names the event type for logs and observers.
	Kind() string
}

// OverallStatus is the installer's own status line.
type OverallStatus struct {
	Percent int
	Task    string
}

// DownloadProgress is a progress summary from the downloader.
type DownloadProgress struct {
	// Amount is the completed/total fraction, e.g. "400.0KiB/33.2MiB".
	Amount  string
	Percent int
	// ETA is "N/A" when the downloader did not report one.
	ETA         string
	Connections string
	Speed       string
}

// ArchiveProgress is a progress line from the archive tool.
type ArchiveProgress struct {
	Percent int
	// Items is 0 when the tool omitted the count.
	Items int
	File  string
}

// PlainLog is any line that matched no other pattern.
type PlainLog struct {
	Text string
}

func (OverallStatus) Kind() string    { return "status" }
func (DownloadProgress) Kind() string { return "download" }
func (ArchiveProgress) Kind() string  { return "archive" }
func (PlainLog) Kind() string         { return "log" }

var (
	statusPattern   = regexp.MustCompile(`^<<< Status: (\d{1,3})% \[\[(.*)\]\] >>>$`)
	downloadPattern = regexp.MustCompile(`#[0-9a-zA-Z]+\s+([^/\s]+/[^/(\s]+)\((100|\d\d|\d)%\)`)
	etaPattern      = regexp.MustCompile(`ETA:([^\]\s]+)`)
	connPattern     = regexp.MustCompile(`CN:(\d+)`)
	speedPattern    = regexp.MustCompile(`DL:([^\s\]]+)`)
	archivePattern  = regexp.MustCompile(`^\s*(\d{1,3})%(?:\s+(\d+))?\s+-\s+(.+)$`)
	checksumPattern = regexp.MustCompile(`Checksum error detected\.\s*file=(.*)`)
)

// Classify turns one output line into an event. Patterns are tried in a
// fixed order and the first match wins; unmatched lines become PlainLog.
func Classify(line string) Event {
	line = strings.TrimRight(line, "\r\n")
	for _, try := range []func(string) (Event, bool){
		parseStatus,
		parseDownload,
		parseArchive,
	} {
		if ev, ok := try(line); ok {
			return ev
		}
	}
	return PlainLog{Text: line}
}

// FormatStatus renders an overall status line that Classify parses back.
func FormatStatus(percent int, task string) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return fmt.Sprintf("<<< Status: %d%% [[%s]] >>>", percent, task)
}

// ChecksumFailure reports the file named in a downloader checksum error.
func ChecksumFailure(line string) (string, bool) {
	m := checksumPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func parseStatus(line string) (Event, bool) {
	m := statusPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, false
	}
	pct, ok := percent(m[1])
	if !ok {
		return nil, false
	}
	return OverallStatus{Percent: pct, Task: m[2]}, true
}

func parseDownload(line string) (Event, bool) {
	m := downloadPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	pct, ok := percent(m[2])
	if !ok {
		return nil, false
	}
	ev := DownloadProgress{Amount: m[1], Percent: pct, ETA: "N/A"}
	if eta := etaPattern.FindStringSubmatch(line); eta != nil {
		ev.ETA = eta[1]
	}
	if cn := connPattern.FindStringSubmatch(line); cn != nil {
		ev.Connections = cn[1]
	}
	if dl := speedPattern.FindStringSubmatch(line); dl != nil {
		ev.Speed = dl[1]
	}
	return ev, true
}

func parseArchive(line string) (Event, bool) {
	m := archivePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	pct, ok := percent(m[1])
	if !ok {
		return nil, false
	}
	items := 0
	if m[2] != "" {
		items, _ = strconv.Atoi(m[2])
	}
	return ArchiveProgress{Percent: pct, Items: items, File: strings.TrimSpace(m[3])}, true
}

func percent(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}
