package transfer

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDownloaderArgs(t *testing.T) {
	d := Downloader{Path: "aria2c", Connections: 8, Split: 8, Concurrent: 1, RetryWait: 5 * time.Second, SummaryInterval: 5 * time.Second}
	got := strings.Join(d.Args("/tmp/dl", "/tmp/dl/list.txt"), " ")
	want := "--file-allocation=none --continue=true --retry-wait=5 --max-tries=0 -x 8 -s 8 -j 1 " +
		"--follow-metalink=mem --check-integrity=true --disable-ipv6=true -d /tmp/dl --input-file=/tmp/dl/list.txt --summary-interval=5"
	if got != want {
		t.Errorf("Args() =\n%s\nwant\n%s", got, want)
	}

	d.IPv6 = true
	d.SummaryInterval = 0
	d.Connections = 0
	got = strings.Join(d.Args("d", "f"), " ")
	if strings.Contains(got, "disable-ipv6") {
		t.Error("IPv6 enabled should not disable ipv6")
	}
	if strings.Contains(got, "summary-interval") {
		t.Error("zero summary interval should be omitted")
	}
	if !strings.Contains(got, "-x 1 ") {
		t.Errorf("connections should be at least 1: %s", got)
	}
}

func TestDefaultDownloader(t *testing.T) {
	d := DefaultDownloader("aria2c")
	if d.Connections != 8 || d.Split != 8 || d.Concurrent != 1 || d.RetryWait != 5*time.Second {
		t.Errorf("DefaultDownloader() = %+v", d)
	}
}

func TestExtractorArgs(t *testing.T) {
	got := strings.Join(Extractor{Path: "7z"}.Args("/tmp/dl/cg.7z", "/games/Higurashi"), " ")
	want := "x /tmp/dl/cg.7z -aoa -bso1 -bsp1 -bse2 -o/games/Higurashi"
	if got != want {
		t.Errorf("Args() = %q, want %q", got, want)
	}
}

func TestIsArchive(t *testing.T) {
	tests := map[string]bool{
		"cg.7z":               true,
		"Voices.ZIP":          true,
		"patch.7z.001":        true,
		"dir.7z/readme.txt":   false,
		"HigurashiEp01.utf":   false,
		"Assembly-CSharp.dll": false,
	}
	for name, want := range tests {
		if got := IsArchive(name); got != want {
			t.Errorf("IsArchive(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLocate(t *testing.T) {
	if _, err := Locate("definitely-not-a-real-tool-xyz", ""); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Locate() error = %v, want ErrToolNotFound", err)
	}
}
