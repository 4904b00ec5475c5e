package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/modsync/internal/logging"
	"github.com/klauern/modsync/internal/ui"
	"github.com/klauern/modsync/internal/util"
)

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, r)
		close(done)
	}()

	runErr := fn()

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	os.Stdout = old
	<-done
	_ = r.Close()
	return buf.String(), runErr
}

// isolate points every modsync location at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("MODSYNC_HOME", home)
	t.Setenv("MODSYNC_CACHE_ENABLED", "false")
	ui.DisableColors()
	t.Cleanup(ui.EnableColors)
	return home
}

func TestVersionVariables(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
}

func TestConfigureLogging(t *testing.T) {
	tests := map[string]struct {
		args      []string
		wantDebug bool
	}{
		"no flags uses default info level": {
			args: []string{"modsync", "version"},
		},
		"verbose flag enables info level": {
			args: []string{"modsync", "--verbose", "version"},
		},
		"debug flag enables debug level": {
			args:      []string{"modsync", "--debug", "version"},
			wantDebug: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			logging.SetDefault(logging.New(logging.Options{Level: slog.LevelInfo, Output: io.Discard}))
			oldStderr := os.Stderr
			devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
			if err != nil {
				t.Fatal(err)
			}
			os.Stderr = devNull
			defer func() {
				os.Stderr = oldStderr
				_ = devNull.Close()
				logging.SetDefault(logging.New(logging.DefaultOptions()))
			}()

			if _, err := captureStdout(t, func() error { return Run(context.Background(), tt.args) }); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			enabled := slog.Default().Enabled(context.Background(), slog.LevelDebug)
			if enabled != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", enabled, tt.wantDebug)
			}
		})
	}
}

func TestLogFileFlag(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "logs", "modsync.log")

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"modsync", "--debug", "--log-file", path, "version"})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	logging.SetDefault(logging.New(logging.DefaultOptions()))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "logging configured") {
		t.Errorf("log file = %q, want the logging configured record", data)
	}
}

func TestConfigCommands(t *testing.T) {
	home := isolate(t)
	ctx := context.Background()

	out, err := captureStdout(t, func() error { return Run(ctx, []string{"modsync", "config", "path"}) })
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if !strings.Contains(out, filepath.Join(home, "config.yaml")) {
		t.Errorf("config path output = %q", out)
	}

	if _, err := captureStdout(t, func() error { return Run(ctx, []string{"modsync", "config", "init"}) }); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if _, err := captureStdout(t, func() error { return Run(ctx, []string{"modsync", "config", "init"}) }); err == nil {
		t.Error("second config init without --force should fail")
	}
	if _, err := captureStdout(t, func() error { return Run(ctx, []string{"modsync", "config", "init", "--force"}) }); err != nil {
		t.Errorf("config init --force error = %v", err)
	}

	out, err = captureStdout(t, func() error { return Run(ctx, []string{"modsync", "config", "show"}) })
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"download:", "connections: 8", "progress: auto"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigFlagRejectsInvalidFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	util.WriteFile(t, path, "output:\n  progress: sparkles\n")

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"modsync", "--config", path, "config", "show"})
	})
	if err == nil || !strings.Contains(err.Error(), "sparkles") {
		t.Errorf("Run() error = %v, want invalid progress mode", err)
	}
}

// fixture serves version data and archive HEAD requests and writes a
// catalog pointing at them.
type fixture struct {
	srv        *httptest.Server
	catalog    string
	installDir string
}

func newFixture(t *testing.T, versionData string) *fixture {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/versionData.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(versionData))
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2048")
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	catalog := fmt.Sprintf(`{
  "version": 2,
  "mods": [{
    "family": "higurashi",
    "name": "Onikakushi",
    "target": "Higurashi",
    "dataname": "",
    "submods": [{
      "name": "full",
      "files": [
        {"name": "cg", "url": "%[1]s/files/cg.7z", "priority": 0},
        {"name": "script", "url": "%[1]s/files/script.7z", "priority": 10}
      ],
      "fileOverrides": []
    }],
    "modOptionGroups": [{
      "name": "BGM",
      "type": "downloadAndExtract",
      "radio": [
        {"name": "Original", "description": "", "data": {"url": "%[1]s/files/bgm.7z", "relativeExtractionPath": "", "priority": 20}},
        {"name": "None", "description": "", "data": {"url": "%[1]s/files/none.7z", "relativeExtractionPath": "", "priority": 20}}
      ]
    }]
  }]
}`, srv.URL)

	path := filepath.Join(t.TempDir(), "installData.json")
	util.WriteFile(t, path, catalog)
	t.Setenv("MODSYNC_REMOTE_VERSION_DATA_URL", srv.URL+"/versionData.json")

	return &fixture{srv: srv, catalog: path, installDir: t.TempDir()}
}

func (f *fixture) args(cmd string, extra ...string) []string {
	args := []string{"modsync", cmd, "--dir", f.installDir, "--mod", "Onikakushi", "--submod", "full", "--catalog", f.catalog, "--platform", "linux"}
	return append(args, extra...)
}

const fixtureVersions = `[{"id": "Onikakushi/full", "files": [{"id": "cg", "version": "1"}, {"id": "script", "version": "2"}]}]`

func TestListCommand(t *testing.T) {
	isolate(t)
	f := newFixture(t, fixtureVersions)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"modsync", "list", "--catalog", f.catalog, "--mod", "onikakushi"})
	})
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	for _, want := range []string{"Onikakushi", "full (2 files)", ui.SymbolSuccess + " BGM: Original", ui.SymbolPending + " BGM: None"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestPlanCommand(t *testing.T) {
	isolate(t)
	f := newFixture(t, fixtureVersions)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), f.args("plan"))
	})
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}
	for _, want := range []string{
		"Onikakushi/full",
		"cg no local version data",
		"1. cg -> .",
		"3. option BGM: Original -> .",
		"Download size: 6.1 kB in 3 file(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}

	// Nothing is written by a plan.
	if _, err := os.Stat(filepath.Join(f.installDir, "installedVersionData.json")); !os.IsNotExist(err) {
		t.Errorf("plan must not write the local manifest, stat err = %v", err)
	}
}

func TestPlanCommandUpToDate(t *testing.T) {
	isolate(t)
	f := newFixture(t, fixtureVersions)
	util.WriteFile(t, filepath.Join(f.installDir, "installedVersionData.json"), `{"id": "Onikakushi/full", "files": [{"id": "cg", "version": "1"}, {"id": "script", "version": "2"}]}`)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), f.args("plan", "--option", "BGM: None"))
	})
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}
	if !strings.Contains(out, "Already up to date") {
		t.Errorf("plan output = %q, want up to date", out)
	}
}

func TestPlanCommandJSON(t *testing.T) {
	isolate(t)
	f := newFixture(t, fixtureVersions)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), f.args("plan", "--json", "--no-sizes", "-o", "BGM: None"))
	})
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}
	for _, want := range []string{`"id": "cg"`, `"id": "script"`, `"option": "BGM: None"`} {
		if !strings.Contains(out, want) {
			t.Errorf("json output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "BGM: Original") {
		t.Errorf("radio option should have been replaced:\n%s", out)
	}
}

func TestTargetCommandErrors(t *testing.T) {
	isolate(t)
	f := newFixture(t, fixtureVersions)

	tests := map[string][]string{
		"missing dir":     {"modsync", "plan", "--mod", "Onikakushi", "--submod", "full", "--catalog", f.catalog},
		"missing dir arg": {"modsync", "install", "--dir", filepath.Join(f.installDir, "nope"), "--mod", "m", "--submod", "s"},
		"missing submod":  {"modsync", "plan", "--dir", f.installDir, "--mod", "Onikakushi", "--catalog", f.catalog},
		"unknown submod":  {"modsync", "plan", "--dir", f.installDir, "--mod", "Onikakushi", "--submod", "voice", "--catalog", f.catalog},
		"unknown option":  f.args("plan", "--option", "BGM: Remix"),
		"bad platform":    f.args("plan", "--platform", "amiga"),
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := captureStdout(t, func() error { return Run(context.Background(), args) }); err == nil {
				t.Error("Run() expected error")
			}
		})
	}
}

func TestInstallMissingTools(t *testing.T) {
	isolate(t)
	f := newFixture(t, fixtureVersions)
	t.Setenv("MODSYNC_TOOLS_ARIA2C", filepath.Join(t.TempDir(), "no-aria2c"))

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), f.args("install", "--progress", "none"))
	})
	if err == nil || !strings.Contains(err.Error(), "downloader") {
		t.Errorf("install error = %v, want missing downloader", err)
	}
}

func TestStatusCommand(t *testing.T) {
	isolate(t)
	input := strings.Join([]string{
		"<<< Status: 42% [[Extracting cg.7z]] >>>",
		"[#2089b0 400.0KiB/33.2MiB(1%) CN:1 DL:115.7KiB ETA:4m51s]",
		" 45% 12 - CG/image.png",
		"7-Zip 19.00",
	}, "\n")

	oldStdin := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()
	go func() {
		_, _ = w.Write([]byte(input))
		_ = w.Close()
	}()

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), []string{"modsync", "status"})
	})
	if err != nil {
		t.Fatalf("status error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	want := []string{"status", "download", "archive", "log"}
	for i, prefix := range want {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
	if !strings.Contains(lines[1], "eta=4m51s") || !strings.Contains(lines[2], "items=12 CG/image.png") {
		t.Errorf("unexpected details:\n%s", out)
	}
}
