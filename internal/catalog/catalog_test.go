package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauern/modsync/internal/model"
)

const catalogJSON = `{
  "version": 2,
  "mods": [
    {
      "family": "higurashi",
      "name": "Onikakushi Ch.1",
      "target": "Higurashi When They Cry",
      "dataname": "HigurashiEp01_Data",
      "identifiers": ["HigurashiEp01"],
      "submods": [
        {
          "name": "full",
          "descriptionID": "higurashiFull",
          "files": [
            {"name": "cg", "url": "https://example.test/cg.7z", "priority": 0},
            {"name": "script", "priority": 10, "installOnRepair": true, "skipIfModNewerThan": "2019-06-01"},
            {"name": "movie", "url": "https://example.test/movie.7z", "priority": 20, "relativeExtractionPath": "StreamingAssets"}
          ],
          "fileOverrides": [
            {"name": "script", "id": "script-win", "os": ["windows"], "url": "https://example.test/script-win.7z"},
            {"name": "script", "id": "script-mac", "os": ["mac", "linux"], "steam": true, "unity": "5.6.7f1", "url": "https://example.test/script-mac.7z"}
          ]
        },
        {
          "name": "voice-only",
          "descriptionID": "higurashiVoice",
          "files": [{"name": "voices", "url": "https://example.test/voices.7z", "priority": 0}],
          "fileOverrides": []
        }
      ],
      "modOptionGroups": [
        {
          "name": "Background Music",
          "type": "downloadAndExtract",
          "submods": ["full"],
          "radio": [
            {"name": "Original", "description": "Original BGM", "data": {"url": "https://example.test/bgm-orig.7z", "relativeExtractionPath": "", "priority": 30}},
            {"name": "Remake", "description": "Remade BGM", "data": {"url": "https://example.test/bgm-new.7z", "relativeExtractionPath": "", "priority": 30}}
          ]
        },
        {
          "name": "Downloads",
          "type": "keepDownloads",
          "checkBox": [{"name": "Keep", "description": "Keep archives"}]
        },
        {
          "name": "Steam Grid",
          "type": "installSteamGrid",
          "checkBox": [{"name": "Update Icons", "description": "Icons"}]
        }
      ]
    }
  ]
}`

const catalogYAML = `
- family: higurashi
  name: Watanagashi Ch.2
  dataname: HigurashiEp02_Data
  submods:
    - name: full
      files:
        - name: cg
          url: https://example.test/cg.7z
          priority: 0
`

const catalogTOML = `
version = 2

[[mods]]
family = "umineko"
name = "Umineko Question"
dataname = "data"

[[mods.submods]]
name = "full"

[[mods.submods.files]]
name = "script"
url = "https://example.test/script.7z"
priority = 5

[[mods.submods.fileOverrides]]
name = "script"
id = "script-linux"
os = ["linux"]
steam = false
url = "https://example.test/script-linux.7z"
`

func TestParseJSON(t *testing.T) {
	c, err := Parse([]byte(catalogJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.Version != 2 {
		t.Errorf("Version = %d, want 2", c.Version)
	}
	if len(c.SubMods) != 2 {
		t.Fatalf("len(SubMods) = %d, want 2", len(c.SubMods))
	}

	full, err := c.Find("onikakushi ch.1", "FULL")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if full.DataName != "HigurashiEp01_Data" || full.Family != "higurashi" {
		t.Errorf("submod = %+v", full)
	}
	if got := full.GroupIdentity(); got != "Onikakushi Ch.1/full" {
		t.Errorf("GroupIdentity() = %q", got)
	}

	if len(full.Files) != 3 {
		t.Fatalf("len(Files) = %d, want 3", len(full.Files))
	}
	for i, f := range full.Files {
		if f.NativeOrder != i {
			t.Errorf("Files[%d].NativeOrder = %d", i, f.NativeOrder)
		}
	}
	script := full.Files[1]
	if script.URL != "" || !script.InstallOnRepair || script.ID != "script" {
		t.Errorf("script = %+v", script)
	}
	if want := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC); !script.SkipIfInstalledAfter.Equal(want) {
		t.Errorf("script cutoff = %v, want %v", script.SkipIfInstalledAfter, want)
	}
	if !full.Files[0].SkipIfInstalledAfter.IsZero() {
		t.Errorf("cg cutoff = %v, want none", full.Files[0].SkipIfInstalledAfter)
	}
	if full.Files[2].RelativeExtractionPath != "StreamingAssets" {
		t.Errorf("movie extraction path = %q", full.Files[2].RelativeExtractionPath)
	}

	if len(full.Overrides) != 2 {
		t.Fatalf("len(Overrides) = %d, want 2", len(full.Overrides))
	}
	mac := full.Overrides[1]
	if !mac.Platforms[model.Mac] || !mac.Platforms[model.Linux] || mac.Platforms[model.Windows] {
		t.Errorf("mac platforms = %v", mac.Platforms)
	}
	if mac.Steam == nil || !*mac.Steam || mac.Runtime == nil || *mac.Runtime != "5.6.7f1" {
		t.Errorf("mac override = %+v", mac)
	}
	if full.Overrides[0].Steam != nil || full.Overrides[0].Runtime != nil {
		t.Errorf("windows override should leave steam and runtime unset")
	}

	// Steam grid group is skipped.
	if len(full.Options) != 3 {
		t.Fatalf("len(Options) = %d, want 3: %+v", len(full.Options), full.Options)
	}
	orig, ok := full.Option("Background Music: Original")
	if !ok {
		t.Fatal("Background Music: Original missing")
	}
	if !orig.IsRadio || orig.Data == nil || orig.Data.Priority != 30 || orig.Description != "Original BGM" {
		t.Errorf("option = %+v", orig)
	}
	keep, ok := full.Option("Downloads: Keep")
	if !ok || keep.IsRadio || keep.Type != model.OptionKeepDownloads {
		t.Errorf("keep option = %+v, ok=%v", keep, ok)
	}

	voice, err := c.Find("Onikakushi Ch.1", "voice-only")
	if err != nil {
		t.Fatalf("Find(voice-only) error = %v", err)
	}
	if voice.Files[0].NativeOrder != 3 {
		t.Errorf("voice NativeOrder = %d, want 3", voice.Files[0].NativeOrder)
	}
	if _, ok := voice.Option("Background Music: Original"); ok {
		t.Error("group limited to full should not apply to voice-only")
	}
	if _, ok := voice.Option("Downloads: Keep"); !ok {
		t.Error("unrestricted group should apply to voice-only")
	}

	sel := model.DefaultSelection(full.Options)
	if sel.Len() != 1 || !sel.Has("Background Music: Original") {
		t.Errorf("DefaultSelection() = %v", sel.IDs())
	}
}

func TestParseOtherFormats(t *testing.T) {
	y, err := Parse([]byte(catalogYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Parse(yaml) error = %v", err)
	}
	if len(y.SubMods) != 1 || y.SubMods[0].ModName != "Watanagashi Ch.2" {
		t.Errorf("yaml submods = %+v", y.SubMods)
	}

	tm, err := Parse([]byte(catalogTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Parse(toml) error = %v", err)
	}
	sub, err := tm.Find("Umineko Question", "full")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(sub.Overrides) != 1 || sub.Overrides[0].Steam == nil || *sub.Overrides[0].Steam {
		t.Errorf("toml overrides = %+v", sub.Overrides)
	}
}

func TestParseBareList(t *testing.T) {
	c, err := Parse([]byte(`[{"name":"Mod","submods":[{"name":"s","files":[{"name":"a","url":"u","priority":1}]}]}]`), FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.Version != 0 || len(c.SubMods) != 1 {
		t.Errorf("catalog = %+v", c)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"newer version", `{"version": 3, "mods": []}`, "newer than supported"},
		{"malformed", `{"mods": [`, ""},
		{"unnamed mod", `{"mods": [{"submods": []}]}`, "has no name"},
		{"unnamed file", `{"mods": [{"name": "m", "submods": [{"name": "s", "files": [{"priority": 1}]}]}]}`, "name cannot be empty"},
		{"override without os", `{"mods": [{"name": "m", "submods": [{"name": "s", "files": [], "fileOverrides": [{"name": "a", "id": "b", "url": "u", "os": []}]}]}]}`, ""},
		{"bad cutoff date", `{"mods": [{"name": "m", "submods": [{"name": "s", "files": [{"name": "a", "skipIfModNewerThan": "June"}]}]}]}`, "skipIfModNewerThan"},
		{"option without url", `{"mods": [{"name": "m", "submods": [{"name": "s"}], "modOptionGroups": [{"name": "g", "type": "downloadAndExtract", "radio": [{"name": "x"}]}]}]}`, "needs a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), FormatJSON)
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"installData.json":          FormatJSON,
		"/etc/modsync/catalog.YAML": FormatYAML,
		"catalog.yml":               FormatYAML,
		"catalog.toml":              FormatTOML,
		"https://example.test/data/catalog.toml?x=1": FormatTOML,
		"catalog": FormatJSON,
	}
	for in, want := range tests {
		if got := FormatFor(in); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		if err := os.WriteFile(path, []byte(catalogYAML), 0o600); err != nil {
			t.Fatal(err)
		}
		c, err := Load(ctx, nil, path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got := c.Mods(); len(got) != 1 || got[0] != "Watanagashi Ch.2" {
			t.Errorf("Mods() = %v", got)
		}
	})

	t.Run("http", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(catalogJSON))
		}))
		defer srv.Close()

		c, err := Load(ctx, srv.Client(), srv.URL+"/installData.json")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got := len(c.SubModsOf("Onikakushi Ch.1")); got != 2 {
			t.Errorf("SubModsOf() = %d, want 2", got)
		}
	})

	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		if _, err := Load(ctx, srv.Client(), srv.URL+"/installData.json"); err == nil {
			t.Error("Load() expected error for 404")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(ctx, nil, filepath.Join(t.TempDir(), "none.json")); err == nil {
			t.Error("Load() expected error")
		}
	})
}

func TestFindNotFound(t *testing.T) {
	c := &Catalog{}
	if _, err := c.Find("a", "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find() error = %v, want ErrNotFound", err)
	}
}
