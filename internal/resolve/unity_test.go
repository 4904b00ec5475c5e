package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func header(version string) []byte {
	h := make([]byte, headerSize)
	copy(h[versionOffset:], version)
	return h
}

func TestReadUnityVersion(t *testing.T) {
	tests := map[string]struct {
		data    []byte
		want    string
		wantOld bool
		wantErr bool
	}{
		"5.x":          {data: header("5.6.7f1"), want: "5.6.7f1"},
		"2017":         {data: append(header("2017.2.5"), 0xff, 0xff), want: "2017.2.5"},
		"too old":      {data: header("4.7.2f1"), wantOld: true, wantErr: true},
		"short header": {data: []byte("tiny"), wantErr: true},
		"garbage":      {data: header("abc"), wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, AssetsFile), tt.data, 0o600); err != nil {
				t.Fatal(err)
			}
			got, err := ReadUnityVersion(dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadUnityVersion() error = %v, wantErr %v", err, tt.wantErr)
			}
			var old *OldRuntimeError
			if errors.As(err, &old) != tt.wantOld {
				t.Errorf("OldRuntimeError = %v, want %v", err, tt.wantOld)
			}
			if got != tt.want {
				t.Errorf("ReadUnityVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadUnityVersionMissing(t *testing.T) {
	_, err := ReadUnityVersion(t.TempDir())
	if !errors.Is(err, ErrMissingAssets) {
		t.Errorf("error = %v, want ErrMissingAssets", err)
	}
}
