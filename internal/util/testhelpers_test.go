// Package util provides tests for utility functions.
//
//nolint:revive // var-naming - package name is meaningful
package util

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateTempDir(t *testing.T) {
	dir := CreateTempDir(t)

	// Verify directory exists
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("CreateTempDir() did not create directory: %s", dir)
	}
}

func TestWriteFile(t *testing.T) {
	dir := CreateTempDir(t)
	path := filepath.Join(dir, "subdir", "test.txt")
	content := "test content"

	WriteFile(t, path, content)

	got, err := os.ReadFile(path) //nolint:gosec // G304 - safe in test code using temp directory
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}

	if string(got) != content {
		t.Errorf("file content = %q, want %q", got, content)
	}
}

func TestWriteJSON(t *testing.T) {
	dir := CreateTempDir(t)
	path := filepath.Join(dir, "data.json")

	WriteJSON(t, path, map[string]string{"id": "cg"})

	got, err := os.ReadFile(path) //nolint:gosec // G304 - safe in test
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("written file is not valid json: %v", err)
	}
	if decoded["id"] != "cg" {
		t.Errorf("decoded id = %q, want cg", decoded["id"])
	}
}

func TestAssertHelpers(t *testing.T) {
	AssertNoError(t, nil)
	AssertEqual(t, "hello", "hello")
	AssertEqual(t, 42, 42)
	AssertStrings(t, []string{"a", "b"}, []string{"a", "b"})
}
