package progress

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestBarDisabledForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	b := New(Options{Max: 100, Description: "Installing", Writer: &buf})
	if b.Enabled() {
		t.Fatal("bar should be disabled for a non-terminal writer")
	}
	if err := b.Set(50); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	b.Describe("Downloading")
	if b.Description() != "Downloading" {
		t.Errorf("Description() = %q", b.Description())
	}
	if err := b.Finish(); err != nil {
		t.Errorf("Finish() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("disabled bar wrote output: %q", buf.String())
	}
}

func TestConsoleRun(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{Bar: New(Options{Max: 100, Writer: &buf})}

	r := NewRegistry()
	sub := r.Subscribe("console", 0)
	r.Publish(OverallStatus{Percent: 30, Task: "Downloading"})
	r.Publish(DownloadProgress{Amount: "1MiB/2MiB", Percent: 50, ETA: "3s", Speed: "1MiB"})
	r.Close()

	if err := c.Run(context.Background(), sub); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if c.Task != "Downloading" {
		t.Errorf("Task = %q", c.Task)
	}
	if !strings.Contains(c.Bar.Description(), "1MiB/2MiB 50%") {
		t.Errorf("Description() = %q", c.Bar.Description())
	}
}

func TestConsoleForcedBarRenders(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	c.Handle(OverallStatus{Percent: 100, Task: "Done"})
	_ = c.Bar.Finish()
	if !c.Bar.Enabled() {
		t.Fatal("forced bar should be enabled")
	}
	if buf.Len() == 0 {
		t.Error("forced bar wrote nothing")
	}
}
