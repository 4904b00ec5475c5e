package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/klauern/modsync/internal/progress"
)

func TestInstallViewConsumesEvents(t *testing.T) {
	reg := progress.NewRegistry()
	sub := reg.Subscribe("tui", 16)
	ctx := context.Background()
	m := NewInstallViewModel(ctx, "Onikakushi/full", sub, nil)

	reg.Publish(progress.OverallStatus{Percent: 42, Task: "Extracting cg.7z"})
	reg.Publish(progress.ArchiveProgress{Percent: 10, Items: 3, File: "CG/a.png"})
	reg.Publish(progress.PlainLog{Text: "7-Zip 19.00"})
	reg.Close()

	var model tea.Model = m
	for i := 0; i < 3; i++ {
		msg := m.waitForEvent()()
		if _, ok := msg.(eventMsg); !ok {
			t.Fatalf("message %d = %T, want eventMsg", i, msg)
		}
		model, _ = model.Update(msg)
	}
	msg := m.waitForEvent()()
	if _, ok := msg.(closedMsg); !ok {
		t.Fatalf("final message = %T, want closedMsg", msg)
	}
	model, cmd := model.Update(msg)
	if cmd == nil {
		t.Error("closedMsg should quit")
	}

	got := model.(InstallViewModel)
	if got.Percent() != 42 || got.Task() != "Extracting cg.7z" {
		t.Errorf("state = %d %q", got.Percent(), got.Task())
	}
	view := got.View()
	for _, want := range []string{"Onikakushi/full", "Extracting cg.7z", "CG/a.png", "7-Zip 19.00"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestInstallViewCancel(t *testing.T) {
	reg := progress.NewRegistry()
	sub := reg.Subscribe("tui", 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	called := 0
	m := NewInstallViewModel(ctx, "g", sub, func() { called++; cancel() })
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if called != 1 {
		t.Errorf("cancel called %d times, want 1", called)
	}

	next, _ = next.Update(eventMsg{progress.OverallStatus{Percent: 60, Task: "Extracting movie.7z"}})
	if got := next.(InstallViewModel).Task(); !strings.Contains(got, "Cancelling") {
		t.Errorf("Task() = %q, want cancelling notice", got)
	}

	msg := m.waitForEvent()()
	if em, ok := msg.(errMsg); !ok || em.err == nil {
		t.Errorf("waitForEvent() after cancel = %#v, want errMsg", msg)
	}
}

func TestInstallViewLogLimit(t *testing.T) {
	m := NewInstallViewModel(context.Background(), "g", nil, nil)
	for i := 0; i < logLines+3; i++ {
		m.apply(progress.PlainLog{Text: string(rune('a' + i))})
	}
	if len(m.log) != logLines {
		t.Fatalf("len(log) = %d, want %d", len(m.log), logLines)
	}
	if m.log[0] != "d" {
		t.Errorf("oldest kept line = %q, want d", m.log[0])
	}
}
