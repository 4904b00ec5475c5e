package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/modsync/internal/progress"
)

// logLines is how many recent plain log lines the view keeps.
const logLines = 5

type eventMsg struct{ ev progress.Event }

type closedMsg struct{}

type errMsg struct{ err error }

// InstallViewModel renders the events of one install attempt.
type InstallViewModel struct {
	ctx      context.Context
	sub      *progress.Subscription
	cancel   context.CancelFunc
	bar      progressbar.Model
	spinner  spinner.Model
	quit     key.Binding
	title    string
	task     string
	detail   string
	percent  int
	log      []string
	width    int
	done     bool
	canceled bool
	err      error
}

var installViewStyles = struct {
	Title  lipgloss.Style
	Task   lipgloss.Style
	Detail lipgloss.Style
	Log    lipgloss.Style
	Help   lipgloss.Style
}{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Task:   lipgloss.NewStyle().Bold(true),
	Detail: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Padding(0, 2),
	Log:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 2),
	Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
}

// NewInstallViewModel creates a view consuming sub. cancel is called when the
// user quits; it may be nil.
func NewInstallViewModel(ctx context.Context, title string, sub *progress.Subscription, cancel context.CancelFunc) InstallViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	return InstallViewModel{
		ctx:     ctx,
		sub:     sub,
		cancel:  cancel,
		bar:     progressbar.New(progressbar.WithDefaultGradient()),
		spinner: s,
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "cancel"),
		),
		title: title,
		task:  "Starting",
	}
}

func (m InstallViewModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, err := m.sub.Next(m.ctx)
		switch {
		case errors.Is(err, progress.ErrClosed):
			return closedMsg{}
		case err != nil:
			return errMsg{err}
		}
		return eventMsg{ev}
	}
}

// Init implements tea.Model.
func (m InstallViewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// Update implements tea.Model.
func (m InstallViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-4, 10)

	case tea.KeyMsg:
		if key.Matches(msg, m.quit) && !m.canceled {
			m.canceled = true
			m.task = "Cancelling after the current archive"
			if m.cancel != nil {
				m.cancel()
			}
		}

	case eventMsg:
		m.apply(msg.ev)
		return m, m.waitForEvent()

	case closedMsg:
		m.done = true
		return m, tea.Quit

	case errMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *InstallViewModel) apply(ev progress.Event) {
	switch e := ev.(type) {
	case progress.OverallStatus:
		m.percent = e.Percent
		if !m.canceled {
			m.task = e.Task
		}
		m.detail = ""
	case progress.DownloadProgress:
		m.detail = fmt.Sprintf("%s (%d%%) at %s, ETA %s, %s connections", e.Amount, e.Percent, e.Speed, e.ETA, e.Connections)
	case progress.ArchiveProgress:
		m.detail = fmt.Sprintf("%d%% %s", e.Percent, e.File)
	case progress.PlainLog:
		m.log = append(m.log, e.Text)
		if len(m.log) > logLines {
			m.log = m.log[len(m.log)-logLines:]
		}
	}
}

// View implements tea.Model.
func (m InstallViewModel) View() string {
	var b strings.Builder
	b.WriteString(installViewStyles.Title.Render(m.title))
	b.WriteString("\n\n")

	prefix := m.spinner.View() + " "
	if m.done {
		prefix = ""
	}
	b.WriteString(prefix + installViewStyles.Task.Render(m.task))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(float64(m.percent) / 100))
	b.WriteString("\n")
	if m.detail != "" {
		b.WriteString(installViewStyles.Detail.Render(m.detail))
		b.WriteString("\n")
	}

	width := m.width - 4
	if width <= 0 {
		width = 76
	}
	for _, line := range m.log {
		b.WriteString(installViewStyles.Log.Render(truncateText(line, width)))
		b.WriteString("\n")
	}

	if !m.done {
		b.WriteString("\n")
		b.WriteString(installViewStyles.Help.Render("q cancel"))
	}
	return b.String()
}

// Percent returns the last overall percentage.
func (m InstallViewModel) Percent() int {
	return m.percent
}

// Task returns the last overall task.
func (m InstallViewModel) Task() string {
	return m.task
}

// Err returns the error that stopped event consumption, if any.
func (m InstallViewModel) Err() error {
	return m.err
}

// RunInstallView renders sub until it closes or ctx is done.
func RunInstallView(ctx context.Context, title string, sub *progress.Subscription, cancel context.CancelFunc) error {
	finalModel, err := Run(NewInstallViewModel(ctx, title, sub, cancel))
	if err != nil {
		return err
	}
	if m, ok := finalModel.(InstallViewModel); ok {
		if m.err != nil && !errors.Is(m.err, context.Canceled) {
			return m.err
		}
	}
	return nil
}
