package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/modsync/internal/model"
)

// OptionPickerAction represents the action to perform after option selection.
type OptionPickerAction int

const (
	// OptionPickerActionNone means the user quit without confirming.
	OptionPickerActionNone OptionPickerAction = iota
	// OptionPickerActionConfirm means the user confirmed a selection.
	OptionPickerActionConfirm
)

// OptionPickerResult contains the result of the option picker interaction.
type OptionPickerResult struct {
	Action    OptionPickerAction
	Selection model.Selection
}

type optionPickerKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Confirm key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultOptionPickerKeyMap() optionPickerKeyMap {
	return optionPickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "install"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// OptionPickerModel lets the user choose the mod options of one submod.
// Radio options replace the others of their group; checkbox options toggle.
type OptionPickerModel struct {
	title     string
	options   []model.ModOption
	selection model.Selection
	cursor    int
	keys      optionPickerKeyMap
	result    OptionPickerResult
	showHelp  bool
	width     int
	height    int
	quitting  bool
}

var optionPickerStyles = struct {
	Title       lipgloss.Style
	Group       lipgloss.Style
	Help        lipgloss.Style
	Item        lipgloss.Style
	Selected    lipgloss.Style
	Description lipgloss.Style
	Status      lipgloss.Style
}{
	Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Group:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")).Padding(0, 1),
	Help:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Item:        lipgloss.NewStyle().Padding(0, 2),
	Selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 2),
	Description: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 4),
	Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
}

// NewOptionPickerModel creates a picker for sub's options starting from initial.
func NewOptionPickerModel(sub model.SubMod, initial model.Selection) OptionPickerModel {
	return OptionPickerModel{
		title:     sub.GroupIdentity(),
		options:   sub.Options,
		selection: initial,
		keys:      defaultOptionPickerKeyMap(),
	}
}

// Init implements tea.Model.
func (m OptionPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m OptionPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Toggle):
			m.toggle()

		case key.Matches(msg, m.keys.Confirm):
			m.result = OptionPickerResult{Action: OptionPickerActionConfirm, Selection: m.selection}
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *OptionPickerModel) toggle() {
	if len(m.options) == 0 {
		return
	}
	o := m.options[m.cursor]
	if o.IsRadio {
		m.selection = m.selection.With(m.options, o.ID)
		return
	}
	if !m.selection.Has(o.ID) {
		m.selection = m.selection.With(m.options, o.ID)
		return
	}
	var keep []string
	for _, id := range m.selection.IDs() {
		if id != o.ID {
			keep = append(keep, id)
		}
	}
	m.selection = model.NewSelection(keep...)
}

// View implements tea.Model.
func (m OptionPickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(optionPickerStyles.Title.Render("Install options: " + m.title))
	b.WriteString("\n\n")

	if len(m.options) == 0 {
		b.WriteString(optionPickerStyles.Description.Render("This submod has no options."))
		b.WriteString("\n\n")
	}

	group := ""
	for i, o := range m.options {
		if i == 0 || o.Group != group {
			group = o.Group
			b.WriteString(optionPickerStyles.Group.Render(group))
			b.WriteString("\n")
		}
		line := fmt.Sprintf("%s %s", marker(o, m.selection.Has(o.ID)), o.Name)
		if i == m.cursor {
			b.WriteString(optionPickerStyles.Selected.Render("> " + line))
		} else {
			b.WriteString(optionPickerStyles.Item.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if len(m.options) > 0 {
		if desc := m.options[m.cursor].Description; desc != "" {
			width := m.width - 4
			if width <= 0 {
				width = 76
			}
			b.WriteString("\n")
			b.WriteString(optionPickerStyles.Description.Render(formatDescription(desc, width)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(optionPickerStyles.Status.Render(fmt.Sprintf("%d selected", m.selection.Len())))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		b.WriteString(m.renderShortHelp())
	}
	return b.String()
}

func marker(o model.ModOption, selected bool) string {
	switch {
	case o.IsRadio && selected:
		return "(•)"
	case o.IsRadio:
		return "( )"
	case selected:
		return "[x]"
	default:
		return "[ ]"
	}
}

func (m OptionPickerModel) renderShortHelp() string {
	keys := []string{"↑/↓ navigate", "space toggle", "enter install", "? help", "q quit"}
	return optionPickerStyles.Help.Render(strings.Join(keys, " • "))
}

func (m OptionPickerModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Move up
  ↓/j      Move down

Actions:
  Space    Select option (radio) or toggle it (checkbox)
  Enter    Install with the current selection

General:
  ?        Toggle full help
  q/Esc    Quit without installing`
	return optionPickerStyles.Help.Render(help)
}

// Result returns the result of the user interaction.
func (m OptionPickerModel) Result() OptionPickerResult {
	return m.result
}

// RunOptionPicker runs the interactive option picker.
func RunOptionPicker(sub model.SubMod, initial model.Selection) (OptionPickerResult, error) {
	finalModel, err := Run(NewOptionPickerModel(sub, initial))
	if err != nil {
		return OptionPickerResult{}, err
	}
	if m, ok := finalModel.(OptionPickerModel); ok {
		return m.Result(), nil
	}
	return OptionPickerResult{}, nil
}
