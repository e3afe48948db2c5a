package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptCancelled is returned when the user abandons a prompt.
var ErrPromptCancelled = errors.New("input cancelled")

// Prompt reads one line interactively, rendering on stderr so stdout stays
// machine-readable. With mask set the input is echoed as dots.
func Prompt(label string, mask bool) (string, error) {
	field := textinput.New()
	field.Focus()
	field.CharLimit = 256
	field.Width = 48
	if mask {
		field.EchoMode = textinput.EchoPassword
		field.EchoCharacter = '•'
	}

	p := tea.NewProgram(promptModel{label: label, field: field}, tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(promptModel)
	if !ok || !m.submitted {
		return "", ErrPromptCancelled
	}
	return m.field.Value(), nil
}

type promptModel struct {
	label     string
	field     textinput.Model
	submitted bool
	aborted   bool
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.submitted {
		return ""
	}
	if m.aborted {
		return quitTextStyle.Render("Cancelled.")
	}
	return fmt.Sprintf("%s\n%s\n", titleStyle.Render(m.label), m.field.View())
}
