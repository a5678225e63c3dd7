package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/hotlist/internal/shared"
)

// promptModel is a single-line text input that quits on submit or cancel.
type promptModel struct {
	title     string
	input     textinput.Model
	help      help.Model
	keys      keyMap
	value     string
	cancelled bool
}

var _ tea.Model = promptModel{}

func newPromptModel(title, placeholder string) promptModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	ti.CharLimit = 4096
	ti.Width = 80
	ti.Focus()

	return promptModel{
		title: title,
		input: ti,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.submit):
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}
			m.value = value
			return m, tea.Quit
		case key.Matches(msg, m.keys.quit):
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.value != "" || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(Styles.Title("%s", m.title))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// Prompt blocks until the user submits a non-empty line, returning it trimmed.
//
// Cancelling with esc or ctrl+c returns [shared.ErrCancelled]; a cancelled ctx returns ctx.Err().
func Prompt(ctx context.Context, in io.Reader, out io.Writer, title, placeholder string) (string, error) {
	p := tea.NewProgram(
		newPromptModel(title, placeholder),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok {
		return "", fmt.Errorf("prompt returned unexpected model %T", final)
	}
	if m.cancelled {
		return "", shared.ErrCancelled
	}
	return m.value, nil
}
