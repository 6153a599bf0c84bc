package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// doneMsg carries the outcome of a Task to the spinner model.
type doneMsg struct {
	result string
	err    error
}

// spinnerModel shows a spinner next to the task message until doneMsg arrives.
// The cancel key cancels the task context; the model keeps spinning until the
// task returns so that rollback and cleanup are not cut short.
type spinnerModel struct {
	spinner    spinner.Model
	message    string
	keys       KeyMap
	cancel     context.CancelFunc
	cancelling bool
	done       *doneMsg
}

func newSpinnerModel(message string, cancel context.CancelFunc) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return spinnerModel{
		spinner: s,
		message: message,
		keys:    DefaultKeyMap(),
		cancel:  cancel,
	}
}

// Init implements tea.Model.
func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.cancelling {
			m.cancelling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case doneMsg:
		m.done = &msg
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m spinnerModel) View() string {
	if m.done != nil {
		if m.done.err != nil {
			return ErrorStyle.Render(SymbolCross+" "+m.message) + "\n"
		}
		return SuccessStyle.Render(SymbolCheck+" "+m.done.result) + "\n"
	}
	if m.cancelling {
		return m.spinner.View() + " " + m.message + MutedStyle.Render(" (cancelling...)")
	}
	return m.spinner.View() + " " + m.message + HelpStyle.Render(m.keys.HelpText())
}
