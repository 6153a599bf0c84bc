package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// Task is work shown behind a progress indicator. It returns a one-line summary.
type Task func(ctx context.Context) (string, error)

// Run executes task. On an interactive terminal a spinner is drawn on stderr
// until the task returns; otherwise the message and the summary are printed
// as plain lines. The task's error is returned unchanged.
func Run(ctx context.Context, message string, task Task) error {
	if !IsInteractive() {
		return RunPlain(ctx, os.Stderr, message, task)
	}
	return runSpinner(ctx, message, task)
}

// RunPlain executes task and reports progress as plain lines on w.
func RunPlain(ctx context.Context, w io.Writer, message string, task Task) error {
	fmt.Fprintf(w, "%s %s\n", SymbolBullet, message)
	result, err := task(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n", SymbolCheck, result)
	return nil
}

func runSpinner(ctx context.Context, message string, task Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		newSpinnerModel(message, cancel),
		tea.WithOutput(os.Stderr),
		tea.WithoutSignalHandler(),
	)

	done := make(chan doneMsg, 1)
	go func() {
		result, err := task(ctx)
		msg := doneMsg{result: result, err: err}
		done <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", SymbolBullet, message)
	}

	msg := <-done
	return msg.err
}
