package tui

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// Mode says whether a human is watching the terminal.
type Mode int

const (
	// ModeNonInteractive prints plain progress lines and never prompts.
	ModeNonInteractive Mode = iota
	// ModeInteractive shows spinners and may prompt for confirmation.
	ModeInteractive
)

// environment is what DetectMode consults, replaceable in tests.
type environment struct {
	getenv     func(string) string
	isTerminal func(fd int) bool
	stdinFd    int
	stderrFd   int
}

func processEnvironment() environment {
	return environment{
		getenv:     os.Getenv,
		isTerminal: term.IsTerminal,
		stdinFd:    int(os.Stdin.Fd()),
		stderrFd:   int(os.Stderr.Fd()),
	}
}

// DetectMode reports ModeNonInteractive when PGSTAGE_NON_INTERACTIVE is a
// true boolean, CI or NO_COLOR is set, TERM is "dumb", or either stdin or
// stderr is not a terminal. Stdout is not consulted: `pgstage ddl` output is
// often piped while a human still sits at the terminal.
func DetectMode() Mode {
	return detectMode(processEnvironment())
}

func detectMode(env environment) Mode {
	if on, err := strconv.ParseBool(env.getenv("PGSTAGE_NON_INTERACTIVE")); err == nil && on {
		return ModeNonInteractive
	}
	if env.getenv("CI") != "" || env.getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}
	if env.getenv("TERM") == "dumb" {
		return ModeNonInteractive
	}
	if !env.isTerminal(env.stdinFd) || !env.isTerminal(env.stderrFd) {
		return ModeNonInteractive
	}
	return ModeInteractive
}

// IsInteractive reports whether DetectMode returns ModeInteractive.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
