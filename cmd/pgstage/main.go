package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/pgstage/internal/cli"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(pgstage.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(pgstage.ExitCodeForError(err))
	}
}
