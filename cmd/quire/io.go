package main

import (
	"os"

	"golang.org/x/term"
)

// stdoutIsTerminal decides whether escape sequences may be printed. NO_COLOR disables them regardless.
func stdoutIsTerminal() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
