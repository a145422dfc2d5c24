package cli

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/term"
)

// newLogger creates the stage logger. Colour is only used when w is a terminal.
func newLogger(w io.Writer, verbose, quiet bool) hclog.Logger {
	level := hclog.Info
	switch {
	case quiet:
		level = hclog.Error
	case verbose:
		level = hclog.Debug
	}

	colour := hclog.ColorOff
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		colour = hclog.AutoColor
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "tolego",
		Output: w,
		Level:  level,
		Color:  colour,
	})
}
