package cli

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// interactive reports whether creation commands may prompt for missing flags.
// Pipes, CI and tests never see a form.
var interactive = func() bool {
	return term.IsTerminal(os.Stdin.Fd())
}
