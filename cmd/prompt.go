package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/ponto/internal/formatter"
)

// errAborted means the user left the confirmation prompt without answering.
var errAborted = errors.New("confirmation aborted")

// isInteractive reports whether in is a terminal.
func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// askCode shows code and returns what the user typed back.
func (a *app) askCode(cmd *cobra.Command, code string) (string, error) {
	if isInteractive(cmd.InOrStdin()) {
		return askCodeForm(code)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, formatter.Header("PROOF OF PRESENCE"))
	fmt.Fprintln(out, "To confirm the record, type the code below:")
	fmt.Fprintf(out, "CODE: %s\n", formatter.Bold(code))
	fmt.Fprint(out, ">> ")

	typed, err := a.lines.ReadLine()
	if errors.Is(err, io.EOF) {
		return "", errAborted
	}
	return typed, err
}

func askCodeForm(code string) (string, error) {
	var typed string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Proof of presence").
				Description("Type the code " + code + " to confirm the record").
				CharLimit(len(code) + 4).
				Value(&typed),
		),
	).WithShowHelp(false)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", errAborted
		}
		return "", fmt.Errorf("reading confirmation code: %w", err)
	}
	return typed, nil
}
