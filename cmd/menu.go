package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ponto/internal/formatter"
	"github.com/Tiliavir/ponto/internal/model"
)

const menuText = `
Choose an option:
1. Record ENTRADA
2. Record SAIDA
3. View session records
4. Show worked time per day (this machine)
5. Quit
>> `

// runMenu is the interactive loop shown when ponto runs without a subcommand.
// It ends on option 5 or at end of input.
func (a *app) runMenu(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, formatter.Header("ponto · time clock"))
	fmt.Fprintln(out, formatter.Dim("Machine ID: "+a.svc.MachineID()))

	for {
		fmt.Fprint(out, menuText)
		choice, err := a.lines.ReadLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			a.goodbye(cmd)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading menu choice: %w", err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			a.menuPunch(cmd, model.KindEntry)
		case "2":
			a.menuPunch(cmd, model.KindExit)
		case "3":
			fmt.Fprint(out, formatter.Records("Current session records", a.store.Lines()))
		case "4":
			fmt.Fprint(out, formatter.Report("", a.svc.Report()))
		case "5":
			a.goodbye(cmd)
			return nil
		default:
			fmt.Fprintln(out, formatter.Warn("Invalid option, please try again."))
		}
	}
}

// menuPunch records an event from the menu. Failures are shown and logged;
// the menu keeps running.
func (a *app) menuPunch(cmd *cobra.Command, kind model.Kind) {
	err := a.punch(cmd, kind)
	switch {
	case err == nil, errors.Is(err, errNotConfirmed):
	case errors.Is(err, errAborted):
		fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled."))
	default:
		a.log.Error("record failed", "kind", kind, "err", err)
	}
}

func (a *app) goodbye(cmd *cobra.Command) {
	path := a.store.Path()
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Goodbye. Your records are in %s\n", path)
}
