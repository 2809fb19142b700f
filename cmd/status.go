package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ponto/internal/formatter"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a shift is open and today's total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			st := a.svc.Status()

			if st.Open {
				fmt.Fprintln(out, formatter.StyleGreen.Render("Clocked in:"))
				since := st.Since.Format("2006-01-02 15:04")
				if timecalc.SameDay(st.Since, st.Now) {
					since = st.Since.Format("15:04")
				}
				fmt.Fprintf(out, "  Since: %s\n", since)
				fmt.Fprintf(out, "  Elapsed: %s\n", timecalc.FormatHHMMSS(st.Elapsed))
			} else {
				fmt.Fprintln(out, "Not clocked in.")
			}
			fmt.Fprintf(out, "Today: %s worked.\n", timecalc.FormatHHMMSS(st.Today))
			fmt.Fprintln(out, formatter.Dim("Machine ID: "+a.svc.MachineID()))
			return nil
		},
	}
}
