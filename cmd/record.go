package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ponto/internal/formatter"
	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/proof"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

// errNotConfirmed is returned by in/out when the typed code did not match.
var errNotConfirmed = errors.New("wrong code, nothing was recorded")

func newInCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "in",
		Aliases: []string{"entrada"},
		Short:   "Record a clock-in (ENTRADA)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.punch(cmd, model.KindEntry)
		},
	}
}

func newOutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "out",
		Aliases: []string{"saida"},
		Short:   "Record a clock-out (SAIDA)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.punch(cmd, model.KindExit)
		},
	}
}

// punch asks for a fresh confirmation code and records an event of kind when
// it is typed back exactly.
func (a *app) punch(cmd *cobra.Command, kind model.Kind) error {
	out := cmd.OutOrStdout()
	challenge := proof.NewChallenge()
	if a.newCode != nil {
		challenge = proof.Challenge{Code: a.newCode()}
	}

	typed, err := a.askCode(cmd, challenge.Code)
	if err != nil {
		return err
	}
	if !challenge.Confirm(typed) {
		fmt.Fprintln(out, formatter.Fail("Wrong code. Nothing was recorded. Try again."))
		return errNotConfirmed
	}

	res, err := a.svc.Record(kind, challenge.Code)
	if err != nil {
		fmt.Fprintln(out, formatter.Fail("Could not save the record."))
		return err
	}

	fmt.Fprintln(out, formatter.Success(string(kind)+" recorded"))
	if kind == model.KindExit {
		if d := res.Event.Duration; d != nil {
			fmt.Fprintf(out, "Duration since last entry: %s (%s)\n",
				timecalc.FormatHHMMSS(*d), formatElapsed(int64(d.Seconds())))
		} else {
			fmt.Fprintln(out, "No earlier entry found to compute a duration.")
		}
	}
	if res.DigestStale {
		fmt.Fprintln(out, formatter.Warn("Record saved, but the integrity digest could not be updated."))
	}
	return nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
