package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ponto/internal/formatter"
)

// newVerifyCmd reports the digest. The check itself already ran at startup;
// reaching RunE means the log matched.
func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the log against its SHA-256 digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			digest, err := a.guard.Stored()
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, formatter.Dim("No digest yet: nothing has been recorded."))
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading digest: %w", err)
			}
			fmt.Fprintln(out, formatter.StyleGreen.Render("Integrity OK"))
			fmt.Fprintf(out, "  Log:    %s\n", a.guard.LogPath())
			fmt.Fprintf(out, "  SHA256: %s\n", digest)
			return nil
		},
	}
}
