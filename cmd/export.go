package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

func newExportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every decoded record to stdout",
		Long: `Export every record in the log that can be decoded, from all machines,
in file order. Lines that are not records are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeExport(cmd.OutOrStdout(), format, a.svc.Events())
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv, json")
	return cmd
}

type exportRow struct {
	Kind      model.Kind `json:"kind"`
	Timestamp string     `json:"timestamp"`
	MachineID string     `json:"machine_id"`
	Proof     string     `json:"proof"`
	// Duration is HH:MM:SS on exits that closed an entry, null otherwise.
	Duration *string `json:"duration"`
}

func toExportRow(e model.Event) exportRow {
	row := exportRow{
		Kind:      e.Kind,
		Timestamp: e.Timestamp.Format(time.RFC3339),
		MachineID: e.MachineID,
		Proof:     e.Proof,
	}
	if e.Duration != nil {
		d := timecalc.FormatHHMMSS(*e.Duration)
		row.Duration = &d
	}
	return row
}

func writeExport(w io.Writer, format string, events []model.Event) error {
	switch format {
	case "csv":
		fmt.Fprintln(w, "kind,timestamp,machine_id,proof,duration")
		for _, e := range events {
			r := toExportRow(e)
			dur := ""
			if r.Duration != nil {
				dur = *r.Duration
			}
			fmt.Fprintf(w, "%s,%s,%s,%s,%s\n",
				csvEscape(string(r.Kind)),
				csvEscape(r.Timestamp),
				csvEscape(r.MachineID),
				csvEscape(r.Proof),
				csvEscape(dur),
			)
		}
	case "json":
		rows := make([]exportRow, 0, len(events))
		for _, e := range events {
			rows = append(rows, toExportRow(e))
		}
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding export: %w", err)
		}
		fmt.Fprintln(w, string(data))
	default:
		return fmt.Errorf("unknown format %q: want csv or json", format)
	}
	return nil
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
