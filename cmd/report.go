package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ponto/internal/formatter"
	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		week   bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show worked time per day for this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := a.svc.Report()
			label := ""
			if week {
				now := time.Now().In(a.store.Location())
				if a.now != nil {
					now = a.now().In(a.store.Location())
				}
				from, to := timecalc.WeekRange(now)
				rep = a.svc.ReportBetween(from, to)
				label = timecalc.ISOWeekLabel(now)
			}
			return writeReport(cmd.OutOrStdout(), format, label, rep)
		},
	}

	cmd.Flags().BoolVar(&week, "week", false, "Only the current ISO week")
	cmd.Flags().StringVar(&format, "format", "md", "Output format: md, csv, json")
	return cmd
}

type reportDay struct {
	Date            string `json:"date"`
	DurationSeconds int64  `json:"duration_seconds"`
	Duration        string `json:"duration"`
}

type reportJSON struct {
	MachineID    string      `json:"machine_id"`
	Week         string      `json:"week,omitempty"`
	Days         []reportDay `json:"days"`
	TotalSeconds int64       `json:"total_seconds"`
	Total        string      `json:"total"`
}

func writeReport(w io.Writer, format, week string, rep model.Report) error {
	switch format {
	case "md":
		title := ""
		if week != "" {
			title = fmt.Sprintf("Week %s (ID %s)", week, rep.MachineID)
		}
		fmt.Fprint(w, formatter.Report(title, rep))
	case "csv":
		fmt.Fprintln(w, "date,duration_seconds,duration")
		for _, d := range rep.Days {
			fmt.Fprintf(w, "%s,%d,%s\n", csvEscape(d.Date), seconds(d.Duration), timecalc.FormatHHMMSS(d.Duration))
		}
		fmt.Fprintf(w, "TOTAL,%d,%s\n", seconds(rep.Total), timecalc.FormatHHMMSS(rep.Total))
	case "json":
		doc := reportJSON{
			MachineID:    rep.MachineID,
			Week:         week,
			Days:         make([]reportDay, 0, len(rep.Days)),
			TotalSeconds: seconds(rep.Total),
			Total:        timecalc.FormatHHMMSS(rep.Total),
		}
		for _, d := range rep.Days {
			doc.Days = append(doc.Days, reportDay{
				Date:            d.Date,
				DurationSeconds: seconds(d.Duration),
				Duration:        timecalc.FormatHHMMSS(d.Duration),
			})
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintln(w, string(data))
	default:
		return fmt.Errorf("unknown format %q: want md, csv or json", format)
	}
	return nil
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
