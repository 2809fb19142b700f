package formatter

import (
	"fmt"
	"strings"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

// Report renders the per-day worked time of one machine followed by the total.
// title is shown above the table; an empty title uses the machine id.
func Report(title string, rep model.Report) string {
	if title == "" {
		title = "Worked time per day (ID " + rep.MachineID + ")"
	}

	var b strings.Builder
	b.WriteString(Header(title))
	b.WriteString("\n")

	if len(rep.Days) == 0 {
		b.WriteString(Dim("No worked time recorded for this machine."))
		b.WriteString("\n")
	}

	rows := make([][]string, 0, len(rep.Days)+1)
	for _, d := range rep.Days {
		rows = append(rows, []string{d.Date, timecalc.FormatHHMMSS(d.Duration)})
	}
	rows = append(rows, []string{Bold("TOTAL"), Bold(timecalc.FormatHHMMSS(rep.Total))})
	b.WriteString(RenderTable([]string{"DATE", "WORKED"}, rows))
	return b.String()
}

// Records renders raw log lines under a header, or a placeholder when empty.
func Records(title string, lines []string) string {
	var b strings.Builder
	b.WriteString(Header(title))
	b.WriteString("\n")
	if len(lines) == 0 {
		b.WriteString(Dim("No records in this session."))
		b.WriteString("\n")
		return b.String()
	}
	for _, l := range lines {
		fmt.Fprintln(&b, l)
	}
	return b.String()
}
