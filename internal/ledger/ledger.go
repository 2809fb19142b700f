// Package ledger pairs entries with exits and turns the pairs into worked
// time per calendar day.
package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

// Span is a closed working interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// Duration is End - Start, or zero when the clocks disagree.
func (s Span) Duration() time.Duration {
	if s.End.Before(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start)
}

// pairing is the result of scanning one machine's events in time order.
type pairing struct {
	spans []Span
	open  *time.Time
}

// pair scans the events of machineID in timestamp order. An entry opens a
// span, replacing any entry still open; an exit closes the open span or is
// ignored when none is open.
func pair(machineID string, events []model.Event) pairing {
	mine := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.MachineID == machineID {
			mine = append(mine, ev)
		}
	}
	slices.SortStableFunc(mine, func(a, b model.Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	var p pairing
	for _, ev := range mine {
		switch ev.Kind {
		case model.KindEntry:
			ts := ev.Timestamp
			p.open = &ts
		case model.KindExit:
			if p.open == nil {
				continue
			}
			p.spans = append(p.spans, Span{Start: *p.open, End: ev.Timestamp})
			p.open = nil
		}
	}
	return p
}

// OpenEntry returns the timestamp of the entry of machineID that has no exit
// yet, if any.
func OpenEntry(machineID string, events []model.Event) (time.Time, bool) {
	p := pair(machineID, events)
	if p.open == nil {
		return time.Time{}, false
	}
	return *p.open, true
}

// ImmediateDuration is the time between the open entry of machineID and an
// exit at exitAt, clamped at zero. It returns nil when there is no open entry,
// which the log records as N/A.
func ImmediateDuration(machineID string, events []model.Event, exitAt time.Time) *time.Duration {
	open, ok := OpenEntry(machineID, events)
	if !ok {
		return nil
	}
	d := Span{Start: open, End: exitAt}.Duration()
	return &d
}

// Report builds the per-day worked time of machineID. A span still open at
// the end is closed at now so a running shift shows up live.
func Report(machineID string, events []model.Event, now time.Time) model.Report {
	p := pair(machineID, events)
	spans := p.spans
	if p.open != nil {
		spans = append(spans, Span{Start: *p.open, End: now})
	}
	return build(machineID, spans)
}

// ReportBetween is Report limited to the days in [from, to].
func ReportBetween(machineID string, events []model.Event, now, from, to time.Time) model.Report {
	full := Report(machineID, events, now)
	lo, hi := timecalc.DateKey(from), timecalc.DateKey(to)

	out := model.Report{MachineID: machineID, Days: []model.DayTotal{}}
	for _, d := range full.Days {
		if d.Date < lo || d.Date > hi {
			continue
		}
		out.Days = append(out.Days, d)
		out.Total += d.Duration
	}
	return out
}

func build(machineID string, spans []Span) model.Report {
	perDay := map[string]time.Duration{}
	for _, s := range spans {
		for day, part := range timecalc.SplitByDay(s.Start, s.End) {
			perDay[timecalc.DateKey(day)] += part
		}
	}

	rep := model.Report{MachineID: machineID, Days: make([]model.DayTotal, 0, len(perDay))}
	for date, d := range perDay {
		rep.Days = append(rep.Days, model.DayTotal{Date: date, Duration: d})
		rep.Total += d
	}
	slices.SortFunc(rep.Days, func(a, b model.DayTotal) int {
		return strings.Compare(a.Date, b.Date)
	})
	return rep
}
