package timecalc

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date key used in reports.
const DateLayout = "2006-01-02"

// FormatHHMMSS formats d as HH:MM:SS. Hours are not capped at 24; negative
// durations render as 00:00:00.
func FormatHHMMSS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseHHMMSS is the inverse of FormatHHMMSS.
func ParseHHMMSS(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q: want HH:MM:SS", s)
	}
	var vals [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q: bad field %q", s, p)
		}
		vals[i] = n
	}
	if vals[1] > 59 || vals[2] > 59 {
		return 0, fmt.Errorf("invalid duration %q: minutes and seconds must be below 60", s)
	}
	return time.Duration(vals[0])*time.Hour +
		time.Duration(vals[1])*time.Minute +
		time.Duration(vals[2])*time.Second, nil
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, ..., Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := StartOfDay(t.AddDate(0, 0, -(wd - 1)))
	sunday := EndOfDay(monday.AddDate(0, 0, 6))
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Midnight returns the start of the next day (midnight) in the same location.
func Midnight(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// NextDayStart returns the first instant after t that falls on a later
// calendar date. Unlike Midnight it never lands on t's own date when local
// midnight is skipped by a DST transition.
func NextDayStart(t time.Time) time.Time {
	next := Midnight(t)
	if next.After(t) && !SameDay(next, t) {
		return next
	}
	// Midnight does not exist in t's zone; the day starts at the end of the gap.
	next = t.Truncate(time.Minute)
	for SameDay(next, t) {
		next = next.Add(time.Minute)
	}
	return next
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateKey returns the calendar date of t in its own location, e.g. "2026-02-27".
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// SplitByDay yields the part of [start, end) that falls on each calendar day,
// keyed by the instant that part begins: start itself, then the first instant
// of each following day in start's location. Nothing is yielded when
// end is not after start. The yielded parts always sum to end - start.
func SplitByDay(start, end time.Time) iter.Seq2[time.Time, time.Duration] {
	return func(yield func(time.Time, time.Duration) bool) {
		cur := start
		for cur.Before(end) {
			boundary := NextDayStart(cur)
			segEnd := end
			if boundary.Before(end) {
				segEnd = boundary
			}
			if !yield(cur, segEnd.Sub(cur)) {
				return
			}
			cur = segEnd
		}
	}
}
