// Package punch implements the two operations the shell offers: recording a
// clock event and reporting worked time for this machine.
package punch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tiliavir/ponto/internal/ledger"
	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/proof"
	"github.com/Tiliavir/ponto/internal/record"
	"github.com/Tiliavir/ponto/internal/storage"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

// ErrInvalidProof is returned by Record for a code that is not a well-formed
// confirmation code.
var ErrInvalidProof = errors.New("invalid proof code")

// Service records and reports events for a single machine.
type Service struct {
	store     *storage.Store
	machineID string
	loc       *time.Location
	now       func() time.Time
	log       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New returns a Service writing to store as machineID. Timestamps are taken in
// the store's location.
func New(store *storage.Store, machineID string, opts ...Option) *Service {
	s := &Service{
		store:     store,
		machineID: machineID,
		loc:       store.Location(),
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// MachineID is the identity stamped on every record.
func (s *Service) MachineID() string { return s.machineID }

// Outcome describes a recorded event.
type Outcome struct {
	Event model.Event
	Line  string
	// DigestStale is set when the line was written but the integrity digest
	// could not be refreshed.
	DigestStale bool
}

// Record appends a new event of kind confirmed with code. Exits carry the
// time since the open entry, or N/A when there is none. A digest refresh
// failure is reported through Outcome.DigestStale, not as an error.
func (s *Service) Record(kind model.Kind, code string) (Outcome, error) {
	if !proof.Valid(code) {
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidProof, code)
	}

	ts := s.clock()
	ev := model.Event{
		Kind:      kind,
		Timestamp: ts,
		MachineID: s.machineID,
		Proof:     code,
	}
	if kind == model.KindExit {
		ev.Duration = ledger.ImmediateDuration(s.machineID, s.store.Events(), ts)
	}

	line := record.Encode(ev)
	out := Outcome{Event: ev, Line: line}

	err := s.store.Append(line)
	switch {
	case errors.Is(err, storage.ErrDigestStale):
		s.log.Warn("integrity digest not updated", "err", err)
		out.DigestStale = true
	case err != nil:
		return out, fmt.Errorf("recording %s: %w", kind, err)
	}

	s.log.Info("event recorded", "kind", kind, "at", ts.Format(record.TimestampLayout))
	return out, nil
}

// Report is the per-day worked time of this machine over the whole log.
func (s *Service) Report() model.Report {
	return ledger.Report(s.machineID, s.store.Events(), s.clock())
}

// ReportBetween is Report limited to the calendar days from..to.
func (s *Service) ReportBetween(from, to time.Time) model.Report {
	return ledger.ReportBetween(s.machineID, s.store.Events(), s.clock(), from, to)
}

// Status is a snapshot of the current shift taken at Now.
type Status struct {
	Now     time.Time
	Open    bool
	Since   time.Time
	Elapsed time.Duration
	Today   time.Duration
}

// Status reports whether an entry is open and how much was worked today.
func (s *Service) Status() Status {
	now := s.clock()
	events := s.store.Events()

	st := Status{Now: now}
	if since, ok := ledger.OpenEntry(s.machineID, events); ok {
		st.Open = true
		st.Since = since
		st.Elapsed = ledger.Span{Start: since, End: now}.Duration()
	}

	today := ledger.ReportBetween(s.machineID, events, now, timecalc.StartOfDay(now), timecalc.EndOfDay(now))
	st.Today = today.Total
	return st
}

// Events returns every decoded record in the log, any machine.
func (s *Service) Events() []model.Event {
	return s.store.Events()
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc).Truncate(time.Second)
}
