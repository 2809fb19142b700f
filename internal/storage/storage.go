// Package storage is the append-only clock log: one encoded record per line
// in a text file, mirrored in memory, with the integrity digest refreshed
// after every append.
//
// A Store assumes it is the only writer. Two processes appending to the same
// file can interleave the append and the digest refresh and leave a digest
// that no longer matches; no cross-process locking is attempted.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tiliavir/ponto/internal/integrity"
	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/record"
)

// ErrDigestStale is returned by Append when the line was written but the
// digest sidecar could not be refreshed.
var ErrDigestStale = errors.New("record saved but integrity digest not updated")

// Store is the in-memory mirror of the log file plus the file itself.
type Store struct {
	path  string
	guard *integrity.Guard
	loc   *time.Location
	log   *slog.Logger

	lines []string
	seen  map[string]bool

	// parsed caches Decode results per distinct line.
	parsed map[string]parseResult
}

type parseResult struct {
	event model.Event
	ok    bool
}

// Open returns a Store for the log at path. Nothing is read until Load.
func Open(path string, guard *integrity.Guard, loc *time.Location, log *slog.Logger) *Store {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		path:   path,
		guard:  guard,
		loc:    loc,
		log:    log,
		seen:   map[string]bool{},
		parsed: map[string]parseResult{},
	}
}

// Path is the log file location.
func (s *Store) Path() string { return s.path }

// Location is the zone record timestamps are read in.
func (s *Store) Location() *time.Location { return s.loc }

// Load adds every line of the log file to the mirror. A missing file is an
// empty log.
func (s *Store) Load() error {
	lines, err := readLines(s.path)
	if err != nil {
		return fmt.Errorf("storage error reading %s: %w", s.path, err)
	}
	for _, l := range lines {
		s.remember(l)
	}
	s.log.Debug("log loaded", "path", s.path, "lines", len(lines))
	return nil
}

// Append records line in the mirror, appends it to the log file and refreshes
// the digest. A failed write is returned as is; a failed digest refresh is
// returned wrapping ErrDigestStale and does not undo the write.
func (s *Store) Append(line string) error {
	s.remember(line)

	if err := appendLine(s.path, line); err != nil {
		return fmt.Errorf("storage error appending to %s: %w", s.path, err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrDigestStale, s.path, err)
	}
	if err := s.guard.Update(data); err != nil {
		return fmt.Errorf("%w: %v", ErrDigestStale, err)
	}
	return nil
}

// Lines returns the in-memory mirror: lines loaded at startup followed by
// lines appended in this session.
func (s *Store) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// All returns the mirror merged with a fresh read of the log file,
// deduplicated by exact text, in first-seen order. If the file cannot be
// read the mirror alone is returned.
func (s *Store) All() []string {
	all := s.Lines()
	onDisk, err := readLines(s.path)
	if err != nil {
		s.log.Warn("log re-read failed, using in-memory records", "path", s.path, "err", err)
		return all
	}
	seen := make(map[string]bool, len(all))
	for _, l := range all {
		seen[l] = true
	}
	for _, l := range onDisk {
		if !seen[l] {
			seen[l] = true
			all = append(all, l)
		}
	}
	return all
}

// Events decodes All, skipping lines that are not records. Each distinct line
// is decoded at most once per Store.
func (s *Store) Events() []model.Event {
	lines := s.All()
	events := make([]model.Event, 0, len(lines))
	for _, l := range lines {
		if ev, ok := s.decode(l); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (s *Store) decode(line string) (model.Event, bool) {
	if r, ok := s.parsed[line]; ok {
		return r.event, r.ok
	}
	ev, err := record.Decode(line, s.loc)
	if err != nil {
		s.log.Debug("skipping unreadable line", "err", err)
	}
	r := parseResult{event: ev, ok: err == nil}
	s.parsed[line] = r
	return r.event, r.ok
}

func (s *Store) remember(line string) {
	if s.seen[line] {
		return
	}
	s.seen[line] = true
	s.lines = append(s.lines, line)
}

func appendLine(path, line string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	// Lines of any length are kept; a bad one is skipped by the decoder, not here.
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}
