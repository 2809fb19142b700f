// Package record converts clock events to and from the pipe-delimited log line
// format, e.g.
//
//	TIPO: SAIDA   | DATA/HORA: 2026-02-27 17:30:00 | ID MÁQUINA: 3C-22-FB-0A-11-7E | PROVA: K9X2QA | DURACAO: 08:30:00
//
// The format is meant to be read by people as well as by this package, so the
// only parsing primitive is ExtractField.
package record

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/timecalc"
)

// Field keys, including the trailing colon.
const (
	KeyKind      = "TIPO:"
	KeyTimestamp = "DATA/HORA:"
	KeyMachineID = "ID MÁQUINA:"
	KeyProof     = "PROVA:"
	KeyDuration  = "DURACAO:"
)

// TimestampLayout is the DATA/HORA format (yyyy-MM-dd HH:mm:ss).
const TimestampLayout = "2006-01-02 15:04:05"

// NotAvailable marks an exit with no matching entry.
const NotAvailable = "N/A"

// ErrMalformed is wrapped by every Decode failure.
var ErrMalformed = errors.New("malformed record")

// Encode renders e as a single log line without the trailing newline.
// The timestamp is written in e.Timestamp's own location.
func Encode(e model.Event) string {
	line := fmt.Sprintf("%s %-7s | %s %s | %s %s | %s %s",
		KeyKind, e.Kind,
		KeyTimestamp, e.Timestamp.Format(TimestampLayout),
		KeyMachineID, e.MachineID,
		KeyProof, e.Proof)
	if e.Kind == model.KindExit {
		dur := NotAvailable
		if e.Duration != nil {
			dur = timecalc.FormatHHMMSS(*e.Duration)
		}
		line += " | " + KeyDuration + " " + dur
	}
	return line
}

// ExtractField returns the trimmed text that follows key up to the next '|'
// or the end of the line. Both are compared in NFC so a decomposed "Á" typed
// by a text editor still matches.
func ExtractField(line, key string) (string, bool) {
	line = norm.NFC.String(line)
	key = norm.NFC.String(key)
	idx := strings.Index(line, key)
	if idx == -1 {
		return "", false
	}
	rest := line[idx+len(key):]
	if end := strings.IndexByte(rest, '|'); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}

// Decode parses a log line. Timestamps are interpreted in loc. TIPO,
// DATA/HORA and ID MÁQUINA are required; a missing PROVA decodes as empty and
// an absent or unreadable DURACAO decodes as nil.
func Decode(line string, loc *time.Location) (model.Event, error) {
	rawKind, ok := ExtractField(line, KeyKind)
	if !ok {
		return model.Event{}, fmt.Errorf("%w: missing %s", ErrMalformed, KeyKind)
	}
	kind, ok := model.ParseKind(rawKind)
	if !ok {
		return model.Event{}, fmt.Errorf("%w: unknown kind %q", ErrMalformed, rawKind)
	}

	rawTS, ok := ExtractField(line, KeyTimestamp)
	if !ok {
		return model.Event{}, fmt.Errorf("%w: missing %s", ErrMalformed, KeyTimestamp)
	}
	ts, err := time.ParseInLocation(TimestampLayout, rawTS, loc)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformed, rawTS, err)
	}

	machineID, ok := ExtractField(line, KeyMachineID)
	if !ok || machineID == "" {
		return model.Event{}, fmt.Errorf("%w: missing %s", ErrMalformed, KeyMachineID)
	}

	ev := model.Event{
		Kind:      kind,
		Timestamp: ts,
		MachineID: machineID,
	}
	ev.Proof, _ = ExtractField(line, KeyProof)

	if kind == model.KindExit {
		if raw, ok := ExtractField(line, KeyDuration); ok && raw != NotAvailable {
			if d, err := timecalc.ParseHHMMSS(raw); err == nil {
				ev.Duration = &d
			}
		}
	}
	return ev, nil
}
