package model

import (
	"strings"
	"time"
)

// Kind is the type of a clock event as it appears in the log.
type Kind string

const (
	KindEntry Kind = "ENTRADA"
	KindExit  Kind = "SAIDA"
)

// ParseKind maps a log TIPO value onto a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(KindEntry):
		return KindEntry, true
	case string(KindExit):
		return KindExit, true
	default:
		return "", false
	}
}

// Event is a single clock-in or clock-out. It is written once and never mutated.
type Event struct {
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	MachineID string    `json:"machine_id"`
	Proof     string    `json:"proof"`
	// Duration is only set on exits that closed an open entry; nil renders as N/A.
	Duration *time.Duration `json:"duration,omitempty"`
}

// DayTotal is the worked time credited to one calendar date.
type DayTotal struct {
	Date     string        `json:"date"`
	Duration time.Duration `json:"duration"`
}

// Report is the derived daily ledger for one machine. Days are in ascending date order.
type Report struct {
	MachineID string        `json:"machine_id"`
	Days      []DayTotal    `json:"days"`
	Total     time.Duration `json:"total"`
}
