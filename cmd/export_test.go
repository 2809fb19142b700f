package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/ponto/internal/model"
)

func TestCsvEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"with space", "with space"},
		{"with,comma", `"with,comma"`},
		{`with"quote`, `"with""quote"`},
		{"with\nnewline", "\"with\nnewline\""},
		{"with\rreturn", "\"with\rreturn\""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, csvEscape(tt.input), "csvEscape(%q)", tt.input)
	}
}

func TestWriteExportQuotesMachineID(t *testing.T) {
	d := 90 * time.Minute
	events := []model.Event{{
		Kind:      model.KindExit,
		Timestamp: time.Date(2026, 2, 27, 17, 30, 0, 0, time.UTC),
		MachineID: "desk, second floor",
		Proof:     "AB12CD",
		Duration:  &d,
	}}

	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, "csv", events))
	assert.Equal(t,
		"kind,timestamp,machine_id,proof,duration\n"+
			"SAIDA,2026-02-27T17:30:00Z,\"desk, second floor\",AB12CD,01:30:00\n",
		buf.String())
}

func TestWriteExportEmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, "json", nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteExportUnknownFormat(t *testing.T) {
	assert.Error(t, writeExport(&bytes.Buffer{}, "md", nil))
}
