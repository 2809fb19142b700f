package punch_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/ponto/internal/integrity"
	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/punch"
	"github.com/Tiliavir/ponto/internal/storage"
)

const host = "3C-22-FB-0A-11-7E"

var (
	quiet = slog.New(slog.NewTextHandler(io.Discard, nil))
	brt   = time.FixedZone("BRT", -3*3600)
)

// fakeClock hands out the times it is set to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newService(t *testing.T, start time.Time) (*punch.Service, *fakeClock, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registros.txt")
	store := storage.Open(path, integrity.NewGuard(path), brt, quiet)
	require.NoError(t, store.Load())
	clock := &fakeClock{t: start}
	return punch.New(store, host, punch.WithClock(clock.Now), punch.WithLogger(quiet)), clock, path
}

func TestRecordEntryThenExit(t *testing.T) {
	svc, clock, path := newService(t, time.Date(2026, 2, 27, 9, 0, 0, 0, brt))

	in, err := svc.Record(model.KindEntry, "AB12CD")
	require.NoError(t, err)
	assert.False(t, in.DigestStale)
	assert.Nil(t, in.Event.Duration)
	assert.Equal(t,
		"TIPO: ENTRADA | DATA/HORA: 2026-02-27 09:00:00 | ID MÁQUINA: "+host+" | PROVA: AB12CD",
		in.Line)

	clock.t = time.Date(2026, 2, 27, 17, 30, 0, 0, brt)
	out, err := svc.Record(model.KindExit, "ZX98YW")
	require.NoError(t, err)
	require.NotNil(t, out.Event.Duration)
	assert.Equal(t, 8*time.Hour+30*time.Minute, *out.Event.Duration)
	assert.True(t, strings.HasSuffix(out.Line, "| DURACAO: 08:30:00"), out.Line)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in.Line+"\n"+out.Line+"\n", string(data))
	assert.NoError(t, integrity.NewGuard(path).Check())

	rep := svc.Report()
	require.Len(t, rep.Days, 1)
	assert.Equal(t, "2026-02-27", rep.Days[0].Date)
	assert.Equal(t, 8*time.Hour+30*time.Minute, rep.Total)
}

func TestRecordExitWithoutEntryIsNA(t *testing.T) {
	svc, _, _ := newService(t, time.Date(2026, 2, 27, 17, 0, 0, 0, brt))

	out, err := svc.Record(model.KindExit, "AAAAAA")
	require.NoError(t, err)
	assert.Nil(t, out.Event.Duration)
	assert.True(t, strings.HasSuffix(out.Line, "| DURACAO: N/A"), out.Line)
}

func TestRecordSecondExitIsNA(t *testing.T) {
	svc, clock, _ := newService(t, time.Date(2026, 2, 27, 9, 0, 0, 0, brt))

	_, err := svc.Record(model.KindEntry, "AAAAAA")
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Hour)
	_, err = svc.Record(model.KindExit, "BBBBBB")
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Hour)
	again, err := svc.Record(model.KindExit, "CCCCCC")
	require.NoError(t, err)
	assert.Nil(t, again.Event.Duration)
}

func TestRecordTruncatesToSecondsInZone(t *testing.T) {
	utc := time.Date(2026, 2, 27, 12, 0, 0, 750_000_000, time.UTC)
	svc, _, _ := newService(t, utc)

	out, err := svc.Record(model.KindEntry, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, brt, out.Event.Timestamp.Location())
	assert.Equal(t, 9, out.Event.Timestamp.Hour())
	assert.Zero(t, out.Event.Timestamp.Nanosecond())
}

func TestRecordWriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registros.txt")
	require.NoError(t, os.Mkdir(path, 0o700))
	store := storage.Open(path, integrity.NewGuard(path), brt, quiet)
	svc := punch.New(store, host, punch.WithLogger(quiet))

	_, err := svc.Record(model.KindEntry, "AAAAAA")
	assert.Error(t, err)
}

func TestRecordDigestStale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registros.txt")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blocked"), []byte("x"), 0o600))
	guard := integrity.NewGuard(filepath.Join(dir, "blocked", "registros.txt"))
	store := storage.Open(path, guard, brt, quiet)
	svc := punch.New(store, host, punch.WithLogger(quiet))

	out, err := svc.Record(model.KindEntry, "AAAAAA")
	require.NoError(t, err)
	assert.True(t, out.DigestStale)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out.Line+"\n", string(data))
}

func TestStatus(t *testing.T) {
	svc, clock, _ := newService(t, time.Date(2026, 2, 27, 8, 0, 0, 0, brt))

	st := svc.Status()
	assert.False(t, st.Open)
	assert.Zero(t, st.Today)

	_, err := svc.Record(model.KindEntry, "AAAAAA")
	require.NoError(t, err)
	clock.t = time.Date(2026, 2, 27, 12, 0, 0, 0, brt)
	_, err = svc.Record(model.KindExit, "BBBBBB")
	require.NoError(t, err)

	clock.t = time.Date(2026, 2, 27, 13, 0, 0, 0, brt)
	_, err = svc.Record(model.KindEntry, "CCCCCC")
	require.NoError(t, err)

	clock.t = time.Date(2026, 2, 27, 14, 30, 0, 0, brt)
	st = svc.Status()
	assert.True(t, st.Open)
	assert.True(t, st.Since.Equal(time.Date(2026, 2, 27, 13, 0, 0, 0, brt)))
	assert.Equal(t, 90*time.Minute, st.Elapsed)
	assert.Equal(t, 5*time.Hour+30*time.Minute, st.Today)
}

func TestReportBetweenAndMachineFilter(t *testing.T) {
	svc, clock, path := newService(t, time.Date(2026, 2, 26, 9, 0, 0, 0, brt))

	_, err := svc.Record(model.KindEntry, "AAAAAA")
	require.NoError(t, err)
	clock.t = clock.t.Add(2 * time.Hour)
	_, err = svc.Record(model.KindExit, "BBBBBB")
	require.NoError(t, err)

	// A record from another machine shows up in the shared file.
	foreign := "TIPO: ENTRADA | DATA/HORA: 2026-02-27 06:00:00 | ID MÁQUINA: other | PROVA: ZZZZZZ"
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(foreign + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	clock.t = time.Date(2026, 2, 27, 10, 0, 0, 0, brt)
	_, err = svc.Record(model.KindEntry, "CCCCCC")
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Hour)
	_, err = svc.Record(model.KindExit, "DDDDDD")
	require.NoError(t, err)

	assert.Len(t, svc.Events(), 5)
	assert.Equal(t, 3*time.Hour, svc.Report().Total)

	day := time.Date(2026, 2, 27, 0, 0, 0, 0, brt)
	only := svc.ReportBetween(day, day)
	require.Len(t, only.Days, 1)
	assert.Equal(t, "2026-02-27", only.Days[0].Date)
	assert.Equal(t, time.Hour, only.Total)
	assert.Equal(t, host, svc.MachineID())
}

func TestRecordRejectsMalformedCode(t *testing.T) {
	svc, _, path := newService(t, time.Date(2026, 2, 27, 9, 0, 0, 0, brt))

	for _, code := range []string{"", "abc123", "ABC12", "ABC 12"} {
		_, err := svc.Record(model.KindEntry, code)
		assert.ErrorIs(t, err, punch.ErrInvalidProof, "code=%q", code)
	}
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
