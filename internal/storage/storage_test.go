package storage_test

import (
	"errors"
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
	"github.com/Tiliavir/ponto/internal/storage"
)

var (
	quiet = slog.New(slog.NewTextHandler(io.Discard, nil))
	brt   = time.FixedZone("BRT", -3*3600)
)

const (
	entryLine = "TIPO: ENTRADA | DATA/HORA: 2026-02-27 09:00:00 | ID MÁQUINA: host-1 | PROVA: AAAAAA"
	exitLine  = "TIPO: SAIDA   | DATA/HORA: 2026-02-27 17:30:00 | ID MÁQUINA: host-1 | PROVA: BBBBBB | DURACAO: 08:30:00"
)

func newStore(t *testing.T) (*storage.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registros.txt")
	return storage.Open(path, integrity.NewGuard(path), brt, quiet), path
}

func TestLoadMissingFile(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Load())
	assert.Empty(t, s.Lines())
	assert.Empty(t, s.All())
}

func TestLoadReadsExistingLines(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte(entryLine+"\r\n"+exitLine+"\n"), 0o600))

	require.NoError(t, s.Load())
	assert.Equal(t, []string{entryLine, exitLine}, s.Lines())
}

func TestAppendWritesLineAndDigest(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, s.Load())

	require.NoError(t, s.Append(entryLine))
	require.NoError(t, s.Append(exitLine))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, entryLine+"\n"+exitLine+"\n", string(data))

	g := integrity.NewGuard(path)
	stored, err := g.Stored()
	require.NoError(t, err)
	assert.Equal(t, integrity.Digest(data), stored)
	assert.NoError(t, g.Check())
}

func TestAppendKeepsEarlierBytes(t *testing.T) {
	s, path := newStore(t)
	original := []byte("a line written by hand\n")
	require.NoError(t, os.WriteFile(path, original, 0o600))
	require.NoError(t, s.Load())

	require.NoError(t, s.Append(entryLine))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(original)+entryLine+"\n", string(data))
}

func TestAppendDigestFailureStillAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registros.txt")
	// The digest lives in a directory that cannot hold files.
	guard := integrity.NewGuard(filepath.Join(dir, "blocked", "registros.txt"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blocked"), []byte("not a dir"), 0o600))
	s := storage.Open(path, guard, brt, quiet)

	err := s.Append(entryLine)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrDigestStale))

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, entryLine+"\n", string(data))
	assert.Equal(t, []string{entryLine}, s.Lines())
}

func TestAppendWriteFailure(t *testing.T) {
	dir := t.TempDir()
	// The log path is a directory, so opening it for append fails.
	path := filepath.Join(dir, "registros.txt")
	require.NoError(t, os.Mkdir(path, 0o700))
	s := storage.Open(path, integrity.NewGuard(path), brt, quiet)

	err := s.Append(entryLine)
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrDigestStale))
	assert.Equal(t, []string{entryLine}, s.Lines(), "the session view keeps the attempted line")
}

func TestAllMergesAndDeduplicates(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte(entryLine+"\n"), 0o600))
	require.NoError(t, s.Load())
	require.NoError(t, s.Append(exitLine))

	// Another line shows up on disk after load.
	late := "TIPO: ENTRADA | DATA/HORA: 2026-02-28 08:00:00 | ID MÁQUINA: host-1 | PROVA: CCCCCC"
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(late + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, []string{entryLine, exitLine, late}, s.All())
	assert.Equal(t, []string{entryLine, exitLine}, s.Lines())
}

func TestLoadKeepsRecordsAroundOversizedLine(t *testing.T) {
	s, path := newStore(t)
	junk := strings.Repeat("x", 2<<20)
	content := entryLine + "\n" + junk + "\n" + exitLine + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, s.Load())
	lines := s.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, entryLine, lines[0])
	assert.Len(t, lines[1], 2<<20)
	assert.Equal(t, exitLine, lines[2])

	events := s.Events()
	require.Len(t, events, 2)
	assert.Equal(t, model.KindEntry, events[0].Kind)
	assert.Equal(t, model.KindExit, events[1].Kind)
}

func TestLoadWithoutTrailingNewline(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte(entryLine+"\n"+exitLine), 0o600))

	require.NoError(t, s.Load())
	assert.Equal(t, []string{entryLine, exitLine}, s.Lines())
}

func TestLinesDeduplicatesRepeatedLoad(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte(entryLine+"\n"), 0o600))
	require.NoError(t, s.Load())
	require.NoError(t, s.Load())
	assert.Equal(t, []string{entryLine}, s.Lines())
}

func TestEventsSkipsForeignLines(t *testing.T) {
	s, path := newStore(t)
	content := entryLine + "\n" + "garbage that is not a record\n" + exitLine + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, s.Load())

	events := s.Events()
	require.Len(t, events, 2)
	assert.Equal(t, model.KindEntry, events[0].Kind)
	assert.Equal(t, model.KindExit, events[1].Kind)
	assert.True(t, events[0].Timestamp.Equal(time.Date(2026, 2, 27, 9, 0, 0, 0, brt)))
	require.NotNil(t, events[1].Duration)
	assert.Equal(t, 8*time.Hour+30*time.Minute, *events[1].Duration)

	// A second call gives the same answer from the cache.
	assert.Equal(t, events, s.Events())
}
