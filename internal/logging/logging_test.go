package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   TRACE,
		"DEBUG":   DEBUG,
		"":        INFO,
		"warning": WARN,
		" error ": ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("storage", &buf, WARN)

	l.Info("не должно попасть")
	l.Warn("снимок %d", 7)

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[WARN] [storage] снимок 7")

	l.SetLevels(TRACE, TRACE)
	l.Trace("трассировка")
	assert.Contains(t, buf.String(), "[TRACE] [storage] трассировка")
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("ничего") })
}

func TestManager_FileSink(t *testing.T) {
	dir := t.TempDir()
	Configure(Options{Dir: dir, ConsoleLevel: ERROR, FileLevel: DEBUG})
	defer Configure(Options{ConsoleLevel: INFO, FileLevel: DEBUG})

	lm := NewLoggerManager()
	l := lm.Logger("worldgen")
	assert.Same(t, l, lm.Logger("worldgen"), "повторный запрос возвращает тот же логгер")

	l.Debug("колонна готова")
	require.NoError(t, lm.CloseAll())

	files, err := filepath.Glob(filepath.Join(dir, "worldgen_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [worldgen] колонна готова")

	assert.NotSame(t, l, lm.Logger("worldgen"), "после CloseAll логгер создаётся заново")
	require.NoError(t, lm.CloseAll())
}

func TestManager_ConsoleFallback(t *testing.T) {
	// каталог логов указывает на файл, MkdirAll вернёт ошибку
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	Configure(Options{Dir: blocker, ConsoleLevel: ERROR, FileLevel: DEBUG})
	defer Configure(Options{ConsoleLevel: INFO, FileLevel: DEBUG})

	lm := NewLoggerManager()
	l := lm.Logger("storage")
	require.NotNil(t, l)
	assert.Equal(t, "storage", l.Component())
	assert.NotPanics(t, func() { l.Error("снимок не сохранён") })
	assert.NoError(t, lm.CloseAll())
}

func TestHexDump(t *testing.T) {
	assert.Equal(t, "No data", HexDump(nil))
	assert.Contains(t, HexDump([]byte{0xde, 0xad}), "de ad")
	assert.LessOrEqual(t, len(HexDump(make([]byte, 1024))), len(HexDump(make([]byte, 256))))
}
