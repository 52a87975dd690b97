package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newHandler(&buf, false))
	l.Debug("midi: hidden")
	l.Info("midi: connected", "device", "Keys")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `msg="midi: connected" device=Keys`)

	buf.Reset()
	l = slog.New(newHandler(&buf, true))
	l.Debug("midi: shown")
	assert.Contains(t, buf.String(), "midi: shown")
	assert.Contains(t, buf.String(), "source=")
}

func TestNewWritesToFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "adsr.log")
	l, closer := New(Options{File: path})
	l.Info("session: midi access granted")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session: midi access granted")
}
