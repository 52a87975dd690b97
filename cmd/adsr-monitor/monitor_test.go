package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chase3718/adsr-monitor/internal/envelope"
	"github.com/chase3718/adsr-monitor/internal/logsink"
	"github.com/chase3718/adsr-monitor/internal/session"
)

func newTestEnv(t *testing.T) (*env, *logsink.Buffer) {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger = quiet
	buf := logsink.NewBuffer(100)
	sess := session.Open(nil, envelope.NewModel(), buf, session.WithLogger(quiet))
	return &env{sess: sess, renderer: envelope.NewRenderer()}, buf
}

func TestEvalSetAndShow(t *testing.T) {
	e, _ := newTestEnv(t)
	out, err := e.eval("set sustain 0.25")
	require.NoError(t, err)
	assert.Contains(t, out, "sustain  0.25\n")
	assert.Equal(t, 0.25, e.sess.Params().Sustain)

	out, err = e.eval("show")
	require.NoError(t, err)
	assert.Contains(t, out, "attack   0.5\n")
	assert.Contains(t, out, "envelope (10,200) (106,10) (202,155) (490,155) (490,200)\n")
}

func TestEvalSetInvalid(t *testing.T) {
	e, _ := newTestEnv(t)
	_, err := e.eval("set attack abc")
	var ipe *envelope.InvalidParameterError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, 0.5, e.sess.Params().Attack)

	_, err = e.eval("set attack")
	assert.ErrorContains(t, err, "usage: set")
}

func TestEvalSimulate(t *testing.T) {
	e, buf := newTestEnv(t)
	_, err := e.eval("simulate")
	require.NoError(t, err)
	_, err = e.eval("simulate 4")
	require.NoError(t, err)
	assert.Len(t, buf.Lines(), 5)

	_, err = e.eval("simulate zero")
	assert.Error(t, err)
	_, err = e.eval("simulate 1 2")
	assert.Error(t, err)
}

func TestEvalSimulatedModeDevices(t *testing.T) {
	e, _ := newTestEnv(t)
	out, err := e.eval("devices")
	require.NoError(t, err)
	assert.Equal(t, session.SimulatedNotice+"\n", out)

	out, err = e.eval("mode")
	require.NoError(t, err)
	assert.Equal(t, "simulated\n", out)

	_, err = e.eval("select 0")
	assert.ErrorIs(t, err, session.ErrSimulated)
}

func TestEvalRender(t *testing.T) {
	e, _ := newTestEnv(t)
	dir := t.TempDir()

	png := filepath.Join(dir, "env.png")
	_, err := e.eval("render " + png)
	require.NoError(t, err)
	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	svg := filepath.Join(dir, "env.svg")
	_, err = e.eval("render " + svg)
	require.NoError(t, err)
	data, err := os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `points="10,200 106,10 202,110 490,110 490,200"`)

	_, err = e.eval("render " + filepath.Join(dir, "env.gif"))
	assert.ErrorContains(t, err, "unsupported output")
}

func TestEvalUnknownAndQuit(t *testing.T) {
	e, _ := newTestEnv(t)
	_, err := e.eval("bogus")
	assert.ErrorContains(t, err, "unknown command")

	_, err = e.eval("quit")
	assert.ErrorIs(t, err, errQuit)

	out, err := e.eval("help")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "devices\n"))
}
