package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chase3718/adsr-monitor/internal/device"
	"github.com/chase3718/adsr-monitor/internal/session"
)

type listerStub struct {
	inputs []device.Input
	closed bool
}

func (l *listerStub) Inputs() ([]device.Input, error) { return l.inputs, nil }
func (l *listerStub) Close() error                    { l.closed = true; return nil }

func TestListDevices(t *testing.T) {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	l := &listerStub{inputs: []device.Input{{ID: "0", DisplayName: "Keys"}, {ID: "3"}}}

	var out bytes.Buffer
	require.NoError(t, listDevices(&out, func() (inputLister, error) { return l, nil }))
	assert.Equal(t, "0\tKeys\n3\tDevice 3\n", out.String())
	assert.True(t, l.closed)
}

func TestListDevicesUnavailable(t *testing.T) {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	var out bytes.Buffer
	err := listDevices(&out, func() (inputLister, error) {
		return nil, &device.UnavailableError{Err: errors.New("no ALSA")}
	})
	require.NoError(t, err)
	assert.Equal(t, session.SimulatedNotice+"\n", out.String())
}

func TestListDevicesOtherError(t *testing.T) {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	boom := errors.New("boom")

	var out bytes.Buffer
	err := listDevices(&out, func() (inputLister, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, out.String())
}

type closeRecorder struct{ n int }

func (c *closeRecorder) Close() error { c.n++; return nil }

func TestCloseLog(t *testing.T) {
	c := &closeRecorder{}
	logCloser = c
	closeLog()
	closeLog()
	assert.Equal(t, 1, c.n)
	assert.Nil(t, logCloser)
}
