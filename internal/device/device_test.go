package device

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type fakePort struct {
	num    int
	name   string
	open   bool
	closes int
}

func (p *fakePort) Open() error             { p.open = true; return nil }
func (p *fakePort) Close() error            { p.open = false; p.closes++; return nil }
func (p *fakePort) IsOpen() bool            { return p.open }
func (p *fakePort) Number() int             { return p.num }
func (p *fakePort) String() string          { return p.name }
func (p *fakePort) Underlying() interface{} { return nil }
func (p *fakePort) Listen(func([]byte, int32), drivers.ListenConfig) (func(), error) {
	return nil, errors.New("fakePort: use the injected listen func")
}

type fakeDriver struct {
	mu     sync.Mutex
	ports  []*fakePort
	err    error
	closed bool
}

func (d *fakeDriver) Ins() ([]drivers.In, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	ins := make([]drivers.In, len(d.ports))
	for i, p := range d.ports {
		ins[i] = p
	}
	return ins, nil
}

func (d *fakeDriver) Close() error { d.closed = true; return nil }

// fakeListener records the receive callback of each port so tests can push
// messages through it.
type fakeListener struct {
	recv    map[string]func(midi.Message, int32)
	stopped map[string]int
	err     error
}

func newFakeListener() *fakeListener {
	return &fakeListener{
		recv:    make(map[string]func(midi.Message, int32)),
		stopped: make(map[string]int),
	}
}

func (l *fakeListener) listen(in drivers.In, recv func(midi.Message, int32), _ ...midi.Option) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	name := in.String()
	_ = in.Open()
	l.recv[name] = recv
	return func() {
		l.stopped[name]++
		delete(l.recv, name)
	}, nil
}

func newTestSet(ports ...*fakePort) (*Set, *fakeDriver, *fakeListener) {
	drv := &fakeDriver{ports: ports}
	l := newFakeListener()
	s := NewSet(drv)
	s.listen = l.listen
	return s, drv, l
}

func TestInputsExcludesVirtualPorts(t *testing.T) {
	s, _, _ := newTestSet(
		&fakePort{num: 0, name: "Midi Through Port-0"},
		&fakePort{num: 1, name: "Launchkey Mini MK3"},
		&fakePort{num: 2, name: ""},
	)
	ins, err := s.Inputs()
	require.NoError(t, err)
	assert.Equal(t, []Input{
		{ID: "1", DisplayName: "Launchkey Mini MK3"},
		{ID: "2", DisplayName: ""},
	}, ins)
	assert.Equal(t, "Launchkey Mini MK3", ins[0].Label())
	assert.Equal(t, "Device 2", ins[1].Label())
}

func TestInputsDriverError(t *testing.T) {
	s, drv, _ := newTestSet()
	drv.err = errors.New("boom")
	_, err := s.Inputs()
	assert.Error(t, err)
}

func TestSubscribeDeliversEvents(t *testing.T) {
	port := &fakePort{num: 3, name: "Keys"}
	s, _, l := newTestSet(port)

	var got []NoteEvent
	require.NoError(t, s.Subscribe("3", func(e NoteEvent) { got = append(got, e) }))
	assert.True(t, s.Subscribed("3"))
	assert.True(t, port.open)

	l.recv["Keys"](midi.Message{0x90, 60, 100}, 0)
	l.recv["Keys"](midi.Message{0xF8}, 0)
	assert.Equal(t, []NoteEvent{
		{Status: 0x90, Data1: 60, Data2: 100},
		{Status: 0xF8},
	}, got)
}

func TestSubscribeReplacesCallback(t *testing.T) {
	port := &fakePort{num: 0, name: "Keys"}
	s, _, l := newTestSet(port)

	var first, second int
	require.NoError(t, s.Subscribe("0", func(NoteEvent) { first++ }))
	require.NoError(t, s.Subscribe("0", func(NoteEvent) { second++ }))
	assert.Equal(t, 1, l.stopped["Keys"])

	l.recv["Keys"](midi.Message{0x90, 1, 1}, 0)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestSubscribeUnknownInput(t *testing.T) {
	s, _, _ := newTestSet(&fakePort{num: 0, name: "Keys"})
	err := s.Subscribe("7", func(NoteEvent) {})
	require.ErrorIs(t, err, ErrNoSuchInput)
	assert.False(t, s.Subscribed("7"))
}

func TestSubscribeListenError(t *testing.T) {
	port := &fakePort{num: 0, name: "Keys"}
	s, _, l := newTestSet(port)
	l.err = errors.New("port busy")
	require.Error(t, s.Subscribe("0", func(NoteEvent) {}))
	assert.False(t, s.Subscribed("0"))
	assert.False(t, port.open)
}

func TestUnsubscribe(t *testing.T) {
	port := &fakePort{num: 0, name: "Keys"}
	s, _, l := newTestSet(port)
	require.NoError(t, s.Subscribe("0", func(NoteEvent) {}))
	s.Unsubscribe("0")
	assert.False(t, s.Subscribed("0"))
	assert.Equal(t, 1, l.stopped["Keys"])
	assert.Equal(t, 1, port.closes)

	// Unknown ids are ignored.
	s.Unsubscribe("9")
}

func TestPruneDropsMissingPorts(t *testing.T) {
	keys := &fakePort{num: 0, name: "Keys"}
	pads := &fakePort{num: 1, name: "Pads"}
	s, drv, _ := newTestSet(keys, pads)
	require.NoError(t, s.Subscribe("0", func(NoteEvent) {}))
	require.NoError(t, s.Subscribe("1", func(NoteEvent) {}))

	lost, err := s.Prune()
	require.NoError(t, err)
	assert.Empty(t, lost)

	drv.mu.Lock()
	drv.ports = []*fakePort{pads}
	drv.mu.Unlock()

	lost, err = s.Prune()
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, lost)
	assert.False(t, s.Subscribed("0"))
	assert.True(t, s.Subscribed("1"))
}

func TestPruneDetectsRenumberedPort(t *testing.T) {
	keys := &fakePort{num: 0, name: "Keys"}
	s, drv, _ := newTestSet(keys)
	require.NoError(t, s.Subscribe("0", func(NoteEvent) {}))

	// Another device took index 0 after a replug.
	drv.mu.Lock()
	drv.ports = []*fakePort{{num: 0, name: "Pads"}, {num: 1, name: "Keys"}}
	drv.mu.Unlock()

	lost, err := s.Prune()
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, lost)
}

func TestClose(t *testing.T) {
	port := &fakePort{num: 0, name: "Keys"}
	s, drv, l := newTestSet(port)
	require.NoError(t, s.Subscribe("0", func(NoteEvent) {}))
	require.NoError(t, s.Close())
	assert.True(t, drv.closed)
	assert.Equal(t, 1, l.stopped["Keys"])
}

func TestPickPreferred(t *testing.T) {
	ins := []Input{
		{ID: "0", DisplayName: "USB Keyboard"},
		{ID: "1", DisplayName: "Novation Launchkey 49"},
	}
	in, ok := PickPreferred(ins, []string{"launchkey"})
	require.True(t, ok)
	assert.Equal(t, "1", in.ID)

	_, ok = PickPreferred(ins, []string{"Akai"})
	assert.False(t, ok)

	in, ok = PickPreferred(ins[:1], []string{"Akai"})
	require.True(t, ok)
	assert.Equal(t, "0", in.ID)

	_, ok = PickPreferred(nil, DefaultPreferred)
	assert.False(t, ok)
}

func TestNoteEvent(t *testing.T) {
	assert.True(t, NoteOn(60, 100).IsNoteOn())
	assert.False(t, NoteOn(60, 0).IsNoteOn())
	assert.True(t, NoteEvent{Status: 0x93, Data1: 1, Data2: 1}.IsNoteOn())
	assert.Equal(t, byte(3), NoteEvent{Status: 0x93}.Channel())
	assert.False(t, NoteEvent{Status: 0x80, Data1: 60}.IsNoteOn())
	assert.Equal(t, NoteEvent{Status: 0xC0, Data1: 5}, EventFromBytes([]byte{0xC0, 5}))
}
