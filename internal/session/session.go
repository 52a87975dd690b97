// Package session ties the envelope model, the MIDI inputs and the message
// log together. Every event is handled to completion before the next one.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/chase3718/adsr-monitor/internal/device"
	"github.com/chase3718/adsr-monitor/internal/envelope"
)

// Mode is decided once, when the session is opened.
type Mode int

const (
	// RealDevice reads notes from MIDI hardware.
	RealDevice Mode = iota
	// Simulated only produces synthetic notes. There is no way back to
	// RealDevice for the rest of the session.
	Simulated
)

func (m Mode) String() string {
	switch m {
	case RealDevice:
		return "device"
	case Simulated:
		return "simulated"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// SimulatedNotice is shown to the user when no MIDI access is available.
const SimulatedNotice = "MIDI access unavailable: test mode, use simulate to generate notes"

// ErrSimulated is returned for device operations in Simulated mode.
var ErrSimulated = errors.New("no MIDI device access (simulated mode)")

// Devices is the device-set handle the session drives. *device.Set
// implements it.
type Devices interface {
	Inputs() ([]device.Input, error)
	Subscribe(id string, fn func(device.NoteEvent)) error
	Unsubscribe(id string)
	Subscribed(id string) bool
	Prune() ([]string, error)
	Close() error
}

// AccessFunc requests MIDI access. It is called exactly once.
type AccessFunc func() (Devices, error)

// Session owns one envelope model and at most one selected input.
type Session struct {
	mu        sync.Mutex
	model     *envelope.Model
	mode      Mode
	devices   Devices
	selected  string
	sink      io.Writer
	rng       *rand.Rand
	preferred []string
	listeners []func(envelope.Values)
	logger    *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRand sets the source of simulated notes.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithPreferred sets the name patterns Tick auto-selects. Without it Tick
// never selects an input on its own.
func WithPreferred(patterns []string) Option {
	return func(s *Session) { s.preferred = patterns }
}

// Open requests device access and picks the mode from the result. A nil
// access function forces Simulated mode. Log lines go to sink.
func Open(access AccessFunc, model *envelope.Model, sink io.Writer, opts ...Option) *Session {
	s := &Session{
		model:  model,
		sink:   sink,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if access == nil {
		s.mode = Simulated
		s.logger.Info("session: simulate mode forced")
		return s
	}
	devices, err := access()
	if err != nil {
		s.mode = Simulated
		s.logger.Info("session: entering simulate mode", "err", err)
		return s
	}
	s.mode = RealDevice
	s.devices = devices
	s.logger.Info("session: midi access granted")
	return s
}

// Mode reports the operating mode.
func (s *Session) Mode() Mode { return s.mode }

// Notice is the informational message for the current mode, empty when a
// device is available.
func (s *Session) Notice() string {
	if s.mode == Simulated {
		return SimulatedNotice
	}
	return ""
}

// Params returns the current envelope parameters.
func (s *Session) Params() envelope.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Snapshot()
}

// OnChange registers fn to be called with the new parameters after every
// successful SetParameter, and once immediately.
func (s *Session) OnChange(fn func(envelope.Values)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	fn(s.model.Snapshot())
}

// SetParameter applies a raw control value to the model and notifies the
// change listeners. An invalid value is logged, leaves the model as it was
// and notifies nobody.
func (s *Session) SetParameter(name, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.model.SetParameter(name, raw); err != nil {
		s.logger.Warn("session: parameter rejected", "param", name, "value", raw, "err", err)
		return err
	}
	v := s.model.Snapshot()
	p, _ := envelope.ParseParam(name)
	s.logger.Debug("session: parameter set", "param", p, "value", v.Get(p))
	for _, fn := range s.listeners {
		fn(v)
	}
	return nil
}

// Inputs lists the MIDI inputs. It is empty in Simulated mode.
func (s *Session) Inputs() ([]device.Input, error) {
	if s.mode == Simulated {
		return nil, nil
	}
	return s.devices.Inputs()
}

// Selected returns the id of the selected input, or "".
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select routes input id's messages into the log. The previously selected
// input, if different, stops being listened to.
func (s *Session) Select(id string) error {
	if s.mode == Simulated {
		return ErrSimulated
	}
	// The session lock is not held across device calls: stopping a
	// listener can wait on a callback that is itself waiting in HandleEvent.
	if err := s.devices.Subscribe(id, func(ev device.NoteEvent) { s.HandleEvent(ev) }); err != nil {
		return fmt.Errorf("select %q: %w", id, err)
	}
	s.mu.Lock()
	prev := s.selected
	s.selected = id
	s.mu.Unlock()

	if prev != "" && prev != id {
		s.devices.Unsubscribe(prev)
	}
	s.logger.Info("session: input selected", "id", id)
	return nil
}

// HandleEvent formats ev, appends it to the log and returns the line.
func (s *Session) HandleEvent(ev device.NoteEvent) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle(ev)
}

func (s *Session) handle(ev device.NoteEvent) string {
	line := FormatEvent(ev, s.model.Snapshot())
	if _, err := io.WriteString(s.sink, line); err != nil {
		s.logger.Error("session: log write failed", "err", err)
	}
	return line
}

// Simulate feeds one synthetic Note-On through the same path as device
// messages. Note and velocity are uniform in [0, 127].
func (s *Session) Simulate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := device.NoteOn(byte(s.rng.Intn(128)), byte(s.rng.Intn(128)))
	s.logger.Debug("session: simulated note", "event", ev)
	return s.handle(ev)
}

// Tick checks for a vanished selected input and, with preferred patterns
// configured, selects an input when none is.
func (s *Session) Tick() {
	if s.mode == Simulated {
		return
	}
	lost, err := s.devices.Prune()
	if err != nil {
		s.logger.Error("session: rescan failed", "err", err)
		return
	}
	s.mu.Lock()
	for _, id := range lost {
		if id == s.selected {
			s.logger.Warn("session: selected input lost", "id", id)
			s.selected = ""
		}
	}
	selected := s.selected
	s.mu.Unlock()

	// A listener error drops the subscription without the port vanishing.
	if selected != "" && !s.devices.Subscribed(selected) {
		s.logger.Warn("session: selected input stopped listening", "id", selected)
		s.mu.Lock()
		if s.selected == selected {
			s.selected = ""
		}
		s.mu.Unlock()
		selected = ""
	}

	if selected != "" || len(s.preferred) == 0 {
		return
	}
	inputs, err := s.devices.Inputs()
	if err != nil {
		s.logger.Error("session: list inputs failed", "err", err)
		return
	}
	in, ok := device.PickPreferred(inputs, s.preferred)
	if !ok {
		return
	}
	s.logger.Info("session: auto-selecting input", "id", in.ID, "device", in.Label())
	if err := s.Select(in.ID); err != nil {
		s.logger.Error("session: auto-select failed", "id", in.ID, "err", err)
	}
}

// Run calls Tick every interval until ctx is done.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	s.Tick()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Close releases the device set.
func (s *Session) Close() error {
	if s.devices == nil {
		return nil
	}
	return s.devices.Close()
}
