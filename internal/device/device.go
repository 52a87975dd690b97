// Package device gives access to MIDI input ports through gomidi's rtmidi
// driver and delivers their messages as NoteEvents.
package device

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// DefaultExcluded are virtual/system ports that are never listed.
var DefaultExcluded = []string{"Midi Through", "Through Port", "Dummy"}

// DefaultPreferred are picked first when auto-selecting an input.
var DefaultPreferred = []string{"Launchkey", "Novation"}

// ErrNoSuchInput is returned when an input id is not currently present.
var ErrNoSuchInput = errors.New("no such MIDI input")

// UnavailableError reports that MIDI access could not be obtained.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return "midi access unavailable: " + e.Err.Error() }
func (e *UnavailableError) Unwrap() error { return e.Err }

// Driver is the part of a gomidi driver the Set uses.
type Driver interface {
	Ins() ([]drivers.In, error)
	Close() error
}

// Input describes one input port.
type Input struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
}

// Label is the name shown to the user, falling back to the id when the port
// has no name.
func (in Input) Label() string {
	if in.DisplayName != "" {
		return in.DisplayName
	}
	return "Device " + in.ID
}

type listenFunc func(drivers.In, func(midi.Message, int32), ...midi.Option) (func(), error)

type subscription struct {
	name string
	port drivers.In
	stop func()
}

// Set is a live handle on the MIDI inputs of one driver. Each input carries
// at most one subscription.
type Set struct {
	mu       sync.Mutex
	drv      Driver
	listen   listenFunc
	excluded []string
	subs     map[string]*subscription
	logger   *slog.Logger
}

// Option configures a Set.
type Option func(*Set)

// WithExcluded replaces the excluded name patterns.
func WithExcluded(patterns []string) Option {
	return func(s *Set) { s.excluded = patterns }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Set) { s.logger = l }
}

// RequestAccess opens the rtmidi driver. Any failure is an UnavailableError.
func RequestAccess(opts ...Option) (*Set, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, &UnavailableError{Err: fmt.Errorf("rtmididrv: %w", err)}
	}
	return NewSet(drv, opts...), nil
}

// NewSet wraps an already opened driver.
func NewSet(drv Driver, opts ...Option) *Set {
	s := &Set{
		drv:      drv,
		listen:   midi.ListenTo,
		excluded: DefaultExcluded,
		subs:     make(map[string]*subscription),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Close stops every subscription and shuts down the driver.
func (s *Set) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.subs {
		s.closeSub(id)
	}
	return s.drv.Close()
}

// Inputs lists the current, non-excluded input ports.
func (s *Set) Inputs() ([]Input, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ports, err := s.ports()
	if err != nil {
		return nil, err
	}
	out := make([]Input, len(ports))
	for i, p := range ports {
		out[i] = inputOf(p)
	}
	return out, nil
}

// Subscribe routes every message of input id to fn, replacing any earlier
// callback on that input. fn runs on the driver's goroutine.
func (s *Set) Subscribe(id string, fn func(NoteEvent)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ports, err := s.ports()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, p := range ports {
		if inputOf(p).ID == id {
			found = p
			break
		}
	}
	if found == nil {
		return fmt.Errorf("%w: %q", ErrNoSuchInput, id)
	}
	s.closeSub(id)

	name := found.String()
	stop, err := s.listen(found, func(msg midi.Message, _ int32) {
		s.logger.Debug("midi: message", "device", name, "msg", msg.String())
		fn(EventFromBytes([]byte(msg)))
	}, midi.HandleError(func(listenErr error) {
		s.logger.Warn("midi: listener error", "device", name, "err", listenErr)
		// closeSub stops the listener, which must not happen on the
		// listener's own goroutine.
		go func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok && sub.name == name {
				s.closeSub(id)
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}
	s.subs[id] = &subscription{name: name, port: found, stop: stop}
	s.logger.Info("midi: subscribed", "id", id, "device", name)
	return nil
}

// Unsubscribe drops the callback on input id, if any.
func (s *Set) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeSub(id)
}

// Subscribed reports whether input id has a live callback.
func (s *Set) Subscribed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[id]
	return ok
}

// Prune drops subscriptions whose port is no longer present and returns
// their ids.
func (s *Set) Prune() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ports, err := s.ports()
	if err != nil {
		return nil, err
	}
	present := make(map[string]string, len(ports))
	for _, p := range ports {
		in := inputOf(p)
		present[in.ID] = p.String()
	}
	var lost []string
	for id, sub := range s.subs {
		if name, ok := present[id]; ok && name == sub.name {
			continue
		}
		s.logger.Warn("midi: device disappeared", "id", id, "device", sub.name)
		s.closeSub(id)
		lost = append(lost, id)
	}
	return lost, nil
}

func (s *Set) ports() ([]drivers.In, error) {
	ins, err := s.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	var out []drivers.In
	for _, in := range ins {
		name := in.String()
		if matchesAny(name, s.excluded) {
			s.logger.Debug("midi: input excluded", "device", name)
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (s *Set) closeSub(id string) {
	sub, ok := s.subs[id]
	if !ok {
		return
	}
	if sub.stop != nil {
		sub.stop()
	}
	_ = sub.port.Close()
	delete(s.subs, id)
	s.logger.Info("midi: unsubscribed", "id", id, "device", sub.name)
}

func inputOf(p drivers.In) Input {
	return Input{ID: strconv.Itoa(p.Number()), DisplayName: p.String()}
}

// PickPreferred chooses the input to connect to without asking: the first
// match of the earliest preferred pattern, else the only input.
func PickPreferred(inputs []Input, preferred []string) (Input, bool) {
	for _, pat := range preferred {
		for _, in := range inputs {
			if containsCI(in.DisplayName, pat) {
				return in, true
			}
		}
	}
	if len(inputs) == 1 {
		return inputs[0], true
	}
	return Input{}, false
}

func matchesAny(name string, patterns []string) bool {
	for _, pat := range patterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
