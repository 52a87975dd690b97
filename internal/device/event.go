package device

import "fmt"

// Status nibbles.
const (
	statusNoteOff = 0x80
	statusNoteOn  = 0x90
)

// NoteEvent is a raw three byte MIDI message.
type NoteEvent struct {
	Status byte
	Data1  byte // note number
	Data2  byte // velocity
}

// NoteOn builds a Note-On event on channel 0.
func NoteOn(note, velocity byte) NoteEvent {
	return NoteEvent{Status: statusNoteOn, Data1: note, Data2: velocity}
}

// EventFromBytes takes the first three bytes of msg. Shorter messages are
// padded with zeros.
func EventFromBytes(msg []byte) NoteEvent {
	var b [3]byte
	copy(b[:], msg)
	return NoteEvent{Status: b[0], Data1: b[1], Data2: b[2]}
}

// IsNoteOn reports whether e is a Note-On message with a non-zero velocity.
// A Note-On with velocity 0 is a note release.
func (e NoteEvent) IsNoteOn() bool {
	return e.Status&0xF0 == statusNoteOn && e.Data2 > 0
}

// Channel is the low nibble of the status byte.
func (e NoteEvent) Channel() byte { return e.Status & 0x0F }

func (e NoteEvent) String() string {
	return fmt.Sprintf("[%#02x %d %d]", e.Status, e.Data1, e.Data2)
}
