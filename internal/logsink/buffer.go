// Package logsink holds the destinations of the MIDI message log: an
// in-memory line buffer and an optional serial-port mirror.
package logsink

import (
	"errors"
	"strings"
	"sync"
)

// maxLineLength caps a single entry; MIDI log lines are short.
const maxLineLength = 500

// DefaultLines is the buffer capacity used when none is given.
const DefaultLines = 2000

// Buffer remembers the most recent log lines. It is safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	maxLines int
	lines    []string // each includes its newline
	total    int
}

// NewBuffer keeps at most size lines; older ones are rotated out.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultLines
	}
	return &Buffer{maxLines: size, lines: make([]string, 0, size)}
}

// Write appends p as one entry.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) > maxLineLength {
		return 0, errors.New("logsink: line too long")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.lines) >= b.maxLines {
		b.lines = b.lines[1:]
	}
	b.lines = append(b.lines, string(p))
	b.total++
	return len(p), nil
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// String returns the buffered log as one text, oldest line first.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "")
}

// Total is the number of lines ever written, including rotated ones.
func (b *Buffer) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
