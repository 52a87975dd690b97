package logsink

import (
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

// Serial mirrors the MIDI log to a serial device, such as a character
// display on a microcontroller.
type Serial struct {
	port   serial.Port
	name   string
	logger *slog.Logger
}

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(name string, baud int, logger *slog.Logger) (*Serial, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", name, err)
	}
	logger.Info("serial: port opened", "device", name, "baud", baud)
	return newSerial(p, name, logger), nil
}

func newSerial(p serial.Port, name string, logger *slog.Logger) *Serial {
	return &Serial{port: p, name: name, logger: logger}
}

// Write sends p to the port. A write error is logged and swallowed so that a
// flaky display never stops the MIDI log.
func (s *Serial) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		s.logger.Error("serial: write error", "device", s.name, "err", err)
		return len(p), nil
	}
	s.logger.Debug("serial: line sent", "device", s.name, "bytes", n)
	return len(p), nil
}

// Close closes the underlying serial port.
func (s *Serial) Close() error {
	s.logger.Info("serial: closing port", "device", s.name)
	return s.port.Close()
}
