package session

import (
	"fmt"
	"strconv"

	"github.com/chase3718/adsr-monitor/internal/device"
	"github.com/chase3718/adsr-monitor/internal/envelope"
)

// FormatEvent renders the log line for ev. Note-On messages with a non-zero
// velocity carry the velocity adjusted through v; everything else is
// printed as its three raw bytes.
func FormatEvent(ev device.NoteEvent, v envelope.Values) string {
	if !ev.IsNoteOn() {
		return fmt.Sprintf("Status: %d, Data1: %d, Data2: %d\n", ev.Status, ev.Data1, ev.Data2)
	}
	adjusted := envelope.AdjustVelocity(int(ev.Data2), v.Sustain)
	return fmt.Sprintf("Note On: %d, Velocity: %d → Adjusted: %s\n",
		ev.Data1, ev.Data2, formatNumber(adjusted))
}

// formatNumber prints the shortest decimal that reads back as f, with no
// exponent and no trailing zeros: 50.5, 100, 18.7.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
