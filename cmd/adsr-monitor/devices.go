package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chase3718/adsr-monitor/internal/device"
	"github.com/chase3718/adsr-monitor/internal/session"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List MIDI input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listDevices(cmd.OutOrStdout(), func() (inputLister, error) {
			set, err := device.RequestAccess(device.WithExcluded(cfg.excluded), device.WithLogger(logger))
			if err != nil {
				return nil, err
			}
			return set, nil
		})
	},
}

type inputLister interface {
	Inputs() ([]device.Input, error)
	Close() error
}

// listDevices prints the inputs, or the test mode notice when MIDI access is
// unavailable.
func listDevices(out io.Writer, access func() (inputLister, error)) error {
	set, err := access()
	var unavailable *device.UnavailableError
	if errors.As(err, &unavailable) {
		logger.Info("devices: midi access unavailable", "err", err)
		fmt.Fprintln(out, session.SimulatedNotice)
		return nil
	}
	if err != nil {
		return err
	}
	defer set.Close()

	inputs, err := set.Inputs()
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Fprintln(out, "no MIDI inputs")
		return nil
	}
	for _, in := range inputs {
		fmt.Fprintf(out, "%s\t%s\n", in.ID, in.Label())
	}
	return nil
}
