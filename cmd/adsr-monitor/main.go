// Command adsr-monitor logs incoming MIDI messages, adjusts Note-On
// velocities through an ADSR envelope and sketches the envelope shape.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chase3718/adsr-monitor/internal/device"
	"github.com/chase3718/adsr-monitor/internal/envelope"
	"github.com/chase3718/adsr-monitor/internal/logging"
	"github.com/chase3718/adsr-monitor/internal/logsink"
	"github.com/chase3718/adsr-monitor/internal/session"
)

// logger is the process-wide structured logger, replaced in PersistentPreRun.
var logger = slog.Default()

type config struct {
	debug      bool
	logFile    string
	logMaxSize int
	logLines   int
	simulate   bool
	preferred  []string
	excluded   []string
	serialDev  string
	baud       int
	rescan     time.Duration

	width, height, padding float64
	strokeColor            string
	strokeWidth            float64
}

var cfg config

var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "adsr-monitor",
	Short: "MIDI input monitor with an ADSR envelope",
	Long: `adsr-monitor logs the messages of a MIDI input, adjusts Note-On velocities
through the sustain level of an ADSR envelope and sketches the envelope.

Without MIDI access it runs in test mode, where notes are simulated.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger, logCloser = logging.New(logging.Options{
			Debug:     cfg.debug,
			File:      cfg.logFile,
			MaxSizeMB: cfg.logMaxSize,
		})
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.BoolVar(&cfg.debug, "debug", false, "enable debug logging (adds source location)")
	f.StringVar(&cfg.logFile, "log-file", "", "write diagnostics to a rotating file instead of stderr")
	f.IntVar(&cfg.logMaxSize, "log-max-size", 20, "log file size in megabytes before rotation")
	f.IntVar(&cfg.logLines, "log-lines", logsink.DefaultLines, "MIDI log lines kept in memory")
	f.BoolVar(&cfg.simulate, "simulate", false, "skip MIDI access and simulate notes")
	f.StringSliceVar(&cfg.preferred, "prefer", device.DefaultPreferred, "input name patterns selected automatically")
	f.StringSliceVar(&cfg.excluded, "exclude", device.DefaultExcluded, "input name patterns never listed")
	f.StringVar(&cfg.serialDev, "serial", "", "mirror the MIDI log to this serial device")
	f.IntVar(&cfg.baud, "baud", 115200, "serial baud rate")
	f.DurationVar(&cfg.rescan, "rescan", time.Second, "MIDI input rescan interval")

	f.Float64Var(&cfg.width, "width", envelope.DefaultLayout.Width, "envelope sketch width")
	f.Float64Var(&cfg.height, "height", envelope.DefaultLayout.Height, "envelope sketch height")
	f.Float64Var(&cfg.padding, "padding", envelope.DefaultLayout.Padding, "envelope sketch padding")
	f.StringVar(&cfg.strokeColor, "stroke-color", "black", "envelope line colour (name or #rrggbb)")
	f.Float64Var(&cfg.strokeWidth, "stroke-width", envelope.DefaultStyle.StrokeWidth, "envelope line width")

	rootCmd.AddCommand(serveCmd, monitorCmd, renderCmd, devicesCmd)
}

func main() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// closeLog flushes and closes the log file, if one was opened.
func closeLog() {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

// interruptContext is cancelled on SIGINT or SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newRenderer() (*envelope.Renderer, error) {
	c, err := envelope.ParseColor(cfg.strokeColor)
	if err != nil {
		return nil, err
	}
	return &envelope.Renderer{
		Layout: envelope.Layout{Width: cfg.width, Height: cfg.height, Padding: cfg.padding},
		Style:  envelope.Style{StrokeColor: c, StrokeWidth: cfg.strokeWidth},
	}, nil
}

// accessFunc returns the device request used to pick the session mode, or
// nil when simulation is forced.
func accessFunc() session.AccessFunc {
	if cfg.simulate {
		return nil
	}
	return func() (session.Devices, error) {
		set, err := device.RequestAccess(device.WithExcluded(cfg.excluded), device.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return set, nil
	}
}

// openSink builds the MIDI log destinations: the in-memory buffer, the
// serial mirror when configured, and any extra writers.
func openSink(extra ...io.Writer) (*logsink.Buffer, io.Writer, func(), error) {
	buf := logsink.NewBuffer(cfg.logLines)
	writers := append([]io.Writer{buf}, extra...)
	cleanup := func() {}
	if cfg.serialDev != "" {
		sp, err := logsink.OpenSerial(cfg.serialDev, cfg.baud, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		writers = append(writers, sp)
		cleanup = func() { sp.Close() }
	}
	return buf, io.MultiWriter(writers...), cleanup, nil
}

func openSession(sink io.Writer) *session.Session {
	sess := session.Open(accessFunc(), envelope.NewModel(), sink,
		session.WithLogger(logger),
		session.WithPreferred(cfg.preferred))
	logger.Info("adsr-monitor starting",
		"mode", sess.Mode(),
		"simulate", cfg.simulate,
		"serial", cfg.serialDev,
		"debug", cfg.debug,
	)
	if n := sess.Notice(); n != "" {
		fmt.Fprintln(os.Stderr, n)
	}
	return sess
}
