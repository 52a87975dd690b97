package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/chase3718/adsr-monitor/internal/envelope"
	"github.com/chase3718/adsr-monitor/internal/session"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor MIDI input from an interactive prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := newRenderer()
		if err != nil {
			return err
		}
		rl, err := readline.NewEx(&readline.Config{
			Prompt:       "adsr> ",
			AutoComplete: completer(),
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		// Log lines are printed above the prompt as they arrive.
		_, sink, closeSink, err := openSink(rl.Stdout())
		if err != nil {
			return err
		}
		defer closeSink()

		sess := openSession(sink)
		defer sess.Close()

		ctx, stop := interruptContext()
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go sess.Run(ctx, cfg.rescan)

		return runREPL(rl, &env{sess: sess, renderer: renderer})
	},
}

type env struct {
	sess     *session.Session
	renderer *envelope.Renderer
}

var errQuit = errors.New("quit")

func runREPL(rl *readline.Instance, e *env) error {
	out := rl.Stdout()
	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		result, err := e.eval(line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if result != "" {
			fmt.Fprint(out, result)
		}
	}
}

type command struct {
	name  string
	usage string
	run   func(*env, []string) (string, error)
	arity int // -n means len(args) must be <= n
}

var commands []command

func init() {
	commands = []command{
		{"devices", "devices", devicesCommand, 0},
		{"select", "select <id>", selectCommand, 1},
		{"set", "set <attack|decay|sustain|release> <value>", setCommand, 2},
		{"show", "show", showCommand, 0},
		{"simulate", "simulate [count]", simulateCommand, -1},
		{"render", "render <file.png|file.svg>", renderCommand, 1},
		{"mode", "mode", modeCommand, 0},
		{"help", "help", helpCommand, 0},
		{"quit", "quit", func(*env, []string) (string, error) { return "", errQuit }, 0},
	}
}

func (e *env) eval(input string) (string, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := fields[0], fields[1:]
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			if len(args) > -cmd.arity {
				return "", fmt.Errorf("usage: %s", cmd.usage)
			}
		} else if len(args) != cmd.arity {
			return "", fmt.Errorf("usage: %s", cmd.usage)
		}
		result, err := cmd.run(e, args)
		if err != nil && !errors.Is(err, errQuit) {
			return result, fmt.Errorf("%s: %w", cmd.name, err)
		}
		return result, err
	}
	return "", fmt.Errorf("unknown command: %s (try help)", name)
}

func devicesCommand(e *env, _ []string) (string, error) {
	if e.sess.Mode() == session.Simulated {
		return session.SimulatedNotice + "\n", nil
	}
	inputs, err := e.sess.Inputs()
	if err != nil {
		return "", err
	}
	if len(inputs) == 0 {
		return "no MIDI inputs\n", nil
	}
	var b strings.Builder
	selected := e.sess.Selected()
	for _, in := range inputs {
		mark := " "
		if in.ID == selected {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s\t%s\n", mark, in.ID, in.Label())
	}
	return b.String(), nil
}

func selectCommand(e *env, args []string) (string, error) {
	return "", e.sess.Select(args[0])
}

func setCommand(e *env, args []string) (string, error) {
	if err := e.sess.SetParameter(args[0], args[1]); err != nil {
		return "", err
	}
	return showCommand(e, nil)
}

func showCommand(e *env, _ []string) (string, error) {
	v := e.sess.Params()
	var b strings.Builder
	for _, p := range envelope.Params {
		fmt.Fprintf(&b, "%-8s %s\n", p, strconv.FormatFloat(v.Get(p), 'f', -1, 64))
	}
	g, err := e.renderer.Geometry(v)
	if err != nil {
		fmt.Fprintf(&b, "envelope: %v\n", err)
		return b.String(), nil
	}
	pts := make([]string, len(g))
	for i, p := range g {
		pts[i] = p.String()
	}
	fmt.Fprintf(&b, "envelope %s\n", strings.Join(pts, " "))
	return b.String(), nil
}

func simulateCommand(e *env, args []string) (string, error) {
	n := 1
	if len(args) == 1 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
			return "", fmt.Errorf("bad count %q", args[0])
		}
	}
	for i := 0; i < n; i++ {
		e.sess.Simulate()
	}
	return "", nil
}

func renderCommand(e *env, args []string) (string, error) {
	return "", writeEnvelope(e.renderer, e.sess.Params(), args[0])
}

func modeCommand(e *env, _ []string) (string, error) {
	return e.sess.Mode().String() + "\n", nil
}

func helpCommand(*env, []string) (string, error) {
	var b strings.Builder
	for _, cmd := range commands {
		fmt.Fprintln(&b, cmd.usage)
	}
	return b.String(), nil
}

func completer() *readline.PrefixCompleter {
	params := make([]readline.PrefixCompleterInterface, len(envelope.Params))
	for i, p := range envelope.Params {
		params[i] = readline.PcItem(string(p))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("devices"),
		readline.PcItem("select"),
		readline.PcItem("set", params...),
		readline.PcItem("show"),
		readline.PcItem("simulate"),
		readline.PcItem("render"),
		readline.PcItem("mode"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}
