package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chase3718/adsr-monitor/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the monitor page over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := newRenderer()
		if err != nil {
			return err
		}
		buf, sink, closeSink, err := openSink()
		if err != nil {
			return err
		}
		defer closeSink()

		sess := openSession(sink)
		defer sess.Close()

		srv, err := server.New(sess, buf, renderer, logger)
		if err != nil {
			return err
		}

		ctx, stop := interruptContext()
		defer stop()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(ctx, serveAddr) })
		g.Go(func() error { return sess.Run(ctx, cfg.rescan) })
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
}
