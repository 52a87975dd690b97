package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chase3718/adsr-monitor/internal/envelope"
)

var (
	renderOut    string
	renderParams = map[envelope.Param]*string{}
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the envelope sketch to a PNG or SVG file",
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := newRenderer()
		if err != nil {
			return err
		}
		m := envelope.NewModel()
		for _, p := range envelope.Params {
			if !cmd.Flags().Changed(string(p)) {
				continue
			}
			if err := m.SetParameter(string(p), *renderParams[p]); err != nil {
				return err
			}
		}
		return writeEnvelope(renderer, m.Snapshot(), renderOut)
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "envelope.png", "output file, .png or .svg")
	for _, p := range envelope.Params {
		renderParams[p] = renderCmd.Flags().String(string(p), "0.5", string(p)+" value in [0, 1]")
	}
}

// writeEnvelope renders v to path, choosing the surface by extension.
func writeEnvelope(r *envelope.Renderer, v envelope.Values, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		raster := envelope.NewRaster(int(r.Layout.Width), int(r.Layout.Height))
		if err := r.Draw(v, raster); err != nil {
			return err
		}
		return writeFile(path, raster.EncodePNG)
	case ".svg":
		svg := envelope.NewSVG(r.Layout.Width, r.Layout.Height)
		if err := r.Draw(v, svg); err != nil {
			return err
		}
		return writeFile(path, func(w io.Writer) error {
			_, err := svg.WriteTo(w)
			return err
		})
	}
	return fmt.Errorf("render: unsupported output %q, want .png or .svg", path)
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("render: envelope written", "file", path)
	return nil
}
