package envelope

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
)

// Surface is anything an envelope can be drawn on.
type Surface interface {
	// Clear erases the whole surface.
	Clear()
	// StrokePolyline draws pts as connected straight segments.
	StrokePolyline(pts []Point, style Style)
}

// Style is the stroke used for the envelope line.
type Style struct {
	StrokeColor color.Color
	StrokeWidth float64
}

// DefaultStyle is a black line two units wide.
var DefaultStyle = Style{StrokeColor: colornames.Black, StrokeWidth: 2}

// ParseColor resolves an SVG colour keyword ("black", "steelblue") or a
// #rrggbb hex string.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	var r, g, b uint8
	if len(s) == 7 && s[0] == '#' {
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
		}
	}
	return nil, fmt.Errorf("unknown colour %q", s)
}

// Layout is the surface size and padding used for every render.
type Layout struct {
	Width, Height, Padding float64
}

// DefaultLayout matches the 500x200 canvas with 10 units of padding.
var DefaultLayout = Layout{Width: 500, Height: 200, Padding: 10}

// Renderer recomputes and draws the envelope shape.
type Renderer struct {
	Layout Layout
	Style  Style
}

// NewRenderer returns a renderer with the default layout and style.
func NewRenderer() *Renderer {
	return &Renderer{Layout: DefaultLayout, Style: DefaultStyle}
}

// Geometry computes the polyline for v in the renderer's layout.
func (r *Renderer) Geometry(v Values) (Geometry, error) {
	return ComputeGeometry(v, r.Layout.Width, r.Layout.Height, r.Layout.Padding)
}

// Render clears s and strokes g on it.
func (r *Renderer) Render(g Geometry, s Surface) {
	s.Clear()
	s.StrokePolyline(g.Points(), r.Style)
}

// Draw computes the geometry for v and renders it onto s. On a degenerate
// layout the surface is left untouched.
func (r *Renderer) Draw(v Values, s Surface) error {
	g, err := r.Geometry(v)
	if err != nil {
		return err
	}
	r.Render(g, s)
	return nil
}
