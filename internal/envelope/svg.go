package envelope

import (
	"fmt"
	"image/color"
	"io"
	"strings"
)

// SVG collects draw calls and writes them out as an SVG document.
type SVG struct {
	Width, Height float64
	elems         []string
}

// NewSVG returns an empty width x height SVG surface.
func NewSVG(width, height float64) *SVG {
	return &SVG{Width: width, Height: height}
}

func (s *SVG) Clear() { s.elems = s.elems[:0] }

func (s *SVG) StrokePolyline(pts []Point, style Style) {
	coords := make([]string, len(pts))
	for i, p := range pts {
		coords[i] = fmt.Sprintf("%g,%g", p.X, p.Y)
	}
	s.elems = append(s.elems, fmt.Sprintf(
		`<polyline points="%s" fill="none" stroke="%s" stroke-width="%g"/>`,
		strings.Join(coords, " "), hexColor(style.StrokeColor), style.StrokeWidth))
}

// WriteTo writes the document to w.
func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n",
		s.Width, s.Height, s.Width, s.Height)
	for _, e := range s.elems {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	b.WriteString("</svg>\n")
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func hexColor(c color.Color) string {
	if c == nil {
		return "#000000"
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
