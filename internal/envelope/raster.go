package envelope

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"
)

// Raster is an RGBA image surface. Cleared pixels are transparent, like a
// cleared canvas.
type Raster struct {
	img *image.RGBA
}

// NewRaster returns a transparent width x height surface.
func NewRaster(width, height int) *Raster {
	return &Raster{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Image returns the underlying image.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// StrokePolyline fills a quad per segment and a small octagon at each
// vertex so that joints have no notches.
func (r *Raster) StrokePolyline(pts []Point, style Style) {
	if len(pts) == 0 || style.StrokeWidth <= 0 {
		return
	}
	c := style.StrokeColor
	if c == nil {
		c = color.Black
	}
	src := image.NewUniform(c)
	half := style.StrokeWidth / 2

	for i := 1; i < len(pts); i++ {
		p, q := pts[i-1], pts[i]
		dx, dy := q.X-p.X, q.Y-p.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		r.fill(src, []Point{
			{p.X + nx, p.Y + ny},
			{q.X + nx, q.Y + ny},
			{q.X - nx, q.Y - ny},
			{p.X - nx, p.Y - ny},
		})
	}
	for _, p := range pts {
		oct := make([]Point, 8)
		for k := range oct {
			a := float64(k) * math.Pi / 4
			oct[k] = Point{p.X + half*math.Cos(a), p.Y + half*math.Sin(a)}
		}
		r.fill(src, oct)
	}
}

// fill paints one closed polygon. Shapes are filled one at a time: the
// rasterizer sums signed coverage, so overlapping shapes of opposite winding
// would cancel out if accumulated together.
func (r *Raster) fill(src image.Image, poly []Point) {
	b := r.img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(float32(poly[0].X), float32(poly[0].Y))
	for _, p := range poly[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
	z.Draw(r.img, b, src, image.Point{})
}

// EncodePNG writes the surface as a PNG image.
func (r *Raster) EncodePNG(w io.Writer) error {
	return png.Encode(w, r.img)
}
