package envelope

import "fmt"

// sustainUnits is the placeholder duration given to the sustain stage, which
// has a level but no length of its own. It keeps totalDuration above zero.
const sustainUnits = 1

// Point is a position on the drawing surface, origin top-left.
type Point struct {
	X, Y float64
}

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }

// Geometry is the five point polyline of an envelope:
//
//	[0] start on the baseline
//	[1] attack peak
//	[2] end of decay, at the sustain level
//	[3] end of sustain
//	[4] end of release, back on the baseline
type Geometry [5]Point

// Points returns the polyline as a slice.
func (g Geometry) Points() []Point { return g[:] }

// ComputeGeometry lays the envelope v out on a width x height surface with
// padding on every side.
//
// The release segment is sized with the sustain placeholder unit rather than
// v.Release; release only widens the total duration.
func ComputeGeometry(v Values, width, height, padding float64) (Geometry, error) {
	var g Geometry

	totalDuration := v.Attack + v.Decay + v.Release + sustainUnits
	if totalDuration == 0 {
		return g, &DegenerateGeometryError{Reason: "total duration is zero"}
	}
	drawableWidth := width - 2*padding
	drawableHeight := height - 2*padding
	if drawableWidth <= 0 || drawableHeight <= 0 {
		return g, &DegenerateGeometryError{
			Reason: fmt.Sprintf("surface %gx%g leaves no room inside padding %g", width, height, padding),
		}
	}

	attackX := v.Attack / totalDuration * drawableWidth
	decayX := attackX + v.Decay/totalDuration*drawableWidth
	sustainY := height - v.Sustain*drawableHeight

	g[0] = Point{padding, height}
	g[1] = Point{padding + attackX, padding}
	g[2] = Point{padding + decayX, sustainY}
	g[3] = Point{width - padding, sustainY}
	g[4] = Point{width - padding, height}
	return g, nil
}

// ReleaseX returns the horizontal offset, inside the padding, where the
// release stage begins. It is not part of the drawn polyline, which runs the
// sustain line to the right edge.
func ReleaseX(v Values, width, padding float64) float64 {
	totalDuration := v.Attack + v.Decay + v.Release + sustainUnits
	drawableWidth := width - 2*padding
	attackX := v.Attack / totalDuration * drawableWidth
	decayX := attackX + v.Decay/totalDuration*drawableWidth
	return decayX + sustainUnits/totalDuration*drawableWidth
}
