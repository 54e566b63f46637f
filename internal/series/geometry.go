// Package series turns numeric series and forecast bands into plot geometry
// and decides when synthetic data stands in for live data.
package series

import (
	"fmt"
	"math"
	"strings"

	"github.com/autoops/sentinel-dash/internal/domain"
)

// epsilon replaces a zero value range so flat series never divide by zero.
const epsilon = 1e-9

// Frame is the plot area. Coordinates grow right and down, like SVG.
type Frame struct {
	Width, Height, Padding float64
}

// DefaultFrame matches the web dashboard's chart size.
var DefaultFrame = Frame{Width: 560, Height: 180, Padding: 24}

type Point struct {
	X, Y float64
}

// Scale is the value range mapped onto the frame's vertical extent.
type Scale struct {
	Min, Max float64
}

// NewScale spans the finite values of all given series. With no finite value
// it returns the zero scale.
func NewScale(series ...[]float64) Scale {
	s := Scale{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, vs := range series {
		for _, v := range vs {
			if !finite(v) {
				continue
			}
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
	}
	if s.Min > s.Max {
		return Scale{}
	}
	return s
}

// X maps index i of n onto the frame width minus padding.
func (f Frame) X(i, n int) float64 {
	span := f.Width - 2*f.Padding
	return f.Padding + float64(i)*span/math.Max(1, float64(n-1))
}

// Y maps v onto the frame height: s.Min at the bottom, s.Max at the top.
// Non-finite values sit on the bottom edge.
func (f Frame) Y(v float64, s Scale) float64 {
	span := f.Height - 2*f.Padding
	bottom := f.Padding + span
	if !finite(v) {
		return bottom
	}
	y := f.Padding + span*(1-(v-s.Min)/math.Max(epsilon, s.Max-s.Min))
	if !finite(y) {
		return bottom
	}
	return y
}

// LineGeometry is a polyline over a point series.
type LineGeometry struct {
	Points []Point
	Scale  Scale
}

// PlotLine maps values onto f. Scale covers the visible values.
func PlotLine(values []float64, f Frame) LineGeometry {
	g := LineGeometry{Scale: NewScale(values)}
	for i, v := range values {
		g.Points = append(g.Points, Point{X: f.X(i, len(values)), Y: f.Y(v, g.Scale)})
	}
	return g
}

// Path renders the polyline as SVG path data ("M x y L x y ...").
func (g LineGeometry) Path() string {
	return pathData(g.Points)
}

// BandGeometry is a confidence band polygon plus the mean line drawn over it.
type BandGeometry struct {
	// Outline is upper traversed forward, then lower traversed in reverse.
	Outline []Point
	Mean    []Point
	Scale   Scale
	N       int
}

// Upper returns the forward upper edge of the outline.
func (g BandGeometry) Upper() []Point { return g.Outline[:g.N] }

// Lower returns the lower edge in forward order.
func (g BandGeometry) Lower() []Point {
	out := make([]Point, 0, g.N)
	for i := len(g.Outline) - 1; i >= g.N; i-- {
		out = append(out, g.Outline[i])
	}
	return out
}

// PlotBand maps a forecast band onto f. The scale spans lower and upper so the
// mean line never touches the band edge through scaling alone; if neither has
// a finite value the mean provides the scale. Series of unequal length are cut
// to the shortest. Inverted bands (lower > upper) are drawn as given.
func PlotBand(b domain.ForecastBand, f Frame) BandGeometry {
	n := b.Len()
	lower, upper, mean := b.Lower[:n], b.Upper[:n], b.Mean[:n]

	scale := NewScale(lower, upper)
	if !anyFinite(lower, upper) {
		scale = NewScale(mean)
	}

	g := BandGeometry{Scale: scale, N: n}
	for i, v := range upper {
		g.Outline = append(g.Outline, Point{X: f.X(i, n), Y: f.Y(v, scale)})
	}
	for i := n - 1; i >= 0; i-- {
		g.Outline = append(g.Outline, Point{X: f.X(i, n), Y: f.Y(lower[i], scale)})
	}
	for i, v := range mean {
		g.Mean = append(g.Mean, Point{X: f.X(i, n), Y: f.Y(v, scale)})
	}
	return g
}

// Polygon renders the outline as SVG points ("x,y x,y ...").
func (g BandGeometry) Polygon() string {
	parts := make([]string, 0, len(g.Outline))
	for _, p := range g.Outline {
		parts = append(parts, fmt.Sprintf("%.2f,%.2f", p.X, p.Y))
	}
	return strings.Join(parts, " ")
}

// MeanPath renders the mean line as SVG path data.
func (g BandGeometry) MeanPath() string {
	return pathData(g.Mean)
}

func pathData(pts []Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			fmt.Fprintf(&b, "M %.2f %.2f", p.X, p.Y)
			continue
		}
		fmt.Fprintf(&b, " L %.2f %.2f", p.X, p.Y)
	}
	return b.String()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func anyFinite(series ...[]float64) bool {
	for _, vs := range series {
		for _, v := range vs {
			if finite(v) {
				return true
			}
		}
	}
	return false
}

// Values extracts the value column of a point series.
func Values(pts []domain.SeriesPoint) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Value
	}
	return out
}
