package widgets

import (
	"math"
	"strings"

	"github.com/autoops/sentinel-dash/internal/domain"
	"github.com/autoops/sentinel-dash/internal/series"
)

var blocks = []rune("▁▂▃▄▅▆▇█")

const (
	LineMark = '•'
	BandMark = '░'
	MeanMark = '─'
)

// Spark8 draws vals as block characters, scaled over their own finite range.
// A flat series and non-finite samples sit on the lowest block.
func Spark8(vals []float64, width int) string {
	if len(vals) == 0 || width <= 0 {
		return ""
	}
	sc := series.NewScale(vals)
	span := sc.Max - sc.Min
	// sample evenly over last vals
	step := float64(len(vals)) / float64(width)
	var b strings.Builder
	for i := 0; i < width; i++ {
		idx := int(math.Min(float64(len(vals)-1), math.Floor(float64(i)*step)))
		v := 0.0
		if span > 0 && !math.IsNaN(vals[idx]) && !math.IsInf(vals[idx], 0) {
			v = clamp01((vals[idx] - sc.Min) / span)
		}
		level := int(math.Round(v * float64(len(blocks)-1)))
		if level < 0 {
			level = 0
		} else if level >= len(blocks) {
			level = len(blocks) - 1
		}
		b.WriteRune(blocks[level])
	}
	return b.String()
}

func Bar(v float64, width int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	v = clamp01(v)

	fill := int(math.Round(v * float64(width)))
	if v > 0 && fill == 0 {
		fill = 1
	}
	if fill > width {
		fill = width
	}
	return strings.Repeat("█", fill) + strings.Repeat(" ", width-fill)
}

// Canvas is a character grid. Geometry computed in its Frame maps one unit to
// one cell.
type Canvas struct {
	cols, rows int
	cells      [][]rune
}

func NewCanvas(cols, rows int) *Canvas {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	cells := make([][]rune, rows)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(" ", cols))
	}
	return &Canvas{cols: cols, rows: rows, cells: cells}
}

// Frame is the plot frame whose coordinates land exactly on cells.
func (c *Canvas) Frame() series.Frame {
	return series.Frame{Width: float64(c.cols - 1), Height: float64(c.rows - 1)}
}

func (c *Canvas) set(x, y float64, r rune) {
	col, row := int(math.Round(x)), int(math.Round(y))
	if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
		return
	}
	c.cells[row][col] = r
}

// Polyline marks every cell along consecutive points.
func (c *Canvas) Polyline(pts []series.Point, mark rune) {
	if len(pts) == 1 {
		c.set(pts[0].X, pts[0].Y, mark)
		return
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
		if steps < 1 {
			steps = 1
		}
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			c.set(lerp(a.X, b.X, t), lerp(a.Y, b.Y, t), mark)
		}
	}
}

// FillBand shades every cell between the upper and lower edges of g.
func (c *Canvas) FillBand(g series.BandGeometry, mark rune) {
	upper, lower := g.Upper(), g.Lower()
	fillColumn := func(x, yu, yl float64) {
		top, bottom := math.Min(yu, yl), math.Max(yu, yl)
		for y := math.Round(top); y <= math.Round(bottom); y++ {
			c.set(x, y, mark)
		}
	}
	if len(upper) == 1 {
		fillColumn(upper[0].X, upper[0].Y, lower[0].Y)
		return
	}
	for i := 1; i < len(upper); i++ {
		x0, x1 := math.Round(upper[i-1].X), math.Round(upper[i].X)
		for x := x0; x <= x1; x++ {
			t := 0.0
			if x1 > x0 {
				t = (x - x0) / (x1 - x0)
			}
			fillColumn(x, lerp(upper[i-1].Y, upper[i].Y, t), lerp(lower[i-1].Y, lower[i].Y, t))
		}
	}
}

func (c *Canvas) Lines() []string {
	out := make([]string, c.rows)
	for i, row := range c.cells {
		out[i] = string(row)
	}
	return out
}

func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

// LineChart plots pts onto a cols×rows canvas and returns the value scale
// used, for axis labels.
func LineChart(pts []domain.SeriesPoint, cols, rows int) (*Canvas, series.Scale) {
	c := NewCanvas(cols, rows)
	g := series.PlotLine(series.Values(pts), c.Frame())
	c.Polyline(g.Points, LineMark)
	return c, g.Scale
}

// BandChart shades the forecast band and draws its mean over it.
func BandChart(b domain.ForecastBand, cols, rows int) (*Canvas, series.Scale) {
	c := NewCanvas(cols, rows)
	g := series.PlotBand(b, c.Frame())
	c.FillBand(g, BandMark)
	c.Polyline(g.Mean, MeanMark)
	return c, g.Scale
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
