package series

import (
	"github.com/autoops/sentinel-dash/internal/domain"
)

// DefaultVarianceThreshold is the variance below which a series counts as flat.
const DefaultVarianceThreshold = 1e-6

// Source supplies the data a chart displays.
type Source interface {
	Synthetic() bool
	Line(metric string) []domain.SeriesPoint
	Band(metric string) domain.ForecastBand
}

type liveSource struct {
	points []domain.SeriesPoint
	band   domain.ForecastBand
}

func (liveSource) Synthetic() bool                    { return false }
func (s liveSource) Line(string) []domain.SeriesPoint { return s.points }
func (s liveSource) Band(string) domain.ForecastBand  { return s.band }

type syntheticSource struct {
	gen *Generator
	n   int
}

func (syntheticSource) Synthetic() bool { return true }

func (s syntheticSource) Line(metric string) []domain.SeriesPoint {
	return s.gen.Points(metric, s.n)
}

func (s syntheticSource) Band(metric string) domain.ForecastBand {
	return s.gen.Band(metric, s.n)
}

// Line is a resolved point series ready to plot.
type Line struct {
	Metric    string
	Points    []domain.SeriesPoint
	Synthetic bool
}

// Band is a resolved forecast band ready to plot.
type Band struct {
	Metric    string
	Band      domain.ForecastBand
	Synthetic bool
}

// Resolver is the one place that chooses between live and synthetic data.
type Resolver struct {
	gen       *Generator
	threshold float64
	n         int
}

func NewResolver(gen *Generator, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultVarianceThreshold
	}
	return &Resolver{gen: gen, threshold: threshold, n: SyntheticPoints}
}

// Usable reports whether live values are present and not flat.
func (r *Resolver) Usable(values []float64) bool {
	return len(values) > 0 && Variance(values) >= r.threshold
}

// ChooseLine returns the live source when pts is usable, else the synthetic one.
func (r *Resolver) ChooseLine(pts []domain.SeriesPoint) Source {
	if r.Usable(Values(pts)) {
		return liveSource{points: pts}
	}
	return syntheticSource{gen: r.gen, n: r.n}
}

// ChooseBand applies the same rule to the band's mean series.
func (r *Resolver) ChooseBand(b domain.ForecastBand) Source {
	if b.Len() > 0 && r.Usable(b.Mean[:b.Len()]) {
		return liveSource{band: b}
	}
	return syntheticSource{gen: r.gen, n: r.n}
}

// ResolveLine decides what the metric chart shows this tick. When the fetch
// failed, the previous line for the same metric stays; without one the
// synthetic series is used.
func (r *Resolver) ResolveLine(metric string, pts []domain.SeriesPoint, err error, prev *Line) Line {
	if err != nil {
		if prev != nil && prev.Metric == metric && len(prev.Points) > 0 {
			return *prev
		}
		pts = nil
	}
	src := r.ChooseLine(pts)
	return Line{Metric: metric, Points: src.Line(metric), Synthetic: src.Synthetic()}
}

// ResolveBand is ResolveLine for forecast bands.
func (r *Resolver) ResolveBand(metric string, b domain.ForecastBand, err error, prev *Band) Band {
	if err != nil {
		if prev != nil && prev.Metric == metric && prev.Band.Len() > 0 {
			return *prev
		}
		b = domain.ForecastBand{}
	}
	src := r.ChooseBand(b)
	return Band{Metric: metric, Band: src.Band(metric), Synthetic: src.Synthetic()}
}
