package series

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/autoops/sentinel-dash/internal/domain"
)

// SyntheticPoints is the length of generated series.
const SyntheticPoints = 24

// Profile describes a plausible signal for one kind of metric.
type Profile struct {
	Center    float64
	Amplitude float64
	Jitter    float64 // max absolute noise per sample
}

var (
	profileCPU     = Profile{Center: 45, Amplitude: 12, Jitter: 3}
	profileMem     = Profile{Center: 60, Amplitude: 6, Jitter: 1.5}
	profileLatency = Profile{Center: 185, Amplitude: 25, Jitter: 8}
	profileErrors  = Profile{Center: 1.5, Amplitude: 0.8, Jitter: 0.3}
	profileLogins  = Profile{Center: 4, Amplitude: 2.5, Jitter: 0.8}
	profileDefault = Profile{Center: 50, Amplitude: 10, Jitter: 2}
)

// ProfileFor matches the metric name by substring.
func ProfileFor(metric string) Profile {
	m := strings.ToLower(metric)
	switch {
	case strings.Contains(m, "cpu"):
		return profileCPU
	case strings.Contains(m, "mem"):
		return profileMem
	case strings.Contains(m, "latency"):
		return profileLatency
	case strings.Contains(m, "error") && strings.Contains(m, "rate"):
		return profileErrors
	case strings.Contains(m, "failed") && strings.Contains(m, "login"):
		return profileLogins
	}
	return profileDefault
}

// Generator produces smooth periodic series with bounded jitter.
type Generator struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	now  func() time.Time
	step time.Duration
}

// NewGenerator seeds the jitter source. Equal seeds give equal jitter.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd:  rand.New(rand.NewSource(seed)),
		now:  time.Now,
		step: 30 * time.Second,
	}
}

// Values returns n samples for metric, never negative.
func (g *Generator) Values(metric string, n int) []float64 {
	return g.values(ProfileFor(metric), n)
}

func (g *Generator) values(p Profile, n int) []float64 {
	if n <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// scroll one sample per step so the fallback looks alive across ticks
	phase := float64(g.now().Unix()/int64(g.step/time.Second)) * 2 * math.Pi / SyntheticPoints
	out := make([]float64, n)
	for i := range out {
		v := p.Center + p.Amplitude*math.Sin(2*math.Pi*float64(i)/SyntheticPoints+phase)
		v += (g.rnd.Float64()*2 - 1) * p.Jitter
		out[i] = math.Max(0, v)
	}
	return out
}

// Points returns n synthetic samples ending now, spaced by the generator step.
func (g *Generator) Points(metric string, n int) []domain.SeriesPoint {
	vals := g.Values(metric, n)
	end := g.now().UTC()
	out := make([]domain.SeriesPoint, len(vals))
	for i, v := range vals {
		out[i] = domain.SeriesPoint{
			Index:     i,
			Timestamp: end.Add(-time.Duration(len(vals)-1-i) * g.step),
			Value:     v,
		}
	}
	return out
}

// minForecastSD is the least standard deviation of a fallback forecast mean.
// Over a full period the sine alone has SD Amplitude/√2 and the jitter can
// take at most Jitter off it.
const minForecastSD = 1.25

// forecastProfile widens low-range profiles so a fallback band never looks
// flat. The center is lifted so the mean never touches zero, where clamping
// would flatten it again.
func forecastProfile(p Profile) Profile {
	p.Amplitude = math.Max(p.Amplitude, math.Sqrt2*(minForecastSD+p.Jitter))
	p.Center = math.Max(p.Center, p.Amplitude+p.Jitter)
	return p
}

// Band returns an n-point synthetic forecast band around a generated mean.
func (g *Generator) Band(metric string, n int) domain.ForecastBand {
	p := forecastProfile(ProfileFor(metric))
	mean := g.values(p, n)
	spread := 2*p.Jitter + p.Amplitude/4
	b := domain.ForecastBand{
		Mean:  mean,
		Lower: make([]float64, len(mean)),
		Upper: make([]float64, len(mean)),
	}
	for i, m := range mean {
		b.Lower[i] = math.Max(0, m-spread)
		b.Upper[i] = m + spread
	}
	return b
}

// Variance is the population variance of the finite values in vs.
func Variance(vs []float64) float64 {
	var n, sum float64
	for _, v := range vs {
		if finite(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / n
	var acc float64
	for _, v := range vs {
		if finite(v) {
			acc += (v - mean) * (v - mean)
		}
	}
	return acc / n
}
