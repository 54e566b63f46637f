// Package mock is an in-process ops backend for --mock runs and tests.
// Metrics random-walk around a baseline, occasional spikes raise anomalies,
// high/critical spikes open incidents and executed runbooks mitigate them.
package mock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/autoops/sentinel-dash/internal/apperr"
	"github.com/autoops/sentinel-dash/internal/domain"
)

const (
	sampleStep  = 30 * time.Second
	keepSamples = 120 // one hour
	spikeLen    = 3
)

type baseline struct {
	level  float64
	wobble float64
}

var baselines = map[string]baseline{
	"cpu":           {45, 4},
	"mem":           {60, 2},
	"latency":       {180, 10},
	"error_rate":    {1.5, 0.3},
	"failed_logins": {4, 1},
}

// runbook -> metric it relieves
var mitigates = map[string]string{
	"rollout_undo":     "error_rate",
	"scale_deployment": "cpu",
	"restart_service":  "latency",
}

type sample struct {
	at time.Time
	v  float64
}

type spike struct {
	severity string
	left     int
}

type Repo struct {
	mu     sync.Mutex
	clock  clock.Clock
	rnd    *rand.Rand
	last   time.Time
	series map[string][]sample
	spikes map[string]*spike

	anomalies []domain.AnomalyRecord
	actions   []domain.ActionRecord
	incidents []domain.IncidentRecord
	nextID    int

	spikeRate float64
	failRate  float64
}

var _ domain.OpsRepo = (*Repo)(nil)

func WithClock(c clock.Clock) func(*Repo) {
	return func(r *Repo) { r.clock = c }
}

func WithSeed(seed int64) func(*Repo) {
	return func(r *Repo) { r.rnd = rand.New(rand.NewSource(seed)) }
}

// WithFailRate makes roughly that fraction of reads fail with a transport error.
func WithFailRate(p float64) func(*Repo) {
	return func(r *Repo) { r.failRate = p }
}

// WithSpikeRate sets the per-sample chance of a metric spike.
func WithSpikeRate(p float64) func(*Repo) {
	return func(r *Repo) { r.spikeRate = p }
}

// New builds a Repo with half an hour of history behind it.
func New(options ...func(*Repo)) *Repo {
	r := &Repo{
		clock:     clock.New(),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		series:    map[string][]sample{},
		spikes:    map[string]*spike{},
		spikeRate: 0.02,
	}
	for _, opt := range options {
		opt(r)
	}
	r.last = r.clock.Now().Add(-30 * time.Minute)
	for m, b := range baselines {
		r.series[m] = []sample{{at: r.last, v: b.level}}
	}
	r.mu.Lock()
	r.advance()
	r.mu.Unlock()
	return r
}

// -------- TimelineRepo --------

func (r *Repo) ListAnomalies(ctx context.Context, limit int) ([]domain.AnomalyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("list anomalies"); err != nil {
		return nil, err
	}
	return newestFirst(r.anomalies, limit), nil
}

func (r *Repo) ListActions(ctx context.Context, limit int) ([]domain.ActionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("list actions"); err != nil {
		return nil, err
	}
	return newestFirst(r.actions, limit), nil
}

func (r *Repo) ListIncidents(ctx context.Context) ([]domain.IncidentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("list incidents"); err != nil {
		return nil, err
	}
	return newestFirst(r.incidents, 0), nil
}

// -------- SeriesRepo --------

func (r *Repo) MetricKeys(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("metric keys"); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(r.series))
	for k := range r.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Repo) RecentMetric(ctx context.Context, metric string, minutes int) ([]domain.SeriesPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("recent metric"); err != nil {
		return nil, err
	}
	cutoff := r.clock.Now().Add(-time.Duration(minutes) * time.Minute)
	var out []domain.SeriesPoint
	for _, s := range r.series[metric] {
		if s.at.Before(cutoff) {
			continue
		}
		out = append(out, domain.SeriesPoint{Index: len(out), Timestamp: s.at, Value: s.v})
	}
	return out, nil
}

// Forecast is a flat mean with a ±2σ band, the same naive model the real
// backend serves.
func (r *Repo) Forecast(ctx context.Context, metric string, horizon int) (domain.ForecastBand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("forecast"); err != nil {
		return domain.ForecastBand{}, err
	}
	if horizon < 0 {
		horizon = 0
	}
	band := domain.ForecastBand{
		Mean:  make([]float64, horizon),
		Lower: make([]float64, horizon),
		Upper: make([]float64, horizon),
	}
	vs := r.series[metric]
	if len(vs) == 0 {
		return band, nil
	}
	var sum float64
	for _, s := range vs {
		sum += s.v
	}
	mu := sum / float64(len(vs))
	var sq float64
	for _, s := range vs {
		sq += (s.v - mu) * (s.v - mu)
	}
	sigma := math.Sqrt(sq / float64(len(vs)))
	for i := 0; i < horizon; i++ {
		band.Mean[i], band.Lower[i], band.Upper[i] = mu, mu-2*sigma, mu+2*sigma
	}
	return band, nil
}

// -------- OpsRepo --------

func (r *Repo) Summary(ctx context.Context) (domain.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("summary"); err != nil {
		return domain.Summary{}, err
	}
	return domain.Summary{Anomalies: len(r.anomalies), Actions: len(r.actions), Incidents: len(r.incidents)}, nil
}

// Business assumes five minutes of downtime saved per action at 1500/min.
func (r *Repo) Business(ctx context.Context) (domain.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("business"); err != nil {
		return domain.Business{}, err
	}
	mins := float64(len(r.actions) * 5)
	return domain.Business{DowntimeAvoidedMin: mins, CostAvoided: mins * 1500}, nil
}

// ExecuteAction records a dry run of a known runbook and mitigates open
// incidents for the metric it relieves.
func (r *Repo) ExecuteAction(ctx context.Context, name string, params map[string]any) (domain.ExecuteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()

	known := false
	for _, rb := range domain.RunbookCatalog {
		if rb.Name == name {
			known = true
			break
		}
	}
	ok := known
	logs := fmt.Sprintf("[dry-run] %s %v", name, params)
	if !known {
		logs = "Runbook not found: " + name
	}
	id := r.id()
	r.actions = append(r.actions, domain.ActionRecord{
		ID: id, Name: name, Success: &ok, CreatedAt: domain.WireTime{Time: r.clock.Now().UTC()},
	})
	if ok {
		if n := r.mitigate(mitigates[name]); n > 0 {
			logs += fmt.Sprintf("\nmitigated %d incident(s)", n)
		}
	}
	return domain.ExecuteResult{
		Success:         ok,
		DurationSeconds: 0.2 + r.rnd.Float64(),
		Logs:            logs,
		ActionID:        id,
	}, nil
}

// -------- simulation --------

// read advances the simulation and maybe injects a failure. r.mu is held.
func (r *Repo) read(op string) error {
	r.advance()
	if r.failRate > 0 && r.rnd.Float64() < r.failRate {
		return apperr.New(op, apperr.KindTransport, errors.New("mock backend unavailable"))
	}
	return nil
}

func (r *Repo) advance() {
	now := r.clock.Now()
	for !r.last.Add(sampleStep).After(now) {
		r.last = r.last.Add(sampleStep)
		for _, m := range sortedMetrics() {
			r.sample(m, r.last)
		}
	}
}

func (r *Repo) sample(metric string, at time.Time) {
	b := baselines[metric]
	s := r.series[metric]
	v := s[len(s)-1].v
	v += (r.rnd.Float64() - 0.5) * b.wobble
	v += (b.level - v) * 0.1 // drift back
	v = clamp(v, 0, 2*b.level)

	sp := r.spikes[metric]
	if sp == nil && r.rnd.Float64() < r.spikeRate {
		sp = &spike{severity: severityFor(r.rnd.Float64()), left: spikeLen}
		r.spikes[metric] = sp
	}
	if sp != nil {
		v = b.level * spikeFactor[sp.severity]
		r.raise(metric, sp.severity, at)
		sp.left--
		if sp.left == 0 {
			delete(r.spikes, metric)
		}
	}

	s = append(s, sample{at: at, v: v})
	if len(s) > keepSamples {
		s = s[len(s)-keepSamples:]
	}
	r.series[metric] = s
}

var spikeFactor = map[string]float64{"low": 1.3, "medium": 1.5, "high": 1.8, "critical": 2.0}

func severityFor(p float64) string {
	switch {
	case p < 0.4:
		return "low"
	case p < 0.7:
		return "medium"
	case p < 0.9:
		return "high"
	}
	return "critical"
}

// raise records an anomaly and, for high or critical ones, opens an incident
// unless one is already open for the metric within the last half hour.
func (r *Repo) raise(metric, severity string, at time.Time) {
	r.anomalies = append(r.anomalies, domain.AnomalyRecord{
		ID:        r.id(),
		Metric:    metric,
		Score:     -spikeFactor[severity] / 4,
		Severity:  severity,
		CreatedAt: domain.WireTime{Time: at.UTC()},
	})
	if severity != "high" && severity != "critical" {
		return
	}
	cutoff := at.Add(-30 * time.Minute)
	for _, inc := range r.incidents {
		if inc.Status == "open" && strings.Contains(inc.Title, metric) && !inc.CreatedAt.Before(cutoff) {
			return
		}
	}
	r.incidents = append(r.incidents, domain.IncidentRecord{
		ID:        r.id(),
		Title:     fmt.Sprintf("Incident: %s spike", metric),
		Status:    "open",
		CreatedAt: domain.WireTime{Time: at.UTC()},
	})
}

func (r *Repo) mitigate(metric string) int {
	if metric == "" {
		return 0
	}
	n := 0
	for i := range r.incidents {
		if r.incidents[i].Status == "open" && strings.Contains(r.incidents[i].Title, metric) {
			r.incidents[i].Status = "mitigated"
			n++
		}
	}
	return n
}

func (r *Repo) id() string {
	r.nextID++
	return strconv.Itoa(r.nextID)
}

// helpers
func newestFirst[T any](in []T, limit int) []T {
	n := len(in)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, 0, n)
	for i := len(in) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, in[i])
	}
	return out
}

func sortedMetrics() []string {
	keys := make([]string, 0, len(baselines))
	for k := range baselines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
