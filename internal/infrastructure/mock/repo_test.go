package mock

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoops/sentinel-dash/internal/apperr"
	"github.com/autoops/sentinel-dash/internal/domain"
)

func quiet(t *testing.T) (*Repo, *clock.Mock) {
	t.Helper()
	mc := clock.NewMock()
	mc.Set(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	return New(WithClock(mc), WithSeed(1), WithSpikeRate(0)), mc
}

func TestHistoryIsPrefilled(t *testing.T) {
	r, _ := quiet(t)
	ctx := context.Background()

	keys, err := r.MetricKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu", "error_rate", "failed_logins", "latency", "mem"}, keys)

	pts, err := r.RecentMetric(ctx, "cpu", 15)
	require.NoError(t, err)
	require.Len(t, pts, 31)
	for i, p := range pts {
		assert.Equal(t, i, p.Index)
	}
}

func TestSeriesAdvancesWithClock(t *testing.T) {
	r, mc := quiet(t)
	ctx := context.Background()

	before, err := r.RecentMetric(ctx, "mem", 60)
	require.NoError(t, err)

	mc.Add(2 * time.Minute)
	after, err := r.RecentMetric(ctx, "mem", 60)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+4)
	assert.True(t, after[len(after)-1].Timestamp.After(before[len(before)-1].Timestamp))
}

func TestUnknownMetricIsEmpty(t *testing.T) {
	r, _ := quiet(t)
	pts, err := r.RecentMetric(context.Background(), "disk", 15)
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestForecastIsFlat(t *testing.T) {
	r, _ := quiet(t)
	band, err := r.Forecast(context.Background(), "latency", 12)
	require.NoError(t, err)
	require.Equal(t, 12, band.Len())
	for i := 1; i < 12; i++ {
		assert.Equal(t, band.Mean[0], band.Mean[i])
	}
	assert.LessOrEqual(t, band.Lower[0], band.Mean[0])
	assert.GreaterOrEqual(t, band.Upper[0], band.Mean[0])
}

func TestHighSpikeOpensOneIncident(t *testing.T) {
	r, mc := quiet(t)
	now := mc.Now()
	r.mu.Lock()
	r.raise("cpu", "high", now)
	r.raise("cpu", "critical", now)
	r.raise("mem", "low", now)
	r.mu.Unlock()

	ctx := context.Background()
	anoms, err := r.ListAnomalies(ctx, 100)
	require.NoError(t, err)
	require.Len(t, anoms, 3)
	assert.Equal(t, "mem", anoms[0].Metric, "newest first")

	incs, err := r.ListIncidents(ctx)
	require.NoError(t, err)
	require.Len(t, incs, 1)
	assert.Equal(t, "Incident: cpu spike", incs[0].Title)
	assert.Equal(t, "open", incs[0].Status)

	limited, err := r.ListAnomalies(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestExecuteActionMitigates(t *testing.T) {
	r, mc := quiet(t)
	r.mu.Lock()
	r.raise("cpu", "high", mc.Now())
	r.mu.Unlock()

	ctx := context.Background()
	res, err := r.ExecuteAction(ctx, "scale_deployment", map[string]any{"replicas": 3})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ActionID)
	assert.Contains(t, res.Logs, "mitigated 1")

	incs, err := r.ListIncidents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mitigated", incs[0].Status)

	acts, err := r.ListActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	require.NotNil(t, acts[0].Success)
	assert.True(t, *acts[0].Success)

	s, err := r.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{Anomalies: 1, Actions: 1, Incidents: 1}, s)

	b, err := r.Business(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, b.DowntimeAvoidedMin)
	assert.Equal(t, 7500.0, b.CostAvoided)
}

func TestUnknownRunbookFails(t *testing.T) {
	r, _ := quiet(t)
	res, err := r.ExecuteAction(context.Background(), "format_disk", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Logs, "not found")
}

func TestFailRateInjectsTransportErrors(t *testing.T) {
	mc := clock.NewMock()
	r := New(WithClock(mc), WithSeed(3), WithFailRate(1))
	_, err := r.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindTransport, apperr.KindOf(err))
}

func TestSpikesRaiseAnomaliesForEveryMetric(t *testing.T) {
	mc := clock.NewMock()
	r := New(WithClock(mc), WithSeed(7), WithSpikeRate(1))
	anoms, err := r.ListAnomalies(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, anoms)

	perMetric := map[string]int{}
	for _, a := range anoms {
		perMetric[a.Metric]++
	}
	assert.Len(t, perMetric, 5)
}
