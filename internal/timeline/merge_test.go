package timeline

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoops/sentinel-dash/internal/domain"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) domain.WireTime { return domain.WireTime{Time: t0.Add(time.Duration(sec) * time.Second)} }

func ids(events []domain.TimelineEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func TestMergeScenarioActionBeforeAnomaly(t *testing.T) {
	ok := true
	anoms := NormalizeAnomalies([]domain.AnomalyRecord{{ID: "a1", CreatedAt: at(0), Metric: "cpu", Severity: "high"}})
	acts := NormalizeActions([]domain.ActionRecord{{ID: "b1", CreatedAt: at(1), Name: "restart_service", Success: &ok}})

	merged := Merge(anoms, acts, nil)
	assert.Equal(t, []string{"b1", "a1"}, ids(merged))

	groups := Group(merged)
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, 1, groups[1].Count)
}

func TestGroupCollapsesIdenticalBurst(t *testing.T) {
	anoms := NormalizeAnomalies([]domain.AnomalyRecord{
		{ID: "a0", CreatedAt: at(0), Metric: "cpu", Severity: "high"},
		{ID: "a1", CreatedAt: at(1), Metric: "cpu", Severity: "high"},
		{ID: "a2", CreatedAt: at(2), Metric: "cpu", Severity: "high"},
	})

	groups := Group(Merge(anoms, nil, nil))
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].Count)
	assert.Equal(t, t0.Add(2*time.Second), groups[0].Representative.OccurredAt)
	assert.Equal(t, "a2", groups[0].Representative.ID)
}

func TestGroupRunLengths(t *testing.T) {
	for k := 1; k <= 6; k++ {
		var rs []domain.AnomalyRecord
		for i := 0; i < k; i++ {
			rs = append(rs, domain.AnomalyRecord{ID: fmt.Sprint(i), CreatedAt: at(i), Metric: "mem", Severity: "low"})
		}
		groups := Group(Merge(NormalizeAnomalies(rs), nil, nil))
		require.Len(t, groups, 1, "k=%d", k)
		assert.Equal(t, k, groups[0].Count)
		assert.Equal(t, fmt.Sprint(k-1), groups[0].Representative.ID)
	}
}

func TestGroupSeparatesDifferentKeys(t *testing.T) {
	ok, bad := true, false
	events := []domain.TimelineEvent{
		NormalizeAction(domain.ActionRecord{ID: "1", Name: "restart_service", Success: &ok}),
		NormalizeAction(domain.ActionRecord{ID: "2", Name: "restart_service", Success: &bad}),
		NormalizeAction(domain.ActionRecord{ID: "3", Name: "restart_service"}),
		NormalizeIncident(domain.IncidentRecord{ID: "4", Title: "db", Status: "open"}),
		NormalizeIncident(domain.IncidentRecord{ID: "5", Title: "db", Status: "open"}),
		NormalizeIncident(domain.IncidentRecord{ID: "6", Title: "db", Status: "closed"}),
	}
	groups := Group(events)
	counts := make([]int, 0, len(groups))
	for _, g := range groups {
		counts = append(counts, g.Count)
	}
	assert.Equal(t, []int{1, 1, 1, 2, 1}, counts)
}

func TestGroupOnlyFoldsAdjacentRuns(t *testing.T) {
	anoms := NormalizeAnomalies([]domain.AnomalyRecord{
		{ID: "a", CreatedAt: at(3), Metric: "cpu", Severity: "high"},
		{ID: "c", CreatedAt: at(1), Metric: "cpu", Severity: "high"},
	})
	incs := NormalizeIncidents([]domain.IncidentRecord{{ID: "b", CreatedAt: at(2), Title: "x", Status: "open"}})
	groups := Group(Merge(anoms, nil, incs))
	assert.Len(t, groups, 3)
}

func TestGroupEmpty(t *testing.T) {
	assert.Empty(t, Group(nil))
	assert.Empty(t, Merge(nil, nil, nil))
}

func randomInputs(r *rand.Rand) ([]domain.AnomalyRecord, []domain.ActionRecord, []domain.IncidentRecord) {
	// narrow time range so ties are common
	stamp := func() domain.WireTime { return at(r.Intn(5)) }
	metrics := []string{"cpu", "mem"}
	var (
		anoms []domain.AnomalyRecord
		acts  []domain.ActionRecord
		incs  []domain.IncidentRecord
	)
	for i, n := 0, r.Intn(8); i < n; i++ {
		anoms = append(anoms, domain.AnomalyRecord{ID: fmt.Sprintf("anomaly/%d", i), CreatedAt: stamp(),
			Metric: metrics[r.Intn(2)], Severity: "high"})
	}
	for i, n := 0, r.Intn(8); i < n; i++ {
		ok := r.Intn(2) == 0
		acts = append(acts, domain.ActionRecord{ID: fmt.Sprintf("action/%d", i), CreatedAt: stamp(),
			Name: "restart_service", Success: &ok})
	}
	for i, n := 0, r.Intn(8); i < n; i++ {
		incs = append(incs, domain.IncidentRecord{ID: fmt.Sprintf("incident/%d", i), CreatedAt: stamp(),
			Title: "db", Status: "open"})
	}
	return anoms, acts, incs
}

func TestMergeProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	rank := map[domain.Category]int{domain.CategoryAnomaly: 0, domain.CategoryAction: 1, domain.CategoryIncident: 2}

	for iter := 0; iter < 200; iter++ {
		anoms, acts, incs := randomInputs(r)
		merged := Merge(NormalizeAnomalies(anoms), NormalizeActions(acts), NormalizeIncidents(incs))

		require.Len(t, merged, len(anoms)+len(acts)+len(incs))

		seen := map[string]bool{}
		for _, e := range merged {
			require.False(t, seen[e.ID], "duplicate %s", e.ID)
			seen[e.ID] = true
		}

		for i := 1; i < len(merged); i++ {
			prev, cur := merged[i-1], merged[i]
			require.False(t, cur.OccurredAt.After(prev.OccurredAt), "not descending at %d", i)
			if cur.OccurredAt.Equal(prev.OccurredAt) {
				var pi, ci int
				fmt.Sscanf(prev.ID[len(prev.Category)+1:], "%d", &pi)
				fmt.Sscanf(cur.ID[len(cur.Category)+1:], "%d", &ci)
				if rank[prev.Category] == rank[cur.Category] {
					require.Less(t, pi, ci, "source order broken at %d", i)
				} else {
					require.Less(t, rank[prev.Category], rank[cur.Category], "category order broken at %d", i)
				}
			}
		}

		// repeated polls of the same data give the same order
		again := Merge(NormalizeAnomalies(anoms), NormalizeActions(acts), NormalizeIncidents(incs))
		require.Equal(t, ids(merged), ids(again))
	}
}

func TestGroupIsIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		anoms, acts, incs := randomInputs(r)
		groups := Group(Merge(NormalizeAnomalies(anoms), NormalizeActions(acts), NormalizeIncidents(incs)))
		require.Equal(t, groups, Group(Expand(groups)))

		total := 0
		for _, g := range groups {
			require.GreaterOrEqual(t, g.Count, 1)
			total += g.Count
		}
		require.Equal(t, len(anoms)+len(acts)+len(incs), total)
	}
}
