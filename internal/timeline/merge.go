package timeline

import (
	"fmt"
	"sort"

	"github.com/autoops/sentinel-dash/internal/domain"
)

// Merge concatenates the normalized categories in fetch order (anomalies,
// actions, incidents) and sorts by OccurredAt descending. Equal timestamps keep
// their concatenation order, which makes the result identical across polls
// that return the same data.
func Merge(anomalies, actions, incidents []domain.TimelineEvent) []domain.TimelineEvent {
	all := make([]domain.TimelineEvent, 0, len(anomalies)+len(actions)+len(incidents))
	all = append(all, anomalies...)
	all = append(all, actions...)
	all = append(all, incidents...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].OccurredAt.After(all[j].OccurredAt)
	})
	return all
}

// Key is the grouping identity of an event: everything except ID and OccurredAt.
type Key struct {
	Category domain.Category
	Metric   string
	Severity string
	Title    string
	Status   string
	Success  string // "", "true" or "false"
}

// KeyOf computes the grouping key for e.
func KeyOf(e domain.TimelineEvent) Key {
	k := Key{Category: e.Category, Title: e.Title}
	switch a := e.Attributes.(type) {
	case domain.AnomalyAttributes:
		k.Metric, k.Severity = a.Metric, a.Severity
	case domain.ActionAttributes:
		if a.Success != nil {
			k.Success = fmt.Sprint(*a.Success)
		}
	case domain.IncidentAttributes:
		k.Status = a.Status
	case nil:
	default:
		panic(fmt.Sprintf("timeline: unhandled attributes %T", a))
	}
	return k
}

// Group folds adjacent events with equal keys into counted groups. The input
// is expected in display order (see Merge), so the first member of a run is
// its most recent and becomes the representative.
func Group(events []domain.TimelineEvent) []domain.MergedGroup {
	var out []domain.MergedGroup
	var lastKey Key
	for i, e := range events {
		k := KeyOf(e)
		if i > 0 && k == lastKey {
			out[len(out)-1].Count++
			continue
		}
		out = append(out, domain.MergedGroup{Representative: e, Count: 1})
		lastKey = k
	}
	return out
}

// Expand turns groups back into a flat sequence, repeating each representative
// Count times.
func Expand(groups []domain.MergedGroup) []domain.TimelineEvent {
	var out []domain.TimelineEvent
	for _, g := range groups {
		for i := 0; i < g.Count; i++ {
			out = append(out, g.Representative)
		}
	}
	return out
}
