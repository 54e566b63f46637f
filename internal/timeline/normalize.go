package timeline

import (
	"fmt"

	"github.com/autoops/sentinel-dash/internal/domain"
)

var metricLabels = map[string]string{
	"cpu":     "CPU",
	"mem":     "Memory",
	"latency": "Latency",
	"errors":  "Errors",
	"logins":  "Logins",
}

// MetricLabel maps a metric key to its display label. Unknown keys pass through.
func MetricLabel(metric string) string {
	if l, ok := metricLabels[metric]; ok {
		return l
	}
	return metric
}

// Records with missing fields are normalized with empty placeholders, never
// dropped, so the timeline keeps count parity with its sources.

func NormalizeAnomaly(r domain.AnomalyRecord) domain.TimelineEvent {
	return domain.TimelineEvent{
		ID:         r.ID,
		Category:   domain.CategoryAnomaly,
		OccurredAt: r.CreatedAt.Time,
		Title:      fmt.Sprintf("%s anomaly — %s", MetricLabel(r.Metric), r.Severity),
		Attributes: domain.AnomalyAttributes{Severity: r.Severity, Metric: r.Metric},
	}
}

func NormalizeAction(r domain.ActionRecord) domain.TimelineEvent {
	return domain.TimelineEvent{
		ID:         r.ID,
		Category:   domain.CategoryAction,
		OccurredAt: r.CreatedAt.Time,
		Title:      r.Name,
		Attributes: domain.ActionAttributes{Success: r.Success},
	}
}

func NormalizeIncident(r domain.IncidentRecord) domain.TimelineEvent {
	return domain.TimelineEvent{
		ID:         r.ID,
		Category:   domain.CategoryIncident,
		OccurredAt: r.CreatedAt.Time,
		Title:      r.Title,
		Attributes: domain.IncidentAttributes{Status: r.Status},
	}
}

func NormalizeAnomalies(rs []domain.AnomalyRecord) []domain.TimelineEvent {
	out := make([]domain.TimelineEvent, 0, len(rs))
	for _, r := range rs {
		out = append(out, NormalizeAnomaly(r))
	}
	return out
}

func NormalizeActions(rs []domain.ActionRecord) []domain.TimelineEvent {
	out := make([]domain.TimelineEvent, 0, len(rs))
	for _, r := range rs {
		out = append(out, NormalizeAction(r))
	}
	return out
}

func NormalizeIncidents(rs []domain.IncidentRecord) []domain.TimelineEvent {
	out := make([]domain.TimelineEvent, 0, len(rs))
	for _, r := range rs {
		out = append(out, NormalizeIncident(r))
	}
	return out
}
