package domain

import "context"

// TimelineRepo serves the three timeline categories.
type TimelineRepo interface {
	ListAnomalies(ctx context.Context, limit int) ([]AnomalyRecord, error)
	ListActions(ctx context.Context, limit int) ([]ActionRecord, error)
	ListIncidents(ctx context.Context) ([]IncidentRecord, error)
}

// SeriesRepo serves metric series and forecasts.
type SeriesRepo interface {
	MetricKeys(ctx context.Context) ([]string, error)
	RecentMetric(ctx context.Context, metric string, minutes int) ([]SeriesPoint, error)
	Forecast(ctx context.Context, metric string, horizon int) (ForecastBand, error)
}

// AgentRepo serves policy suggestions and the ops agent.
type AgentRepo interface {
	PolicySuggestions(ctx context.Context) ([]PolicySuggestion, error)
	AskAgent(ctx context.Context, question string) (AgentAnswer, error)
	ProposePlan(ctx context.Context, req PlanRequest) (Plan, error)
}

// OpsRepo is everything the dashboard reads or triggers.
type OpsRepo interface {
	TimelineRepo
	SeriesRepo
	AgentRepo
	Summary(ctx context.Context) (Summary, error)
	Business(ctx context.Context) (Business, error)
	ExecuteAction(ctx context.Context, name string, params map[string]any) (ExecuteResult, error)
}
