package domain

import "time"

// Category is the closed set of timeline event sources.
type Category string

const (
	CategoryAnomaly  Category = "anomaly"
	CategoryAction   Category = "action"
	CategoryIncident Category = "incident"
)

// Categories returns every category in fetch order. Merge tie-breaks rely on it.
func Categories() []Category {
	return []Category{CategoryAnomaly, CategoryAction, CategoryIncident}
}

// Attributes is the variant-specific payload of a TimelineEvent. It is sealed:
// only the three types below implement it.
type Attributes interface {
	Category() Category
	sealed()
}

type AnomalyAttributes struct {
	Severity string
	Metric   string
}

type ActionAttributes struct {
	Success *bool // nil when the source omitted it
}

type IncidentAttributes struct {
	Status string
}

func (AnomalyAttributes) Category() Category  { return CategoryAnomaly }
func (ActionAttributes) Category() Category   { return CategoryAction }
func (IncidentAttributes) Category() Category { return CategoryIncident }

func (AnomalyAttributes) sealed()  {}
func (ActionAttributes) sealed()   {}
func (IncidentAttributes) sealed() {}

// TimelineEvent is the normalized shape shared by all categories.
// ID is unique within its category only.
type TimelineEvent struct {
	ID         string
	Category   Category
	OccurredAt time.Time
	Title      string
	Attributes Attributes
}

// MergedGroup is a run of adjacent, attribute-identical events.
type MergedGroup struct {
	Representative TimelineEvent // most recent member
	Count          int
}

type SeriesPoint struct {
	Index     int
	Timestamp time.Time
	Value     float64
}

// ForecastBand holds equal-length mean/lower/upper series. lower <= mean <= upper
// is expected but not guaranteed by the backend.
type ForecastBand struct {
	Mean  []float64 `json:"mean"`
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// Len returns the shortest of the three series lengths.
func (b ForecastBand) Len() int {
	n := len(b.Mean)
	if len(b.Lower) < n {
		n = len(b.Lower)
	}
	if len(b.Upper) < n {
		n = len(b.Upper)
	}
	return n
}

// -------- wire records --------

type AnomalyRecord struct {
	ID        string   `json:"id"`
	Metric    string   `json:"metric"`
	Score     float64  `json:"score"`
	Severity  string   `json:"severity"`
	CreatedAt WireTime `json:"created_at"`
}

type ActionRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Success   *bool    `json:"success"`
	CreatedAt WireTime `json:"created_at"`
}

type IncidentRecord struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	CreatedAt WireTime `json:"created_at"`
}

type Summary struct {
	Anomalies int `json:"anomalies"`
	Actions   int `json:"actions"`
	Incidents int `json:"incidents"`
}

type Business struct {
	DowntimeAvoidedMin float64 `json:"downtime_avoided_min"`
	CostAvoided        float64 `json:"cost_avoided"`
}

type ExecuteResult struct {
	Success         bool    `json:"success"`
	DurationSeconds float64 `json:"duration_seconds"`
	Logs            string  `json:"logs"`
	ActionID        string  `json:"action_id"`
}

// PolicySuggestion is a rule whose condition currently holds.
type PolicySuggestion struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// AgentAnswer is the agent's reply to a free-form question.
type AgentAnswer struct {
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning"`
}

// PlanRequest asks the agent for a remediation plan.
type PlanRequest struct {
	Objectives []string       `json:"objectives"`
	Context    map[string]any `json:"context"`
}

// PlanStep is one proposed step. Action is empty for advice-only steps.
type PlanStep struct {
	Description string         `json:"description"`
	Action      string         `json:"action"`
	Params      map[string]any `json:"params"`
}

type Plan struct {
	Steps       []PlanStep `json:"steps"`
	Explanation string     `json:"explanation"`
}

// Runbook is a static catalog entry.
type Runbook struct {
	Name string
	Desc string
}

// RunbookCatalog lists the runbooks the executor knows about.
var RunbookCatalog = []Runbook{
	{Name: "restart_service", Desc: "Restart a systemd service"},
	{Name: "rollout_undo", Desc: "Rollback last deployment"},
	{Name: "scale_deployment", Desc: "Scale K8s deployment"},
	{Name: "quarantine_host", Desc: "Isolate a compromised host"},
}
