package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autoops/sentinel-dash/internal/domain"
)

// rule suggests action while metric stays above threshold. A non-zero window
// compares the average over it, otherwise the latest sample.
type rule struct {
	metric    string
	threshold float64
	window    time.Duration
	action    string
}

func (r rule) condition() string {
	if r.window == 0 {
		return fmt.Sprintf("%s > %g", r.metric, r.threshold)
	}
	return fmt.Sprintf("%s > %g for %dm", r.metric, r.threshold, int(r.window.Minutes()))
}

var rules = []rule{
	{metric: "cpu", threshold: 75, action: "scale_deployment"},
	{metric: "latency", threshold: 300, window: time.Minute, action: "restart_service"},
	{metric: "error_rate", threshold: 2.5, action: "rollout_undo"},
	{metric: "failed_logins", threshold: 7, action: "quarantine_host"},
}

const planExplanation = "Generated plan based on recent anomalies and policy rules. " +
	"Prioritize rollback on errors and scale on CPU pressure."

func (r *Repo) PolicySuggestions(ctx context.Context) ([]domain.PolicySuggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("policy suggestions"); err != nil {
		return nil, err
	}
	return r.suggest(), nil
}

// AskAgent answers a few canned questions from the simulated history.
func (r *Repo) AskAgent(ctx context.Context, question string) (domain.AgentAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("agent query"); err != nil {
		return domain.AgentAnswer{}, err
	}

	now := r.clock.Now()
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "what happened in the last hour"):
		hour := now.Add(-time.Hour)
		var anoms, acts int
		for _, a := range r.anomalies {
			if !a.CreatedAt.Before(hour) {
				anoms++
			}
		}
		for _, a := range r.actions {
			if !a.CreatedAt.Before(hour) {
				acts++
			}
		}
		return domain.AgentAnswer{
			Answer:    fmt.Sprintf("Detected %d anomalies and executed %d actions.", anoms, acts),
			Reasoning: "Summarized counts from the last hour.",
		}, nil
	case strings.Contains(q, "prevent") || strings.Contains(q, "avoided"):
		return domain.AgentAnswer{
			Answer: fmt.Sprintf("We likely prevented ~%d minutes of downtime across %d actions by early remediation.",
				5*len(r.actions), len(r.actions)),
			Reasoning: "Estimate based on a simple heuristic of 5 minutes saved per action.",
		}, nil
	}

	ans := "System is stable. No recent anomalies."
	if len(r.anomalies) > 0 {
		latest := r.anomalies[len(r.anomalies)-1]
		ans = fmt.Sprintf("Latest anomaly: %s with severity %s. Suggested action: monitor or apply relevant runbook.",
			latest.Metric, latest.Severity)
	}
	return domain.AgentAnswer{Answer: ans, Reasoning: "Heuristic narrative without external LLM."}, nil
}

// ProposePlan maps the three most recent anomalies of the last two hours to
// runbooks, then appends the policy suggestions.
func (r *Repo) ProposePlan(ctx context.Context, req domain.PlanRequest) (domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.read("agent plan"); err != nil {
		return domain.Plan{}, err
	}

	deployment := contextValue(req.Context, "deployment", "myapp")
	replicas := contextValue(req.Context, "replicas", 2)

	cutoff := r.clock.Now().Add(-2 * time.Hour)
	var steps []domain.PlanStep
	seen := 0
	for _, a := range newestFirst(r.anomalies, 0) {
		if a.CreatedAt.Before(cutoff) || seen == 3 {
			break
		}
		seen++
		severe := a.Severity == "high" || a.Severity == "critical"
		switch {
		case (a.Metric == "error_rate" || a.Metric == "latency") && severe:
			steps = append(steps, domain.PlanStep{
				Description: fmt.Sprintf("Rollback recent deployment due to %s %s", a.Metric, a.Severity),
				Action:      "rollout_undo",
				Params:      map[string]any{"deployment": deployment},
			})
		case a.Metric == "cpu" && (severe || a.Severity == "medium"):
			steps = append(steps, domain.PlanStep{
				Description: "Scale deployment to handle CPU pressure",
				Action:      "scale_deployment",
				Params:      map[string]any{"deployment": deployment, "replicas": replicas},
			})
		}
	}
	for _, s := range r.suggest() {
		steps = append(steps, domain.PlanStep{Description: "Policy: " + s.Reason, Action: s.Action, Params: map[string]any{}})
	}
	if len(steps) == 0 {
		steps = append(steps, domain.PlanStep{Description: "No critical issues detected. Continue monitoring.", Params: map[string]any{}})
	}
	return domain.Plan{Steps: steps, Explanation: planExplanation}, nil
}

// suggest evaluates rules against the simulated series. r.mu is held.
func (r *Repo) suggest() []domain.PolicySuggestion {
	out := []domain.PolicySuggestion{}
	now := r.clock.Now()
	for _, ru := range rules {
		s := r.series[ru.metric]
		if len(s) == 0 {
			continue
		}
		v := s[len(s)-1].v
		if ru.window > 0 {
			cutoff := now.Add(-ru.window)
			var sum float64
			var n int
			for i := len(s) - 1; i >= 0 && !s[i].at.Before(cutoff); i-- {
				sum += s[i].v
				n++
			}
			if n == 0 {
				continue
			}
			v = sum / float64(n)
		}
		if v > ru.threshold {
			out = append(out, domain.PolicySuggestion{Action: ru.action, Reason: ru.condition()})
		}
	}
	return out
}

func contextValue(m map[string]any, key string, def any) any {
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return def
}
