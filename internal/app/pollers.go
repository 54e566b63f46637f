package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/autoops/sentinel-dash/internal/domain"
	"github.com/autoops/sentinel-dash/internal/poller"
	"github.com/autoops/sentinel-dash/internal/timeline"
)

type panel int

const (
	panelSummary panel = iota
	panelBusiness
	panelTimeline
	panelAnomalies
	panelActions
	panelPolicies
	panelLine
	panelBand
	panelCount
)

var panelNames = [panelCount]string{
	"summary", "business", "timeline", "anomalies", "actions", "policies", "metric", "forecast",
}

func (p panel) String() string { return panelNames[p] }

const keysPoller = "metric_keys"

// poll results, one msg type per panel
type summaryMsg poller.Result[domain.Summary]
type businessMsg poller.Result[domain.Business]
type timelineMsg poller.Result[timeline.Snapshot]
type anomaliesMsg poller.Result[[]domain.AnomalyRecord]
type actionsMsg poller.Result[[]domain.ActionRecord]
type keysMsg poller.Result[[]string]
type policiesMsg poller.Result[[]domain.PolicySuggestion]

// lineMsg and bandMsg are tagged with the metric generation they were
// scheduled for; results for an older selection are dropped.
type lineMsg struct {
	metric string
	gen    int
	res    poller.Result[[]domain.SeriesPoint]
}

type bandMsg struct {
	metric string
	gen    int
	res    poller.Result[domain.ForecastBand]
}

type executedMsg struct {
	name string
	res  domain.ExecuteResult
	err  error
}

type tokenSavedMsg struct{ err error }

type answerMsg struct {
	question string
	ans      domain.AgentAnswer
	err      error
}

type planMsg struct {
	plan domain.Plan
	err  error
}

// runtime is shared by every copy of the Model. Only Update touches cancels,
// so it needs no lock.
type runtime struct {
	ctx     context.Context
	cancel  context.CancelFunc
	ch      chan tea.Msg
	base    poller.Options
	cancels map[string]poller.CancelFunc
}

func newRuntime(base poller.Options) *runtime {
	ctx, cancel := context.WithCancel(context.Background())
	return &runtime{
		ctx:     ctx,
		cancel:  cancel,
		ch:      make(chan tea.Msg, 32),
		base:    base,
		cancels: map[string]poller.CancelFunc{},
	}
}

// schedule replaces any poller running under name.
func schedule[T any](rt *runtime, name string, fetch poller.FetchFunc[T], wrap func(poller.Result[T]) tea.Msg) {
	rt.stop(name)
	o := rt.base
	o.Name = name
	rt.cancels[name] = poller.Schedule(rt.ctx, o, fetch, func(ctx context.Context, r poller.Result[T]) {
		select {
		case rt.ch <- wrap(r):
		case <-ctx.Done():
		}
	})
}

func (rt *runtime) stop(name string) {
	if cancel, ok := rt.cancels[name]; ok {
		cancel()
		delete(rt.cancels, name)
	}
}

func (rt *runtime) stopAll() {
	for name := range rt.cancels {
		rt.stop(name)
	}
	rt.cancel()
}

func (rt *runtime) running(name string) bool {
	_, ok := rt.cancels[name]
	return ok
}

// waitForPoll hands the next poll result to Update. Every poll msg handler
// re-arms it, so exactly one is outstanding.
func waitForPoll(ctx context.Context, ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case msg := <-ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) next() tea.Cmd {
	return waitForPoll(m.rt.ctx, m.rt.ch)
}

func (m Model) startPollers() {
	repo, cfg := m.repo, m.cfg

	schedule(m.rt, panelSummary.String(), repo.Summary,
		func(r poller.Result[domain.Summary]) tea.Msg { return summaryMsg(r) })
	schedule(m.rt, panelBusiness.String(), repo.Business,
		func(r poller.Result[domain.Business]) tea.Msg { return businessMsg(r) })
	schedule(m.rt, panelTimeline.String(), m.collector.Collect,
		func(r poller.Result[timeline.Snapshot]) tea.Msg { return timelineMsg(r) })
	schedule(m.rt, panelAnomalies.String(),
		func(ctx context.Context) ([]domain.AnomalyRecord, error) {
			return repo.ListAnomalies(ctx, cfg.Poll.TableLimit)
		},
		func(r poller.Result[[]domain.AnomalyRecord]) tea.Msg { return anomaliesMsg(r) })
	schedule(m.rt, panelActions.String(),
		func(ctx context.Context) ([]domain.ActionRecord, error) {
			return repo.ListActions(ctx, cfg.Poll.TableLimit)
		},
		func(r poller.Result[[]domain.ActionRecord]) tea.Msg { return actionsMsg(r) })
	schedule(m.rt, panelPolicies.String(), repo.PolicySuggestions,
		func(r poller.Result[[]domain.PolicySuggestion]) tea.Msg { return policiesMsg(r) })
	// keys are wanted once; the schedule only retries until the first success
	schedule(m.rt, keysPoller, repo.MetricKeys,
		func(r poller.Result[[]string]) tea.Msg { return keysMsg(r) })

	m.startMetricPollers()
}

// startMetricPollers (re)schedules the series and forecast pollers for the
// selected metric.
func (m Model) startMetricPollers() {
	repo, cfg := m.repo, m.cfg
	metric, gen := m.st.Metric(), m.metricGen

	schedule(m.rt, panelLine.String(),
		func(ctx context.Context) ([]domain.SeriesPoint, error) {
			return repo.RecentMetric(ctx, metric, cfg.Metrics.Minutes)
		},
		func(r poller.Result[[]domain.SeriesPoint]) tea.Msg { return lineMsg{metric: metric, gen: gen, res: r} })
	schedule(m.rt, panelBand.String(),
		func(ctx context.Context) (domain.ForecastBand, error) {
			return repo.Forecast(ctx, metric, cfg.Forecast.Horizon)
		},
		func(r poller.Result[domain.ForecastBand]) tea.Msg { return bandMsg{metric: metric, gen: gen, res: r} })
}

func (m Model) execute(name string, params map[string]any) tea.Cmd {
	ctx, repo, timeout := m.rt.ctx, m.repo, m.cfg.API.Timeout
	if params == nil {
		params = map[string]any{}
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		res, err := repo.ExecuteAction(ctx, name, params)
		return executedMsg{name: name, res: res, err: err}
	}
}

func (m Model) ask(question string) tea.Cmd {
	ctx, repo, timeout := m.rt.ctx, m.repo, m.cfg.API.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		ans, err := repo.AskAgent(ctx, question)
		return answerMsg{question: question, ans: ans, err: err}
	}
}

func (m Model) propose() tea.Cmd {
	ctx, repo, timeout := m.rt.ctx, m.repo, m.cfg.API.Timeout
	req := domain.PlanRequest{
		Objectives: append([]string(nil), m.cfg.Agent.Objectives...),
		Context:    map[string]any{"deployment": m.cfg.Agent.Deployment, "replicas": m.cfg.Agent.Replicas},
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		plan, err := repo.ProposePlan(ctx, req)
		return planMsg{plan: plan, err: err}
	}
}

func (m Model) saveToken(token string) tea.Cmd {
	st := m.st
	return func() tea.Msg {
		return tokenSavedMsg{err: st.SetToken(token)}
	}
}
