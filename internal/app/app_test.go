package app

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoops/sentinel-dash/internal/config"
	"github.com/autoops/sentinel-dash/internal/domain"
	"github.com/autoops/sentinel-dash/internal/infrastructure/mock"
	"github.com/autoops/sentinel-dash/internal/logging"
	"github.com/autoops/sentinel-dash/internal/poller"
	"github.com/autoops/sentinel-dash/internal/series"
	"github.com/autoops/sentinel-dash/internal/state"
	"github.com/autoops/sentinel-dash/internal/timeline"
)

func newTestModel(t *testing.T, metric string) Model {
	t.Helper()
	mc := clock.NewMock()
	mc.Set(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	m := New(Options{
		Repo:     mock.New(mock.WithClock(mc), mock.WithSeed(1), mock.WithSpikeRate(0)),
		State:    state.New(state.NewMemoryStore(), metric),
		Config:   config.Default(),
		Logger:   logging.Discard(),
		Resolver: series.NewResolver(series.NewGenerator(1), 0),
		Poll:     poller.Options{Clock: clock.NewMock()},
	})
	t.Cleanup(m.rt.stopAll)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(t, m, key(k))
	}
	return m, cmd
}

// pump feeds poll results into Update until done holds.
func pump(t *testing.T, m Model, done func(Model) bool) Model {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for !done(m) {
		select {
		case msg := <-m.rt.ch:
			m, _ = update(t, m, msg)
		case <-deadline:
			t.Fatal("timed out waiting for poll results")
		}
	}
	return m
}

func allTried(m Model) bool {
	for _, p := range m.panels {
		if !p.tried {
			return false
		}
	}
	return len(m.keys) > 0
}

func TestFreshModelShowsLoading(t *testing.T) {
	m := newTestModel(t, "cpu")
	assert.Contains(t, m.View(), "Loading…")

	m, _ = press(t, m, "2")
	assert.Contains(t, m.View(), "Loading…")
}

func TestInitPollsEveryPanel(t *testing.T) {
	m := newTestModel(t, "cpu")
	require.NotNil(t, m.Init())

	m = pump(t, m, allTried)

	assert.Equal(t, []string{"cpu", "error_rate", "failed_logins", "latency", "mem"}, m.keys)
	assert.False(t, m.rt.running(keysPoller), "keys are fetched once")
	assert.True(t, m.panels[panelSummary].loaded)

	require.NotNil(t, m.line)
	assert.False(t, m.line.Synthetic, "random walk is live data")
	require.NotNil(t, m.band)
	assert.True(t, m.band.Synthetic, "flat forecast mean falls back")
	assert.Equal(t, series.SyntheticPoints, m.band.Band.Len())

	view := m.View()
	assert.Contains(t, view, "Anomalies: 0")
	assert.Contains(t, view, "(synthetic)")
}

func TestUnknownDefaultMetricSwitchesToFirstKey(t *testing.T) {
	m := newTestModel(t, "disk")
	m.Init()
	m = pump(t, m, func(m Model) bool { return len(m.keys) > 0 })

	assert.Equal(t, "cpu", m.st.Metric())
	assert.Equal(t, 1, m.metricGen)
}

func TestPollMsgRearmsWait(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, cmd := update(t, m, summaryMsg{HasValue: true, Value: domain.Summary{Anomalies: 4}})
	assert.NotNil(t, cmd)
	assert.Equal(t, 4, m.summary.Anomalies)
}

func TestFailedSummaryKeepsValueAndMarksStale(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, _ = update(t, m, summaryMsg{HasValue: true, Value: domain.Summary{Actions: 2}, CompletedAt: time.Now()})
	m, _ = update(t, m, summaryMsg{HasValue: true, Value: domain.Summary{Actions: 2}, Stale: true, Err: errors.New("503")})

	view := m.View()
	assert.Contains(t, view, "Actions: 2")
	assert.Contains(t, view, "stale")
}

func TestLineFailureWithoutHistoryIsSynthetic(t *testing.T) {
	m := newTestModel(t, "latency")
	m, _ = update(t, m, lineMsg{metric: "latency", res: poller.Result[[]domain.SeriesPoint]{
		Err: errors.New("connection refused"), Stale: true,
	}})

	require.NotNil(t, m.line)
	assert.True(t, m.line.Synthetic)
	assert.Len(t, m.line.Points, series.SyntheticPoints)
	assert.Contains(t, m.View(), "(synthetic)")
}

func TestResultsForOldMetricAreDropped(t *testing.T) {
	m := newTestModel(t, "cpu")
	m = m.selectMetric("mem")
	require.Equal(t, 1, m.metricGen)

	live := []domain.SeriesPoint{{Index: 0, Value: 1}, {Index: 1, Value: 3}}
	m, _ = update(t, m, lineMsg{metric: "cpu", gen: 0, res: poller.Result[[]domain.SeriesPoint]{Value: live, HasValue: true}})
	assert.Nil(t, m.line)

	m, _ = update(t, m, lineMsg{metric: "mem", gen: 1, res: poller.Result[[]domain.SeriesPoint]{Value: live, HasValue: true}})
	require.NotNil(t, m.line)
	assert.Equal(t, "mem", m.line.Metric)
	assert.False(t, m.line.Synthetic)
}

func TestMetricKeyCyclesAndRestartsPollers(t *testing.T) {
	m := newTestModel(t, "cpu")
	m.Init()
	m = pump(t, m, func(m Model) bool { return len(m.keys) > 0 && m.line != nil })

	m, _ = press(t, m, "m")
	assert.Equal(t, "error_rate", m.st.Metric())
	assert.Equal(t, 1, m.metricGen)
	assert.Nil(t, m.line, "old chart cleared")
	assert.True(t, m.rt.running(panelLine.String()))
	assert.True(t, m.rt.running(panelBand.String()))

	m = pump(t, m, func(m Model) bool { return m.line != nil })
	assert.Equal(t, "error_rate", m.line.Metric)
}

func TestTabKeys(t *testing.T) {
	m := newTestModel(t, "cpu")
	assert.Equal(t, state.TabOverview, m.st.Tab())

	m, _ = press(t, m, "tab")
	assert.Equal(t, state.TabOps, m.st.Tab())
	m, _ = press(t, m, "1")
	assert.Equal(t, state.TabOverview, m.st.Tab())
	m, _ = press(t, m, "2")
	assert.Equal(t, state.TabOps, m.st.Tab())
	m, _ = press(t, m, "3")
	assert.Equal(t, state.TabAgent, m.st.Tab())
	m, _ = press(t, m, "tab")
	assert.Equal(t, state.TabOverview, m.st.Tab())
}

func TestTimelineShowsRunMultipliers(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
	m, _ = press(t, m, "2")

	m, _ = update(t, m, timelineMsg{HasValue: true, Value: timeline.Snapshot{}})
	assert.Contains(t, m.View(), "No events yet.")

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ok := true
	var anoms []domain.AnomalyRecord
	for i := 0; i < 3; i++ {
		anoms = append(anoms, domain.AnomalyRecord{
			ID: string(rune('a' + i)), Metric: "cpu", Severity: "high",
			CreatedAt: domain.WireTime{Time: at.Add(-time.Duration(i) * time.Minute)},
		})
	}
	acts := []domain.ActionRecord{{ID: "1", Name: "restart_service", Success: &ok, CreatedAt: domain.WireTime{Time: at.Add(time.Minute)}}}
	events := timeline.Merge(timeline.NormalizeAnomalies(anoms), timeline.NormalizeActions(acts), nil)
	snap := timeline.Snapshot{Events: events, Groups: timeline.Group(events), Failed: []domain.Category{domain.CategoryIncident}}

	m, _ = update(t, m, timelineMsg{HasValue: true, Value: snap})
	view := m.View()
	assert.Contains(t, view, "restart_service — succeeded")
	assert.Contains(t, view, "CPU anomaly — high ×3")
	assert.Contains(t, view, "incident unavailable")
}

func TestExecuteRunbookReportsResult(t *testing.T) {
	m := newTestModel(t, "cpu")

	_, cmd := press(t, m, "x")
	assert.Nil(t, cmd, "runbooks only run from the Ops tab")

	m, cmd = press(t, m, "2", "x")
	require.NotNil(t, cmd)
	assert.Contains(t, m.status, "executing restart_service")

	m, _ = update(t, m, cmd())
	assert.Contains(t, m.status, "restart_service succeeded")
}

func TestExecuteFailureIsShownNotFatal(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, _ = update(t, m, executedMsg{name: "rollout_undo", err: errors.New("401 Unauthorized")})
	assert.Contains(t, m.status, "rollout_undo failed")
	assert.Contains(t, m.View(), "401 Unauthorized")
}

func TestTokenEntryStoresToken(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, _ = press(t, m, "t")
	require.True(t, m.tokenOpen)

	// while the input is open, keys go to it instead of the shell
	m, _ = press(t, m, "q")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("rst")})
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	assert.False(t, m.tokenOpen)

	m, _ = update(t, m, cmd())
	assert.Equal(t, "qrst", m.st.Token())
	assert.Equal(t, "token saved", m.status)
	assert.Contains(t, m.View(), "token: set")
}

func TestTokenEntryEscCancels(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, _ = press(t, m, "t", "a", "esc")
	assert.False(t, m.tokenOpen)
	assert.Equal(t, "", m.st.Token())
}

func TestFocusCyclesOpsComponents(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, _ = press(t, m, "2")
	assert.Equal(t, focusTimeline, m.focus)

	m, _ = press(t, m, "f")
	assert.Equal(t, focusAnomalies, m.focus)
	assert.True(t, m.anomTable.Focused())

	m, _ = press(t, m, "f", "f")
	assert.Equal(t, focusRunbooks, m.focus)
	assert.True(t, m.runbookTbl.Focused())
	assert.False(t, m.anomTable.Focused())

	m, _ = press(t, m, "down")
	assert.Equal(t, 1, m.runbookTbl.Cursor())
}

func TestQuitStopsEveryPoller(t *testing.T) {
	m := newTestModel(t, "cpu")
	m.Init()
	require.NotEmpty(t, m.rt.cancels)

	m, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.rt.cancels)
	assert.Error(t, m.rt.ctx.Err())
	assert.Nil(t, m.next()(), "pending wait unblocks on quit")
}

func TestPolicySuggestionsPanel(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
	m, _ = press(t, m, "2")
	assert.Contains(t, m.View(), "Policy suggestions")

	m, cmd := update(t, m, policiesMsg{HasValue: true, Value: []domain.PolicySuggestion{}})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "No suggestions")

	m, _ = update(t, m, policiesMsg{HasValue: true, Value: []domain.PolicySuggestion{
		{Action: "scale_deployment", Reason: "cpu > 75"},
	}})
	assert.Contains(t, m.View(), "cpu > 75 → scale_deployment")

	m, _ = update(t, m, policiesMsg{HasValue: true, Value: m.policies, Stale: true, Err: errors.New("timeout")})
	view := m.View()
	assert.Contains(t, view, "cpu > 75 → scale_deployment")
	assert.Contains(t, view, "stale")
}

func TestAgentQuestionRoundTrip(t *testing.T) {
	m := newTestModel(t, "cpu")

	m, _ = press(t, m, "a")
	assert.False(t, m.agentOpen, "questions are asked from the Agent tab")

	m, _ = press(t, m, "3", "a")
	require.True(t, m.agentOpen)
	assert.Contains(t, m.View(), "Press a to ask a question.")

	// keys go to the input while it is open
	m, _ = press(t, m, "q")
	assert.True(t, m.agentOpen)
	assert.Equal(t, defaultQuestion+"q", m.agentInput.Value())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	assert.False(t, m.agentOpen)
	assert.True(t, m.asking)
	assert.Contains(t, m.View(), "Thinking…")

	m, _ = update(t, m, cmd())
	assert.False(t, m.asking)
	assert.Equal(t, defaultQuestion, m.question)
	view := m.View()
	assert.Contains(t, view, "Detected 0 anomalies and executed 0 actions.")
	assert.Contains(t, view, "Reasoning: Summarized counts from the last hour.")
}

func TestAgentFailureIsShownNotFatal(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, _ = press(t, m, "3")
	m, _ = update(t, m, answerMsg{question: "hi", err: errors.New("401 Unauthorized")})
	assert.Contains(t, m.View(), "agent unavailable: 401 Unauthorized")

	m, _ = update(t, m, planMsg{err: errors.New("connection refused")})
	assert.Contains(t, m.View(), "plan unavailable: connection refused")
}

func TestProposePlanFromMock(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, cmd := press(t, m, "3", "p")
	require.NotNil(t, cmd)
	assert.True(t, m.planning)

	_, again := press(t, m, "p")
	assert.Nil(t, again, "one plan request at a time")

	m, _ = update(t, m, cmd())
	assert.False(t, m.planning)
	require.Len(t, m.plan.Steps, 1)
	assert.Contains(t, m.View(), "Continue monitoring")
}

func TestRunPlanStep(t *testing.T) {
	m := newTestModel(t, "cpu")
	m, _ = press(t, m, "3")
	m, _ = update(t, m, planMsg{plan: domain.Plan{
		Explanation: "Prioritize rollback on errors.",
		Steps: []domain.PlanStep{
			{Description: "Keep watching"},
			{Description: "Rollback recent deployment due to error_rate high", Action: "rollout_undo", Params: map[string]any{"deployment": "myapp"}},
		},
	}})
	assert.Contains(t, m.View(), "Prioritize rollback on errors.")

	m, cmd := press(t, m, "x")
	assert.Nil(t, cmd)
	assert.Equal(t, "step 1 has no runbook", m.status)

	m, _ = press(t, m, "down")
	assert.Equal(t, 1, m.planTbl.Cursor())
	m, cmd = press(t, m, "x")
	require.NotNil(t, cmd)
	assert.Contains(t, m.status, "executing rollout_undo")

	m, _ = update(t, m, cmd())
	assert.Contains(t, m.status, "rollout_undo succeeded")
}
