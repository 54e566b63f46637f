// Package app is the bubbletea dashboard shell: it owns the pollers, folds
// their results into the model and renders the Overview, Ops and Agent tabs.
package app

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/autoops/sentinel-dash/internal/apperr"
	"github.com/autoops/sentinel-dash/internal/config"
	"github.com/autoops/sentinel-dash/internal/domain"
	"github.com/autoops/sentinel-dash/internal/metrics"
	"github.com/autoops/sentinel-dash/internal/poller"
	"github.com/autoops/sentinel-dash/internal/series"
	"github.com/autoops/sentinel-dash/internal/state"
	"github.com/autoops/sentinel-dash/internal/timeline"
	"github.com/autoops/sentinel-dash/internal/ui/styles"
	"github.com/autoops/sentinel-dash/internal/ui/widgets"
)

// focus is the Ops tab component that receives movement keys.
type focus int

const (
	focusTimeline focus = iota
	focusAnomalies
	focusActions
	focusRunbooks
	focusCount
)

var focusNames = [focusCount]string{"timeline", "anomalies", "actions", "runbooks"}

// panelState tracks freshness of one panel.
type panelState struct {
	tried  bool // at least one tick completed
	loaded bool // a value has been seen
	stale  bool
	err    error
	lastOK time.Time
}

func (s *panelState) observe(hasValue, stale bool, err error, at time.Time) {
	s.tried = true
	s.loaded = s.loaded || hasValue
	s.stale = stale
	s.err = err
	if !stale {
		s.lastOK = at
	}
}

type Model struct {
	rt        *runtime
	repo      domain.OpsRepo
	st        *state.State
	cfg       config.Config
	log       *slog.Logger
	resolver  *series.Resolver
	collector *timeline.Collector

	metricGen int
	keys      []string

	panels    [panelCount]panelState
	summary   domain.Summary
	business  domain.Business
	snapshot  timeline.Snapshot
	anomalies []domain.AnomalyRecord
	actions   []domain.ActionRecord
	policies  []domain.PolicySuggestion
	line      *series.Line
	band      *series.Band

	// agent tab; both requests are one-shot
	question   string
	answer     domain.AgentAnswer
	asking     bool
	agentErr   error
	plan       domain.Plan
	planning   bool
	planErr    error
	planTbl    table.Model
	agentInput textinput.Model
	agentOpen  bool

	focus      focus
	timelineVP viewport.Model
	anomTable  table.Model
	actTable   table.Model
	runbookTbl table.Model
	tokenInput textinput.Model
	tokenOpen  bool
	status     string
	width      int
	height     int
}

// Options wires a Model. Logger and Resolver may be nil.
type Options struct {
	Repo     domain.OpsRepo
	State    *state.State
	Config   config.Config
	Logger   *slog.Logger
	Resolver *series.Resolver
	Poll     poller.Options // Interval/Timeout/Retries/Clock template
}

func New(o Options) Model {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Resolver == nil {
		o.Resolver = series.NewResolver(series.NewGenerator(time.Now().UnixNano()), series.DefaultVarianceThreshold)
	}
	if o.State == nil {
		o.State = state.New(nil, o.Config.Metrics.DefaultMetric)
	}
	base := o.Poll
	if base.Interval == 0 {
		base.Interval = o.Config.Poll.Interval
	}
	if base.Timeout == 0 {
		base.Timeout = o.Config.API.Timeout
	}
	if base.Retries == 0 {
		base.Retries = o.Config.API.Retries
	}
	base.Logger = o.Logger

	ti := textinput.New()
	ti.Placeholder = "API token"
	ti.EchoMode = textinput.EchoPassword
	ti.CharLimit = 256
	ti.Width = 40

	ai := textinput.New()
	ai.Placeholder = "Ask the ops agent"
	ai.CharLimit = 512
	ai.SetValue(defaultQuestion)
	ai.CursorEnd()
	ai.Width = 60

	m := Model{
		rt:         newRuntime(base),
		repo:       o.Repo,
		st:         o.State,
		cfg:        o.Config,
		log:        o.Logger,
		resolver:   o.Resolver,
		collector:  timeline.NewCollector(o.Repo, o.Config.Poll.AnomalyLimit, o.Config.Poll.ActionLimit, o.Logger),
		timelineVP: viewport.New(60, 20),
		anomTable:  table.New(table.WithColumns(anomalyColumns(60))),
		actTable:   table.New(table.WithColumns(actionColumns(60))),
		runbookTbl: table.New(table.WithColumns(runbookColumns(60))),
		tokenInput: ti,
		planTbl:    table.New(table.WithColumns(planColumns(60))),
		agentInput: ai,
		width:      120,
		height:     40,
	}
	m.runbookTbl.SetRows(runbookRows())
	m.planTbl.Focus()
	m.timelineVP.SetContent(styles.Faint.Render("Loading…"))
	m.layout()
	return m
}

func (m Model) Init() tea.Cmd {
	m.startPollers()
	return m.next()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.timelineVP.SetContent(m.renderTimeline())
		return m, nil

	case summaryMsg:
		m.panels[panelSummary].observe(msg.HasValue, msg.Stale, msg.Err, msg.CompletedAt)
		if msg.HasValue {
			m.summary = msg.Value
		}
		return m, m.next()

	case businessMsg:
		m.panels[panelBusiness].observe(msg.HasValue, msg.Stale, msg.Err, msg.CompletedAt)
		if msg.HasValue {
			m.business = msg.Value
		}
		return m, m.next()

	case timelineMsg:
		m.panels[panelTimeline].observe(msg.HasValue, msg.Stale, msg.Err, msg.CompletedAt)
		if msg.HasValue {
			// whole list replaced every tick
			m.snapshot = msg.Value
		}
		m.timelineVP.SetContent(m.renderTimeline())
		return m, m.next()

	case anomaliesMsg:
		m.panels[panelAnomalies].observe(msg.HasValue, msg.Stale, msg.Err, msg.CompletedAt)
		if msg.HasValue {
			m.anomalies = msg.Value
			m.anomTable.SetRows(anomalyRows(m.anomalies))
			keepCursor(&m.anomTable, len(m.anomalies))
		}
		return m, m.next()

	case actionsMsg:
		m.panels[panelActions].observe(msg.HasValue, msg.Stale, msg.Err, msg.CompletedAt)
		if msg.HasValue {
			m.actions = msg.Value
			m.actTable.SetRows(actionRows(m.actions))
			keepCursor(&m.actTable, len(m.actions))
		}
		return m, m.next()

	case policiesMsg:
		m.panels[panelPolicies].observe(msg.HasValue, msg.Stale, msg.Err, msg.CompletedAt)
		if msg.HasValue {
			m.policies = msg.Value
		}
		return m, m.next()

	case keysMsg:
		if msg.Err == nil && m.rt.running(keysPoller) {
			m.rt.stop(keysPoller)
			m.keys = msg.Value
			if len(m.keys) > 0 && indexOf(m.keys, m.st.Metric()) < 0 {
				m = m.selectMetric(m.keys[0])
			}
		}
		return m, m.next()

	case lineMsg:
		if msg.gen == m.metricGen {
			m.applyLine(msg)
		}
		return m, m.next()

	case bandMsg:
		if msg.gen == m.metricGen {
			m.applyBand(msg)
		}
		return m, m.next()

	case executedMsg:
		if msg.err != nil {
			m.status = styles.Danger.Render(fmt.Sprintf("%s failed: %v", msg.name, msg.err))
			m.log.Warn("execute action failed", "runbook", msg.name, "err", msg.err)
			return m, nil
		}
		outcome := "failed"
		if msg.res.Success {
			outcome = "succeeded"
		}
		m.status = fmt.Sprintf("%s %s in %.1fs (action %s)", msg.name, outcome, msg.res.DurationSeconds, coalesce(msg.res.ActionID, "-"))
		m.log.Info("executed action", "runbook", msg.name, "success", msg.res.Success, "action_id", msg.res.ActionID)
		return m, nil

	case answerMsg:
		m.asking = false
		m.question = msg.question
		m.answer, m.agentErr = msg.ans, msg.err
		if msg.err != nil {
			m.log.Warn("agent query failed", "err", msg.err)
		}
		return m, nil

	case planMsg:
		m.planning = false
		m.planErr = msg.err
		if msg.err != nil {
			m.log.Warn("agent plan failed", "err", msg.err)
			return m, nil
		}
		m.plan = msg.plan
		m.planTbl.SetRows(planRows(m.plan.Steps))
		m.planTbl.SetCursor(0)
		return m, nil

	case tokenSavedMsg:
		if msg.err != nil {
			m.status = styles.Danger.Render("token not saved: " + msg.err.Error())
			m.log.Error("save token", "err", msg.err)
		} else {
			m.status = "token saved"
		}
		return m, nil

	case tea.KeyMsg:
		if m.tokenOpen {
			return m.updateTokenInput(msg)
		}
		if m.agentOpen {
			return m.updateAgentInput(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.rt.stopAll()
			return m, tea.Quit

		case "tab":
			m.st.NextTab()
			return m, nil

		case "1":
			m.st.SetTab(state.TabOverview)
			return m, nil

		case "2":
			m.st.SetTab(state.TabOps)
			return m, nil

		case "3":
			m.st.SetTab(state.TabAgent)
			return m, nil

		case "a":
			if m.st.Tab() != state.TabAgent {
				return m, nil
			}
			m.agentOpen = true
			m.agentInput.CursorEnd()
			return m, m.agentInput.Focus()

		case "p":
			if m.st.Tab() != state.TabAgent || m.planning {
				return m, nil
			}
			m.planning = true
			return m, m.propose()

		case "m":
			if next := m.nextMetric(); next != m.st.Metric() {
				m = m.selectMetric(next)
			}
			return m, nil

		case "t":
			m.tokenOpen = true
			m.tokenInput.Reset()
			return m, m.tokenInput.Focus()

		case "f":
			if m.st.Tab() == state.TabOps {
				m.focus = (m.focus + 1) % focusCount
				m.applyFocus()
			}
			return m, nil

		case "x":
			switch m.st.Tab() {
			case state.TabOps:
				i := clamp(m.runbookTbl.Cursor(), 0, len(domain.RunbookCatalog)-1)
				name := domain.RunbookCatalog[i].Name
				m.status = "executing " + name + "…"
				return m, m.execute(name, nil)
			case state.TabAgent:
				i := m.planTbl.Cursor()
				if i < 0 || i >= len(m.plan.Steps) {
					return m, nil
				}
				step := m.plan.Steps[i]
				if step.Action == "" {
					m.status = "step " + strconv.Itoa(i+1) + " has no runbook"
					return m, nil
				}
				m.status = "executing " + step.Action + "…"
				return m, m.execute(step.Action, step.Params)
			}
			return m, nil

		case "up", "k", "down", "j", "pgup", "pgdown", "home", "end":
			if m.st.Tab() == state.TabAgent {
				var cmd tea.Cmd
				m.planTbl, cmd = m.planTbl.Update(msg)
				return m, cmd
			}
			if m.st.Tab() != state.TabOps {
				return m, nil
			}
			var cmd tea.Cmd
			switch m.focus {
			case focusTimeline:
				m.timelineVP, cmd = m.timelineVP.Update(msg)
			case focusAnomalies:
				m.anomTable, cmd = m.anomTable.Update(msg)
			case focusActions:
				m.actTable, cmd = m.actTable.Update(msg)
			case focusRunbooks:
				m.runbookTbl, cmd = m.runbookTbl.Update(msg)
			}
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) updateTokenInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		token := strings.TrimSpace(m.tokenInput.Value())
		m.tokenOpen = false
		m.tokenInput.Blur()
		return m, m.saveToken(token)
	case "esc":
		m.tokenOpen = false
		m.tokenInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.tokenInput, cmd = m.tokenInput.Update(msg)
	return m, cmd
}

func (m Model) updateAgentInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		q := strings.TrimSpace(m.agentInput.Value())
		m.agentOpen = false
		m.agentInput.Blur()
		if q == "" || m.asking {
			return m, nil
		}
		m.asking = true
		return m, m.ask(q)
	case "esc":
		m.agentOpen = false
		m.agentInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.agentInput, cmd = m.agentInput.Update(msg)
	return m, cmd
}

func (m *Model) applyLine(msg lineMsg) {
	r := msg.res
	m.panels[panelLine].observe(r.HasValue, r.Stale, r.Err, r.CompletedAt)
	// with a last-known-good value the poller already substituted it
	var err error
	if !r.HasValue {
		err = r.Err
	}
	l := m.resolver.ResolveLine(msg.metric, r.Value, err, m.line)
	m.line = &l
	metrics.SetSynthetic(panelLine.String(), l.Synthetic)
}

func (m *Model) applyBand(msg bandMsg) {
	r := msg.res
	m.panels[panelBand].observe(r.HasValue, r.Stale, r.Err, r.CompletedAt)
	var err error
	if !r.HasValue {
		err = r.Err
	}
	b := m.resolver.ResolveBand(msg.metric, r.Value, err, m.band)
	m.band = &b
	metrics.SetSynthetic(panelBand.String(), b.Synthetic)
}

// selectMetric switches the charts to metric and restarts their pollers.
// The generation bump drops anything the old pollers already queued.
func (m Model) selectMetric(metric string) Model {
	m.st.SetMetric(metric)
	m.metricGen++
	m.line, m.band = nil, nil
	m.panels[panelLine], m.panels[panelBand] = panelState{}, panelState{}
	m.startMetricPollers()
	m.log.Debug("metric selected", "metric", metric, "gen", m.metricGen)
	return m
}

func (m Model) nextMetric() string {
	cur := m.st.Metric()
	if len(m.keys) == 0 {
		return cur
	}
	return m.keys[(indexOf(m.keys, cur)+1)%len(m.keys)]
}

func (m *Model) applyFocus() {
	tables := []*table.Model{&m.anomTable, &m.actTable, &m.runbookTbl}
	for i, t := range tables {
		if focus(i+1) == m.focus {
			t.Focus()
		} else {
			t.Blur()
		}
	}
}

// -------- view --------

func (m Model) View() string {
	head := m.renderHeader()

	var body string
	switch m.st.Tab() {
	case state.TabOps:
		body = m.viewOps()
	case state.TabAgent:
		body = m.viewAgent()
	default:
		body = m.viewOverview()
	}

	keys := "[Tab/1-3] tabs • [m] metric • [t] token • [q] quit"
	switch m.st.Tab() {
	case state.TabOps:
		keys = "[Tab/1-3] tabs • [f] focus: " + focusNames[m.focus] + " • ↑/↓ move • [x] run runbook • [t] token • [q] quit"
	case state.TabAgent:
		keys = "[Tab/1-3] tabs • [a] ask • [p] propose plan • ↑/↓ step • [x] run step • [t] token • [q] quit"
	}
	footer := styles.Footer.Render(keys)
	if m.tokenOpen {
		footer = styles.Box.Render(styles.Title.Render("API token (Enter save, Esc cancel)") + "\n" + m.tokenInput.View())
	} else if m.status != "" {
		footer = m.status + "\n" + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left, head, body, footer)
}

func (m Model) renderHeader() string {
	var tabs []string
	for _, t := range state.Tabs() {
		label := fmt.Sprintf(" %d %s ", int(t)+1, t)
		if t == m.st.Tab() {
			tabs = append(tabs, styles.TabActive.Render("["+label+"]"))
		} else {
			tabs = append(tabs, styles.Tab.Render(" "+label+" "))
		}
	}
	token := "none"
	if m.st.Token() != "" {
		token = "set"
	}
	info := styles.Header.Render(fmt.Sprintf("│ metric: %s  token: %s", m.st.Metric(), token))
	return styles.Title.Render("sentinel ") + strings.Join(tabs, "") + " " + info
}

func (m Model) viewOverview() string {
	s, b := m.summary, m.business
	counts := "Loading…"
	if m.panels[panelSummary].loaded {
		counts = fmt.Sprintf("Anomalies: %d   Actions: %d   Incidents: %d", s.Anomalies, s.Actions, s.Incidents)
	} else if m.panels[panelSummary].tried {
		counts = "No data"
	}
	biz := "Loading…"
	if m.panels[panelBusiness].loaded {
		biz = fmt.Sprintf("Downtime avoided: %.0f min   Cost avoided: $%.0f", b.DowntimeAvoidedMin, b.CostAvoided)
	} else if m.panels[panelBusiness].tried {
		biz = "No data"
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(styles.Title.Render("Summary")+m.staleMark(panelSummary)+"\n"+counts),
		styles.Box.Render(styles.Title.Render("Business impact")+m.staleMark(panelBusiness)+"\n"+biz),
	)

	cols, rows := m.chartSize()
	label := timeline.MetricLabel(m.st.Metric())

	lineBody := placeholder("Loading…", cols, rows)
	lineNote := ""
	if m.line != nil {
		lineBody, lineNote = renderLine(*m.line, cols, rows)
	}
	bandBody := placeholder("Loading…", cols, rows)
	bandNote := ""
	if m.band != nil {
		bandBody, bandNote = renderBand(*m.band, cols, rows)
	}

	charts := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(styles.Title.Render("Metric: "+label)+lineNote+m.staleMark(panelLine)+"\n"+lineBody),
		styles.Box.Render(styles.Title.Render("Forecast: "+label)+bandNote+m.staleMark(panelBand)+"\n"+bandBody),
	)

	return lipgloss.JoinVertical(lipgloss.Left, top, m.renderPicker(), charts)
}

func (m Model) renderPicker() string {
	if len(m.keys) == 0 {
		if m.rt.running(keysPoller) {
			return styles.Faint.Render(" metrics: Loading…")
		}
		return styles.Faint.Render(" metrics: No data")
	}
	parts := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		if k == m.st.Metric() {
			parts = append(parts, styles.TabActive.Render("["+k+"]"))
		} else {
			parts = append(parts, styles.Tab.Render(k))
		}
	}
	return " metrics: " + strings.Join(parts, " ")
}

func (m Model) viewOps() string {
	tlTitle := styles.Title.Render("Timeline") + m.staleMark(panelTimeline) + m.focusMark(focusTimeline)
	if len(m.snapshot.Failed) > 0 {
		failed := make([]string, 0, len(m.snapshot.Failed))
		for _, c := range m.snapshot.Failed {
			failed = append(failed, string(c))
		}
		tlTitle += styles.Stale.Render(" (" + strings.Join(failed, ", ") + " unavailable)")
	}
	left := lipgloss.JoinVertical(lipgloss.Left,
		styles.Box.Render(tlTitle+"\n"+m.timelineVP.View()),
		styles.Box.Render(styles.Title.Render("Policy suggestions")+m.staleMark(panelPolicies)+"\n"+m.renderPolicies()),
	)

	anomTitle := styles.Title.Render("Anomalies") + m.staleMark(panelAnomalies) + m.focusMark(focusAnomalies)
	if trend := scoreTrends(m.anomalies, 12); trend != "" {
		anomTitle += "  " + styles.Faint.Render(trend)
	}
	actTitle := styles.Title.Render("Actions") + m.staleMark(panelActions) + m.focusMark(focusActions)
	if ratio, ok := successRatio(m.actions); ok {
		actTitle += fmt.Sprintf("  ok %s %3.0f%%", styles.Good.Render(widgets.Bar(ratio, 10)), ratio*100)
	}

	right := lipgloss.JoinVertical(lipgloss.Left,
		styles.Box.Render(anomTitle+"\n"+m.tableOrPlaceholder(panelAnomalies, len(m.anomalies), m.anomTable)),
		styles.Box.Render(actTitle+"\n"+m.tableOrPlaceholder(panelActions, len(m.actions), m.actTable)),
		styles.Box.Render(styles.Title.Render("Runbooks")+m.focusMark(focusRunbooks)+"\n"+m.runbookTbl.View()),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderPolicies() string {
	switch {
	case !m.panels[panelPolicies].tried:
		return padRight(styles.Faint.Render("Loading…"), m.timelineVP.Width)
	case len(m.policies) == 0:
		return padRight(styles.Faint.Render("No suggestions"), m.timelineVP.Width)
	}
	lines := make([]string, 0, policyRows)
	for i, p := range m.policies {
		if i == policyRows {
			lines[policyRows-1] = styles.Faint.Render(fmt.Sprintf("… %d more", len(m.policies)-policyRows+1))
			break
		}
		line := truncate(p.Reason+" → "+p.Action, m.timelineVP.Width)
		lines = append(lines, padRight(styles.Warn.Render(line), m.timelineVP.Width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewAgent() string {
	input := m.agentInput.View()
	if !m.agentOpen {
		input = styles.Faint.Render("> " + coalesce(m.agentInput.Value(), "…"))
	}
	var reply string
	switch {
	case m.asking:
		reply = styles.Faint.Render("Thinking…")
	case m.agentErr != nil:
		reply = styles.Danger.Render("agent unavailable: " + m.agentErr.Error())
	case m.answer.Answer != "":
		reply = styles.Title.Render("Answer: ") + m.answer.Answer
		if m.answer.Reasoning != "" {
			reply += "\n" + styles.Faint.Render("Reasoning: "+m.answer.Reasoning)
		}
	default:
		reply = styles.Faint.Render("Press a to ask a question.")
	}
	chat := styles.Box.Render(styles.Title.Render("Chat agent") + "\n" + input + "\n" + reply)

	var planBody string
	switch {
	case m.planning:
		planBody = styles.Faint.Render("Thinking…")
	case m.planErr != nil:
		planBody = styles.Danger.Render("plan unavailable: " + m.planErr.Error())
	case len(m.plan.Steps) == 0:
		planBody = styles.Faint.Render("Press p to propose a plan.")
	default:
		planBody = m.planTbl.View()
		if m.plan.Explanation != "" {
			planBody = m.plan.Explanation + "\n" + planBody
		}
	}
	planBox := styles.Box.Render(styles.Title.Render("Agent plan") + "\n" + planBody)

	return lipgloss.JoinVertical(lipgloss.Left, chat, planBox)
}

func (m Model) tableOrPlaceholder(p panel, rows int, t table.Model) string {
	switch {
	case !m.panels[p].tried:
		return styles.Faint.Render("Loading…")
	case rows == 0:
		return styles.Faint.Render("No data")
	}
	return t.View()
}

func (m Model) renderTimeline() string {
	if !m.panels[panelTimeline].tried {
		return styles.Faint.Render("Loading…")
	}
	if m.snapshot.Empty() {
		return styles.Faint.Render("No events yet.")
	}
	width := m.timelineVP.Width
	var b strings.Builder
	for i, g := range m.snapshot.Groups {
		e := g.Representative
		line := fmt.Sprintf("%s  %s", formatClock(e.OccurredAt), timeline.Describe(e))
		if g.Count > 1 {
			line += fmt.Sprintf(" ×%d", g.Count)
		}
		if width > 0 && lipgloss.Width(line) > width {
			line = truncate(line, width)
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(styles.ForTone(timeline.ToneOf(e)).Render(line))
	}
	return b.String()
}

func (m Model) staleMark(p panel) string {
	s := m.panels[p]
	if !s.stale {
		return ""
	}
	mark := " stale"
	if kind := apperr.KindOf(s.err); kind != apperr.KindUnknown {
		mark += " (" + string(kind) + ")"
	}
	if !s.lastOK.IsZero() {
		mark += " · last ok " + s.lastOK.Local().Format("15:04:05")
	}
	return styles.Stale.Render(mark)
}

func (m Model) focusMark(f focus) string {
	if m.st.Tab() != state.TabOps || m.focus != f {
		return ""
	}
	return styles.TabActive.Render(" ◆")
}

func renderLine(l series.Line, cols, rows int) (string, string) {
	if len(l.Points) == 0 {
		return placeholder("No data", cols, rows), ""
	}
	c, sc := widgets.LineChart(l.Points, cols, rows)
	return withAxis(c.Lines(), sc, styles.Line), syntheticNote(l.Synthetic)
}

func renderBand(b series.Band, cols, rows int) (string, string) {
	if b.Band.Len() == 0 {
		return placeholder("No data", cols, rows), ""
	}
	c, sc := widgets.BandChart(b.Band, cols, rows)
	return withAxis(c.Lines(), sc, styles.Band), syntheticNote(b.Synthetic)
}

func syntheticNote(synthetic bool) string {
	if !synthetic {
		return ""
	}
	return styles.Synthetic.Render(" (synthetic)")
}
