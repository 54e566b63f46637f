package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/autoops/sentinel-dash/internal/domain"
	"github.com/autoops/sentinel-dash/internal/series"
	"github.com/autoops/sentinel-dash/internal/ui/widgets"
)

const (
	chartRows  = 8
	axisWidth  = 10 // "%9.2f" plus a space
	minCols    = 24
	maxCols    = 72
	boxChrome  = 4 // border + padding
	headerRows = 2
	footerRows = 3
	policyRows = 4
)

const defaultQuestion = "What happened in the last hour?"

// clamp clamps v into [min, max].
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// layout sizes the Ops panes from the terminal size.
func (m *Model) layout() {
	base := m.height - headerRows - footerRows - 2
	if base < 12 {
		base = 12
	}
	leftW := clamp(m.width/2, 30, 100)
	rightW := clamp(m.width-leftW-boxChrome, 30, 120)

	// timeline shares the left column with the policy box below it
	m.timelineVP.Width = leftW - boxChrome
	m.timelineVP.Height = clamp(base-2-(policyRows+3), 4, base)

	// three stacked boxes on the right, runbooks fixed at the catalog size
	rb := len(domain.RunbookCatalog) + 2
	each := clamp((base-rb-3*3)/2, 3, 30)

	m.anomTable.SetWidth(rightW - boxChrome)
	m.anomTable.SetHeight(each)
	m.anomTable.SetColumns(anomalyColumns(rightW - boxChrome))

	m.actTable.SetWidth(rightW - boxChrome)
	m.actTable.SetHeight(each)
	m.actTable.SetColumns(actionColumns(rightW - boxChrome))

	m.runbookTbl.SetWidth(rightW - boxChrome)
	m.runbookTbl.SetHeight(rb)
	m.runbookTbl.SetColumns(runbookColumns(rightW - boxChrome))

	planW := clamp(m.width-boxChrome, 40, 160)
	m.planTbl.SetWidth(planW - boxChrome)
	m.planTbl.SetHeight(clamp(base-12, 4, 30))
	m.planTbl.SetColumns(planColumns(planW - boxChrome))
	m.agentInput.Width = clamp(planW-boxChrome-2, 20, 120)
}

// chartSize is fixed for a given terminal size, so swapping synthetic for
// live data never changes the layout.
func (m Model) chartSize() (cols, rows int) {
	half := m.width/2 - boxChrome - axisWidth
	return clamp(half, minCols, maxCols), chartRows
}

// -------- tables --------

func anomalyColumns(total int) []table.Column {
	wTime, wSev, wScore := 8, 9, 7
	wMetric := clamp(total-wTime-wSev-wScore-4, 8, 40)
	return []table.Column{
		{Title: "TIME", Width: wTime},
		{Title: "METRIC", Width: wMetric},
		{Title: "SEVERITY", Width: wSev},
		{Title: "SCORE", Width: wScore},
	}
}

func actionColumns(total int) []table.Column {
	wTime, wResult := 8, 9
	wName := clamp(total-wTime-wResult-3, 10, 40)
	return []table.Column{
		{Title: "TIME", Width: wTime},
		{Title: "RUNBOOK", Width: wName},
		{Title: "RESULT", Width: wResult},
	}
}

func runbookColumns(total int) []table.Column {
	wName := 18
	wDesc := clamp(total-wName-2, 10, 60)
	return []table.Column{
		{Title: "RUNBOOK", Width: wName},
		{Title: "DESCRIPTION", Width: wDesc},
	}
}

func planColumns(total int) []table.Column {
	wNum, wAction := 3, 18
	wDesc := clamp(total-wNum-wAction-3, 16, 100)
	return []table.Column{
		{Title: "#", Width: wNum},
		{Title: "STEP", Width: wDesc},
		{Title: "RUNBOOK", Width: wAction},
	}
}

func anomalyRows(as []domain.AnomalyRecord) []table.Row {
	rows := make([]table.Row, 0, len(as))
	for _, a := range as {
		rows = append(rows, table.Row{
			formatClock(a.CreatedAt.Time),
			a.Metric,
			coalesce(a.Severity, "—"),
			fmt.Sprintf("%6.2f", a.Score),
		})
	}
	return rows
}

func actionRows(as []domain.ActionRecord) []table.Row {
	rows := make([]table.Row, 0, len(as))
	for _, a := range as {
		result := "unknown"
		if a.Success != nil {
			result = "failed"
			if *a.Success {
				result = "ok"
			}
		}
		rows = append(rows, table.Row{formatClock(a.CreatedAt.Time), a.Name, result})
	}
	return rows
}

func runbookRows() []table.Row {
	rows := make([]table.Row, 0, len(domain.RunbookCatalog))
	for _, rb := range domain.RunbookCatalog {
		rows = append(rows, table.Row{rb.Name, rb.Desc})
	}
	return rows
}

func planRows(steps []domain.PlanStep) []table.Row {
	rows := make([]table.Row, 0, len(steps))
	for i, st := range steps {
		rows = append(rows, table.Row{strconv.Itoa(i + 1), st.Description, coalesce(st.Action, "—")})
	}
	return rows
}

// keepCursor keeps the selection inside the table after its rows change.
func keepCursor(t *table.Model, rows int) {
	if rows == 0 {
		return
	}
	if cur := t.Cursor(); cur < 0 || cur >= rows {
		t.SetCursor(0)
	}
}

// scoreTrends renders a sparkline of anomaly scores per metric, oldest first.
func scoreTrends(as []domain.AnomalyRecord, width int) string {
	if len(as) == 0 {
		return ""
	}
	byMetric := map[string][]float64{}
	for i := len(as) - 1; i >= 0; i-- {
		byMetric[as[i].Metric] = append(byMetric[as[i].Metric], -as[i].Score)
	}
	names := make([]string, 0, len(byMetric))
	for k := range byMetric {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		vs := byMetric[k]
		w := width
		if len(vs) < w {
			w = len(vs)
		}
		parts = append(parts, k+" "+widgets.Spark8(vs, w))
	}
	return strings.Join(parts, "  ")
}

// successRatio is the share of actions that reported success.
func successRatio(as []domain.ActionRecord) (float64, bool) {
	var known, ok int
	for _, a := range as {
		if a.Success == nil {
			continue
		}
		known++
		if *a.Success {
			ok++
		}
	}
	if known == 0 {
		return 0, false
	}
	return float64(ok) / float64(known), true
}

// -------- charts --------

// placeholder fills a chart-sized block so the panel keeps its size.
func placeholder(text string, cols, rows int) string {
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = strings.Repeat(" ", cols+axisWidth)
	}
	lines[0] = padRight(strings.Repeat(" ", axisWidth)+text, cols+axisWidth)
	return strings.Join(lines, "\n")
}

// withAxis prefixes the max label on the top row and the min label on the
// bottom row, fixed width so live and synthetic charts line up.
func withAxis(lines []string, sc series.Scale, style lipgloss.Style) string {
	out := make([]string, len(lines))
	blank := strings.Repeat(" ", axisWidth)
	for i, l := range lines {
		label := blank
		switch i {
		case 0:
			label = fmt.Sprintf("%9.2f ", sc.Max)
		case len(lines) - 1:
			label = fmt.Sprintf("%9.2f ", sc.Min)
		}
		out[i] = label + style.Render(l)
	}
	return strings.Join(out, "\n")
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Local().Format("15:04:05")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func indexOf(xs []string, x string) int {
	for i, v := range xs {
		if v == x {
			return i
		}
	}
	return -1
}

func coalesce(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
