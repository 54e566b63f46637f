package timeline

import (
	"fmt"

	"github.com/autoops/sentinel-dash/internal/domain"
)

// Describe returns the one-line text shown for an event.
func Describe(e domain.TimelineEvent) string {
	switch a := e.Attributes.(type) {
	case domain.AnomalyAttributes:
		return e.Title
	case domain.ActionAttributes:
		if a.Success != nil && *a.Success {
			return e.Title + " — succeeded"
		}
		return e.Title + " — failed"
	case domain.IncidentAttributes:
		return fmt.Sprintf("%s — %s", e.Title, a.Status)
	case nil:
		return e.Title
	default:
		panic(fmt.Sprintf("timeline: unhandled attributes %T", a))
	}
}

// Tone is a coarse colour hint for rendering.
type Tone int

const (
	ToneInfo Tone = iota
	ToneGood
	ToneWarn
	ToneDanger
	ToneIncident
)

// ToneOf picks the colour hint: anomalies by severity, actions by outcome.
func ToneOf(e domain.TimelineEvent) Tone {
	switch a := e.Attributes.(type) {
	case domain.AnomalyAttributes:
		switch a.Severity {
		case "critical", "high":
			return ToneDanger
		case "medium":
			return ToneWarn
		}
		return ToneGood
	case domain.ActionAttributes:
		if a.Success != nil && *a.Success {
			return ToneGood
		}
		return ToneDanger
	case domain.IncidentAttributes:
		return ToneIncident
	}
	return ToneInfo
}
