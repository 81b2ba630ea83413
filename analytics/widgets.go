// Package analytics computes the pre-built dashboard widgets from the
// in-memory sheet and incident lists. Widgets are registered by id; a user's
// saved preference is an ordered subset of the registered ids.
package analytics

import (
	"time"

	"dockflow/models"
)

// Input is the snapshot a widget is computed from.
type Input struct {
	Sheets    []models.Sheet
	Incidents []models.Incident
	SLAWindow time.Duration
}

// Widget is one rendered analytics card.
type Widget struct {
	ID    string                 `json:"id"`
	Title string                 `json:"title"`
	Data  map[string]interface{} `json:"data"`
}

// Builder computes a widget from a snapshot.
type Builder func(in Input) Widget

var registry = map[string]Builder{
	"status_breakdown": statusBreakdown,
	"daily_throughput": dailyThroughput,
	"cycle_time":       cycleTime,
	"sla_compliance":   slaCompliance,
	"open_incidents":   openIncidents,
}

// DefaultWidgets is the layout used before a user saves preferences.
func DefaultWidgets() []string {
	return []string{"status_breakdown", "daily_throughput", "sla_compliance", "open_incidents"}
}

// Available lists every registered widget id.
func Available() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}

// Build computes the requested widgets in order. Unknown ids are skipped so a
// stale saved layout never fails the whole dashboard.
func Build(ids []string, in Input) []Widget {
	widgets := make([]Widget, 0, len(ids))
	for _, id := range ids {
		builder, ok := registry[id]
		if !ok {
			continue
		}
		widgets = append(widgets, builder(in))
	}
	return widgets
}

func statusBreakdown(in Input) Widget {
	counts := make(map[string]interface{})
	for _, s := range in.Sheets {
		key := string(s.Status)
		if n, ok := counts[key].(int); ok {
			counts[key] = n + 1
		} else {
			counts[key] = 1
		}
	}
	return Widget{ID: "status_breakdown", Title: "Sheets by Status", Data: counts}
}

func dailyThroughput(in Input) Widget {
	perDay := make(map[string]interface{})
	for _, s := range in.Sheets {
		if s.Status != models.StatusCompleted || s.CompletedAt == nil {
			continue
		}
		day := s.CompletedAt.Format("2006-01-02")
		if n, ok := perDay[day].(int); ok {
			perDay[day] = n + 1
		} else {
			perDay[day] = 1
		}
	}
	return Widget{ID: "daily_throughput", Title: "Completed Sheets per Day", Data: perDay}
}

func cycleTime(in Input) Widget {
	var total time.Duration
	count := 0
	for _, s := range in.Sheets {
		if s.CompletedAt == nil {
			continue
		}
		total += s.CompletedAt.Sub(s.CreatedAt)
		count++
	}
	avgHours := 0.0
	if count > 0 {
		avgHours = (total / time.Duration(count)).Hours()
	}
	return Widget{
		ID:    "cycle_time",
		Title: "Average Staging→Completion Cycle",
		Data: map[string]interface{}{
			"average_hours": avgHours,
			"completed":     count,
		},
	}
}

// slaCompliance reports the share of completed sheets that finished within
// the configured window of their creation.
func slaCompliance(in Input) Widget {
	completed := 0
	within := 0
	for _, s := range in.Sheets {
		if s.CompletedAt == nil {
			continue
		}
		completed++
		if s.CompletedAt.Sub(s.CreatedAt) <= in.SLAWindow {
			within++
		}
	}
	rate := 0.0
	if completed > 0 {
		rate = float64(within) / float64(completed)
	}
	return Widget{
		ID:    "sla_compliance",
		Title: "SLA Compliance",
		Data: map[string]interface{}{
			"window_hours": in.SLAWindow.Hours(),
			"completed":    completed,
			"within_sla":   within,
			"rate":         rate,
		},
	}
}

func openIncidents(in Input) Widget {
	open := 0
	byPriority := make(map[string]int)
	for _, inc := range in.Incidents {
		if inc.Status == models.IncidentResolved {
			continue
		}
		open++
		byPriority[string(inc.Priority)]++
	}
	data := map[string]interface{}{"open": open}
	for p, n := range byPriority {
		data[p] = n
	}
	return Widget{ID: "open_incidents", Title: "Open Incidents", Data: data}
}
