package analytics

import (
	"testing"
	"time"

	"dockflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedSheet(created, completed time.Time) models.Sheet {
	return models.Sheet{
		Status:      models.StatusCompleted,
		CreatedAt:   created,
		CompletedAt: &completed,
	}
}

func TestSLACompliance(t *testing.T) {
	base := time.Date(2026, 8, 10, 6, 0, 0, 0, time.UTC)
	in := Input{
		Sheets: []models.Sheet{
			completedSheet(base, base.Add(4*time.Hour)),
			completedSheet(base, base.Add(30*time.Hour)),
			{Status: models.StatusLocked, CreatedAt: base}, // not completed, ignored
		},
		SLAWindow: 24 * time.Hour,
	}

	widgets := Build([]string{"sla_compliance"}, in)
	require.Len(t, widgets, 1)

	data := widgets[0].Data
	assert.Equal(t, 2, data["completed"])
	assert.Equal(t, 1, data["within_sla"])
	assert.InDelta(t, 0.5, data["rate"], 1e-9)
}

func TestDailyThroughputGroupsByCompletionDay(t *testing.T) {
	d1 := time.Date(2026, 8, 10, 18, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 11, 9, 0, 0, 0, time.UTC)
	in := Input{Sheets: []models.Sheet{
		completedSheet(d1.Add(-6*time.Hour), d1),
		completedSheet(d1.Add(-3*time.Hour), d1),
		completedSheet(d2.Add(-2*time.Hour), d2),
	}}

	widgets := Build([]string{"daily_throughput"}, in)
	require.Len(t, widgets, 1)
	assert.Equal(t, 2, widgets[0].Data["2026-08-10"])
	assert.Equal(t, 1, widgets[0].Data["2026-08-11"])
}

func TestStatusBreakdownAndOpenIncidents(t *testing.T) {
	in := Input{
		Sheets: []models.Sheet{
			{Status: models.StatusDraft},
			{Status: models.StatusDraft},
			{Status: models.StatusLocked},
		},
		Incidents: []models.Incident{
			{Status: models.IncidentOpen, Priority: models.PriorityHigh},
			{Status: models.IncidentResolved, Priority: models.PriorityLow},
			{Status: models.IncidentOnHold, Priority: models.PriorityHigh},
		},
	}

	widgets := Build([]string{"status_breakdown", "open_incidents"}, in)
	require.Len(t, widgets, 2)
	assert.Equal(t, 2, widgets[0].Data["DRAFT"])
	assert.Equal(t, 1, widgets[0].Data["LOCKED"])
	assert.Equal(t, 2, widgets[1].Data["open"])
	assert.Equal(t, 2, widgets[1].Data["HIGH"])
}

func TestBuildSkipsUnknownWidgetIDs(t *testing.T) {
	widgets := Build([]string{"status_breakdown", "retired_widget"}, Input{})
	require.Len(t, widgets, 1)
	assert.Equal(t, "status_breakdown", widgets[0].ID)
}

func TestCycleTimeAveragesCompletedOnly(t *testing.T) {
	base := time.Date(2026, 8, 10, 6, 0, 0, 0, time.UTC)
	in := Input{Sheets: []models.Sheet{
		completedSheet(base, base.Add(2*time.Hour)),
		completedSheet(base, base.Add(6*time.Hour)),
		{Status: models.StatusDraft, CreatedAt: base},
	}}

	widgets := Build([]string{"cycle_time"}, in)
	require.Len(t, widgets, 1)
	assert.Equal(t, 2, widgets[0].Data["completed"])
	assert.InDelta(t, 4.0, widgets[0].Data["average_hours"], 1e-9)
}
