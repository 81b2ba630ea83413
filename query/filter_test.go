package query

import (
	"testing"
	"time"

	"dockflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testSheets() []models.Sheet {
	completed := ts("2026-08-12T18:00:00Z")
	return []models.Sheet{
		{
			SheetID:        "SHT-001",
			Status:         models.StatusLocked,
			Date:           "2026-08-10",
			Destination:    "Nairobi DC",
			SupervisorName: "Maria K",
			DriverName:     "J. Otieno",
			VehicleNumber:  "KDA 123X",
			Version:        3,
			CreatedAt:      ts("2026-08-10T06:00:00Z"),
		},
		{
			SheetID:        "SHT-002",
			Status:         models.StatusCompleted,
			Date:           "2026-08-12",
			Destination:    "Mombasa Depot",
			SupervisorName: "Asha N",
			Version:        5,
			CreatedAt:      ts("2026-08-12T06:00:00Z"),
			CompletedAt:    &completed,
		},
		{
			SheetID:        "SHT-003",
			Status:         models.StatusLocked,
			Date:           "2026-08-20",
			Destination:    "Kisumu Hub",
			SupervisorName: "Maria K",
			Version:        2,
			CreatedAt:      ts("2026-08-20T06:00:00Z"),
		},
		{
			SheetID:        "SHT-004",
			Status:         models.StatusDraft,
			Date:           "2026-08-12",
			Destination:    "Nairobi DC",
			SupervisorName: "Peter O",
			Version:        1,
			CreatedAt:      ts("2026-08-12T07:00:00Z"),
		},
	}
}

func TestFilterByStatusAndInclusiveDateRange(t *testing.T) {
	got := FilterSheets(testSheets(), SheetFilter{
		Status:   models.StatusLocked,
		DateFrom: "2026-08-10",
		DateTo:   "2026-08-20",
	})

	require.Len(t, got, 2)
	for _, s := range got {
		assert.Equal(t, models.StatusLocked, s.Status)
		assert.GreaterOrEqual(t, s.Date, "2026-08-10")
		assert.LessOrEqual(t, s.Date, "2026-08-20")
	}
}

func TestDateBoundsAreInclusive(t *testing.T) {
	got := FilterSheets(testSheets(), SheetFilter{DateFrom: "2026-08-12", DateTo: "2026-08-12"})
	require.Len(t, got, 2)
	assert.Equal(t, "SHT-002", got[0].SheetID)
	assert.Equal(t, "SHT-004", got[1].SheetID)
}

func TestFreeTextSearchSpansHeaderFields(t *testing.T) {
	byDriver := FilterSheets(testSheets(), SheetFilter{Query: "otieno"})
	require.Len(t, byDriver, 1)
	assert.Equal(t, "SHT-001", byDriver[0].SheetID)

	byVehicle := FilterSheets(testSheets(), SheetFilter{Query: "kda 123"})
	require.Len(t, byVehicle, 1)

	byDestination := FilterSheets(testSheets(), SheetFilter{Query: "nairobi"})
	assert.Len(t, byDestination, 2)
}

func TestStatusAllowList(t *testing.T) {
	got := FilterSheets(testSheets(), SheetFilter{
		Statuses: []models.SheetStatus{models.StatusDraft, models.StatusCompleted},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "SHT-002", got[0].SheetID)
	assert.Equal(t, "SHT-004", got[1].SheetID)
}

func TestDurationFilterSkipsUncompletedSheets(t *testing.T) {
	got := FilterSheets(testSheets(), SheetFilter{MinDuration: time.Hour})
	require.Len(t, got, 1)
	assert.Equal(t, "SHT-002", got[0].SheetID)

	got = FilterSheets(testSheets(), SheetFilter{MaxDuration: time.Hour})
	assert.Empty(t, got)
}

func TestSortByDateDescendingPutsNewestFirst(t *testing.T) {
	sheets := testSheets()
	SortSheets(sheets, ColDate, false)

	assert.Equal(t, "SHT-003", sheets[0].SheetID)
	assert.Equal(t, "SHT-001", sheets[len(sheets)-1].SheetID)
}

func TestSortIsStableOnEqualKeys(t *testing.T) {
	sheets := testSheets()
	SortSheets(sheets, ColDate, true)

	// SHT-002 and SHT-004 share 2026-08-12 and must keep input order.
	assert.Equal(t, "SHT-001", sheets[0].SheetID)
	assert.Equal(t, "SHT-002", sheets[1].SheetID)
	assert.Equal(t, "SHT-004", sheets[2].SheetID)
	assert.Equal(t, "SHT-003", sheets[3].SheetID)
}

func TestSortByVersionIsNumeric(t *testing.T) {
	sheets := testSheets()
	SortSheets(sheets, ColVersion, true)

	versions := make([]int, len(sheets))
	for i, s := range sheets {
		versions[i] = s.Version
	}
	assert.Equal(t, []int{1, 2, 3, 5}, versions)
}

func TestUnparsableDatesSortToTheEarlyEnd(t *testing.T) {
	sheets := []models.Sheet{
		{SheetID: "good", Date: "2026-08-10"},
		{SheetID: "bad", Date: "not-a-date"},
	}
	SortSheets(sheets, ColDate, true)
	assert.Equal(t, "bad", sheets[0].SheetID)
}

func TestFilterIncidents(t *testing.T) {
	incidents := []models.Incident{
		{IncidentID: "INC-1", SheetID: "SHT-001", Department: "Warehouse", Status: models.IncidentOpen, OccurredAt: ts("2026-08-10T08:00:00Z")},
		{IncidentID: "INC-2", SheetID: "SHT-002", Department: "Transport", Status: models.IncidentResolved, OccurredAt: ts("2026-08-12T08:00:00Z")},
		{IncidentID: "INC-3", SheetID: "SHT-001", Department: "warehouse", Status: models.IncidentOnHold, OccurredAt: ts("2026-08-14T08:00:00Z")},
	}

	byDept := FilterIncidents(incidents, IncidentFilter{Department: "WAREHOUSE"})
	assert.Len(t, byDept, 2, "department match is case-insensitive")

	byStatus := FilterIncidents(incidents, IncidentFilter{Status: models.IncidentResolved})
	require.Len(t, byStatus, 1)
	assert.Equal(t, "INC-2", byStatus[0].IncidentID)

	byRange := FilterIncidents(incidents, IncidentFilter{
		From: ts("2026-08-11T00:00:00Z"),
		To:   ts("2026-08-13T00:00:00Z"),
	})
	require.Len(t, byRange, 1)
	assert.Equal(t, "INC-2", byRange[0].IncidentID)

	bySheet := FilterIncidents(incidents, IncidentFilter{SheetID: "SHT-001"})
	assert.Len(t, bySheet, 2)
}
