// Package query implements the in-memory filtering, sorting and free-text
// search behind the database and approvals views.
package query

import (
	"sort"
	"strings"
	"time"

	"dockflow/models"
)

// SheetFilter describes one filtering pass over the sheet list. Zero values
// mean "no constraint". DateFrom/DateTo are inclusive YYYY-MM-DD bounds
// against the sheet's operational date.
type SheetFilter struct {
	Query       string
	Status      models.SheetStatus
	Statuses    []models.SheetStatus // workflow-scoped allow-list, e.g. an approvals view
	DateFrom    string
	DateTo      string
	Supervisor  string
	Destination string
	MinDuration time.Duration // staging→completion cycle bounds; completed sheets only
	MaxDuration time.Duration
}

// FilterSheets applies free-text search, then status, then date range, then
// supervisor/destination/duration constraints. Input order is preserved.
func FilterSheets(sheets []models.Sheet, f SheetFilter) []models.Sheet {
	out := make([]models.Sheet, 0, len(sheets))
	for _, s := range sheets {
		if !matchesQuery(s, f.Query) {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if len(f.Statuses) > 0 && !statusIn(s.Status, f.Statuses) {
			continue
		}
		if !withinDateRange(s.Date, f.DateFrom, f.DateTo) {
			continue
		}
		if f.Supervisor != "" && !containsFold(s.SupervisorName, f.Supervisor) {
			continue
		}
		if f.Destination != "" && !containsFold(s.Destination, f.Destination) {
			continue
		}
		if f.MinDuration > 0 || f.MaxDuration > 0 {
			if s.CompletedAt == nil {
				continue
			}
			cycle := s.CompletedAt.Sub(s.CreatedAt)
			if f.MinDuration > 0 && cycle < f.MinDuration {
				continue
			}
			if f.MaxDuration > 0 && cycle > f.MaxDuration {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// matchesQuery is a case-insensitive substring match across the searchable
// header fields.
func matchesQuery(s models.Sheet, q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return true
	}
	for _, field := range []string{
		s.SheetID,
		s.SupervisorName,
		s.DriverName,
		s.VehicleNumber,
		s.Destination,
	} {
		if containsFold(field, q) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func statusIn(status models.SheetStatus, allowed []models.SheetStatus) bool {
	for _, a := range allowed {
		if a == status {
			return true
		}
	}
	return false
}

// withinDateRange checks inclusive [from,to] bounds. Lexicographic comparison
// is correct for YYYY-MM-DD strings; a sheet with an unparsable or empty date
// is excluded once a bound is set.
func withinDateRange(date, from, to string) bool {
	if from == "" && to == "" {
		return true
	}
	if date == "" {
		return false
	}
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

// Sortable columns for the sheet table.
const (
	ColSheetID     = "sheet_id"
	ColDate        = "date"
	ColDestination = "destination"
	ColSupervisor  = "supervisor"
	ColDock        = "dock"
	ColStatus      = "status"
	ColVersion     = "version"
	ColCreatedAt   = "created_at"
	ColCompletedAt = "completed_at"
)

// SortSheets orders the slice by the selected column with a type-aware
// comparison: numeric for counters, epoch for date-like columns, case-folded
// lexicographic for text. Equal keys keep their input order.
func SortSheets(sheets []models.Sheet, column string, ascending bool) {
	less := lessFunc(column)
	sort.SliceStable(sheets, func(i, j int) bool {
		if ascending {
			return less(sheets[i], sheets[j])
		}
		return less(sheets[j], sheets[i])
	})
}

func lessFunc(column string) func(a, b models.Sheet) bool {
	switch column {
	case ColVersion:
		return func(a, b models.Sheet) bool { return a.Version < b.Version }
	case ColDate:
		return func(a, b models.Sheet) bool {
			return dateEpoch(a.Date).Before(dateEpoch(b.Date))
		}
	case ColCreatedAt:
		return func(a, b models.Sheet) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case ColCompletedAt:
		return func(a, b models.Sheet) bool {
			return timeOrZero(a.CompletedAt).Before(timeOrZero(b.CompletedAt))
		}
	case ColDestination:
		return stringLess(func(s models.Sheet) string { return s.Destination })
	case ColSupervisor:
		return stringLess(func(s models.Sheet) string { return s.SupervisorName })
	case ColDock:
		return stringLess(func(s models.Sheet) string { return s.DockNumber })
	case ColStatus:
		return stringLess(func(s models.Sheet) string { return string(s.Status) })
	default:
		return stringLess(func(s models.Sheet) string { return s.SheetID })
	}
}

func stringLess(key func(models.Sheet) string) func(a, b models.Sheet) bool {
	return func(a, b models.Sheet) bool {
		return strings.ToLower(key(a)) < strings.ToLower(key(b))
	}
}

// dateEpoch parses the operational date. Unparsable dates collapse to the
// zero time and therefore sort together at the early end.
func dateEpoch(date string) time.Time {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t
	}
	return time.Time{}
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// IncidentFilter describes one filtering pass over the incident list.
// Date bounds are inclusive and apply to the occurrence timestamp.
type IncidentFilter struct {
	SheetID    string
	Department string
	Status     models.IncidentStatus
	From       time.Time
	To         time.Time
}

// FilterIncidents applies department/status/date-range constraints,
// preserving input order.
func FilterIncidents(incidents []models.Incident, f IncidentFilter) []models.Incident {
	out := make([]models.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if f.SheetID != "" && inc.SheetID != f.SheetID {
			continue
		}
		if f.Department != "" && !strings.EqualFold(inc.Department, f.Department) {
			continue
		}
		if f.Status != "" && inc.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && inc.OccurredAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && inc.OccurredAt.After(f.To) {
			continue
		}
		out = append(out, inc)
	}
	return out
}
