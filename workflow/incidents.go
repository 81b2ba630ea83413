package workflow

import (
	"fmt"
	"strings"
	"time"

	"dockflow/models"
)

// incidentMoves lists the allowed incident status transitions. OPEN,
// IN_PROGRESS and ON_HOLD are freely reversible among themselves; RESOLVED is
// terminal.
var incidentMoves = map[models.IncidentStatus][]models.IncidentStatus{
	models.IncidentOpen:       {models.IncidentInProgress, models.IncidentOnHold},
	models.IncidentInProgress: {models.IncidentOpen, models.IncidentOnHold, models.IncidentResolved},
	models.IncidentOnHold:     {models.IncidentOpen, models.IncidentInProgress, models.IncidentResolved},
	models.IncidentResolved:   {},
}

// TransitionIncident moves an incident to a new status. Resolution is
// restricted to shift leads and admins and stamps the resolver identity,
// timestamp and notes; afterwards no further transition is accepted.
func TransitionIncident(inc *models.Incident, to models.IncidentStatus, actor Actor, notes string) error {
	if inc.Status == models.IncidentResolved {
		return fmt.Errorf("%w: incident is already resolved", ErrInvalidTransition)
	}

	allowed := false
	for _, next := range incidentMoves[inc.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	// OPEN incidents may be resolved directly by an authorized role.
	if !allowed && to == models.IncidentResolved && inc.Status == models.IncidentOpen {
		allowed = true
	}
	if !allowed {
		return fmt.Errorf("%w: incident cannot move from %s to %s", ErrInvalidTransition, inc.Status, to)
	}

	if to == models.IncidentResolved {
		if !actor.hasAnyRole(models.RoleShiftLead, models.RoleAdmin) {
			return ErrForbidden
		}
		now := time.Now()
		inc.ResolvedAt = &now
		inc.ResolvedBy = actor.UserID
		if strings.TrimSpace(notes) != "" {
			inc.ResolutionNotes = notes
		}
	}

	inc.Status = to
	return nil
}
