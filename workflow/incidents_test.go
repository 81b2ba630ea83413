package workflow

import (
	"testing"

	"dockflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openIncident() *models.Incident {
	return &models.Incident{
		IncidentID: "INC-TEST-1",
		SheetID:    "SHT-TEST-1",
		Status:     models.IncidentOpen,
		Priority:   models.PriorityHigh,
	}
}

func TestIncidentLifecycleIsReversibleUntilResolved(t *testing.T) {
	inc := openIncident()

	require.NoError(t, TransitionIncident(inc, models.IncidentInProgress, stagingActor(), ""))
	require.NoError(t, TransitionIncident(inc, models.IncidentOnHold, stagingActor(), ""))
	require.NoError(t, TransitionIncident(inc, models.IncidentInProgress, stagingActor(), ""))
	require.NoError(t, TransitionIncident(inc, models.IncidentOpen, stagingActor(), ""))
	assert.Equal(t, models.IncidentOpen, inc.Status)
}

func TestResolveStampsResolverAndIsTerminal(t *testing.T) {
	inc := openIncident()
	require.NoError(t, TransitionIncident(inc, models.IncidentInProgress, stagingActor(), ""))

	require.NoError(t, TransitionIncident(inc, models.IncidentResolved, leadActor(), "pallet restacked"))
	assert.Equal(t, models.IncidentResolved, inc.Status)
	require.NotNil(t, inc.ResolvedAt)
	assert.Equal(t, "user-lead", inc.ResolvedBy)
	assert.Equal(t, "pallet restacked", inc.ResolutionNotes)

	// Terminal: nothing moves a resolved incident.
	err := TransitionIncident(inc, models.IncidentOpen, adminActor(), "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.IncidentResolved, inc.Status)
}

func TestResolveRequiresLeadOrAdmin(t *testing.T) {
	inc := openIncident()
	err := TransitionIncident(inc, models.IncidentResolved, stagingActor(), "done")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, models.IncidentOpen, inc.Status)
	assert.Nil(t, inc.ResolvedAt)
}
