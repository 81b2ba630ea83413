package workflow

import (
	"testing"

	"dockflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stagingActor() Actor {
	return Actor{UserID: "user-staging", Username: "staging_sup", Role: models.RoleStagingSupervisor}
}

func loadingActor() Actor {
	return Actor{UserID: "user-loading", Username: "loading_sup", Role: models.RoleLoadingSupervisor}
}

func leadActor() Actor {
	return Actor{UserID: "user-lead", Username: "shift_lead", Role: models.RoleShiftLead}
}

func adminActor() Actor {
	return Actor{UserID: "user-admin", Username: "admin", Role: models.RoleAdmin}
}

func draftSheet() *models.Sheet {
	s := &models.Sheet{
		SheetID:     "SHT-TEST-1",
		Version:     1,
		Status:      models.StatusDraft,
		Destination: "Nairobi DC",
		DockNumber:  "D-04",
		StagingItems: []models.StagingItem{
			{SKU: "SKU-A", CasesPerPallet: 5, FullPallets: 2, Loose: 0},
			{SKU: "", CasesPerPallet: 0, FullPallets: 0, Loose: 0},
		},
	}
	NormalizeStagingItems(s)
	return s
}

func TestTotalCases(t *testing.T) {
	item := models.StagingItem{CasesPerPallet: 60, FullPallets: 4, Loose: 12}
	assert.Equal(t, 252, TotalCases(item))
}

func TestNormalizeStagingItemsAssignsSerialsAndTotals(t *testing.T) {
	s := draftSheet()
	require.Len(t, s.StagingItems, 2)
	assert.Equal(t, 1, s.StagingItems[0].Serial)
	assert.Equal(t, 2, s.StagingItems[1].Serial)
	assert.Equal(t, 10, s.StagingItems[0].TTLCases)
	assert.Equal(t, 0, s.StagingItems[1].TTLCases)
}

func TestFullForwardPath(t *testing.T) {
	s := draftSheet()

	require.NoError(t, SubmitForVerification(s, stagingActor()))
	assert.Equal(t, models.StatusStagingVerificationPending, s.Status)

	require.NoError(t, ApproveStaging(s, leadActor()))
	assert.Equal(t, models.StatusLocked, s.Status)
	assert.NotNil(t, s.LockedAt)
	assert.Equal(t, "user-lead", s.StagingApprovedBy)

	require.NoError(t, SubmitLoading(s, loadingActor()))
	assert.Equal(t, models.StatusLoadingVerificationPending, s.Status)

	require.NoError(t, ApproveLoading(s, leadActor()))
	assert.Equal(t, models.StatusCompleted, s.Status)
	assert.NotNil(t, s.CompletedAt)
	assert.Equal(t, "user-lead", s.CompletedBy)

	// Every transition appended history and bumped the version.
	assert.Len(t, s.History, 4)
	assert.Equal(t, 5, s.Version)
}

func TestSubmitRequiresDestination(t *testing.T) {
	s := draftSheet()
	s.Destination = ""

	err := SubmitForVerification(s, stagingActor())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Messages, "destination is required")
	assert.Equal(t, models.StatusDraft, s.Status, "a blocked transition must not change status")
	assert.Equal(t, 1, s.Version)
}

func TestSubmitRequiresDockAndNamedItem(t *testing.T) {
	s := draftSheet()
	s.DockNumber = ""
	s.StagingItems = []models.StagingItem{{SKU: ""}}

	err := SubmitForVerification(s, stagingActor())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Messages, 2)
	assert.Equal(t, models.StatusDraft, s.Status)
}

func TestSubmitRoleGate(t *testing.T) {
	s := draftSheet()
	err := SubmitForVerification(s, loadingActor())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, models.StatusDraft, s.Status)
}

func TestLockDerivesLoadingItemsFromNamedPositiveLines(t *testing.T) {
	s := draftSheet() // SKU-A ttl=10 plus one unnamed zero line
	require.NoError(t, SubmitForVerification(s, stagingActor()))
	require.NoError(t, ApproveStaging(s, adminActor()))

	require.Len(t, s.LoadingItems, 1)
	assert.Equal(t, "SKU-A", s.LoadingItems[0].SKU)
	assert.Equal(t, 1, s.LoadingItems[0].Serial)
	assert.Equal(t, 10, s.LoadingItems[0].Planned)
	assert.Equal(t, 10, s.LoadingItems[0].Balance)
	assert.Equal(t, 0, s.LoadingItems[0].Loaded)

	assert.Len(t, s.AdditionalItems, models.AdditionalItemSlots)
}

func TestLockRequiresLeadOrAdmin(t *testing.T) {
	s := draftSheet()
	require.NoError(t, SubmitForVerification(s, stagingActor()))

	err := ApproveStaging(s, stagingActor())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, models.StatusStagingVerificationPending, s.Status)
}

func TestRejectRequiresReason(t *testing.T) {
	s := draftSheet()
	require.NoError(t, SubmitForVerification(s, stagingActor()))

	assert.ErrorIs(t, RejectStaging(s, leadActor(), "  "), ErrReasonRequired)
	assert.Equal(t, models.StatusStagingVerificationPending, s.Status)

	require.NoError(t, RejectStaging(s, leadActor(), "dock number mismatch"))
	assert.Equal(t, models.StatusDraft, s.Status)
	last := s.History[len(s.History)-1]
	assert.Equal(t, "REJECT_STAGING", last.Action)
	assert.Equal(t, "dock number mismatch", last.Details)
}

func TestSubmitLoadingValidatesAgainstFrozenQuantities(t *testing.T) {
	s := draftSheet()
	require.NoError(t, SubmitForVerification(s, stagingActor()))
	require.NoError(t, ApproveStaging(s, leadActor()))

	s.LoadingItems[0].Loaded = 12 // exceeds frozen 10
	err := SubmitLoading(s, loadingActor())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, models.StatusLocked, s.Status)

	s.LoadingItems[0].Loaded = 7
	require.NoError(t, SubmitLoading(s, loadingActor()))
	assert.Equal(t, 3, s.LoadingItems[0].Balance)
}

func TestTransitionsOnlyFromCorrectSourceStatus(t *testing.T) {
	s := draftSheet()

	assert.ErrorIs(t, ApproveStaging(s, leadActor()), ErrInvalidTransition)
	assert.ErrorIs(t, SubmitLoading(s, loadingActor()), ErrInvalidTransition)
	assert.ErrorIs(t, ApproveLoading(s, leadActor()), ErrInvalidTransition)
	assert.Equal(t, models.StatusDraft, s.Status)
}

func TestRevertIsAdminOnlyAndStepsBackOneStage(t *testing.T) {
	s := draftSheet()
	require.NoError(t, SubmitForVerification(s, stagingActor()))
	require.NoError(t, ApproveStaging(s, leadActor()))

	assert.ErrorIs(t, Revert(s, leadActor(), "entered wrong dock"), ErrForbidden)
	assert.ErrorIs(t, Revert(s, adminActor(), ""), ErrReasonRequired)

	require.NoError(t, Revert(s, adminActor(), "entered wrong dock"))
	assert.Equal(t, models.StatusStagingVerificationPending, s.Status)
	assert.Nil(t, s.LockedAt)
	assert.Empty(t, s.StagingApprovedBy)

	require.NoError(t, Revert(s, adminActor(), "restage required"))
	assert.Equal(t, models.StatusDraft, s.Status)

	// DRAFT has no earlier stage.
	assert.ErrorIs(t, Revert(s, adminActor(), "again"), ErrInvalidTransition)
}

func TestRevertFromLoadingVerificationReturnsToDraft(t *testing.T) {
	s := draftSheet()
	require.NoError(t, SubmitForVerification(s, stagingActor()))
	require.NoError(t, ApproveStaging(s, leadActor()))
	require.NoError(t, SubmitLoading(s, loadingActor()))

	require.NoError(t, Revert(s, adminActor(), "wrong truck loaded"))
	assert.Equal(t, models.StatusDraft, s.Status)
	assert.Empty(t, s.LockedBy)
	assert.Nil(t, s.LockedAt)
	assert.Empty(t, s.StagingApprovedBy)
	assert.Nil(t, s.StagingApprovedAt)
}

func TestRevertFromCompletedClearsCompletionStamps(t *testing.T) {
	s := draftSheet()
	require.NoError(t, SubmitForVerification(s, stagingActor()))
	require.NoError(t, ApproveStaging(s, leadActor()))
	require.NoError(t, SubmitLoading(s, loadingActor()))
	require.NoError(t, ApproveLoading(s, leadActor()))

	require.NoError(t, Revert(s, adminActor(), "short shipment found"))
	assert.Equal(t, models.StatusLoadingVerificationPending, s.Status)
	assert.Nil(t, s.CompletedAt)
	assert.Empty(t, s.CompletedBy)
}
