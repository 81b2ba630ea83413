package workflow

import (
	"errors"
	"testing"

	"dockflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditLocksAcquireRelease(t *testing.T) {
	locks := NewEditLocks()

	assert.True(t, locks.Acquire("SHT-1", "alice"))
	assert.True(t, locks.Acquire("SHT-1", "alice"), "re-acquiring your own lock succeeds")
	assert.False(t, locks.Acquire("SHT-1", "bob"))

	holder, held := locks.Holder("SHT-1")
	assert.True(t, held)
	assert.Equal(t, "alice", holder)

	// Release by a non-holder is a no-op.
	locks.Release("SHT-1", "bob")
	_, held = locks.Holder("SHT-1")
	assert.True(t, held)

	locks.Release("SHT-1", "alice")
	_, held = locks.Holder("SHT-1")
	assert.False(t, held)
	assert.True(t, locks.Acquire("SHT-1", "bob"))
}

func TestEditLocksAreIndependentPerSheet(t *testing.T) {
	locks := NewEditLocks()
	assert.True(t, locks.Acquire("SHT-1", "alice"))
	assert.True(t, locks.Acquire("SHT-2", "bob"))
}

func TestApproveStagingLockedHoldsLockAcrossSave(t *testing.T) {
	locks := NewEditLocks()
	s := draftSheet()
	require.NoError(t, SubmitForVerification(s, stagingActor()))

	saved := false
	err := ApproveStagingLocked(locks, s, leadActor(), func(sheet *models.Sheet) error {
		holder, held := locks.Holder(sheet.SheetID)
		assert.True(t, held, "lock must still be held while the save runs")
		assert.Equal(t, "user-lead", holder)
		assert.False(t, locks.Acquire(sheet.SheetID, "user-admin"),
			"a concurrent approval must be shut out until the save completes")
		saved = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, models.StatusLocked, s.Status)

	_, held := locks.Holder(s.SheetID)
	assert.False(t, held, "lock released once the save is done")
}

func TestApproveStagingLockedRejectsWhenHeldByAnotherUser(t *testing.T) {
	locks := NewEditLocks()
	s := draftSheet()
	require.NoError(t, SubmitForVerification(s, stagingActor()))
	require.True(t, locks.Acquire(s.SheetID, "someone-else"))

	err := ApproveStagingLocked(locks, s, leadActor(), func(*models.Sheet) error {
		t.Fatal("save must not run when the lock is held elsewhere")
		return nil
	})
	assert.ErrorIs(t, err, ErrSheetBusy)
	assert.Equal(t, models.StatusStagingVerificationPending, s.Status)
}

func TestApproveStagingLockedReleasesOnSaveFailure(t *testing.T) {
	locks := NewEditLocks()
	s := draftSheet()
	require.NoError(t, SubmitForVerification(s, stagingActor()))

	saveErr := errors.New("write failed")
	err := ApproveStagingLocked(locks, s, leadActor(), func(*models.Sheet) error {
		return saveErr
	})
	assert.ErrorIs(t, err, saveErr)

	_, held := locks.Holder(s.SheetID)
	assert.False(t, held, "a failed save must not leak the lock")
}
