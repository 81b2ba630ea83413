package workflow

import (
	"sync"

	"dockflow/models"
)

// EditLocks is the advisory registry of sheets currently being edited.
// Acquisition is all-or-nothing and purely in-process: it reduces accidental
// double-submission within one deployment, it is not a correctness mechanism.
// There is no lease expiry; callers must release after the save completes.
type EditLocks struct {
	mu      sync.Mutex
	holders map[string]string // sheet id -> user id
}

// NewEditLocks creates an empty registry.
func NewEditLocks() *EditLocks {
	return &EditLocks{
		holders: make(map[string]string),
	}
}

// Acquire claims the sheet for the user. Returns false if another user
// already holds it. Re-acquiring a sheet you already hold succeeds.
func (l *EditLocks) Acquire(sheetID, userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if holder, held := l.holders[sheetID]; held && holder != userID {
		return false
	}
	l.holders[sheetID] = userID
	return true
}

// Release drops the lock if the user holds it. Releasing a lock held by
// someone else is a no-op.
func (l *EditLocks) Release(sheetID, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if holder, held := l.holders[sheetID]; held && holder == userID {
		delete(l.holders, sheetID)
	}
}

// Holder reports who currently holds the sheet, if anyone.
func (l *EditLocks) Holder(sheetID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	holder, held := l.holders[sheetID]
	return holder, held
}

// ApproveStagingLocked runs the lock transition and persists it while holding
// the sheet's advisory edit lock. The lock spans the save, so a concurrent
// approval in the same deployment cannot interleave between the transition
// and the write.
func ApproveStagingLocked(locks *EditLocks, sheet *models.Sheet, actor Actor, save func(*models.Sheet) error) error {
	if !locks.Acquire(sheet.SheetID, actor.UserID) {
		return ErrSheetBusy
	}
	defer locks.Release(sheet.SheetID, actor.UserID)

	if err := ApproveStaging(sheet, actor); err != nil {
		return err
	}
	return save(sheet)
}
