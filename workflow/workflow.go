// Package workflow implements the five-stage sheet status machine:
// DRAFT → STAGING_VERIFICATION_PENDING → LOCKED → LOADING_VERIFICATION_PENDING → COMPLETED.
// Transitions mutate the sheet in place only when every check passes; a
// rejected transition leaves the sheet untouched.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dockflow/models"
)

var (
	// ErrForbidden means the actor's role is not allowed to drive this transition.
	ErrForbidden = errors.New("role not permitted for this action")
	// ErrInvalidTransition means the sheet is not in the required source status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrReasonRequired means a rejection or regression was attempted without a reason.
	ErrReasonRequired = errors.New("a reason is required for this action")
	// ErrSheetBusy means the advisory edit lock is held by another user.
	ErrSheetBusy = errors.New("sheet is currently being edited by another user")
)

// ValidationError aggregates every human-readable validation message for a
// blocked transition into one flat list.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Actor identifies who is driving a transition.
type Actor struct {
	UserID   string
	Username string
	Role     models.UserRole
}

func (a Actor) isAdmin() bool { return a.Role == models.RoleAdmin }

func (a Actor) hasAnyRole(roles ...models.UserRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// TotalCases computes the case total for a staging line.
func TotalCases(item models.StagingItem) int {
	return item.CasesPerPallet*item.FullPallets + item.Loose
}

// NormalizeStagingItems reassigns serials in input order and recomputes every
// TTLCases so stored totals cannot drift from their components. Must not be
// called once the sheet is LOCKED: staging quantities are frozen from then on.
func NormalizeStagingItems(sheet *models.Sheet) {
	for i := range sheet.StagingItems {
		sheet.StagingItems[i].Serial = i + 1
		sheet.StagingItems[i].TTLCases = TotalCases(sheet.StagingItems[i])
	}
}

// BuildLoadingItems derives the loading-item matrix from staging lines with a
// named SKU and a positive case total. Balance starts at the frozen total.
func BuildLoadingItems(items []models.StagingItem) []models.LoadingItem {
	var loading []models.LoadingItem
	for _, item := range items {
		if strings.TrimSpace(item.SKU) == "" || item.TTLCases <= 0 {
			continue
		}
		loading = append(loading, models.LoadingItem{
			Serial:  item.Serial,
			SKU:     item.SKU,
			Planned: item.TTLCases,
			Balance: item.TTLCases,
		})
	}
	return loading
}

// SubmitForVerification moves a DRAFT to STAGING_VERIFICATION_PENDING.
// Requires a destination, a dock number, and at least one named line item.
func SubmitForVerification(sheet *models.Sheet, actor Actor) error {
	if sheet.Status != models.StatusDraft {
		return fmt.Errorf("%w: submit requires DRAFT, sheet is %s", ErrInvalidTransition, sheet.Status)
	}
	if !actor.hasAnyRole(models.RoleStagingSupervisor, models.RoleAdmin) {
		return ErrForbidden
	}

	NormalizeStagingItems(sheet)

	var msgs []string
	if strings.TrimSpace(sheet.Destination) == "" {
		msgs = append(msgs, "destination is required")
	}
	if strings.TrimSpace(sheet.DockNumber) == "" {
		msgs = append(msgs, "loading dock number is required")
	}
	named := 0
	for _, item := range sheet.StagingItems {
		if strings.TrimSpace(item.SKU) != "" {
			named++
		}
	}
	if named == 0 {
		msgs = append(msgs, "at least one staging item with a SKU is required")
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}

	advance(sheet, models.StatusStagingVerificationPending)
	appendHistory(sheet, actor, "SUBMIT_STAGING", "")
	return nil
}

// ApproveStaging locks the sheet: staging quantities freeze, the loading-item
// matrix is derived, and the fixed additional-item rows are seeded if absent.
func ApproveStaging(sheet *models.Sheet, actor Actor) error {
	if sheet.Status != models.StatusStagingVerificationPending {
		return fmt.Errorf("%w: approval requires STAGING_VERIFICATION_PENDING, sheet is %s", ErrInvalidTransition, sheet.Status)
	}
	if !actor.hasAnyRole(models.RoleShiftLead, models.RoleAdmin) {
		return ErrForbidden
	}

	sheet.LoadingItems = BuildLoadingItems(sheet.StagingItems)
	if sheet.AdditionalItems == nil {
		sheet.AdditionalItems = make([]models.AdditionalItem, models.AdditionalItemSlots)
	}

	now := time.Now()
	sheet.LockedBy = actor.UserID
	sheet.LockedAt = &now
	sheet.StagingApprovedBy = actor.UserID
	sheet.StagingApprovedAt = &now

	advance(sheet, models.StatusLocked)
	appendHistory(sheet, actor, "APPROVE_STAGING", "")
	return nil
}

// RejectStaging sends a pending sheet back to DRAFT with a mandatory reason.
func RejectStaging(sheet *models.Sheet, actor Actor, reason string) error {
	if sheet.Status != models.StatusStagingVerificationPending {
		return fmt.Errorf("%w: rejection requires STAGING_VERIFICATION_PENDING, sheet is %s", ErrInvalidTransition, sheet.Status)
	}
	if !actor.hasAnyRole(models.RoleShiftLead, models.RoleAdmin) {
		return ErrForbidden
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	advance(sheet, models.StatusDraft)
	appendHistory(sheet, actor, "REJECT_STAGING", reason)
	return nil
}

// SubmitLoading moves a LOCKED sheet to LOADING_VERIFICATION_PENDING once the
// loading form is filled in. Loaded quantities must not exceed the frozen
// planned quantity on any line; balances are recomputed from the frozen totals.
func SubmitLoading(sheet *models.Sheet, actor Actor) error {
	if sheet.Status != models.StatusLocked {
		return fmt.Errorf("%w: loading submit requires LOCKED, sheet is %s", ErrInvalidTransition, sheet.Status)
	}
	if !actor.hasAnyRole(models.RoleLoadingSupervisor, models.RoleAdmin) {
		return ErrForbidden
	}

	var msgs []string
	for _, item := range sheet.LoadingItems {
		if item.Loaded < 0 {
			msgs = append(msgs, fmt.Sprintf("line %d (%s): loaded count cannot be negative", item.Serial, item.SKU))
		}
		if item.Loaded > item.Planned {
			msgs = append(msgs, fmt.Sprintf("line %d (%s): loaded %d exceeds staged %d", item.Serial, item.SKU, item.Loaded, item.Planned))
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}

	for i := range sheet.LoadingItems {
		sheet.LoadingItems[i].Balance = sheet.LoadingItems[i].Planned - sheet.LoadingItems[i].Loaded
	}

	advance(sheet, models.StatusLoadingVerificationPending)
	appendHistory(sheet, actor, "SUBMIT_LOADING", "")
	return nil
}

// ApproveLoading completes the cycle.
func ApproveLoading(sheet *models.Sheet, actor Actor) error {
	if sheet.Status != models.StatusLoadingVerificationPending {
		return fmt.Errorf("%w: approval requires LOADING_VERIFICATION_PENDING, sheet is %s", ErrInvalidTransition, sheet.Status)
	}
	if !actor.hasAnyRole(models.RoleShiftLead, models.RoleAdmin) {
		return ErrForbidden
	}

	now := time.Now()
	sheet.LoadingApprovedBy = actor.UserID
	sheet.LoadingApprovedAt = &now
	sheet.CompletedBy = actor.UserID
	sheet.CompletedAt = &now

	advance(sheet, models.StatusCompleted)
	appendHistory(sheet, actor, "APPROVE_LOADING", "")
	return nil
}

// regressions maps each status to the stage an admin may walk it back to.
// Both pending statuses return to DRAFT for rework.
var regressions = map[models.SheetStatus]models.SheetStatus{
	models.StatusCompleted:                  models.StatusLoadingVerificationPending,
	models.StatusLoadingVerificationPending: models.StatusDraft,
	models.StatusLocked:                     models.StatusStagingVerificationPending,
	models.StatusStagingVerificationPending: models.StatusDraft,
}

// Revert is the admin-only escape hatch: walk the sheet back to its prior
// stage, recording the reason in the history log. Any stamps the regressed
// stage had set are cleared.
func Revert(sheet *models.Sheet, actor Actor, reason string) error {
	if !actor.isAdmin() {
		return ErrForbidden
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	prev, ok := regressions[sheet.Status]
	if !ok {
		return fmt.Errorf("%w: %s cannot be reverted", ErrInvalidTransition, sheet.Status)
	}

	switch sheet.Status {
	case models.StatusCompleted:
		sheet.CompletedBy = ""
		sheet.CompletedAt = nil
		sheet.LoadingApprovedBy = ""
		sheet.LoadingApprovedAt = nil
	case models.StatusLoadingVerificationPending, models.StatusLocked:
		// Both land before the lock point again.
		sheet.LockedBy = ""
		sheet.LockedAt = nil
		sheet.StagingApprovedBy = ""
		sheet.StagingApprovedAt = nil
	}

	advance(sheet, prev)
	appendHistory(sheet, actor, "REVERT", reason)
	return nil
}

func advance(sheet *models.Sheet, to models.SheetStatus) {
	sheet.Status = to
	sheet.Version++
}

func appendHistory(sheet *models.Sheet, actor Actor, action, details string) {
	sheet.History = append(sheet.History, models.HistoryEntry{
		Action:    action,
		UserID:    actor.UserID,
		Username:  actor.Username,
		Details:   details,
		Timestamp: time.Now(),
	})
}
