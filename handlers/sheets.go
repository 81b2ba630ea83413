package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"dockflow/db"
	"dockflow/middleware"
	"dockflow/models"
	"dockflow/query"
	"dockflow/workflow"

	"github.com/google/uuid"
)

type SheetHandler struct {
	db    *db.FirestoreDB
	locks *workflow.EditLocks
}

func NewSheetHandler(firestoreDB *db.FirestoreDB, locks *workflow.EditLocks) *SheetHandler {
	return &SheetHandler{
		db:    firestoreDB,
		locks: locks,
	}
}

func actorFrom(user *models.User) workflow.Actor {
	return workflow.Actor{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
	}
}

// writeWorkflowError maps state-machine errors onto HTTP statuses.
func writeWorkflowError(w http.ResponseWriter, err error) {
	var vErr *workflow.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeValidationErrors(w, vErr.Messages)
	case errors.Is(err, workflow.ErrForbidden):
		writeError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, workflow.ErrReasonRequired):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrSheetBusy):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// sheetFilterFromQuery maps the table view's query parameters onto a filter.
func sheetFilterFromQuery(r *http.Request) query.SheetFilter {
	q := r.URL.Query()
	f := query.SheetFilter{
		Query:       q.Get("q"),
		Status:      models.SheetStatus(q.Get("status")),
		DateFrom:    q.Get("date_from"),
		DateTo:      q.Get("date_to"),
		Supervisor:  q.Get("supervisor"),
		Destination: q.Get("destination"),
	}
	if raw := q.Get("statuses"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, models.SheetStatus(s))
			}
		}
	}
	if d, err := time.ParseDuration(q.Get("min_duration")); err == nil {
		f.MinDuration = d
	}
	if d, err := time.ParseDuration(q.Get("max_duration")); err == nil {
		f.MaxDuration = d
	}
	return f
}

// List returns sheets filtered and sorted per the table view's query params
func (h *SheetHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	f := sheetFilterFromQuery(r)

	// Single-status views hit the indexed query instead of a full scan.
	var sheets []models.Sheet
	var err error
	if f.Status != "" {
		sheets, err = h.db.GetSheetsByStatus(f.Status)
	} else {
		sheets, err = h.db.GetAllSheets()
	}
	if err != nil {
		log.Printf("❌ Failed to get sheets: %v", err)
		writeError(w, "Failed to retrieve sheets", http.StatusInternalServerError)
		return
	}

	filtered := query.FilterSheets(sheets, f)

	sortCol := r.URL.Query().Get("sort")
	if sortCol == "" {
		sortCol = query.ColCreatedAt
	}
	ascending := r.URL.Query().Get("order") != "desc"
	query.SortSheets(filtered, sortCol, ascending)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sheets": filtered,
		"count":  len(filtered),
	})
}

// Get returns a single sheet by id
func (h *SheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sheetID := r.URL.Query().Get("id")
	if sheetID == "" {
		writeError(w, "Sheet ID is required", http.StatusBadRequest)
		return
	}

	sheet, err := h.db.GetSheet(sheetID)
	if err != nil {
		writeError(w, "Sheet not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sheet)
}

type CreateSheetRequest struct {
	Shift          string               `json:"shift"`
	Date           string               `json:"date"`
	Destination    string               `json:"destination"`
	SupervisorName string               `json:"supervisor_name"`
	EmployeeCode   string               `json:"employee_code"`
	DockNumber     string               `json:"dock_number"`
	StagingItems   []models.StagingItem `json:"staging_items"`
	Comments       string               `json:"comments"`
}

// Create opens a new DRAFT sheet
func (h *SheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sheet := &models.Sheet{
		SheetID:        "SHT-" + uuid.NewString(),
		Version:        1,
		Status:         models.StatusDraft,
		Shift:          req.Shift,
		Date:           req.Date,
		Destination:    req.Destination,
		SupervisorName: req.SupervisorName,
		EmployeeCode:   req.EmployeeCode,
		DockNumber:     req.DockNumber,
		StagingItems:   req.StagingItems,
		Comments:       req.Comments,
		CreatedBy:      user.UserID,
		CreatedAt:      time.Now(),
		History: []models.HistoryEntry{{
			Action:    "CREATE",
			UserID:    user.UserID,
			Username:  user.Username,
			Timestamp: time.Now(),
		}},
	}
	workflow.NormalizeStagingItems(sheet)

	if err := h.db.SaveSheet(sheet); err != nil {
		log.Printf("❌ Failed to create sheet: %v", err)
		writeError(w, "Failed to create sheet", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, user.UserID, "SHEET_CREATE", "Created sheet "+sheet.SheetID)
	log.Printf("✅ Sheet created by %s: %s", user.Username, sheet.SheetID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sheet)
}

type UpdateSheetRequest struct {
	SheetID         string                  `json:"sheet_id"`
	Shift           *string                 `json:"shift,omitempty"`
	Date            *string                 `json:"date,omitempty"`
	Destination     *string                 `json:"destination,omitempty"`
	SupervisorName  *string                 `json:"supervisor_name,omitempty"`
	EmployeeCode    *string                 `json:"employee_code,omitempty"`
	DockNumber      *string                 `json:"dock_number,omitempty"`
	DriverName      *string                 `json:"driver_name,omitempty"`
	VehicleNumber   *string                 `json:"vehicle_number,omitempty"`
	StagingItems    []models.StagingItem    `json:"staging_items,omitempty"`
	LoadingItems    []models.LoadingItem    `json:"loading_items,omitempty"`
	AdditionalItems []models.AdditionalItem `json:"additional_items,omitempty"`
	Comments        *string                 `json:"comments,omitempty"`
}

// Update edits a sheet in place. Staging fields are editable in DRAFT by the
// staging supervisor; loading fields in LOCKED by the loading supervisor.
// Staging quantities are frozen from LOCKED onward.
func (h *SheetHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req UpdateSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SheetID == "" {
		writeError(w, "Sheet ID is required", http.StatusBadRequest)
		return
	}

	sheet, err := h.db.GetSheet(req.SheetID)
	if err != nil {
		writeError(w, "Sheet not found", http.StatusNotFound)
		return
	}

	switch sheet.Status {
	case models.StatusDraft:
		if user.Role != models.RoleStagingSupervisor && user.Role != models.RoleAdmin {
			writeError(w, "Only staging supervisors may edit a draft sheet", http.StatusForbidden)
			return
		}
		if req.Shift != nil {
			sheet.Shift = *req.Shift
		}
		if req.Date != nil {
			sheet.Date = *req.Date
		}
		if req.Destination != nil {
			sheet.Destination = *req.Destination
		}
		if req.SupervisorName != nil {
			sheet.SupervisorName = *req.SupervisorName
		}
		if req.EmployeeCode != nil {
			sheet.EmployeeCode = *req.EmployeeCode
		}
		if req.DockNumber != nil {
			sheet.DockNumber = *req.DockNumber
		}
		if req.StagingItems != nil {
			sheet.StagingItems = req.StagingItems
			workflow.NormalizeStagingItems(sheet)
		}
	case models.StatusLocked:
		if user.Role != models.RoleLoadingSupervisor && user.Role != models.RoleAdmin {
			writeError(w, "Only loading supervisors may edit a locked sheet", http.StatusForbidden)
			return
		}
		if req.StagingItems != nil {
			writeError(w, "Staging items are frozen once the sheet is locked", http.StatusConflict)
			return
		}
		if req.DriverName != nil {
			sheet.DriverName = *req.DriverName
		}
		if req.VehicleNumber != nil {
			sheet.VehicleNumber = *req.VehicleNumber
		}
		if req.LoadingItems != nil {
			// Only loaded counts are writable; serial/SKU/planned stay frozen.
			bySerial := make(map[int]int, len(req.LoadingItems))
			for _, item := range req.LoadingItems {
				bySerial[item.Serial] = item.Loaded
			}
			for i := range sheet.LoadingItems {
				if loaded, ok := bySerial[sheet.LoadingItems[i].Serial]; ok {
					sheet.LoadingItems[i].Loaded = loaded
					sheet.LoadingItems[i].Balance = sheet.LoadingItems[i].Planned - loaded
				}
			}
		}
		if req.AdditionalItems != nil {
			sheet.AdditionalItems = req.AdditionalItems
		}
	default:
		writeError(w, "Sheet is not editable in status "+string(sheet.Status), http.StatusConflict)
		return
	}

	if req.Comments != nil {
		sheet.Comments = *req.Comments
	}
	sheet.Version++

	if err := h.db.SaveSheet(sheet); err != nil {
		log.Printf("❌ Failed to update sheet %s: %v", sheet.SheetID, err)
		writeError(w, "Failed to update sheet", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, user.UserID, "SHEET_UPDATE", "Updated sheet "+sheet.SheetID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sheet)
}

type sheetActionRequest struct {
	SheetID string `json:"sheet_id"`
	Reason  string `json:"reason,omitempty"`
}

// transition loads the sheet, applies fn, and saves on success.
func (h *SheetHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(*models.Sheet, workflow.Actor, string) error) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req sheetActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SheetID == "" {
		writeError(w, "Sheet ID is required", http.StatusBadRequest)
		return
	}

	sheet, err := h.db.GetSheet(req.SheetID)
	if err != nil {
		writeError(w, "Sheet not found", http.StatusNotFound)
		return
	}

	if err := fn(sheet, actorFrom(user), req.Reason); err != nil {
		writeWorkflowError(w, err)
		return
	}

	if err := h.db.SaveSheet(sheet); err != nil {
		log.Printf("❌ Failed to save sheet %s after %s: %v", sheet.SheetID, action, err)
		writeError(w, "Failed to save sheet", http.StatusInternalServerError)
		return
	}

	details := action + " on sheet " + sheet.SheetID
	if req.Reason != "" {
		details += " (reason: " + req.Reason + ")"
	}
	recordAudit(h.db, user.UserID, "SHEET_"+action, details)
	log.Printf("✅ %s by %s: %s → %s", action, user.Username, sheet.SheetID, sheet.Status)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sheet)
}

// Submit moves a DRAFT into staging verification
func (h *SheetHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "SUBMIT", func(s *models.Sheet, a workflow.Actor, _ string) error {
		return workflow.SubmitForVerification(s, a)
	})
}

// ApproveStaging locks the sheet. The advisory edit lock is held across the
// transition and the save so two shift leads in one deployment cannot race
// the approval.
func (h *SheetHandler) ApproveStaging(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req sheetActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SheetID == "" {
		writeError(w, "Sheet ID is required", http.StatusBadRequest)
		return
	}

	sheet, err := h.db.GetSheet(req.SheetID)
	if err != nil {
		writeError(w, "Sheet not found", http.StatusNotFound)
		return
	}

	if err := workflow.ApproveStagingLocked(h.locks, sheet, actorFrom(user), h.db.SaveSheet); err != nil {
		writeWorkflowError(w, err)
		return
	}

	recordAudit(h.db, user.UserID, "SHEET_APPROVE_STAGING", "APPROVE_STAGING on sheet "+sheet.SheetID)
	log.Printf("✅ APPROVE_STAGING by %s: %s → %s", user.Username, sheet.SheetID, sheet.Status)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sheet)
}

// Reject sends a pending sheet back to DRAFT with a reason
func (h *SheetHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "REJECT", workflow.RejectStaging)
}

// SubmitLoading moves a LOCKED sheet into loading verification
func (h *SheetHandler) SubmitLoading(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "SUBMIT_LOADING", func(s *models.Sheet, a workflow.Actor, _ string) error {
		return workflow.SubmitLoading(s, a)
	})
}

// ApproveLoading completes the sheet
func (h *SheetHandler) ApproveLoading(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "APPROVE_LOADING", func(s *models.Sheet, a workflow.Actor, _ string) error {
		return workflow.ApproveLoading(s, a)
	})
}

// Revert regresses the sheet one stage (admin only, reason required)
func (h *SheetHandler) Revert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "REVERT", workflow.Revert)
}

// Delete removes a sheet entirely. Admin only; the reason lands in the audit
// trail.
func (h *SheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req sheetActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SheetID == "" {
		writeError(w, "Sheet ID is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		writeError(w, "A deletion reason is required", http.StatusBadRequest)
		return
	}

	if _, err := h.db.GetSheet(req.SheetID); err != nil {
		writeError(w, "Sheet not found", http.StatusNotFound)
		return
	}

	if err := h.db.DeleteSheet(req.SheetID); err != nil {
		log.Printf("❌ Failed to delete sheet %s: %v", req.SheetID, err)
		writeError(w, "Failed to delete sheet", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, user.UserID, "SHEET_DELETE",
		"Deleted sheet "+req.SheetID+" (reason: "+req.Reason+")")
	log.Printf("🗑️  Sheet deleted by %s: %s", user.Username, req.SheetID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Sheet deleted successfully",
	})
}
