package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"dockflow/db"
	"dockflow/middleware"
	"dockflow/models"
	"dockflow/query"
	"dockflow/workflow"

	"github.com/google/uuid"
)

type IncidentHandler struct {
	db *db.FirestoreDB
}

func NewIncidentHandler(firestoreDB *db.FirestoreDB) *IncidentHandler {
	return &IncidentHandler{
		db: firestoreDB,
	}
}

// List returns incidents filtered by department/status/date range
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()

	// A sheet-scoped listing hits the indexed query instead of a full scan.
	var incidents []models.Incident
	var err error
	if sheetID := q.Get("sheet_id"); sheetID != "" {
		incidents, err = h.db.GetIncidentsBySheet(sheetID)
	} else {
		incidents, err = h.db.GetAllIncidents()
	}
	if err != nil {
		log.Printf("❌ Failed to get incidents: %v", err)
		writeError(w, "Failed to retrieve incidents", http.StatusInternalServerError)
		return
	}

	f := query.IncidentFilter{
		Department: q.Get("department"),
		Status:     models.IncidentStatus(q.Get("status")),
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.To = t
		}
	}
	filtered := query.FilterIncidents(incidents, f)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"incidents": filtered,
		"count":     len(filtered),
	})
}

type CreateIncidentRequest struct {
	SheetID     string                  `json:"sheet_id"`
	Type        string                  `json:"type"`
	Priority    models.IncidentPriority `json:"priority"`
	Description string                  `json:"description"`
	Department  string                  `json:"department"`
	OccurredAt  time.Time               `json:"occurred_at"`
}

// Create opens a new incident linked to a sheet
func (h *IncidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.SheetID == "" || req.Description == "" {
		writeError(w, "Sheet ID and description are required", http.StatusBadRequest)
		return
	}
	if _, err := h.db.GetSheet(req.SheetID); err != nil {
		writeError(w, "Linked sheet not found", http.StatusNotFound)
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if req.OccurredAt.IsZero() {
		req.OccurredAt = time.Now()
	}

	incident := &models.Incident{
		IncidentID:  "INC-" + uuid.NewString(),
		SheetID:     req.SheetID,
		Type:        req.Type,
		Priority:    req.Priority,
		Status:      models.IncidentOpen,
		Description: req.Description,
		Department:  req.Department,
		CreatedBy:   user.UserID,
		CreatedAt:   time.Now(),
		OccurredAt:  req.OccurredAt,
	}

	if err := h.db.SaveIncident(incident); err != nil {
		log.Printf("❌ Failed to create incident: %v", err)
		writeError(w, "Failed to create incident", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, user.UserID, "INCIDENT_CREATE",
		"Opened incident "+incident.IncidentID+" on sheet "+incident.SheetID)
	log.Printf("✅ Incident created by %s: %s (priority: %s)", user.Username, incident.IncidentID, incident.Priority)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(incident)
}

type UpdateIncidentRequest struct {
	IncidentID  string                  `json:"incident_id"`
	Type        *string                 `json:"type,omitempty"`
	Priority    models.IncidentPriority `json:"priority,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Department  *string                 `json:"department,omitempty"`
}

// Update edits incident details. Resolved incidents are read-only.
func (h *IncidentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.IncidentID == "" {
		writeError(w, "Incident ID is required", http.StatusBadRequest)
		return
	}

	incident, err := h.db.GetIncident(req.IncidentID)
	if err != nil {
		writeError(w, "Incident not found", http.StatusNotFound)
		return
	}
	if incident.Status == models.IncidentResolved {
		writeError(w, "Resolved incidents cannot be edited", http.StatusConflict)
		return
	}

	if req.Type != nil {
		incident.Type = *req.Type
	}
	if req.Priority != "" {
		incident.Priority = req.Priority
	}
	if req.Description != nil {
		incident.Description = *req.Description
	}
	if req.Department != nil {
		incident.Department = *req.Department
	}

	if err := h.db.SaveIncident(incident); err != nil {
		log.Printf("❌ Failed to update incident %s: %v", incident.IncidentID, err)
		writeError(w, "Failed to update incident", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, user.UserID, "INCIDENT_UPDATE", "Updated incident "+incident.IncidentID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(incident)
}

type IncidentStatusRequest struct {
	IncidentID string                `json:"incident_id"`
	Status     models.IncidentStatus `json:"status"`
	Notes      string                `json:"notes,omitempty"`
}

// UpdateStatus drives the incident lifecycle. Resolution is handled here too:
// the workflow layer enforces who may resolve and stamps the resolver.
func (h *IncidentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req IncidentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.IncidentID == "" || req.Status == "" {
		writeError(w, "Incident ID and status are required", http.StatusBadRequest)
		return
	}

	incident, err := h.db.GetIncident(req.IncidentID)
	if err != nil {
		writeError(w, "Incident not found", http.StatusNotFound)
		return
	}

	actor := workflow.Actor{UserID: user.UserID, Username: user.Username, Role: user.Role}
	if err := workflow.TransitionIncident(incident, req.Status, actor, req.Notes); err != nil {
		writeWorkflowError(w, err)
		return
	}

	if err := h.db.SaveIncident(incident); err != nil {
		log.Printf("❌ Failed to save incident %s: %v", incident.IncidentID, err)
		writeError(w, "Failed to save incident", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, user.UserID, "INCIDENT_STATUS",
		"Incident "+incident.IncidentID+" moved to "+string(incident.Status))
	log.Printf("✅ Incident %s moved to %s by %s", incident.IncidentID, incident.Status, user.Username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(incident)
}
