package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"dockflow/analytics"
	"dockflow/db"
	"dockflow/middleware"
	"dockflow/models"
)

type AnalyticsHandler struct {
	db        *db.FirestoreDB
	slaWindow time.Duration
}

func NewAnalyticsHandler(firestoreDB *db.FirestoreDB, slaWindow time.Duration) *AnalyticsHandler {
	return &AnalyticsHandler{
		db:        firestoreDB,
		slaWindow: slaWindow,
	}
}

// Summary builds the dashboard widgets. The layout is the caller's saved
// preference, falling back to the default set.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	sheets, err := h.db.GetAllSheets()
	if err != nil {
		log.Printf("❌ Failed to get sheets: %v", err)
		writeError(w, "Failed to retrieve sheets", http.StatusInternalServerError)
		return
	}
	incidents, err := h.db.GetAllIncidents()
	if err != nil {
		log.Printf("❌ Failed to get incidents: %v", err)
		writeError(w, "Failed to retrieve incidents", http.StatusInternalServerError)
		return
	}

	ids := analytics.DefaultWidgets()
	if prefs, err := h.db.GetWidgetPrefs(user.Username); err == nil && len(prefs.Widgets) > 0 {
		ids = prefs.Widgets
	}

	widgets := analytics.Build(ids, analytics.Input{
		Sheets:    sheets,
		Incidents: incidents,
		SLAWindow: h.slaWindow,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"widgets":   widgets,
		"available": analytics.Available(),
	})
}

type SavePrefsRequest struct {
	Widgets []string `json:"widgets"`
}

// Preferences reads (GET) or saves (POST) the caller's widget layout.
func (h *AnalyticsHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		prefs, err := h.db.GetWidgetPrefs(user.Username)
		if err != nil {
			prefs = &models.WidgetPrefs{
				Username: user.Username,
				Widgets:  analytics.DefaultWidgets(),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prefs)

	case http.MethodPost:
		var req SavePrefsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		prefs := &models.WidgetPrefs{
			Username:  user.Username,
			Widgets:   req.Widgets,
			UpdatedAt: time.Now(),
		}
		if err := h.db.SaveWidgetPrefs(prefs); err != nil {
			log.Printf("❌ Failed to save widget preferences for %s: %v", user.Username, err)
			writeError(w, "Failed to save preferences", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prefs)

	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
