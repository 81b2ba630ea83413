package handlers

import (
	"log"
	"time"

	"dockflow/db"
	"dockflow/models"

	"github.com/google/uuid"
)

// recordAudit appends an entry to the append-only audit trail. Audit failures
// are logged but never fail the user action that triggered them.
func recordAudit(firestoreDB *db.FirestoreDB, userID, action, details string) {
	entry := &models.AuditLog{
		LogID:     "log-" + uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Action:    action,
		Details:   details,
	}
	if err := firestoreDB.AddAuditLog(entry); err != nil {
		log.Printf("Warning: failed to write audit log (%s by %s): %v", action, userID, err)
	}
}
