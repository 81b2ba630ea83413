package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"dockflow/models"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// FirestoreDB wraps the Firestore client. Each entity is a flat document in
// its own collection; access control is enforced by the HTTP middleware, not
// at the data layer.
type FirestoreDB struct {
	client *firestore.Client
	ctx    context.Context
}

// NewFirestoreDB initializes a new Firestore client
func NewFirestoreDB(ctx context.Context, projectID, credentialsPath string) (*FirestoreDB, error) {
	opt := option.WithCredentialsFile(credentialsPath)

	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Printf("✅ Connected to Firestore project: %s", projectID)

	return &FirestoreDB{
		client: client,
		ctx:    ctx,
	}, nil
}

// Close closes the Firestore client
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

// --- Sheet Operations ---

// SaveSheet creates or overwrites a sheet document
func (db *FirestoreDB) SaveSheet(sheet *models.Sheet) error {
	_, err := db.client.Collection("sheets").Doc(sheet.SheetID).Set(db.ctx, sheet)
	if err != nil {
		return fmt.Errorf("failed to save sheet: %w", err)
	}
	return nil
}

// GetSheet retrieves a sheet by ID
func (db *FirestoreDB) GetSheet(sheetID string) (*models.Sheet, error) {
	doc, err := db.client.Collection("sheets").Doc(sheetID).Get(db.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet: %w", err)
	}

	var sheet models.Sheet
	if err := doc.DataTo(&sheet); err != nil {
		return nil, fmt.Errorf("failed to parse sheet: %w", err)
	}

	return &sheet, nil
}

// GetAllSheets retrieves all sheets
func (db *FirestoreDB) GetAllSheets() ([]models.Sheet, error) {
	iter := db.client.Collection("sheets").Documents(db.ctx)
	defer iter.Stop()

	var sheets []models.Sheet
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate sheets: %w", err)
		}

		var sheet models.Sheet
		if err := doc.DataTo(&sheet); err != nil {
			log.Printf("Warning: failed to parse sheet %s: %v", doc.Ref.ID, err)
			continue
		}
		sheets = append(sheets, sheet)
	}

	return sheets, nil
}

// GetSheetsByStatus retrieves sheets with a specific workflow status
func (db *FirestoreDB) GetSheetsByStatus(status models.SheetStatus) ([]models.Sheet, error) {
	iter := db.client.Collection("sheets").
		Where("status", "==", string(status)).
		Documents(db.ctx)
	defer iter.Stop()

	var sheets []models.Sheet
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate sheets: %w", err)
		}

		var sheet models.Sheet
		if err := doc.DataTo(&sheet); err != nil {
			log.Printf("Warning: failed to parse sheet %s: %v", doc.Ref.ID, err)
			continue
		}
		sheets = append(sheets, sheet)
	}

	return sheets, nil
}

// DeleteSheet deletes a sheet
func (db *FirestoreDB) DeleteSheet(sheetID string) error {
	_, err := db.client.Collection("sheets").Doc(sheetID).Delete(db.ctx)
	if err != nil {
		return fmt.Errorf("failed to delete sheet: %w", err)
	}
	return nil
}

// --- User Operations ---

// CreateUser creates a new user in Firestore
func (db *FirestoreDB) CreateUser(user *models.User) error {
	_, err := db.client.Collection("users").Doc(user.UserID).Set(db.ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (db *FirestoreDB) GetUser(userID string) (*models.User, error) {
	doc, err := db.client.Collection("users").Doc(userID).Get(db.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (db *FirestoreDB) GetUserByUsername(username string) (*models.User, error) {
	iter := db.client.Collection("users").
		Where("username", "==", username).
		Limit(1).
		Documents(db.ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user not found: %s", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}

	return &user, nil
}

// GetAllUsers retrieves all users
func (db *FirestoreDB) GetAllUsers() ([]models.User, error) {
	iter := db.client.Collection("users").Documents(db.ctx)
	defer iter.Stop()

	var users []models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users: %w", err)
		}

		var user models.User
		if err := doc.DataTo(&user); err != nil {
			log.Printf("Warning: failed to parse user %s: %v", doc.Ref.ID, err)
			continue
		}
		users = append(users, user)
	}

	return users, nil
}

// UpdateUser updates an existing user
func (db *FirestoreDB) UpdateUser(user *models.User) error {
	_, err := db.client.Collection("users").Doc(user.UserID).Set(db.ctx, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser deletes a user
func (db *FirestoreDB) DeleteUser(userID string) error {
	_, err := db.client.Collection("users").Doc(userID).Delete(db.ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// --- Incident Operations ---

// SaveIncident creates or overwrites an incident document
func (db *FirestoreDB) SaveIncident(incident *models.Incident) error {
	_, err := db.client.Collection("incidents").Doc(incident.IncidentID).Set(db.ctx, incident)
	if err != nil {
		return fmt.Errorf("failed to save incident: %w", err)
	}
	return nil
}

// GetIncident retrieves an incident by ID
func (db *FirestoreDB) GetIncident(incidentID string) (*models.Incident, error) {
	doc, err := db.client.Collection("incidents").Doc(incidentID).Get(db.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}

	var incident models.Incident
	if err := doc.DataTo(&incident); err != nil {
		return nil, fmt.Errorf("failed to parse incident: %w", err)
	}

	return &incident, nil
}

// GetAllIncidents retrieves all incidents
func (db *FirestoreDB) GetAllIncidents() ([]models.Incident, error) {
	iter := db.client.Collection("incidents").Documents(db.ctx)
	defer iter.Stop()

	var incidents []models.Incident
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate incidents: %w", err)
		}

		var incident models.Incident
		if err := doc.DataTo(&incident); err != nil {
			log.Printf("Warning: failed to parse incident %s: %v", doc.Ref.ID, err)
			continue
		}
		incidents = append(incidents, incident)
	}

	return incidents, nil
}

// GetIncidentsBySheet retrieves incidents linked to a sheet
func (db *FirestoreDB) GetIncidentsBySheet(sheetID string) ([]models.Incident, error) {
	iter := db.client.Collection("incidents").
		Where("sheet_id", "==", sheetID).
		Documents(db.ctx)
	defer iter.Stop()

	var incidents []models.Incident
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate incidents: %w", err)
		}

		var incident models.Incident
		if err := doc.DataTo(&incident); err != nil {
			log.Printf("Warning: failed to parse incident %s: %v", doc.Ref.ID, err)
			continue
		}
		incidents = append(incidents, incident)
	}

	return incidents, nil
}

// --- Audit Log Operations ---

// AddAuditLog appends an audit log entry. The logs collection is append-only
// from the application's perspective.
func (db *FirestoreDB) AddAuditLog(entry *models.AuditLog) error {
	_, err := db.client.Collection("logs").Doc(entry.LogID).Set(db.ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to add audit log: %w", err)
	}
	return nil
}

// GetAuditLogsSince retrieves audit logs recorded after a specific timestamp
func (db *FirestoreDB) GetAuditLogsSince(since time.Time) ([]models.AuditLog, error) {
	iter := db.client.Collection("logs").
		Where("timestamp", ">", since).
		Documents(db.ctx)
	defer iter.Stop()

	var logs []models.AuditLog
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
		}

		var entry models.AuditLog
		if err := doc.DataTo(&entry); err != nil {
			log.Printf("Warning: failed to parse audit log %s: %v", doc.Ref.ID, err)
			continue
		}
		logs = append(logs, entry)
	}

	return logs, nil
}

// GetAllAuditLogs retrieves all audit logs
func (db *FirestoreDB) GetAllAuditLogs() ([]models.AuditLog, error) {
	iter := db.client.Collection("logs").Documents(db.ctx)
	defer iter.Stop()

	var logs []models.AuditLog
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
		}

		var entry models.AuditLog
		if err := doc.DataTo(&entry); err != nil {
			log.Printf("Warning: failed to parse audit log %s: %v", doc.Ref.ID, err)
			continue
		}
		logs = append(logs, entry)
	}

	return logs, nil
}

// --- Password Operations ---

// StorePasswordHash stores a password hash for a user
func (db *FirestoreDB) StorePasswordHash(userID, passwordHash string) error {
	_, err := db.client.Collection("passwords").Doc(userID).Set(db.ctx, map[string]interface{}{
		"user_id":       userID,
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	return nil
}

// GetPasswordHash retrieves a password hash for a user
func (db *FirestoreDB) GetPasswordHash(userID string) (string, error) {
	doc, err := db.client.Collection("passwords").Doc(userID).Get(db.ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}

	data := doc.Data()
	if hash, ok := data["password_hash"].(string); ok {
		return hash, nil
	}

	return "", fmt.Errorf("password hash not found for user: %s", userID)
}

// DeletePasswordHash removes the password record for a deleted user
func (db *FirestoreDB) DeletePasswordHash(userID string) error {
	_, err := db.client.Collection("passwords").Doc(userID).Delete(db.ctx)
	if err != nil {
		return fmt.Errorf("failed to delete password hash: %w", err)
	}
	return nil
}

// --- Widget Preference Operations ---

// SaveWidgetPrefs stores a user's dashboard widget layout
func (db *FirestoreDB) SaveWidgetPrefs(prefs *models.WidgetPrefs) error {
	_, err := db.client.Collection("preferences").Doc(prefs.Username).Set(db.ctx, prefs)
	if err != nil {
		return fmt.Errorf("failed to save widget preferences: %w", err)
	}
	return nil
}

// GetWidgetPrefs retrieves a user's dashboard widget layout
func (db *FirestoreDB) GetWidgetPrefs(username string) (*models.WidgetPrefs, error) {
	doc, err := db.client.Collection("preferences").Doc(username).Get(db.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get widget preferences: %w", err)
	}

	var prefs models.WidgetPrefs
	if err := doc.DataTo(&prefs); err != nil {
		return nil, fmt.Errorf("failed to parse widget preferences: %w", err)
	}

	return &prefs, nil
}
