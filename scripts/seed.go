package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"dockflow/auth"
	"dockflow/config"
	"dockflow/db"
	"dockflow/models"
	"dockflow/workflow"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	cfg.Validate()

	// Initialize Firestore
	ctx := context.Background()
	firestoreDB, err := db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedUsers(firestoreDB); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	if err := seedSheets(firestoreDB); err != nil {
		log.Fatalf("Failed to seed sheets: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func seedUsers(firestoreDB *db.FirestoreDB) error {
	users := []struct {
		User     models.User
		Password string
	}{
		{
			User: models.User{
				UserID:    "user-admin",
				Username:  "admin",
				Role:      models.RoleAdmin,
				Approved:  true,
				LastLogin: time.Now(),
			},
			Password: "admin1234",
		},
		{
			User: models.User{
				UserID:       "user-staging-maria",
				Username:     "staging_maria",
				Role:         models.RoleStagingSupervisor,
				EmployeeCode: "EMP-1041",
				Approved:     true,
				LastLogin:    time.Now(),
			},
			Password: "staging1234",
		},
		{
			User: models.User{
				UserID:       "user-loading-peter",
				Username:     "loading_peter",
				Role:         models.RoleLoadingSupervisor,
				EmployeeCode: "EMP-2087",
				Approved:     true,
				LastLogin:    time.Now(),
			},
			Password: "loading1234",
		},
		{
			User: models.User{
				UserID:       "user-lead-asha",
				Username:     "lead_asha",
				Role:         models.RoleShiftLead,
				EmployeeCode: "EMP-3150",
				Approved:     true,
				LastLogin:    time.Now(),
			},
			Password: "shiftlead1234",
		},
	}

	for _, userData := range users {
		// Create user
		if err := firestoreDB.CreateUser(&userData.User); err != nil {
			return fmt.Errorf("failed to create user %s: %w", userData.User.Username, err)
		}

		// Hash and store password
		passwordHash, err := auth.HashPassword(userData.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", userData.User.Username, err)
		}

		if err := firestoreDB.StorePasswordHash(userData.User.UserID, passwordHash); err != nil {
			return fmt.Errorf("failed to store password for %s: %w", userData.User.Username, err)
		}

		log.Printf("  ✓ Created user: %s (role: %s)", userData.User.Username, userData.User.Role)
	}

	return nil
}

func seedSheets(firestoreDB *db.FirestoreDB) error {
	today := time.Now().Format("2006-01-02")

	draft := &models.Sheet{
		SheetID:        "SHT-SEED-DRAFT",
		Version:        1,
		Status:         models.StatusDraft,
		Shift:          "MORNING",
		Date:           today,
		Destination:    "Nairobi DC",
		SupervisorName: "Maria K",
		EmployeeCode:   "EMP-1041",
		DockNumber:     "D-04",
		StagingItems: []models.StagingItem{
			{SKU: "CG-SODA-500ML", CasesPerPallet: 60, FullPallets: 4, Loose: 12},
			{SKU: "CG-WATER-1L", CasesPerPallet: 48, FullPallets: 2, Loose: 0},
		},
		CreatedBy: "user-staging-maria",
		CreatedAt: time.Now(),
		History: []models.HistoryEntry{{
			Action:    "CREATE",
			UserID:    "user-staging-maria",
			Username:  "staging_maria",
			Timestamp: time.Now(),
		}},
	}
	workflow.NormalizeStagingItems(draft)

	if err := firestoreDB.SaveSheet(draft); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", draft.SheetID, err)
	}
	log.Printf("  ✓ Created sheet: %s (%s)", draft.SheetID, draft.Status)

	// Walk a second sheet through to LOCKED so the loading form has data.
	locked := &models.Sheet{
		SheetID:        "SHT-SEED-LOCKED",
		Version:        1,
		Status:         models.StatusDraft,
		Shift:          "NIGHT",
		Date:           today,
		Destination:    "Mombasa Depot",
		SupervisorName: "Maria K",
		EmployeeCode:   "EMP-1041",
		DockNumber:     "D-07",
		StagingItems: []models.StagingItem{
			{SKU: "CG-JUICE-330ML", CasesPerPallet: 72, FullPallets: 3, Loose: 24},
		},
		CreatedBy: "user-staging-maria",
		CreatedAt: time.Now(),
	}
	workflow.NormalizeStagingItems(locked)

	supervisor := workflow.Actor{UserID: "user-staging-maria", Username: "staging_maria", Role: models.RoleStagingSupervisor}
	lead := workflow.Actor{UserID: "user-lead-asha", Username: "lead_asha", Role: models.RoleShiftLead}

	if err := workflow.SubmitForVerification(locked, supervisor); err != nil {
		return fmt.Errorf("failed to submit seed sheet: %w", err)
	}
	if err := workflow.ApproveStaging(locked, lead); err != nil {
		return fmt.Errorf("failed to lock seed sheet: %w", err)
	}

	if err := firestoreDB.SaveSheet(locked); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", locked.SheetID, err)
	}
	log.Printf("  ✓ Created sheet: %s (%s)", locked.SheetID, locked.Status)

	return nil
}
