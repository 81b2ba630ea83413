// main.go
// DockFlow Operations API
// Role-gated staging/loading workflow tracking over Firestore, with JWT
// authentication and comprehensive middleware.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dockflow/auth"
	"dockflow/config"
	"dockflow/db"
	"dockflow/handlers"
	"dockflow/middleware"
	"dockflow/workflow"

	"github.com/joho/godotenv"
)

// Global instances
var (
	cfg              *config.Config
	firestoreDB      *db.FirestoreDB
	jwtManager       *auth.JWTManager
	editLocks        *workflow.EditLocks
	authHandler      *handlers.AuthHandler
	adminHandler     *handlers.AdminHandler
	sheetHandler     *handlers.SheetHandler
	incidentHandler  *handlers.IncidentHandler
	analyticsHandler *handlers.AnalyticsHandler
	exportHandler    *handlers.ExportHandler
	rateLimiter      *middleware.RateLimiter
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	// Load configuration
	cfg = config.Load()
	cfg.Validate()

	log.Printf("🚀 Starting DockFlow API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	// Initialize Firestore
	ctx := context.Background()
	var err error
	firestoreDB, err = db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	// Initialize JWT Manager
	jwtManager = auth.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.Expiration,
		cfg.JWT.RefreshTokenExpiration,
	)
	log.Printf("🔐 JWT Manager initialized (expiration: %v)", cfg.JWT.Expiration)

	// Initialize advisory edit locks and handlers
	editLocks = workflow.NewEditLocks()
	authHandler = handlers.NewAuthHandler(firestoreDB, jwtManager)
	adminHandler = handlers.NewAdminHandler(firestoreDB)
	sheetHandler = handlers.NewSheetHandler(firestoreDB, editLocks)
	incidentHandler = handlers.NewIncidentHandler(firestoreDB)
	analyticsHandler = handlers.NewAnalyticsHandler(firestoreDB, cfg.SLA.Window)
	exportHandler = handlers.NewExportHandler(firestoreDB)
	log.Printf("✅ Handlers initialized")

	// Initialize rate limiter
	rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.CleanupOldLimiters()
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Set up router
	mux := http.NewServeMux()

	// Public routes (no authentication required)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/login", authHandler.Login)
	mux.HandleFunc("/api/refresh", authHandler.RefreshToken)
	mux.HandleFunc("/api/register", authHandler.Register)

	// Protected routes (authentication required)
	authMiddleware := middleware.AuthMiddleware(jwtManager, firestoreDB)

	// Role gates
	adminOnly := middleware.RequireRole("ADMIN")
	stagingOrAdmin := middleware.RequireRole("STAGING_SUPERVISOR", "ADMIN")
	loadingOrAdmin := middleware.RequireRole("LOADING_SUPERVISOR", "ADMIN")
	leadOrAdmin := middleware.RequireRole("SHIFT_LEAD", "ADMIN")

	// Sheet endpoints
	mux.Handle("/api/sheets", authMiddleware(http.HandlerFunc(sheetHandler.List)))
	mux.Handle("/api/sheets/get", authMiddleware(http.HandlerFunc(sheetHandler.Get)))
	mux.Handle("/api/sheets/create", authMiddleware(stagingOrAdmin(http.HandlerFunc(sheetHandler.Create))))
	mux.Handle("/api/sheets/update", authMiddleware(http.HandlerFunc(sheetHandler.Update)))
	mux.Handle("/api/sheets/submit", authMiddleware(stagingOrAdmin(http.HandlerFunc(sheetHandler.Submit))))
	mux.Handle("/api/sheets/approve-staging", authMiddleware(leadOrAdmin(http.HandlerFunc(sheetHandler.ApproveStaging))))
	mux.Handle("/api/sheets/reject", authMiddleware(leadOrAdmin(http.HandlerFunc(sheetHandler.Reject))))
	mux.Handle("/api/sheets/submit-loading", authMiddleware(loadingOrAdmin(http.HandlerFunc(sheetHandler.SubmitLoading))))
	mux.Handle("/api/sheets/approve-loading", authMiddleware(leadOrAdmin(http.HandlerFunc(sheetHandler.ApproveLoading))))
	mux.Handle("/api/sheets/revert", authMiddleware(adminOnly(http.HandlerFunc(sheetHandler.Revert))))
	mux.Handle("/api/sheets/delete", authMiddleware(adminOnly(http.HandlerFunc(sheetHandler.Delete))))
	mux.Handle("/api/sheets/export", authMiddleware(http.HandlerFunc(exportHandler.ExportSheets)))

	// Incident endpoints
	mux.Handle("/api/incidents", authMiddleware(http.HandlerFunc(incidentHandler.List)))
	mux.Handle("/api/incidents/create", authMiddleware(http.HandlerFunc(incidentHandler.Create)))
	mux.Handle("/api/incidents/update", authMiddleware(http.HandlerFunc(incidentHandler.Update)))
	mux.Handle("/api/incidents/status", authMiddleware(http.HandlerFunc(incidentHandler.UpdateStatus)))

	// Analytics endpoints
	mux.Handle("/api/analytics/summary", authMiddleware(http.HandlerFunc(analyticsHandler.Summary)))
	mux.Handle("/api/preferences", authMiddleware(http.HandlerFunc(analyticsHandler.Preferences)))

	// Admin endpoints (admin only)
	mux.Handle("/api/admin/users", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.GetUsers))))
	mux.Handle("/api/admin/users/create", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.CreateUser))))
	mux.Handle("/api/admin/users/update", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.UpdateUser))))
	mux.Handle("/api/admin/users/approve", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.ApproveUser))))
	mux.Handle("/api/admin/users/delete", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.DeleteUser))))
	mux.Handle("/api/admin/users/reset-password", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.ResetPassword))))
	mux.Handle("/api/admin/logs", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.GetAuditLogs))))

	// Apply global middleware
	handler := middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(mux)
	handler = rateLimiter.Middleware()(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}
