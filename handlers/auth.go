package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"dockflow/auth"
	"dockflow/db"
	"dockflow/models"

	"github.com/google/uuid"
)

type AuthHandler struct {
	db         *db.FirestoreDB
	jwtManager *auth.JWTManager
}

func NewAuthHandler(firestoreDB *db.FirestoreDB, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		db:         firestoreDB,
		jwtManager: jwtManager,
	}
}

// Login handles user authentication. Accounts that have not been approved by
// an admin are rejected even with valid credentials.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUserByUsername(req.Username)
	if err != nil {
		log.Printf("Login failed for user %s: user not found", req.Username)
		writeError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	passwordHash, err := h.db.GetPasswordHash(user.UserID)
	if err != nil {
		log.Printf("Login failed for user %s: password hash not found", req.Username)
		writeError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if err := auth.CheckPassword(req.Password, passwordHash); err != nil {
		log.Printf("Login failed for user %s: invalid password", req.Username)
		writeError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if !user.Approved {
		log.Printf("Login blocked for user %s: account pending approval", req.Username)
		writeError(w, "Account is pending admin approval", http.StatusForbidden)
		return
	}

	user.LastLogin = time.Now()
	if err := h.db.UpdateUser(user); err != nil {
		log.Printf("Warning: failed to update last login for user %s: %v", req.Username, err)
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for user %s: %v", req.Username, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		log.Printf("Failed to generate refresh token for user %s: %v", req.Username, err)
		writeError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ User logged in: %s (role: %s)", user.Username, user.Role)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.AuthResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	Token string `json:"token"`
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		writeError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	user, err := h.db.GetUser(claims.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusUnauthorized)
		return
	}

	if !user.Approved {
		writeError(w, "Account is pending admin approval", http.StatusForbidden)
		return
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for user %s: %v", user.Username, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RefreshTokenResponse{
		Token: token,
	})
}

type RegisterRequest struct {
	Username     string          `json:"username"`
	Password     string          `json:"password"`
	Role         models.UserRole `json:"role"`
	EmployeeCode string          `json:"employee_code"`
}

// Register creates an unapproved account pending admin approval. Admin
// accounts cannot be self-registered.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, "Username and password are required", http.StatusBadRequest)
		return
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch req.Role {
	case models.RoleStagingSupervisor, models.RoleLoadingSupervisor, models.RoleShiftLead:
	case models.RoleAdmin:
		writeError(w, "Admin accounts cannot be self-registered", http.StatusForbidden)
		return
	default:
		writeError(w, "Invalid role", http.StatusBadRequest)
		return
	}

	existingUser, _ := h.db.GetUserByUsername(req.Username)
	if existingUser != nil {
		writeError(w, "Username already exists", http.StatusConflict)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		writeError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		UserID:       "user-" + uuid.NewString(),
		Username:     req.Username,
		Role:         req.Role,
		EmployeeCode: req.EmployeeCode,
		Approved:     false,
	}

	if err := h.db.CreateUser(user); err != nil {
		log.Printf("❌ Failed to register user: %v", err)
		writeError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}
	if err := h.db.StorePasswordHash(user.UserID, passwordHash); err != nil {
		log.Printf("❌ Failed to store password: %v", err)
		// Remove the half-created account so no credential-less user lingers.
		if delErr := h.db.DeleteUser(user.UserID); delErr != nil {
			log.Printf("Warning: failed to clean up user %s: %v", user.UserID, delErr)
		}
		writeError(w, "Failed to store password", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, user.UserID, "REGISTER", "User '"+req.Username+"' registered, pending approval")
	log.Printf("✅ User registered (pending approval): %s (role: %s)", req.Username, req.Role)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeValidationErrors surfaces a blocked transition as the flat list of
// human-readable messages the dashboard renders as a bulleted alert.
func writeValidationErrors(w http.ResponseWriter, messages []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":    "validation failed",
		"messages": messages,
	})
}
