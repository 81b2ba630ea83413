package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"dockflow/auth"
	"dockflow/db"
	"dockflow/middleware"
	"dockflow/models"

	"github.com/google/uuid"
)

type AdminHandler struct {
	db *db.FirestoreDB
}

func NewAdminHandler(firestoreDB *db.FirestoreDB) *AdminHandler {
	return &AdminHandler{
		db: firestoreDB,
	}
}

// --- User Management ---

type CreateUserRequest struct {
	Username     string          `json:"username"`
	Password     string          `json:"password"`
	Role         models.UserRole `json:"role"`
	EmployeeCode string          `json:"employee_code"`
}

type UpdateUserRequest struct {
	UserID       string          `json:"user_id"`
	Role         models.UserRole `json:"role,omitempty"`
	EmployeeCode string          `json:"employee_code,omitempty"`
	Approved     *bool           `json:"approved,omitempty"`
}

type DeleteUserRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

type ApproveUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUsers returns all users
func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.db.GetAllUsers()
	if err != nil {
		log.Printf("❌ Failed to get users: %v", err)
		writeError(w, "Failed to retrieve users", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// CreateUser creates a new, already-approved user
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateUserRequest
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
	case models.RoleAdmin, models.RoleStagingSupervisor, models.RoleLoadingSupervisor, models.RoleShiftLead:
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
		Approved:     true,
		LastLogin:    time.Now(),
	}

	if err := h.db.CreateUser(user); err != nil {
		log.Printf("❌ Failed to create user: %v", err)
		writeError(w, "Failed to create user", http.StatusInternalServerError)
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

	recordAudit(h.db, adminUser.UserID, "ADMIN_CREATE_USER",
		"Admin '"+adminUser.Username+"' created user '"+req.Username+"' with role '"+string(req.Role)+"'")
	log.Printf("✅ User created by %s: %s (role: %s)", adminUser.Username, req.Username, req.Role)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// UpdateUser updates role, employee code or approval of an existing user
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		writeError(w, "User ID is required", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUser(req.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}

	if req.Role != "" {
		user.Role = req.Role
	}
	if req.EmployeeCode != "" {
		user.EmployeeCode = req.EmployeeCode
	}
	if req.Approved != nil {
		user.Approved = *req.Approved
	}

	if err := h.db.UpdateUser(user); err != nil {
		log.Printf("❌ Failed to update user: %v", err)
		writeError(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, adminUser.UserID, "ADMIN_UPDATE_USER",
		"Admin '"+adminUser.Username+"' updated user '"+user.Username+"'")
	log.Printf("✅ User updated by %s: %s", adminUser.Username, user.Username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// ApproveUser flips the approval flag that gates login
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req ApproveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		writeError(w, "User ID is required", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUser(req.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}

	user.Approved = true
	if err := h.db.UpdateUser(user); err != nil {
		log.Printf("❌ Failed to approve user: %v", err)
		writeError(w, "Failed to approve user", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, adminUser.UserID, "ADMIN_APPROVE_USER",
		"Admin '"+adminUser.Username+"' approved user '"+user.Username+"'")
	log.Printf("✅ User approved by %s: %s", adminUser.Username, user.Username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// DeleteUser deletes a user and their stored password hash
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req DeleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		writeError(w, "User ID is required", http.StatusBadRequest)
		return
	}

	if req.UserID == adminUser.UserID {
		writeError(w, "Cannot delete your own account", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUser(req.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}

	if err := h.db.DeleteUser(req.UserID); err != nil {
		log.Printf("❌ Failed to delete user: %v", err)
		writeError(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	if err := h.db.DeletePasswordHash(req.UserID); err != nil {
		log.Printf("Warning: failed to delete password hash for %s: %v", req.UserID, err)
	}

	details := "Admin '" + adminUser.Username + "' deleted user '" + user.Username + "'"
	if req.Reason != "" {
		details += " (reason: " + req.Reason + ")"
	}
	recordAudit(h.db, adminUser.UserID, "ADMIN_DELETE_USER", details)
	log.Printf("✅ User deleted by %s: %s", adminUser.Username, user.Username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "User deleted successfully",
	})
}

// ResetPasswordRequest represents a password reset request
type ResetPasswordRequest struct {
	UserID      string `json:"user_id"`
	NewPassword string `json:"new_password"`
}

// ResetPassword resets a user's password
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.NewPassword == "" {
		writeError(w, "User ID and new password are required", http.StatusBadRequest)
		return
	}
	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	targetUser, err := h.db.GetUser(req.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		writeError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	if err := h.db.StorePasswordHash(req.UserID, passwordHash); err != nil {
		log.Printf("❌ Failed to store password: %v", err)
		writeError(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	recordAudit(h.db, adminUser.UserID, "ADMIN_RESET_PASSWORD",
		"Admin '"+adminUser.Username+"' reset password for '"+targetUser.Username+"'")
	log.Printf("🔑 Password reset by %s for user: %s", adminUser.Username, targetUser.Username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Password reset successfully",
	})
}

// --- Audit Trail ---

// GetAuditLogs returns the audit trail, optionally limited to entries after
// the RFC3339 timestamp in the 'since' query parameter
func (h *AdminHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sinceParam := r.URL.Query().Get("since")

	var logs []models.AuditLog
	var err error
	if sinceParam != "" {
		sinceTime, parseErr := time.Parse(time.RFC3339, sinceParam)
		if parseErr != nil {
			writeError(w, "Invalid 'since' parameter format. Use RFC3339", http.StatusBadRequest)
			return
		}
		logs, err = h.db.GetAuditLogsSince(sinceTime)
	} else {
		logs, err = h.db.GetAllAuditLogs()
	}
	if err != nil {
		log.Printf("❌ Failed to get audit logs: %v", err)
		writeError(w, "Failed to retrieve audit logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}
