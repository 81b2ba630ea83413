// models.go
// Defines the core data structures shared by the DockFlow API, the seed
// script, and the export pipeline.

package models

import (
	"time"
)

// SheetStatus is the stage a sheet occupies in the staging/loading workflow.
type SheetStatus string

const (
	StatusDraft                      SheetStatus = "DRAFT"
	StatusStagingVerificationPending SheetStatus = "STAGING_VERIFICATION_PENDING"
	StatusLocked                     SheetStatus = "LOCKED"
	StatusLoadingVerificationPending SheetStatus = "LOADING_VERIFICATION_PENDING"
	StatusCompleted                  SheetStatus = "COMPLETED"
)

// StagingItem is one SKU-level quantity line captured at the staging stage.
// TTLCases is always CasesPerPallet*FullPallets + Loose; the workflow package
// recomputes it on every write so stored values cannot drift.
type StagingItem struct {
	Serial         int    `firestore:"serial" json:"serial"`
	SKU            string `firestore:"sku" json:"sku"`
	CasesPerPallet int    `firestore:"cases_per_pallet" json:"cases_per_pallet"`
	FullPallets    int    `firestore:"full_pallets" json:"full_pallets"`
	Loose          int    `firestore:"loose" json:"loose"`
	TTLCases       int    `firestore:"ttl_cases" json:"ttl_cases"`
}

// LoadingItem tracks loaded quantity against a staging line frozen at lock
// time. Serial references the staging line it was derived from.
type LoadingItem struct {
	Serial  int    `firestore:"serial" json:"serial"`
	SKU     string `firestore:"sku" json:"sku"`
	Planned int    `firestore:"planned" json:"planned"`
	Loaded  int    `firestore:"loaded" json:"loaded"`
	Balance int    `firestore:"balance" json:"balance"`
}

// AdditionalItem is a free-form extra line on the loading form, outside the
// staging-derived matrix.
type AdditionalItem struct {
	SKU   string `firestore:"sku" json:"sku"`
	Cases int    `firestore:"cases" json:"cases"`
}

// AdditionalItemSlots is the fixed number of additional-item rows seeded on
// the loading form when a sheet is locked.
const AdditionalItemSlots = 5

// HistoryEntry is one append-only action record on a sheet.
type HistoryEntry struct {
	Action    string    `firestore:"action" json:"action"`
	UserID    string    `firestore:"user_id" json:"user_id"`
	Username  string    `firestore:"username" json:"username"`
	Details   string    `firestore:"details,omitempty" json:"details,omitempty"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
}

// Sheet is a single operational record for one staging/loading cycle.
// This struct maps directly to a Firestore document.
type Sheet struct {
	SheetID string      `firestore:"sheet_id" json:"sheet_id"`
	Version int         `firestore:"version" json:"version"`
	Status  SheetStatus `firestore:"status" json:"status"`

	// Header fields
	Shift          string `firestore:"shift" json:"shift"`
	Date           string `firestore:"date" json:"date"` // YYYY-MM-DD
	Destination    string `firestore:"destination" json:"destination"`
	SupervisorName string `firestore:"supervisor_name" json:"supervisor_name"`
	EmployeeCode   string `firestore:"employee_code" json:"employee_code"`
	DockNumber     string `firestore:"dock_number" json:"dock_number"`
	DriverName     string `firestore:"driver_name,omitempty" json:"driver_name,omitempty"`
	VehicleNumber  string `firestore:"vehicle_number,omitempty" json:"vehicle_number,omitempty"`

	// Line items. StagingItems are frozen once the sheet reaches LOCKED;
	// LoadingItems are derived from them at lock time.
	StagingItems    []StagingItem    `firestore:"staging_items" json:"staging_items"`
	LoadingItems    []LoadingItem    `firestore:"loading_items,omitempty" json:"loading_items,omitempty"`
	AdditionalItems []AdditionalItem `firestore:"additional_items,omitempty" json:"additional_items,omitempty"`

	// Provenance
	CreatedBy         string     `firestore:"created_by" json:"created_by"`
	CreatedAt         time.Time  `firestore:"created_at" json:"created_at"`
	LockedBy          string     `firestore:"locked_by,omitempty" json:"locked_by,omitempty"`
	LockedAt          *time.Time `firestore:"locked_at,omitempty" json:"locked_at,omitempty"`
	StagingApprovedBy string     `firestore:"staging_approved_by,omitempty" json:"staging_approved_by,omitempty"`
	StagingApprovedAt *time.Time `firestore:"staging_approved_at,omitempty" json:"staging_approved_at,omitempty"`
	LoadingApprovedBy string     `firestore:"loading_approved_by,omitempty" json:"loading_approved_by,omitempty"`
	LoadingApprovedAt *time.Time `firestore:"loading_approved_at,omitempty" json:"loading_approved_at,omitempty"`
	CompletedBy       string     `firestore:"completed_by,omitempty" json:"completed_by,omitempty"`
	CompletedAt       *time.Time `firestore:"completed_at,omitempty" json:"completed_at,omitempty"`

	Comments string         `firestore:"comments,omitempty" json:"comments,omitempty"`
	History  []HistoryEntry `firestore:"history" json:"history"`
}

// UserRole defines the access level of a user.
type UserRole string

const (
	RoleAdmin             UserRole = "ADMIN"
	RoleStagingSupervisor UserRole = "STAGING_SUPERVISOR"
	RoleLoadingSupervisor UserRole = "LOADING_SUPERVISOR"
	RoleShiftLead         UserRole = "SHIFT_LEAD"
)

// User represents an authenticated user. Approved gates login: accounts
// created through self-registration stay unusable until an admin approves
// them.
type User struct {
	UserID       string    `firestore:"user_id" json:"user_id"`
	Username     string    `firestore:"username" json:"username"`
	Role         UserRole  `firestore:"role" json:"role"`
	EmployeeCode string    `firestore:"employee_code,omitempty" json:"employee_code,omitempty"`
	Approved     bool      `firestore:"approved" json:"approved"`
	LastLogin    time.Time `firestore:"last_login" json:"last_login"`
}

// IncidentStatus is the lifecycle stage of an incident.
type IncidentStatus string

const (
	IncidentOpen       IncidentStatus = "OPEN"
	IncidentInProgress IncidentStatus = "IN_PROGRESS"
	IncidentOnHold     IncidentStatus = "ON_HOLD"
	IncidentResolved   IncidentStatus = "RESOLVED"
)

// IncidentPriority ranks incidents for the dashboard.
type IncidentPriority string

const (
	PriorityLow      IncidentPriority = "LOW"
	PriorityMedium   IncidentPriority = "MEDIUM"
	PriorityHigh     IncidentPriority = "HIGH"
	PriorityCritical IncidentPriority = "CRITICAL"
)

// Incident is an independent record linked to a sheet by id.
type Incident struct {
	IncidentID      string           `firestore:"incident_id" json:"incident_id"`
	SheetID         string           `firestore:"sheet_id" json:"sheet_id"`
	Type            string           `firestore:"type" json:"type"`
	Priority        IncidentPriority `firestore:"priority" json:"priority"`
	Status          IncidentStatus   `firestore:"status" json:"status"`
	Description     string           `firestore:"description" json:"description"`
	Department      string           `firestore:"department" json:"department"`
	CreatedBy       string           `firestore:"created_by" json:"created_by"`
	CreatedAt       time.Time        `firestore:"created_at" json:"created_at"`
	OccurredAt      time.Time        `firestore:"occurred_at" json:"occurred_at"`
	ResolvedBy      string           `firestore:"resolved_by,omitempty" json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time       `firestore:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	ResolutionNotes string           `firestore:"resolution_notes,omitempty" json:"resolution_notes,omitempty"`
}

// AuditLog represents an audit log entry. Write-only from the application's
// perspective.
type AuditLog struct {
	LogID     string    `firestore:"log_id" json:"log_id"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
	UserID    string    `firestore:"user_id" json:"user_id"`
	Action    string    `firestore:"action" json:"action"`
	Details   string    `firestore:"details" json:"details"`
}

// WidgetPrefs holds a user's ordered list of enabled dashboard widgets.
type WidgetPrefs struct {
	Username  string    `firestore:"username" json:"username"`
	Widgets   []string  `firestore:"widgets" json:"widgets"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}

// AuthRequest is the login payload.
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse returns the tokens and user details.
type AuthResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}
