package models

import (
	"time"
)

// AssetStatus is the availability of a capital good
type AssetStatus string

const (
	StatusAvailable AssetStatus = "Available"
	StatusIssued    AssetStatus = "Issued"
)

// Valid reports whether s is a known status
func (s AssetStatus) Valid() bool {
	return s == StatusAvailable || s == StatusIssued
}

// TransactionType is the kind of a ledger entry
type TransactionType string

const (
	TransactionAcquisition TransactionType = "Acquisition"
	TransactionIssue       TransactionType = "Issue"
	TransactionReturn      TransactionType = "Return"
)

// ResultingStatus returns the asset status implied by a ledger entry of this type
func (t TransactionType) ResultingStatus() AssetStatus {
	if t == TransactionIssue {
		return StatusIssued
	}
	return StatusAvailable
}

// Role is the permission level of a user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// UnassignedCategoryName is the category that receives the goods of deleted categories
const UnassignedCategoryName = "Unassigned Category"

// User represents a user in the system
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"` // Password hash, not returned in JSON
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Actor is the authenticated user on whose behalf an operation runs
type Actor struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Category groups capital goods
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Employee is a person goods can be issued to
type Employee struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CapitalGood is a tracked durable asset. CategoryName is filled by
// queries that join the categories table.
type CapitalGood struct {
	ID              int64       `db:"id" json:"id"`
	Code            *string     `db:"code" json:"code"`
	Name            string      `db:"name" json:"name"`
	Description     string      `db:"description" json:"description"`
	Status          AssetStatus `db:"status" json:"status"`
	AcquisitionDate time.Time   `db:"acquisition_date" json:"acquisitionDate"`
	CategoryID      *int64      `db:"category_id" json:"categoryId"`
	CategoryName    *string     `db:"category_name" json:"categoryName"`
}

// Label returns the code used to refer to the asset in messages
func (g *CapitalGood) Label() string {
	if g.Code == nil || *g.Code == "" {
		return "N/A"
	}
	return *g.Code
}

// Transaction is an append-only ledger entry
type Transaction struct {
	ID             int64           `db:"id" json:"id"`
	AssetID        int64           `db:"asset_id" json:"assetId"`
	EmployeeID     *int64          `db:"employee_id" json:"employeeId"`
	Type           TransactionType `db:"transaction_type" json:"type"`
	Timestamp      time.Time       `db:"timestamp" json:"timestamp"`
	ConditionNotes string          `db:"condition_notes" json:"conditionNotes"`
	LoggedByUserID *int64          `db:"logged_by_user_id" json:"loggedByUserId"`
}

// TransactionLogEntry is a ledger entry joined with asset, employee and user names
type TransactionLogEntry struct {
	ID               int64           `db:"id" json:"id"`
	Timestamp        time.Time       `db:"timestamp" json:"timestamp"`
	AssetID          int64           `db:"asset_id" json:"assetId"`
	AssetCode        *string         `db:"asset_code" json:"assetCode"`
	AssetName        string          `db:"asset_name" json:"assetName"`
	EmployeeName     *string         `db:"employee_name" json:"employeeName"`
	Type             TransactionType `db:"transaction_type" json:"type"`
	ConditionNotes   string          `db:"condition_notes" json:"conditionNotes"`
	LoggedByUsername *string         `db:"logged_by_username" json:"loggedBy"`
}

// Allocation is a current Issue relationship between an asset and an employee
type Allocation struct {
	AssetID       int64     `db:"asset_id" json:"assetId"`
	AssetCode     *string   `db:"asset_code" json:"assetCode"`
	AssetName     string    `db:"asset_name" json:"assetName"`
	CategoryName  *string   `db:"category_name" json:"categoryName"`
	EmployeeID    *int64    `db:"employee_id" json:"employeeId"`
	EmployeeName  *string   `db:"employee_name" json:"employeeName"`
	TransactionID int64     `db:"transaction_id" json:"transactionId"`
	IssuedAt      time.Time `db:"issued_at" json:"issuedAt"`
}

// ActivityLogEntry is an audit record of a user-initiated operation
type ActivityLogEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Username  string    `db:"username" json:"username"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Activity actions
const (
	ActionLogin            = "login"
	ActionAssetRegistered  = "cg_registered"
	ActionAssetUpdated     = "cg_updated"
	ActionAssetIssued      = "cg_issued"
	ActionAssetReturned    = "cg_returned"
	ActionAssetDeleted     = "cg_deleted"
	ActionCategoryAdded    = "category_added"
	ActionCategoryDeleted  = "category_deleted"
	ActionEmployeeAdded    = "employee_added"
	ActionEmployeeDeleted  = "employee_deleted"
	ActionUserAdded        = "user_added"
	ActionUserUpdated      = "user_updated"
	ActionUserDeleted      = "user_deleted"
	ActionBackupCreated    = "backup_created"
	ActionDatabaseExported = "database_exported"
	ActionDataPurged       = "data_purged"
)

// AssetFilter narrows ListAssets. Zero values mean "no filter".
type AssetFilter struct {
	Search     string
	CategoryID *int64
	Status     AssetStatus
}

// AllocationFilter narrows ListAllocations. Nil means "no filter".
type AllocationFilter struct {
	EmployeeID *int64
	CategoryID *int64
}

// AssetCounts summarises the registry by status
type AssetCounts struct {
	Total     int `json:"total"`
	Issued    int `json:"issued"`
	Available int `json:"available"`
}

// Dashboard is the landing page summary
type Dashboard struct {
	Counts         AssetCounts        `json:"counts"`
	RecentActivity []ActivityLogEntry `json:"recentActivity"`
}

// BulkFailure is the outcome of one failed item of a bulk operation
type BulkFailure struct {
	AssetID int64  `json:"assetId"`
	Error   string `json:"error"`
	Err     error  `json:"-"`
}

// BulkResult aggregates the independent outcomes of a bulk operation
type BulkResult struct {
	SucceededCount int           `json:"succeededCount"`
	Failures       []BulkFailure `json:"failures"`
}
