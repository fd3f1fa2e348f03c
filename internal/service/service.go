package service

import (
	"context"
	"time"

	"github.com/rongwang/cgtracker/internal/backup"
	"github.com/rongwang/cgtracker/internal/config"
	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/repository"
	"go.uber.org/zap"
)

// Service defines all the business logic operations. Every operation that
// acts on behalf of a user takes the authenticated actor explicitly.
type Service interface {
	// Authentication
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	EnsureAdmin(ctx context.Context) error
	ResolveActor(ctx context.Context, userID int64) (models.Actor, error)

	// User management (admin only)
	ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error)
	AddUser(ctx context.Context, actor models.Actor, req models.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, actor models.Actor, userID int64, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, actor models.Actor, userID int64) error

	// Asset lifecycle
	RegisterAsset(ctx context.Context, actor models.Actor, req models.RegisterAssetRequest) (*models.CapitalGood, error)
	UpdateAsset(ctx context.Context, actor models.Actor, assetID int64, req models.UpdateAssetRequest) (*models.CapitalGood, error)
	IssueAsset(ctx context.Context, actor models.Actor, assetID, employeeID int64) (*models.Transaction, error)
	ReturnAsset(ctx context.Context, actor models.Actor, assetID, employeeID int64, conditionNotes string) (*models.Transaction, error)
	DeleteAsset(ctx context.Context, actor models.Actor, assetID int64) error
	BulkIssue(ctx context.Context, actor models.Actor, assetIDs []int64, employeeID int64) (*models.BulkResult, error)
	BulkReturn(ctx context.Context, actor models.Actor, assetIDs []int64, employeeID int64, conditionNotes string) (*models.BulkResult, error)

	// Asset queries
	ListAssets(ctx context.Context, filter models.AssetFilter) ([]models.CapitalGood, error)
	GetAsset(ctx context.Context, assetID int64) (*models.CapitalGood, error)
	AssetHistory(ctx context.Context, assetID int64) ([]models.Transaction, error)
	ListAllocations(ctx context.Context, filter models.AllocationFilter) ([]models.Allocation, error)
	ListTransactionLog(ctx context.Context, start, end *time.Time) ([]models.TransactionLogEntry, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	ListActivity(ctx context.Context, limit int) ([]models.ActivityLogEntry, error)

	// Catalog
	AddCategory(ctx context.Context, actor models.Actor, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, actor models.Actor, categoryID int64) error
	AddEmployee(ctx context.Context, actor models.Actor, name string) (*models.Employee, error)
	ListEmployees(ctx context.Context, search string) ([]models.Employee, error)
	GetEmployee(ctx context.Context, employeeID int64) (*models.Employee, error)
	EmployeeAssets(ctx context.Context, employeeID int64) ([]models.CapitalGood, error)
	DeleteEmployee(ctx context.Context, actor models.Actor, employeeID int64) (int, error)

	// Maintenance
	CreateBackup(ctx context.Context, actor models.Actor) (string, error)
	ListBackups(ctx context.Context, actor models.Actor) ([]backup.Info, error)
	RecordExport(ctx context.Context, actor models.Actor, details string)
	Purge(ctx context.Context, actor models.Actor, password string) error
}

// Backups is the backup store used for login-time scheduled backups and
// the manual backup operations.
type Backups interface {
	Backup(ctx context.Context, kind string) (string, error)
	RunScheduled(ctx context.Context) ([]backup.Result, error)
	List() ([]backup.Info, error)
	RemoveAll() error
}

// Option configures a DefaultService
type Option func(*DefaultService)

// WithBackups enables the backup operations
func WithBackups(b Backups) Option {
	return func(s *DefaultService) {
		s.backups = b
	}
}

// WithPurgePassword sets the confirmation password of Purge
func WithPurgePassword(password string) Option {
	return func(s *DefaultService) {
		s.purgePassword = password
	}
}

// WithClock replaces the time source used for ledger and log timestamps
func WithClock(now func() time.Time) Option {
	return func(s *DefaultService) {
		s.now = now
	}
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	auth          config.AuthConfig
	logger        *zap.Logger
	backups       Backups
	purgePassword string
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, auth config.AuthConfig, logger *zap.Logger, opts ...Option) Service {
	s := &DefaultService{
		repo:   repo,
		auth:   auth,
		logger: logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DefaultService) tokenDuration() time.Duration {
	if ttl := s.auth.TokenTTL(); ttl > 0 {
		return ttl
	}
	return 24 * time.Hour
}

// actorRef returns the user id to store as the logging user of a ledger row
func actorRef(actor models.Actor) *int64 {
	if actor.UserID == 0 {
		return nil
	}
	id := actor.UserID
	return &id
}

// logActivity appends an activity entry. Failures are logged and never
// reach the caller.
func (s *DefaultService) logActivity(ctx context.Context, actor models.Actor, action, details string) {
	if actor.UserID == 0 {
		return
	}

	entry := &models.ActivityLogEntry{
		UserID:    actor.UserID,
		Action:    action,
		Details:   details,
		Timestamp: s.now(),
	}
	if err := s.repo.AddActivity(ctx, entry); err != nil {
		s.logger.Warn("failed to write activity log",
			zap.String("action", action),
			zap.Int64("user_id", actor.UserID),
			zap.Error(err),
		)
	}
}
