package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rongwang/cgtracker/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy.
// Lookups by id or name return (nil, nil) when nothing matches.
type Repository interface {
	// WithTx runs fn against a repository bound to a single database
	// transaction. The transaction commits when fn returns nil and rolls
	// back otherwise. Calling WithTx on a transaction-bound repository
	// reuses the open transaction.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	CountAdmins(ctx context.Context) (int, error)
	FirstAdminID(ctx context.Context) (*int64, error)

	// Category operations
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ReassignCategory(ctx context.Context, fromID int64, toID *int64) (int64, error)
	DeleteCategory(ctx context.Context, id int64) error

	// Employee operations
	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
	GetEmployeeByName(ctx context.Context, name string) (*models.Employee, error)
	ListEmployees(ctx context.Context, search string) ([]models.Employee, error)
	DetachEmployeeTransactions(ctx context.Context, employeeID int64) (int64, error)
	DeleteEmployee(ctx context.Context, id int64) error

	// Capital good operations
	CreateAsset(ctx context.Context, asset *models.CapitalGood) error
	GetAsset(ctx context.Context, id int64) (*models.CapitalGood, error)
	GetAssetByCode(ctx context.Context, code string) (*models.CapitalGood, error)
	ListAssets(ctx context.Context, filter models.AssetFilter) ([]models.CapitalGood, error)
	UpdateAsset(ctx context.Context, asset *models.CapitalGood) error
	SetAssetStatus(ctx context.Context, id int64, status models.AssetStatus) error
	DeleteAsset(ctx context.Context, id int64) error
	AssetsIssuedTo(ctx context.Context, employeeID int64) ([]models.CapitalGood, error)
	CountAssets(ctx context.Context) (*models.AssetCounts, error)

	// Ledger operations
	AddTransaction(ctx context.Context, txn *models.Transaction) error
	DeleteAssetTransactions(ctx context.Context, assetID int64) (int64, error)
	ListAssetTransactions(ctx context.Context, assetID int64) ([]models.Transaction, error)
	LatestTransaction(ctx context.Context, assetID int64, txnType models.TransactionType) (*models.Transaction, error)
	ListAllocations(ctx context.Context, filter models.AllocationFilter) ([]models.Allocation, error)
	ListTransactionLog(ctx context.Context, start, end *time.Time) ([]models.TransactionLogEntry, error)

	// Activity log operations
	AddActivity(ctx context.Context, entry *models.ActivityLogEntry) error
	ListActivity(ctx context.Context, limit int) ([]models.ActivityLogEntry, error)

	// Maintenance operations
	Purge(ctx context.Context) error
	Snapshot(ctx context.Context, dest string) error
}

// querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// SQLRepository implements the Repository interface on top of sqlx.
// Queries are written with '?' placeholders and rebound for the driver.
type SQLRepository struct {
	db *sqlx.DB
	q  querier
	tx *sqlx.Tx
}

// NewSQLRepository creates a new repository over an open database
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db: db,
		q:  db,
	}
}

// GetDB returns the underlying database connection
func (r *SQLRepository) GetDB() *sqlx.DB {
	return r.db
}

func (r *SQLRepository) WithTx(ctx context.Context, fn func(tx Repository) error) (err error) {
	if r.tx != nil {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(&SQLRepository{db: r.db, q: tx, tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SQLRepository) get(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := r.q.GetContext(ctx, dest, r.q.Rebind(query), args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *SQLRepository) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return r.q.SelectContext(ctx, dest, r.q.Rebind(query), args...)
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// insert runs an INSERT ... RETURNING id statement
func (r *SQLRepository) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	err := r.q.QueryRowxContext(ctx, r.q.Rebind(query), args...).Scan(&id)
	return id, err
}

func likePattern(s string) string {
	return "%" + s + "%"
}
