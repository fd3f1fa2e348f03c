package repository

import (
	"context"
	"time"

	"github.com/rongwang/cgtracker/internal/models"
)

// Ledger repository methods
func (r *SQLRepository) AddTransaction(ctx context.Context, txn *models.Transaction) error {
	// Set timestamp if not provided
	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now().UTC()
	}

	id, err := r.insert(ctx, `
		INSERT INTO cg_transactions (asset_id, employee_id, transaction_type, timestamp, condition_notes, logged_by_user_id)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		txn.AssetID, txn.EmployeeID, txn.Type, txn.Timestamp, txn.ConditionNotes, txn.LoggedByUserID)
	if err != nil {
		return err
	}

	txn.ID = id
	return nil
}

func (r *SQLRepository) DeleteAssetTransactions(ctx context.Context, assetID int64) (int64, error) {
	return r.exec(ctx, `DELETE FROM cg_transactions WHERE asset_id = ?`, assetID)
}

func (r *SQLRepository) ListAssetTransactions(ctx context.Context, assetID int64) ([]models.Transaction, error) {
	txns := []models.Transaction{}
	err := r.selectAll(ctx, &txns, `SELECT * FROM cg_transactions WHERE asset_id = ? ORDER BY id`, assetID)
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// LatestTransaction returns the highest-id ledger entry of the given type
// for the asset. An empty type matches any entry.
func (r *SQLRepository) LatestTransaction(
	ctx context.Context,
	assetID int64,
	txnType models.TransactionType,
) (*models.Transaction, error) {
	query := `SELECT * FROM cg_transactions WHERE asset_id = ?`
	args := []interface{}{assetID}

	if txnType != "" {
		query += ` AND transaction_type = ?`
		args = append(args, txnType)
	}
	query += ` ORDER BY id DESC LIMIT 1`

	var txn models.Transaction
	found, err := r.get(ctx, &txn, query, args...)
	if err != nil || !found {
		return nil, err
	}
	return &txn, nil
}

// ListAllocations joins every Issued asset to its latest Issue entry
func (r *SQLRepository) ListAllocations(ctx context.Context, filter models.AllocationFilter) ([]models.Allocation, error) {
	query := `
		SELECT cg.id AS asset_id, cg.code AS asset_code, cg.name AS asset_name,
			c.name AS category_name, t.employee_id, e.name AS employee_name,
			t.id AS transaction_id, t.timestamp AS issued_at
		FROM capital_goods cg
		JOIN cg_transactions t ON t.asset_id = cg.id
		LEFT JOIN categories c ON cg.category_id = c.id
		LEFT JOIN employees e ON t.employee_id = e.id
		WHERE cg.status = 'Issued' AND ` + latestIssueCondition

	args := []interface{}{}

	if filter.EmployeeID != nil {
		query += ` AND t.employee_id = ?`
		args = append(args, *filter.EmployeeID)
	}
	if filter.CategoryID != nil {
		query += ` AND cg.category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	query += ` ORDER BY e.name, cg.name, cg.id`

	allocations := []models.Allocation{}
	if err := r.selectAll(ctx, &allocations, query, args...); err != nil {
		return nil, err
	}
	return allocations, nil
}

// ListTransactionLog returns ledger entries newest first. Both bounds are inclusive.
func (r *SQLRepository) ListTransactionLog(ctx context.Context, start, end *time.Time) ([]models.TransactionLogEntry, error) {
	query := `
		SELECT t.id, t.timestamp, t.asset_id, cg.code AS asset_code, cg.name AS asset_name,
			e.name AS employee_name, t.transaction_type, t.condition_notes,
			u.username AS logged_by_username
		FROM cg_transactions t
		JOIN capital_goods cg ON t.asset_id = cg.id
		LEFT JOIN employees e ON t.employee_id = e.id
		LEFT JOIN users u ON t.logged_by_user_id = u.id
		WHERE 1=1`

	args := []interface{}{}

	if start != nil {
		query += ` AND t.timestamp >= ?`
		args = append(args, start.UTC())
	}
	if end != nil {
		query += ` AND t.timestamp <= ?`
		args = append(args, end.UTC())
	}
	query += ` ORDER BY t.timestamp DESC, t.id DESC`

	entries := []models.TransactionLogEntry{}
	if err := r.selectAll(ctx, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}
