package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rongwang/cgtracker/internal/models"
)

// Activity log repository methods
func (r *SQLRepository) AddActivity(ctx context.Context, entry *models.ActivityLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	id, err := r.insert(ctx,
		`INSERT INTO activity_log (user_id, action, details, timestamp) VALUES (?, ?, ?, ?) RETURNING id`,
		entry.UserID, entry.Action, entry.Details, entry.Timestamp)
	if err != nil {
		return err
	}

	entry.ID = id
	return nil
}

// ListActivity returns activity entries newest first; limit <= 0 returns all of them
func (r *SQLRepository) ListActivity(ctx context.Context, limit int) ([]models.ActivityLogEntry, error) {
	query := `
		SELECT a.id, a.user_id, u.username, a.action, a.details, a.timestamp
		FROM activity_log a
		JOIN users u ON a.user_id = u.id
		ORDER BY a.timestamp DESC, a.id DESC`
	args := []interface{}{}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	entries := []models.ActivityLogEntry{}
	if err := r.selectAll(ctx, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// Purge deletes every row of every table in dependency order
func (r *SQLRepository) Purge(ctx context.Context) error {
	tables := []string{"activity_log", "cg_transactions", "capital_goods", "categories", "employees", "users"}

	return r.WithTx(ctx, func(tx Repository) error {
		txr := tx.(*SQLRepository)
		for _, table := range tables {
			if _, err := txr.exec(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("purge %s: %w", table, err)
			}
		}
		return nil
	})
}

// Snapshot writes a consistent copy of the database to dest.
// Only the sqlite3 driver supports snapshots.
func (r *SQLRepository) Snapshot(ctx context.Context, dest string) error {
	if r.db.DriverName() != "sqlite3" {
		return fmt.Errorf("%w: %s", ErrSnapshotUnsupported, r.db.DriverName())
	}
	if r.tx != nil {
		return fmt.Errorf("snapshot cannot run inside a transaction")
	}

	_, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, dest)
	return err
}
