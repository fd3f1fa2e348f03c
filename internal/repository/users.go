package repository

import (
	"context"
	"time"

	"github.com/rongwang/cgtracker/internal/models"
)

// User repository methods
func (r *SQLRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	id, err := r.insert(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		return err
	}

	user.ID = id
	return nil
}

func (r *SQLRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	found, err := r.get(ctx, &user, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (r *SQLRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	found, err := r.get(ctx, &user, `SELECT * FROM users WHERE username = ?`, username)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (r *SQLRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.selectAll(ctx, &users, `SELECT * FROM users ORDER BY username`); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *SQLRepository) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := r.exec(ctx,
		`UPDATE users SET username = ?, password_hash = ?, role = ? WHERE id = ?`,
		user.Username, user.PasswordHash, user.Role, user.ID)
	return err
}

// DeleteUser removes a user. Ledger rows keep their history with the
// logging user cleared; the user's activity rows are removed.
func (r *SQLRepository) DeleteUser(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx Repository) error {
		txr := tx.(*SQLRepository)

		if _, err := txr.exec(ctx, `UPDATE cg_transactions SET logged_by_user_id = NULL WHERE logged_by_user_id = ?`, id); err != nil {
			return err
		}
		if _, err := txr.exec(ctx, `DELETE FROM activity_log WHERE user_id = ?`, id); err != nil {
			return err
		}
		_, err := txr.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
		return err
	})
}

func (r *SQLRepository) CountAdmins(ctx context.Context) (int, error) {
	var n int
	_, err := r.get(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = ?`, models.RoleAdmin)
	return n, err
}

// FirstAdminID returns the lowest-id admin, used as the system identity
// for ledger entries written without a requesting user.
func (r *SQLRepository) FirstAdminID(ctx context.Context) (*int64, error) {
	var id int64
	found, err := r.get(ctx, &id, `SELECT id FROM users WHERE role = ? ORDER BY id LIMIT 1`, models.RoleAdmin)
	if err != nil || !found {
		return nil, err
	}
	return &id, nil
}
