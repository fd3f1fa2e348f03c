package repository

import (
	"context"

	"github.com/rongwang/cgtracker/internal/models"
)

// Category repository methods
func (r *SQLRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	id, err := r.insert(ctx, `INSERT INTO categories (name) VALUES (?) RETURNING id`, category.Name)
	if err != nil {
		return err
	}
	category.ID = id
	return nil
}

func (r *SQLRepository) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	found, err := r.get(ctx, &category, `SELECT id, name FROM categories WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &category, nil
}

func (r *SQLRepository) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	found, err := r.get(ctx, &category, `SELECT id, name FROM categories WHERE name = ?`, name)
	if err != nil || !found {
		return nil, err
	}
	return &category, nil
}

func (r *SQLRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := r.selectAll(ctx, &categories, `SELECT id, name FROM categories ORDER BY name`); err != nil {
		return nil, err
	}
	return categories, nil
}

// ReassignCategory moves every asset of fromID to toID (nil clears the
// category) and returns the number of assets moved.
func (r *SQLRepository) ReassignCategory(ctx context.Context, fromID int64, toID *int64) (int64, error) {
	return r.exec(ctx, `UPDATE capital_goods SET category_id = ? WHERE category_id = ?`, toID, fromID)
}

func (r *SQLRepository) DeleteCategory(ctx context.Context, id int64) error {
	_, err := r.exec(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// Employee repository methods
func (r *SQLRepository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	id, err := r.insert(ctx, `INSERT INTO employees (name) VALUES (?) RETURNING id`, employee.Name)
	if err != nil {
		return err
	}
	employee.ID = id
	return nil
}

func (r *SQLRepository) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	var employee models.Employee
	found, err := r.get(ctx, &employee, `SELECT id, name FROM employees WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &employee, nil
}

func (r *SQLRepository) GetEmployeeByName(ctx context.Context, name string) (*models.Employee, error) {
	var employee models.Employee
	found, err := r.get(ctx, &employee, `SELECT id, name FROM employees WHERE name = ?`, name)
	if err != nil || !found {
		return nil, err
	}
	return &employee, nil
}

func (r *SQLRepository) ListEmployees(ctx context.Context, search string) ([]models.Employee, error) {
	query := `SELECT id, name FROM employees`
	args := []interface{}{}

	if search != "" {
		query += ` WHERE LOWER(name) LIKE LOWER(?)`
		args = append(args, likePattern(search))
	}
	query += ` ORDER BY name`

	employees := []models.Employee{}
	if err := r.selectAll(ctx, &employees, query, args...); err != nil {
		return nil, err
	}
	return employees, nil
}

// DetachEmployeeTransactions clears the employee reference of every ledger
// row naming the employee. The rows themselves are kept.
func (r *SQLRepository) DetachEmployeeTransactions(ctx context.Context, employeeID int64) (int64, error) {
	return r.exec(ctx, `UPDATE cg_transactions SET employee_id = NULL WHERE employee_id = ?`, employeeID)
}

func (r *SQLRepository) DeleteEmployee(ctx context.Context, id int64) error {
	_, err := r.exec(ctx, `DELETE FROM employees WHERE id = ?`, id)
	return err
}
