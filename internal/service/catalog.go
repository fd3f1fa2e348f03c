package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/repository"
)

// AutoReturnNotesPrefix starts the notes of the Return entries written when an employee is deleted
const AutoReturnNotesPrefix = "Auto-returned due to employee deletion: "

func (s *DefaultService) AddCategory(ctx context.Context, actor models.Actor, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("category name is required")
	}

	category := &models.Category{Name: name}
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		existing, err := tx.GetCategoryByName(ctx, name)
		if err != nil {
			return storageError("look up category", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: category '%s' already exists", ErrDuplicateName, name)
		}
		if err := tx.CreateCategory(ctx, category); err != nil {
			return storageError("create category", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("add category", err)
	}

	s.logActivity(ctx, actor, models.ActionCategoryAdded, fmt.Sprintf("Added category '%s'", name))
	return category, nil
}

func (s *DefaultService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, storageError("list categories", err)
	}
	return categories, nil
}

// DeleteCategory moves the category's assets to the "Unassigned Category",
// creating it on first use, and then deletes the category. Deleting the
// unassigned category itself leaves its assets without a category.
func (s *DefaultService) DeleteCategory(ctx context.Context, actor models.Actor, categoryID int64) error {
	var (
		category *models.Category
		moved    int64
	)

	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		var err error
		category, err = tx.GetCategory(ctx, categoryID)
		if err != nil {
			return storageError("get category", err)
		}
		if category == nil {
			return notFoundError("category %d not found", categoryID)
		}

		var target *int64
		if category.Name != models.UnassignedCategoryName {
			unassigned, err := tx.GetCategoryByName(ctx, models.UnassignedCategoryName)
			if err != nil {
				return storageError("look up unassigned category", err)
			}
			if unassigned == nil {
				unassigned = &models.Category{Name: models.UnassignedCategoryName}
				if err := tx.CreateCategory(ctx, unassigned); err != nil {
					return storageError("create unassigned category", err)
				}
			}
			target = &unassigned.ID
		}

		moved, err = tx.ReassignCategory(ctx, category.ID, target)
		if err != nil {
			return storageError("reassign category", err)
		}
		if err := tx.DeleteCategory(ctx, category.ID); err != nil {
			return storageError("delete category", err)
		}
		return nil
	})
	if err != nil {
		return storageError("delete category", err)
	}

	s.logActivity(ctx, actor, models.ActionCategoryDeleted,
		fmt.Sprintf("Deleted category '%s', %d C.G.s moved to '%s'", category.Name, moved, models.UnassignedCategoryName))
	return nil
}

func (s *DefaultService) AddEmployee(ctx context.Context, actor models.Actor, name string) (*models.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("employee name is required")
	}

	employee := &models.Employee{Name: name}
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		existing, err := tx.GetEmployeeByName(ctx, name)
		if err != nil {
			return storageError("look up employee", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: employee '%s' already exists", ErrDuplicateName, name)
		}
		if err := tx.CreateEmployee(ctx, employee); err != nil {
			return storageError("create employee", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("add employee", err)
	}

	s.logActivity(ctx, actor, models.ActionEmployeeAdded, fmt.Sprintf("Added employee '%s'", name))
	return employee, nil
}

func (s *DefaultService) ListEmployees(ctx context.Context, search string) ([]models.Employee, error) {
	employees, err := s.repo.ListEmployees(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, storageError("list employees", err)
	}
	return employees, nil
}

func (s *DefaultService) GetEmployee(ctx context.Context, employeeID int64) (*models.Employee, error) {
	employee, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, storageError("get employee", err)
	}
	if employee == nil {
		return nil, notFoundError("employee %d not found", employeeID)
	}
	return employee, nil
}

// EmployeeAssets lists the assets currently issued to the employee
func (s *DefaultService) EmployeeAssets(ctx context.Context, employeeID int64) ([]models.CapitalGood, error) {
	if _, err := s.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	assets, err := s.repo.AssetsIssuedTo(ctx, employeeID)
	if err != nil {
		return nil, storageError("list employee assets", err)
	}
	return assets, nil
}

// DeleteEmployee force-returns every asset currently issued to the
// employee, clears the employee from the ledger history and deletes the
// employee, all in one transaction. It returns the number of assets returned.
func (s *DefaultService) DeleteEmployee(ctx context.Context, actor models.Actor, employeeID int64) (int, error) {
	var (
		employee *models.Employee
		returned int
	)

	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		var err error
		employee, err = tx.GetEmployee(ctx, employeeID)
		if err != nil {
			return storageError("get employee", err)
		}
		if employee == nil {
			return notFoundError("employee %d not found", employeeID)
		}

		issued, err := tx.AssetsIssuedTo(ctx, employee.ID)
		if err != nil {
			return storageError("list issued assets", err)
		}

		systemUser, err := tx.FirstAdminID(ctx)
		if err != nil {
			return storageError("look up system user", err)
		}

		notes := AutoReturnNotesPrefix + employee.Name
		for _, asset := range issued {
			if err := tx.SetAssetStatus(ctx, asset.ID, models.StatusAvailable); err != nil {
				return storageError("set asset status", err)
			}

			txn := &models.Transaction{
				AssetID:        asset.ID,
				EmployeeID:     &employee.ID,
				Type:           models.TransactionReturn,
				Timestamp:      s.now(),
				ConditionNotes: notes,
				LoggedByUserID: systemUser,
			}
			if err := tx.AddTransaction(ctx, txn); err != nil {
				return storageError("record auto-return", err)
			}
			returned++
		}

		if _, err := tx.DetachEmployeeTransactions(ctx, employee.ID); err != nil {
			return storageError("detach employee transactions", err)
		}
		if err := tx.DeleteEmployee(ctx, employee.ID); err != nil {
			return storageError("delete employee", err)
		}
		return nil
	})
	if err != nil {
		return 0, storageError("delete employee", err)
	}

	s.logActivity(ctx, actor, models.ActionEmployeeDeleted,
		fmt.Sprintf("Deleted employee '%s', %d issued C.G.s returned", employee.Name, returned))
	return returned, nil
}
