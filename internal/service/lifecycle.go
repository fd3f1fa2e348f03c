package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/repository"
)

// Ledger notes written by the lifecycle operations
const (
	AcquisitionNotes   = "New C.G. acquired"
	IssueNotes         = "Issued to employee"
	DefaultReturnNotes = "Good condition"
)

// normalizeCode trims the code; a blank code is stored as NULL so that
// any number of assets may go without one.
func normalizeCode(code string) *string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &code
}

// checkCode rejects a code used by an asset other than selfID
func checkCode(ctx context.Context, tx repository.Repository, code *string, selfID int64) error {
	if code == nil {
		return nil
	}

	existing, err := tx.GetAssetByCode(ctx, *code)
	if err != nil {
		return storageError("look up asset code", err)
	}
	if existing != nil && existing.ID != selfID {
		return fmt.Errorf("%w: C.G. code '%s' already exists, use a unique code or leave it blank", ErrDuplicateCode, *code)
	}
	return nil
}

// checkCategory rejects a category id that does not exist. Nil leaves the asset unassigned.
func checkCategory(ctx context.Context, tx repository.Repository, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}

	category, err := tx.GetCategory(ctx, *categoryID)
	if err != nil {
		return storageError("look up category", err)
	}
	if category == nil {
		return validationError("invalid category selection: category %d does not exist", *categoryID)
	}
	return nil
}

func (s *DefaultService) RegisterAsset(
	ctx context.Context,
	actor models.Actor,
	req models.RegisterAssetRequest,
) (*models.CapitalGood, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("C.G. name is required")
	}
	code := normalizeCode(req.Code)

	var asset *models.CapitalGood
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := checkCode(ctx, tx, code, 0); err != nil {
			return err
		}
		if err := checkCategory(ctx, tx, req.CategoryID); err != nil {
			return err
		}

		now := s.now()
		created := &models.CapitalGood{
			Code:            code,
			Name:            name,
			Description:     strings.TrimSpace(req.Description),
			Status:          models.StatusAvailable,
			AcquisitionDate: now,
			CategoryID:      req.CategoryID,
		}
		if err := tx.CreateAsset(ctx, created); err != nil {
			return storageError("create asset", err)
		}

		acquisition := &models.Transaction{
			AssetID:        created.ID,
			Type:           models.TransactionAcquisition,
			Timestamp:      now,
			ConditionNotes: AcquisitionNotes,
			LoggedByUserID: actorRef(actor),
		}
		if err := tx.AddTransaction(ctx, acquisition); err != nil {
			return storageError("record acquisition", err)
		}

		var err error
		asset, err = tx.GetAsset(ctx, created.ID)
		if err != nil {
			return storageError("reload asset", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("register asset", err)
	}

	s.logActivity(ctx, actor, models.ActionAssetRegistered,
		fmt.Sprintf("Registered C.G. '%s' (%s)", asset.Label(), asset.Name))

	return asset, nil
}

func (s *DefaultService) UpdateAsset(
	ctx context.Context,
	actor models.Actor,
	assetID int64,
	req models.UpdateAssetRequest,
) (*models.CapitalGood, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("C.G. name is required")
	}
	code := normalizeCode(req.Code)

	var asset *models.CapitalGood
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		existing, err := tx.GetAsset(ctx, assetID)
		if err != nil {
			return storageError("get asset", err)
		}
		if existing == nil {
			return notFoundError("C.G. %d not found", assetID)
		}

		if err := checkCode(ctx, tx, code, assetID); err != nil {
			return err
		}
		if err := checkCategory(ctx, tx, req.CategoryID); err != nil {
			return err
		}

		existing.Code = code
		existing.Name = name
		existing.Description = strings.TrimSpace(req.Description)
		existing.CategoryID = req.CategoryID
		if err := tx.UpdateAsset(ctx, existing); err != nil {
			return storageError("update asset", err)
		}

		asset, err = tx.GetAsset(ctx, assetID)
		if err != nil {
			return storageError("reload asset", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("update asset", err)
	}

	s.logActivity(ctx, actor, models.ActionAssetUpdated,
		fmt.Sprintf("Updated C.G. '%s' (%s)", asset.Label(), asset.Name))

	return asset, nil
}

// IssueAsset assigns an Available asset to an employee. The status change
// and the Issue ledger entry commit together.
func (s *DefaultService) IssueAsset(
	ctx context.Context,
	actor models.Actor,
	assetID int64,
	employeeID int64,
) (*models.Transaction, error) {
	var (
		txn      *models.Transaction
		asset    *models.CapitalGood
		employee *models.Employee
	)

	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		var err error
		asset, err = tx.GetAsset(ctx, assetID)
		if err != nil {
			return storageError("get asset", err)
		}
		if asset == nil {
			return notFoundError("C.G. %d not found", assetID)
		}
		if asset.Status != models.StatusAvailable {
			return invalidStateError("C.G. '%s' is not available for issue. Current status: %s",
				asset.Label(), asset.Status)
		}

		employee, err = tx.GetEmployee(ctx, employeeID)
		if err != nil {
			return storageError("get employee", err)
		}
		if employee == nil {
			return notFoundError("employee %d not found", employeeID)
		}

		if err := tx.SetAssetStatus(ctx, asset.ID, models.StatusIssued); err != nil {
			return storageError("set asset status", err)
		}

		txn = &models.Transaction{
			AssetID:        asset.ID,
			EmployeeID:     &employee.ID,
			Type:           models.TransactionIssue,
			Timestamp:      s.now(),
			ConditionNotes: IssueNotes,
			LoggedByUserID: actorRef(actor),
		}
		if err := tx.AddTransaction(ctx, txn); err != nil {
			return storageError("record issue", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("issue asset", err)
	}

	s.logActivity(ctx, actor, models.ActionAssetIssued,
		fmt.Sprintf("Issued C.G. '%s' (%s) to '%s'", asset.Label(), asset.Name, employee.Name))

	return txn, nil
}

// ReturnAsset takes an Issued asset back. An employeeID of 0 records the
// return against the employee of the asset's latest Issue entry.
func (s *DefaultService) ReturnAsset(
	ctx context.Context,
	actor models.Actor,
	assetID int64,
	employeeID int64,
	conditionNotes string,
) (*models.Transaction, error) {
	notes := strings.TrimSpace(conditionNotes)
	if notes == "" {
		notes = DefaultReturnNotes
	}

	var (
		txn          *models.Transaction
		asset        *models.CapitalGood
		employeeName = "unknown employee"
	)

	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		var err error
		asset, err = tx.GetAsset(ctx, assetID)
		if err != nil {
			return storageError("get asset", err)
		}
		if asset == nil {
			return notFoundError("C.G. %d not found", assetID)
		}
		if asset.Status != models.StatusIssued {
			return invalidStateError("C.G. '%s' is not currently issued. Current status: %s",
				asset.Label(), asset.Status)
		}

		var returnedBy *int64
		if employeeID != 0 {
			returnedBy = &employeeID
		} else {
			lastIssue, err := tx.LatestTransaction(ctx, asset.ID, models.TransactionIssue)
			if err != nil {
				return storageError("get latest issue", err)
			}
			if lastIssue != nil {
				returnedBy = lastIssue.EmployeeID
			}
		}

		if returnedBy != nil {
			employee, err := tx.GetEmployee(ctx, *returnedBy)
			if err != nil {
				return storageError("get employee", err)
			}
			if employee == nil {
				return notFoundError("employee %d not found", *returnedBy)
			}
			employeeName = employee.Name
		}

		if err := tx.SetAssetStatus(ctx, asset.ID, models.StatusAvailable); err != nil {
			return storageError("set asset status", err)
		}

		txn = &models.Transaction{
			AssetID:        asset.ID,
			EmployeeID:     returnedBy,
			Type:           models.TransactionReturn,
			Timestamp:      s.now(),
			ConditionNotes: notes,
			LoggedByUserID: actorRef(actor),
		}
		if err := tx.AddTransaction(ctx, txn); err != nil {
			return storageError("record return", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("return asset", err)
	}

	s.logActivity(ctx, actor, models.ActionAssetReturned,
		fmt.Sprintf("C.G. '%s' (%s) returned by '%s': %s", asset.Label(), asset.Name, employeeName, notes))

	return txn, nil
}

// DeleteAsset removes an Available asset together with its whole ledger history
func (s *DefaultService) DeleteAsset(ctx context.Context, actor models.Actor, assetID int64) error {
	var asset *models.CapitalGood

	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		var err error
		asset, err = tx.GetAsset(ctx, assetID)
		if err != nil {
			return storageError("get asset", err)
		}
		if asset == nil {
			return notFoundError("C.G. %d not found", assetID)
		}
		if asset.Status == models.StatusIssued {
			return invalidStateError("cannot delete C.G. '%s' while Issued", asset.Label())
		}

		if _, err := tx.DeleteAssetTransactions(ctx, asset.ID); err != nil {
			return storageError("delete asset transactions", err)
		}
		if err := tx.DeleteAsset(ctx, asset.ID); err != nil {
			return storageError("delete asset", err)
		}
		return nil
	})
	if err != nil {
		return storageError("delete asset", err)
	}

	s.logActivity(ctx, actor, models.ActionAssetDeleted,
		fmt.Sprintf("Deleted C.G. '%s' (%s) and its transactions", asset.Label(), asset.Name))

	return nil
}

// BulkIssue issues each asset independently; one failure does not stop the others
func (s *DefaultService) BulkIssue(
	ctx context.Context,
	actor models.Actor,
	assetIDs []int64,
	employeeID int64,
) (*models.BulkResult, error) {
	if len(assetIDs) == 0 {
		return nil, validationError("select at least one C.G. to issue")
	}

	return runBulk(assetIDs, func(assetID int64) error {
		_, err := s.IssueAsset(ctx, actor, assetID, employeeID)
		return err
	}), nil
}

// BulkReturn returns each asset independently; one failure does not stop the others
func (s *DefaultService) BulkReturn(
	ctx context.Context,
	actor models.Actor,
	assetIDs []int64,
	employeeID int64,
	conditionNotes string,
) (*models.BulkResult, error) {
	if len(assetIDs) == 0 {
		return nil, validationError("select at least one C.G. to return")
	}

	return runBulk(assetIDs, func(assetID int64) error {
		_, err := s.ReturnAsset(ctx, actor, assetID, employeeID, conditionNotes)
		return err
	}), nil
}

func runBulk(assetIDs []int64, apply func(assetID int64) error) *models.BulkResult {
	result := &models.BulkResult{Failures: []models.BulkFailure{}}
	for _, id := range assetIDs {
		if err := apply(id); err != nil {
			result.Failures = append(result.Failures, models.BulkFailure{
				AssetID: id,
				Error:   err.Error(),
				Err:     err,
			})
			continue
		}
		result.SucceededCount++
	}
	return result
}
