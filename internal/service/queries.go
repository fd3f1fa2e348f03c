package service

import (
	"context"
	"strings"
	"time"

	"github.com/rongwang/cgtracker/internal/models"
)

// recentActivityLimit is the number of activity rows shown on the dashboard
const recentActivityLimit = 50

func (s *DefaultService) ListAssets(ctx context.Context, filter models.AssetFilter) ([]models.CapitalGood, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationError("unknown status %q", filter.Status)
	}
	filter.Search = strings.TrimSpace(filter.Search)

	assets, err := s.repo.ListAssets(ctx, filter)
	if err != nil {
		return nil, storageError("list assets", err)
	}
	return assets, nil
}

func (s *DefaultService) GetAsset(ctx context.Context, assetID int64) (*models.CapitalGood, error) {
	asset, err := s.repo.GetAsset(ctx, assetID)
	if err != nil {
		return nil, storageError("get asset", err)
	}
	if asset == nil {
		return nil, notFoundError("C.G. %d not found", assetID)
	}
	return asset, nil
}

// AssetHistory returns the ledger of one asset in the order it was written
func (s *DefaultService) AssetHistory(ctx context.Context, assetID int64) ([]models.Transaction, error) {
	if _, err := s.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}

	txns, err := s.repo.ListAssetTransactions(ctx, assetID)
	if err != nil {
		return nil, storageError("list asset transactions", err)
	}
	return txns, nil
}

func (s *DefaultService) ListAllocations(ctx context.Context, filter models.AllocationFilter) ([]models.Allocation, error) {
	allocations, err := s.repo.ListAllocations(ctx, filter)
	if err != nil {
		return nil, storageError("list allocations", err)
	}
	return allocations, nil
}

// ListTransactionLog returns ledger entries newest first within the
// inclusive bounds. A nil bound is open.
func (s *DefaultService) ListTransactionLog(ctx context.Context, start, end *time.Time) ([]models.TransactionLogEntry, error) {
	if start != nil && end != nil && start.After(*end) {
		return nil, validationError("start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	entries, err := s.repo.ListTransactionLog(ctx, start, end)
	if err != nil {
		return nil, storageError("list transaction log", err)
	}
	return entries, nil
}

func (s *DefaultService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	counts, err := s.repo.CountAssets(ctx)
	if err != nil {
		return nil, storageError("count assets", err)
	}

	activity, err := s.repo.ListActivity(ctx, recentActivityLimit)
	if err != nil {
		return nil, storageError("list activity", err)
	}

	return &models.Dashboard{
		Counts:         *counts,
		RecentActivity: activity,
	}, nil
}

// ListActivity returns the newest activity entries; limit <= 0 returns all
func (s *DefaultService) ListActivity(ctx context.Context, limit int) ([]models.ActivityLogEntry, error) {
	entries, err := s.repo.ListActivity(ctx, limit)
	if err != nil {
		return nil, storageError("list activity", err)
	}
	return entries, nil
}
