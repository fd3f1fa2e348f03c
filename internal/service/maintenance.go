package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/rongwang/cgtracker/internal/backup"
	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/repository"
	"go.uber.org/zap"
)

// CreateBackup takes a manual backup and returns its file name
func (s *DefaultService) CreateBackup(ctx context.Context, actor models.Actor) (string, error) {
	if err := requireAdmin(actor); err != nil {
		return "", err
	}
	if s.backups == nil {
		return "", validationError("backups are not configured")
	}

	name, err := s.backups.Backup(ctx, backup.KindManual)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotUnsupported) {
			return "", validationError("%v", err)
		}
		return "", storageError("create backup", err)
	}

	s.logActivity(ctx, actor, models.ActionBackupCreated, fmt.Sprintf("Manual backup created: %s", name))
	return name, nil
}

func (s *DefaultService) ListBackups(ctx context.Context, actor models.Actor) ([]backup.Info, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if s.backups == nil {
		return []backup.Info{}, nil
	}

	infos, err := s.backups.List()
	if err != nil {
		return nil, storageError("list backups", err)
	}
	return infos, nil
}

// runScheduledBackups takes any scheduled backup that is due. Failures
// are logged only; they never block the login that triggered them.
func (s *DefaultService) runScheduledBackups(ctx context.Context, actor models.Actor) {
	if s.backups == nil {
		return
	}

	results, err := s.backups.RunScheduled(ctx)
	for _, r := range results {
		s.logActivity(ctx, actor, models.ActionBackupCreated,
			fmt.Sprintf("Automated '%s' backup created: %s", r.Kind, r.Name))
	}
	if err != nil {
		s.logger.Warn("scheduled backup failed", zap.Error(err))
	}
}

// RecordExport writes the activity entry of a completed export
func (s *DefaultService) RecordExport(ctx context.Context, actor models.Actor, details string) {
	s.logActivity(ctx, actor, models.ActionDatabaseExported, details)
}

// Purge deletes all data and backups, then seeds the admin account again
func (s *DefaultService) Purge(ctx context.Context, actor models.Actor, password string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if s.purgePassword == "" {
		return fmt.Errorf("%w: data purge is disabled", ErrForbidden)
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.purgePassword)) != 1 {
		return fmt.Errorf("%w: incorrect password, data not deleted", ErrUnauthorized)
	}

	if err := s.repo.Purge(ctx); err != nil {
		return storageError("purge data", err)
	}
	if s.backups != nil {
		if err := s.backups.RemoveAll(); err != nil {
			return storageError("remove backups", err)
		}
	}
	if err := s.EnsureAdmin(ctx); err != nil {
		return err
	}

	s.logger.Warn("all application data purged", zap.String("by", actor.Username))

	admin, err := s.repo.GetUserByUsername(ctx, s.auth.AdminUsername)
	if err == nil && admin != nil {
		s.logActivity(ctx, models.Actor{UserID: admin.ID, Username: admin.Username, Role: admin.Role},
			models.ActionDataPurged, fmt.Sprintf("All data and backups deleted by %s", actor.Username))
	}
	return nil
}
