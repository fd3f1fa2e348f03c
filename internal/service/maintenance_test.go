package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rongwang/cgtracker/internal/backup"
	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/repository"
	"github.com/rongwang/cgtracker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackups struct {
	backups   []string
	scheduled []backup.Result
	backupErr error
	removed   bool
}

func (f *fakeBackups) Backup(ctx context.Context, kind string) (string, error) {
	if f.backupErr != nil {
		return "", f.backupErr
	}
	name := fmt.Sprintf("cg_management_%d.db", len(f.backups)+1)
	f.backups = append(f.backups, name)
	return name, nil
}

func (f *fakeBackups) RunScheduled(ctx context.Context) ([]backup.Result, error) {
	results := f.scheduled
	f.scheduled = nil
	return results, nil
}

func (f *fakeBackups) List() ([]backup.Info, error) {
	infos := []backup.Info{}
	for _, name := range f.backups {
		infos = append(infos, backup.Info{Name: name})
	}
	return infos, nil
}

func (f *fakeBackups) RemoveAll() error {
	f.removed = true
	f.backups = nil
	return nil
}

func TestCreateBackup(t *testing.T) {
	fake := &fakeBackups{}
	env := newTestEnv(t, service.WithBackups(fake))

	_, err := env.svc.CreateBackup(env.ctx, env.clerk)
	assert.ErrorIs(t, err, service.ErrForbidden)

	name, err := env.svc.CreateBackup(env.ctx, env.admin)
	require.NoError(t, err)
	assert.Equal(t, "cg_management_1.db", name)

	infos, err := env.svc.ListBackups(env.ctx, env.admin)
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	entries, err := env.svc.ListActivity(env.ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionBackupCreated, entries[0].Action)
	assert.Equal(t, "Manual backup created: cg_management_1.db", entries[0].Details)
}

func TestCreateBackupErrors(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateBackup(env.ctx, env.admin)
	assert.ErrorIs(t, err, service.ErrValidation)

	fake := &fakeBackups{backupErr: fmt.Errorf("snapshot database: %w", repository.ErrSnapshotUnsupported)}
	env = newTestEnv(t, service.WithBackups(fake))
	_, err = env.svc.CreateBackup(env.ctx, env.admin)
	assert.ErrorIs(t, err, service.ErrValidation)

	fake.backupErr = errors.New("disk full")
	_, err = env.svc.CreateBackup(env.ctx, env.admin)
	assert.ErrorIs(t, err, service.ErrStorage)
}

func TestLoginRunsScheduledBackups(t *testing.T) {
	fake := &fakeBackups{scheduled: []backup.Result{
		{Kind: backup.KindMorning, Name: "cg_management_20240301_090000.db"},
	}}
	env := newTestEnv(t, service.WithBackups(fake))

	_, err := env.svc.Login(env.ctx, models.LoginRequest{Username: "clerk", Password: "clerk-password"})
	require.NoError(t, err)

	entries, err := env.svc.ListActivity(env.ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionBackupCreated, entries[0].Action)
	assert.Equal(t, "Automated 'morning' backup created: cg_management_20240301_090000.db", entries[0].Details)
	assert.Equal(t, models.ActionLogin, entries[1].Action)
}

func TestPurge(t *testing.T) {
	fake := &fakeBackups{backups: []string{"cg_management_1.db"}}
	env := newTestEnv(t, service.WithBackups(fake), service.WithPurgePassword("confirm"))

	drill := env.register(t, "D-1", "Drill", nil)
	alice := env.employee(t, "Alice")
	_, err := env.svc.IssueAsset(env.ctx, env.clerk, drill.ID, alice.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.Purge(env.ctx, env.clerk, "confirm"), service.ErrForbidden)
	assert.ErrorIs(t, env.svc.Purge(env.ctx, env.admin, "wrong"), service.ErrUnauthorized)

	assets, err := env.svc.ListAssets(env.ctx, models.AssetFilter{})
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	require.NoError(t, env.svc.Purge(env.ctx, env.admin, "confirm"))
	assert.True(t, fake.removed)

	assets, err = env.svc.ListAssets(env.ctx, models.AssetFilter{})
	require.NoError(t, err)
	assert.Empty(t, assets)

	employees, err := env.svc.ListEmployees(env.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, employees)

	admin := env.actor(t, "admin")
	users, err := env.svc.ListUsers(env.ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)

	entries, err := env.svc.ListActivity(env.ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionDataPurged, entries[0].Action)
}

func TestPurgeDisabledWithoutPassword(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.svc.Purge(env.ctx, env.admin, ""), service.ErrForbidden)
}
