package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rongwang/cgtracker/internal/config"
	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/repository"
	"github.com/rongwang/cgtracker/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	ctx   context.Context
	repo  repository.Repository
	svc   service.Service
	admin models.Actor
	clerk models.Actor
}

// stepClock returns a clock that advances one second per call
func stepClock() func() time.Time {
	current := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTLHours: 1,
		BcryptCost:    bcrypt.MinCost,
		AdminUsername: "admin",
		AdminPassword: "admin-password",
	}
}

func newTestEnv(t *testing.T, opts ...service.Option) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "service_test.db"),
		},
	}
	db, err := config.SetupDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLRepository(db)
	opts = append([]service.Option{service.WithClock(stepClock())}, opts...)
	svc := service.NewDefaultService(repo, testAuthConfig(), zap.NewNop(), opts...)

	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx))

	env := &testEnv{ctx: ctx, repo: repo, svc: svc}
	env.admin = env.actor(t, "admin")

	_, err = svc.AddUser(ctx, env.admin, models.CreateUserRequest{Username: "clerk", Password: "clerk-password"})
	require.NoError(t, err)
	env.clerk = env.actor(t, "clerk")

	return env
}

func (e *testEnv) actor(t *testing.T, username string) models.Actor {
	t.Helper()
	user, err := e.repo.GetUserByUsername(e.ctx, username)
	require.NoError(t, err)
	require.NotNil(t, user)
	return models.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}
}

func (e *testEnv) register(t *testing.T, code, name string, categoryID *int64) *models.CapitalGood {
	t.Helper()
	asset, err := e.svc.RegisterAsset(e.ctx, e.clerk, models.RegisterAssetRequest{
		Code:       code,
		Name:       name,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return asset
}

func (e *testEnv) employee(t *testing.T, name string) *models.Employee {
	t.Helper()
	employee, err := e.svc.AddEmployee(e.ctx, e.clerk, name)
	require.NoError(t, err)
	return employee
}

// requireConsistent checks that every asset's status matches its latest ledger entry
func (e *testEnv) requireConsistent(t *testing.T) {
	t.Helper()
	assets, err := e.svc.ListAssets(e.ctx, models.AssetFilter{})
	require.NoError(t, err)

	for _, asset := range assets {
		latest, err := e.repo.LatestTransaction(e.ctx, asset.ID, "")
		require.NoError(t, err)
		require.NotNil(t, latest, "asset %d has no ledger entries", asset.ID)
		require.Equal(t, latest.Type.ResultingStatus(), asset.Status, "asset %d", asset.ID)
	}
}

func (e *testEnv) history(t *testing.T, assetID int64) []models.Transaction {
	t.Helper()
	txns, err := e.svc.AssetHistory(e.ctx, assetID)
	require.NoError(t, err)
	return txns
}
