package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rongwang/cgtracker/internal/api"
	"github.com/rongwang/cgtracker/internal/backup"
	"github.com/rongwang/cgtracker/internal/config"
	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/repository"
	"github.com/rongwang/cgtracker/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Credentials of the seeded test accounts
const (
	AdminUsername = "admin"
	AdminPassword = "admin-password"
	UserUsername  = "clerk"
	UserPassword  = "clerk-password"
	PurgePassword = "purge-me"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	Config     *config.Config
	DB         *sqlx.DB
	AdminJWT   string
	UserJWT    string
}

// TestConfig returns a configuration backed by a fresh SQLite file and
// backup directory under t.TempDir()
func TestConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(dir, "cg_test.db"),
		},
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret-key",
			TokenTTLHours: 1,
			BcryptCost:    bcrypt.MinCost,
			AdminUsername: AdminUsername,
			AdminPassword: AdminPassword,
		},
		Backup: config.BackupConfig{
			Dir:                filepath.Join(dir, "backups"),
			RetentionDays:      30,
			AfternoonStartHour: 15,
			AfternoonEndHour:   16,
		},
		Maintenance: config.MaintenanceConfig{
			PurgePassword: PurgePassword,
		},
	}
}

// SetupTestContext creates a new test context with initialized dependencies,
// a seeded admin and a regular user, and a token for each
func SetupTestContext(t *testing.T) *TestContext {
	cfg := TestConfig(t)
	logger := zap.NewNop()

	// Set up database
	db, err := config.SetupDatabase(cfg, logger)
	require.NoError(t, err, "Failed to set up test database")
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLRepository(db)
	backups := backup.NewManager(cfg.Backup, repo, logger)

	svc := service.NewDefaultService(repo, cfg.Auth, logger,
		service.WithBackups(backups),
		service.WithPurgePassword(cfg.Maintenance.PurgePassword),
	)
	require.NoError(t, svc.EnsureAdmin(context.Background()))

	handler := api.NewHandler(svc, cfg.Auth.JWTSecret, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.SetupRoutes(router)

	tc := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Config:     cfg,
		DB:         db,
	}

	tc.AdminJWT = tc.Login(t, AdminUsername, AdminPassword)

	admin := tc.Actor(t, AdminUsername)
	_, err = svc.AddUser(context.Background(), admin, models.CreateUserRequest{
		Username: UserUsername,
		Password: UserPassword,
		Role:     models.RoleUser,
	})
	require.NoError(t, err, "Failed to create test user")
	tc.UserJWT = tc.Login(t, UserUsername, UserPassword)

	return tc
}

// Login logs in through the API and returns the token
func (tc *TestContext) Login(t *testing.T, username, password string) string {
	w := PerformRequest(tc.Router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Username: username, Password: password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// Actor returns the actor of an existing user
func (tc *TestContext) Actor(t *testing.T, username string) models.Actor {
	user, err := tc.Repository.GetUserByUsername(context.Background(), username)
	require.NoError(t, err)
	require.NotNil(t, user)
	return models.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeData unmarshals the data field of a success response into dest
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.Equal(t, "success", envelope.Status, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}
