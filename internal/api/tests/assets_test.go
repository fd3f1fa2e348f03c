package api_test

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/rongwang/cgtracker/internal/api/testutils"
	"github.com/rongwang/cgtracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func createEmployee(t *testing.T, testCtx *testutils.TestContext, name string) models.Employee {
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/employees",
		models.NameRequest{Name: name}, testutils.AuthHeaders(testCtx.UserJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var employee models.Employee
	testutils.DecodeData(t, w, &employee)
	return employee
}

func createAsset(t *testing.T, testCtx *testutils.TestContext, req models.RegisterAssetRequest) models.CapitalGood {
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets",
		req, testutils.AuthHeaders(testCtx.UserJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var asset models.CapitalGood
	testutils.DecodeData(t, w, &asset)
	return asset
}

func TestAssetLifecycle(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.UserJWT)

	alice := createEmployee(t, testCtx, "Alice")
	drill := createAsset(t, testCtx, models.RegisterAssetRequest{Code: "D-1", Name: "Drill"})
	assert.Equal(t, models.StatusAvailable, drill.Status)

	// Issue
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets/"+itoa(drill.ID)+"/issue",
		models.IssueRequest{EmployeeID: alice.ID}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Issue again is a conflict
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets/"+itoa(drill.ID)+"/issue",
		models.IssueRequest{EmployeeID: alice.ID}, headers)
	assert.Equal(t, http.StatusConflict, w.Code)
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "INVALID_STATE", errResp.Code)

	// Issued goods cannot be deleted
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/assets/"+itoa(drill.ID), nil, headers)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Allocation is listed
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/allocations?employeeId="+itoa(alice.ID), nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var allocations []models.Allocation
	testutils.DecodeData(t, w, &allocations)
	require.Len(t, allocations, 1)
	assert.Equal(t, drill.ID, allocations[0].AssetID)

	// Return with no body defaults to the issuing employee
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets/"+itoa(drill.ID)+"/return", nil, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ret models.Transaction
	testutils.DecodeData(t, w, &ret)
	require.NotNil(t, ret.EmployeeID)
	assert.Equal(t, alice.ID, *ret.EmployeeID)
	assert.Equal(t, "Good condition", ret.ConditionNotes)

	// History
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/assets/"+itoa(drill.ID)+"/transactions", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.Transaction
	testutils.DecodeData(t, w, &history)
	require.Len(t, history, 3)
	assert.Equal(t, models.TransactionAcquisition, history[0].Type)
	assert.Equal(t, models.TransactionIssue, history[1].Type)
	assert.Equal(t, models.TransactionReturn, history[2].Type)

	// Delete
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/assets/"+itoa(drill.ID), nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/assets/"+itoa(drill.ID), nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAssetValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.UserJWT)

	createAsset(t, testCtx, models.RegisterAssetRequest{Code: "X-1", Name: "Laptop"})

	// Duplicate code
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets",
		models.RegisterAssetRequest{Code: "X-1", Name: "Other"}, headers)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Missing name
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets",
		models.RegisterAssetRequest{Code: "X-2"}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown category
	missing := int64(999)
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets",
		models.RegisterAssetRequest{Name: "Desk", CategoryID: &missing}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad id
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/assets/abc", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad status filter
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/assets?status=Lost", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAssetsFilters(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.UserJWT)

	createAsset(t, testCtx, models.RegisterAssetRequest{Code: "CH-1", Name: "Chair"})
	createAsset(t, testCtx, models.RegisterAssetRequest{Name: "Chair"})
	createAsset(t, testCtx, models.RegisterAssetRequest{Code: "PR-1", Name: "Printer"})

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/assets?search=chair", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var assets []models.CapitalGood
	testutils.DecodeData(t, w, &assets)
	assert.Len(t, assets, 2)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/assets?search=pr-", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	testutils.DecodeData(t, w, &assets)
	require.Len(t, assets, 1)
	assert.Equal(t, "Printer", assets[0].Name)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/assets?status=Issued", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	testutils.DecodeData(t, w, &assets)
	assert.Empty(t, assets)
}

func TestBulkIssueAndReturn(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.UserJWT)

	bob := createEmployee(t, testCtx, "Bob")
	a := createAsset(t, testCtx, models.RegisterAssetRequest{Code: "B-1", Name: "Monitor"})
	b := createAsset(t, testCtx, models.RegisterAssetRequest{Code: "B-2", Name: "Keyboard"})

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets/bulk-issue",
		models.BulkIssueRequest{AssetIDs: []int64{a.ID, b.ID, 999}, EmployeeID: bob.ID}, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.BulkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp.Status)
	assert.Equal(t, 2, resp.Result.SucceededCount)
	require.Len(t, resp.Result.Failures, 1)
	assert.Equal(t, int64(999), resp.Result.Failures[0].AssetID)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets/bulk-return",
		models.BulkReturnRequest{AssetIDs: []int64{a.ID, b.ID}, ConditionNotes: "scratched"}, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 2, resp.Result.SucceededCount)

	// Empty selection
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/assets/bulk-issue",
		models.BulkIssueRequest{AssetIDs: []int64{}, EmployeeID: bob.ID}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionLogRange(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.UserJWT)

	createAsset(t, testCtx, models.RegisterAssetRequest{Code: "T-1", Name: "Tablet"})

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/transactions", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.TransactionLogEntry
	testutils.DecodeData(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, models.TransactionAcquisition, entries[0].Type)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/transactions?end=2000-01-01", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	testutils.DecodeData(t, w, &entries)
	assert.Empty(t, entries)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/transactions?start=2030-01-02&end=2030-01-01", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/transactions?start=yesterday", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
