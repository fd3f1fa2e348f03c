package service_test

import (
	"testing"

	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrillIssuedToAliceAndReturned(t *testing.T) {
	env := newTestEnv(t)

	tools, err := env.svc.AddCategory(env.ctx, env.clerk, "Tools")
	require.NoError(t, err)
	drill := env.register(t, "A1", "Drill", &tools.ID)
	alice := env.employee(t, "Alice")

	assert.Equal(t, models.StatusAvailable, drill.Status)
	require.NotNil(t, drill.Code)
	assert.Equal(t, "A1", *drill.Code)
	history := env.history(t, drill.ID)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionAcquisition, history[0].Type)
	assert.Equal(t, service.AcquisitionNotes, history[0].ConditionNotes)
	assert.Nil(t, history[0].EmployeeID)

	issue, err := env.svc.IssueAsset(env.ctx, env.clerk, drill.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionIssue, issue.Type)
	require.NotNil(t, issue.LoggedByUserID)
	assert.Equal(t, env.clerk.UserID, *issue.LoggedByUserID)

	got, err := env.svc.GetAsset(env.ctx, drill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIssued, got.Status)

	allocations, err := env.svc.ListAllocations(env.ctx, models.AllocationFilter{})
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	require.NotNil(t, allocations[0].EmployeeName)
	assert.Equal(t, "Alice", *allocations[0].EmployeeName)
	require.NotNil(t, allocations[0].AssetCode)
	assert.Equal(t, "A1", *allocations[0].AssetCode)
	require.NotNil(t, allocations[0].CategoryName)
	assert.Equal(t, "Tools", *allocations[0].CategoryName)
	assert.Equal(t, issue.ID, allocations[0].TransactionID)

	ret, err := env.svc.ReturnAsset(env.ctx, env.clerk, drill.ID, alice.ID, "  ")
	require.NoError(t, err)
	assert.Equal(t, service.DefaultReturnNotes, ret.ConditionNotes)

	got, err = env.svc.GetAsset(env.ctx, drill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, got.Status)

	history = env.history(t, drill.ID)
	require.Len(t, history, 3)
	assert.Equal(t, []models.TransactionType{
		models.TransactionAcquisition, models.TransactionIssue, models.TransactionReturn,
	}, []models.TransactionType{history[0].Type, history[1].Type, history[2].Type})

	allocations, err = env.svc.ListAllocations(env.ctx, models.AllocationFilter{})
	require.NoError(t, err)
	assert.Empty(t, allocations)

	log, err := env.svc.ListTransactionLog(env.ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Equal(t, models.TransactionReturn, log[0].Type)
	assert.Equal(t, models.TransactionAcquisition, log[2].Type)

	env.requireConsistent(t)
}

func TestTwoChairsWithoutCode(t *testing.T) {
	env := newTestEnv(t)

	first := env.register(t, "", "Chair", nil)
	second := env.register(t, "   ", "Chair", nil)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Nil(t, first.Code)
	assert.Nil(t, second.Code)
	assert.Equal(t, "N/A", second.Label())

	assets, err := env.svc.ListAssets(env.ctx, models.AssetFilter{Search: "chair"})
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}

func TestRegisterDuplicateCodeLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "X-1", "Laptop", nil)

	_, err := env.svc.RegisterAsset(env.ctx, env.clerk, models.RegisterAssetRequest{Code: " X-1 ", Name: "Other"})
	assert.ErrorIs(t, err, service.ErrDuplicateCode)

	assets, err := env.svc.ListAssets(env.ctx, models.AssetFilter{})
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	log, err := env.svc.ListTransactionLog(env.ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, log, 1)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RegisterAsset(env.ctx, env.clerk, models.RegisterAssetRequest{Name: "  "})
	assert.ErrorIs(t, err, service.ErrValidation)

	missing := int64(42)
	_, err = env.svc.RegisterAsset(env.ctx, env.clerk, models.RegisterAssetRequest{Name: "Desk", CategoryID: &missing})
	assert.ErrorIs(t, err, service.ErrValidation)

	assets, err := env.svc.ListAssets(env.ctx, models.AssetFilter{})
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestUpdateAsset(t *testing.T) {
	env := newTestEnv(t)

	tools, err := env.svc.AddCategory(env.ctx, env.clerk, "Tools")
	require.NoError(t, err)

	drill := env.register(t, "D-1", "Drill", nil)
	env.register(t, "D-2", "Drill", nil)

	updated, err := env.svc.UpdateAsset(env.ctx, env.clerk, drill.ID, models.UpdateAssetRequest{
		Code:        "D-1",
		Name:        "Cordless Drill",
		Description: "18V",
		CategoryID:  &tools.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cordless Drill", updated.Name)
	require.NotNil(t, updated.CategoryName)
	assert.Equal(t, "Tools", *updated.CategoryName)

	_, err = env.svc.UpdateAsset(env.ctx, env.clerk, drill.ID, models.UpdateAssetRequest{Code: "D-2", Name: "Drill"})
	assert.ErrorIs(t, err, service.ErrDuplicateCode)

	_, err = env.svc.UpdateAsset(env.ctx, env.clerk, 999, models.UpdateAssetRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	// Clearing the code is allowed
	updated, err = env.svc.UpdateAsset(env.ctx, env.clerk, drill.ID, models.UpdateAssetRequest{Name: "Cordless Drill"})
	require.NoError(t, err)
	assert.Nil(t, updated.Code)
	assert.Nil(t, updated.CategoryID)
}

func TestFailedIssueLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)

	drill := env.register(t, "D-1", "Drill", nil)
	alice := env.employee(t, "Alice")

	_, err := env.svc.IssueAsset(env.ctx, env.clerk, drill.ID, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = env.svc.IssueAsset(env.ctx, env.clerk, 999, alice.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	got, err := env.svc.GetAsset(env.ctx, drill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, got.Status)
	assert.Len(t, env.history(t, drill.ID), 1)

	_, err = env.svc.IssueAsset(env.ctx, env.clerk, drill.ID, alice.ID)
	require.NoError(t, err)

	_, err = env.svc.IssueAsset(env.ctx, env.clerk, drill.ID, alice.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
	assert.Contains(t, err.Error(), "Current status: Issued")
	assert.Len(t, env.history(t, drill.ID), 2)

	env.requireConsistent(t)
}

func TestFailedReturnLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)

	drill := env.register(t, "D-1", "Drill", nil)

	_, err := env.svc.ReturnAsset(env.ctx, env.clerk, drill.ID, 0, "")
	assert.ErrorIs(t, err, service.ErrInvalidState)
	assert.Contains(t, err.Error(), "Current status: Available")

	_, err = env.svc.ReturnAsset(env.ctx, env.clerk, 999, 0, "")
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.Len(t, env.history(t, drill.ID), 1)
}

func TestReturnDefaultsToLastIssuer(t *testing.T) {
	env := newTestEnv(t)

	drill := env.register(t, "D-1", "Drill", nil)
	alice := env.employee(t, "Alice")

	_, err := env.svc.IssueAsset(env.ctx, env.clerk, drill.ID, alice.ID)
	require.NoError(t, err)

	ret, err := env.svc.ReturnAsset(env.ctx, env.clerk, drill.ID, 0, "dented")
	require.NoError(t, err)
	require.NotNil(t, ret.EmployeeID)
	assert.Equal(t, alice.ID, *ret.EmployeeID)
	assert.Equal(t, "dented", ret.ConditionNotes)
}

func TestDeleteAsset(t *testing.T) {
	env := newTestEnv(t)

	drill := env.register(t, "D-1", "Drill", nil)
	alice := env.employee(t, "Alice")

	_, err := env.svc.IssueAsset(env.ctx, env.clerk, drill.ID, alice.ID)
	require.NoError(t, err)

	err = env.svc.DeleteAsset(env.ctx, env.clerk, drill.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
	assert.Len(t, env.history(t, drill.ID), 2)

	_, err = env.svc.ReturnAsset(env.ctx, env.clerk, drill.ID, 0, "")
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteAsset(env.ctx, env.clerk, drill.ID))

	_, err = env.svc.GetAsset(env.ctx, drill.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	log, err := env.svc.ListTransactionLog(env.ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, log)

	assert.ErrorIs(t, env.svc.DeleteAsset(env.ctx, env.clerk, drill.ID), service.ErrNotFound)
}

func TestBulkOperationsAreIndependent(t *testing.T) {
	env := newTestEnv(t)

	alice := env.employee(t, "Alice")
	a := env.register(t, "A-1", "Monitor", nil)
	b := env.register(t, "B-1", "Keyboard", nil)

	_, err := env.svc.IssueAsset(env.ctx, env.clerk, b.ID, alice.ID)
	require.NoError(t, err)

	result, err := env.svc.BulkIssue(env.ctx, env.clerk, []int64{a.ID, b.ID, 999}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SucceededCount)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, b.ID, result.Failures[0].AssetID)
	assert.ErrorIs(t, result.Failures[0].Err, service.ErrInvalidState)
	assert.ErrorIs(t, result.Failures[1].Err, service.ErrNotFound)

	result, err = env.svc.BulkReturn(env.ctx, env.clerk, []int64{a.ID, b.ID}, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SucceededCount)
	assert.Empty(t, result.Failures)

	_, err = env.svc.BulkIssue(env.ctx, env.clerk, nil, alice.ID)
	assert.ErrorIs(t, err, service.ErrValidation)

	env.requireConsistent(t)
}

func TestTransactionLogBounds(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "A-1", "Monitor", nil)
	env.register(t, "B-1", "Keyboard", nil)

	all, err := env.svc.ListTransactionLog(env.ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, !all[0].Timestamp.Before(all[1].Timestamp))

	// Inclusive bounds on the exact timestamp of an entry
	ts := all[1].Timestamp
	only, err := env.svc.ListTransactionLog(env.ctx, &ts, &ts)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, all[1].ID, only[0].ID)

	later := ts.Add(1)
	earlier := ts.Add(-1)
	_, err = env.svc.ListTransactionLog(env.ctx, &later, &earlier)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestLifecycleWritesActivity(t *testing.T) {
	env := newTestEnv(t)

	drill := env.register(t, "D-1", "Drill", nil)
	alice := env.employee(t, "Alice")
	_, err := env.svc.IssueAsset(env.ctx, env.clerk, drill.ID, alice.ID)
	require.NoError(t, err)

	entries, err := env.svc.ListActivity(env.ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.ActionAssetIssued, entries[0].Action)
	assert.Equal(t, "Issued C.G. 'D-1' (Drill) to 'Alice'", entries[0].Details)
	assert.Equal(t, "clerk", entries[0].Username)
	assert.Equal(t, models.ActionEmployeeAdded, entries[1].Action)
	assert.Equal(t, models.ActionAssetRegistered, entries[2].Action)
}
