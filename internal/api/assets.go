package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/cgtracker/internal/models"
)

// ListAssets supports the search, categoryId and status query parameters
func (h *Handler) ListAssets(c *gin.Context) {
	categoryID, ok := optionalIDQuery(c, "categoryId")
	if !ok {
		return
	}

	filter := models.AssetFilter{
		Search:     c.Query("search"),
		CategoryID: categoryID,
		Status:     models.AssetStatus(c.Query("status")),
	}

	assets, err := h.svc.ListAssets(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, assets)
}

func (h *Handler) GetAsset(c *gin.Context) {
	assetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	asset, err := h.svc.GetAsset(c.Request.Context(), assetID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, asset)
}

func (h *Handler) AssetHistory(c *gin.Context) {
	assetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	txns, err := h.svc.AssetHistory(c.Request.Context(), assetID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, txns)
}

func (h *Handler) RegisterAsset(c *gin.Context) {
	var req models.RegisterAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	asset, err := h.svc.RegisterAsset(c.Request.Context(), currentActor(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, asset)
}

func (h *Handler) UpdateAsset(c *gin.Context) {
	assetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	asset, err := h.svc.UpdateAsset(c.Request.Context(), currentActor(c), assetID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, asset)
}

func (h *Handler) DeleteAsset(c *gin.Context) {
	assetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteAsset(c.Request.Context(), currentActor(c), assetID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "C.G. deleted",
	})
}

func (h *Handler) IssueAsset(c *gin.Context) {
	assetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	txn, err := h.svc.IssueAsset(c.Request.Context(), currentActor(c), assetID, req.EmployeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, txn)
}

// ReturnAsset accepts an empty body; the employee then defaults to the
// one the asset was issued to
func (h *Handler) ReturnAsset(c *gin.Context) {
	assetID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.ReturnRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format")
			return
		}
	}

	txn, err := h.svc.ReturnAsset(c.Request.Context(), currentActor(c), assetID, req.EmployeeID, req.ConditionNotes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, txn)
}

func (h *Handler) BulkIssue(c *gin.Context) {
	var req models.BulkIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	result, err := h.svc.BulkIssue(c.Request.Context(), currentActor(c), req.AssetIDs, req.EmployeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondBulk(c, result)
}

func (h *Handler) BulkReturn(c *gin.Context) {
	var req models.BulkReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	result, err := h.svc.BulkReturn(c.Request.Context(), currentActor(c), req.AssetIDs, req.EmployeeID, req.ConditionNotes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondBulk(c, result)
}

// respondBulk reports "partial" when at least one item failed
func respondBulk(c *gin.Context, result *models.BulkResult) {
	status := "success"
	if len(result.Failures) > 0 {
		status = "partial"
		if result.SucceededCount == 0 {
			status = "failed"
		}
	}
	c.Header("X-Bulk-Summary", fmt.Sprintf("%d succeeded, %d failed", result.SucceededCount, len(result.Failures)))
	c.JSON(http.StatusOK, models.BulkResponse{
		Status: status,
		Result: result,
	})
}
