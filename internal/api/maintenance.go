package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/cgtracker/internal/models"
)

func (h *Handler) ListBackups(c *gin.Context) {
	backups, err := h.svc.ListBackups(c.Request.Context(), currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, backups)
}

func (h *Handler) CreateBackup(c *gin.Context) {
	name, err := h.svc.CreateBackup(c.Request.Context(), currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{"name": name})
}

// Purge deletes all data after checking the confirmation password
func (h *Handler) Purge(c *gin.Context) {
	var req models.PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	if err := h.svc.Purge(c.Request.Context(), currentActor(c), req.Password); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "All data and backups deleted",
	})
}
