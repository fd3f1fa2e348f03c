package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/cgtracker/internal/models"
)

// Login handles user login requests
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	response, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context(), currentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}

func (h *Handler) AddUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	user, err := h.svc.AddUser(c.Request.Context(), currentActor(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), currentActor(c), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), currentActor(c), userID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "User deleted",
	})
}
