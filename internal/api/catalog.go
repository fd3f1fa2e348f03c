package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/cgtracker/internal/models"
)

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, categories)
}

func (h *Handler) AddCategory(c *gin.Context) {
	var req models.NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	category, err := h.svc.AddCategory(c.Request.Context(), currentActor(c), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, category)
}

// DeleteCategory moves the category's goods to the unassigned category
func (h *Handler) DeleteCategory(c *gin.Context) {
	categoryID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteCategory(c.Request.Context(), currentActor(c), categoryID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "Category deleted",
	})
}

// ListEmployees supports the search query parameter
func (h *Handler) ListEmployees(c *gin.Context) {
	employees, err := h.svc.ListEmployees(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, employees)
}

func (h *Handler) GetEmployee(c *gin.Context) {
	employeeID, ok := idParam(c, "id")
	if !ok {
		return
	}

	employee, err := h.svc.GetEmployee(c.Request.Context(), employeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, employee)
}

func (h *Handler) EmployeeAssets(c *gin.Context) {
	employeeID, ok := idParam(c, "id")
	if !ok {
		return
	}

	assets, err := h.svc.EmployeeAssets(c.Request.Context(), employeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, assets)
}

func (h *Handler) AddEmployee(c *gin.Context) {
	var req models.NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	employee, err := h.svc.AddEmployee(c.Request.Context(), currentActor(c), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, employee)
}

// DeleteEmployee returns every good still issued to the employee before
// removing them
func (h *Handler) DeleteEmployee(c *gin.Context) {
	employeeID, ok := idParam(c, "id")
	if !ok {
		return
	}

	returned, err := h.svc.DeleteEmployee(c.Request.Context(), currentActor(c), employeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: fmt.Sprintf("Employee deleted, %d C.G.(s) auto-returned", returned),
	})
}
