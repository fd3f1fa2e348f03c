package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/service"
	"go.uber.org/zap"
)

// Handler serves the HTTP API on top of the service
type Handler struct {
	svc       service.Service
	jwtSecret []byte
	logger    *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc service.Service, jwtSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		svc:       svc,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

// SetupRoutes registers the middleware and every API route on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(RequestID())
	router.Use(Logger(h.logger))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	api := router.Group("/api")

	// Public routes
	api.POST("/auth/login", h.Login)

	// Authenticated routes
	auth := api.Group("")
	auth.Use(AuthMiddleware(h.jwtSecret, h.svc))
	{
		auth.GET("/dashboard", h.Dashboard)
		auth.GET("/activity", h.ListActivity)

		assets := auth.Group("/assets")
		{
			assets.GET("", h.ListAssets)
			assets.POST("", h.RegisterAsset)
			assets.POST("/bulk-issue", h.BulkIssue)
			assets.POST("/bulk-return", h.BulkReturn)
			assets.GET("/:id", h.GetAsset)
			assets.PUT("/:id", h.UpdateAsset)
			assets.DELETE("/:id", h.DeleteAsset)
			assets.GET("/:id/transactions", h.AssetHistory)
			assets.POST("/:id/issue", h.IssueAsset)
			assets.POST("/:id/return", h.ReturnAsset)
		}

		auth.GET("/categories", h.ListCategories)
		auth.POST("/categories", h.AddCategory)
		auth.DELETE("/categories/:id", h.DeleteCategory)

		employees := auth.Group("/employees")
		{
			employees.GET("", h.ListEmployees)
			employees.POST("", h.AddEmployee)
			employees.GET("/:id", h.GetEmployee)
			employees.DELETE("/:id", h.DeleteEmployee)
			employees.GET("/:id/assets", h.EmployeeAssets)
		}

		auth.GET("/allocations", h.ListAllocations)
		auth.GET("/transactions", h.ListTransactionLog)

		exports := auth.Group("/export")
		{
			exports.GET("/transactions", h.ExportTransactions)
			exports.GET("/allocations", h.ExportAllocations)
			exports.GET("/activity", h.ExportActivity)
			exports.GET("/database", AdminOnly(), h.ExportDatabase)
		}

		// Admin routes
		admin := auth.Group("")
		admin.Use(AdminOnly())
		{
			admin.GET("/users", h.ListUsers)
			admin.POST("/users", h.AddUser)
			admin.PUT("/users/:id", h.UpdateUser)
			admin.DELETE("/users/:id", h.DeleteUser)

			admin.GET("/backups", h.ListBackups)
			admin.POST("/backups", h.CreateBackup)

			admin.POST("/admin/purge", h.Purge)
		}
	}
}

// respondError translates a service error into its HTTP status and error body
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"

	switch {
	case errors.Is(err, service.ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, service.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, service.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrDuplicateCode):
		status, code = http.StatusConflict, "DUPLICATE_CODE"
	case errors.Is(err, service.ErrDuplicateName):
		status, code = http.StatusConflict, "DUPLICATE_NAME"
	case errors.Is(err, service.ErrInvalidState):
		status, code = http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, service.ErrStorage):
		code = "STORAGE_FAILURE"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		message = "Internal server error"
	}

	c.JSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: message,
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.DataResponse{
		Status: "success",
		Data:   data,
	})
}

// idParam reads a positive integer path parameter
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

// optionalIDQuery reads an optional positive integer query parameter
func optionalIDQuery(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Sprintf("Invalid %s", name))
		return nil, false
	}
	return &id, true
}

const dateLayout = "2006-01-02"

// parseTimeParam accepts RFC3339 or YYYY-MM-DD. A date-only value is the
// start of that local day, or its last instant when endOfDay is set.
func parseTimeParam(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}

	day, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", value)
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, nil
}

// timeRange reads the start and end query parameters
func timeRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	start, err := parseTimeParam(c.Query("start"), false)
	if err != nil {
		badRequest(c, err.Error())
		return nil, nil, false
	}
	end, err := parseTimeParam(c.Query("end"), true)
	if err != nil {
		badRequest(c, err.Error())
		return nil, nil, false
	}
	return start, end, true
}
