package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/cgtracker/internal/export"
	"github.com/rongwang/cgtracker/internal/models"
)

func (h *Handler) Dashboard(c *gin.Context) {
	dashboard, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, dashboard)
}

// ListActivity returns the newest entries; limit defaults to all
func (h *Handler) ListActivity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.svc.ListActivity(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, entries)
}

// ListAllocations supports the employeeId and categoryId query parameters
func (h *Handler) ListAllocations(c *gin.Context) {
	filter, ok := allocationFilter(c)
	if !ok {
		return
	}

	allocations, err := h.svc.ListAllocations(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, allocations)
}

// ListTransactionLog supports the start and end query parameters
func (h *Handler) ListTransactionLog(c *gin.Context) {
	start, end, ok := timeRange(c)
	if !ok {
		return
	}

	entries, err := h.svc.ListTransactionLog(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, entries)
}

// ExportTransactions writes the ledger for the time range as xlsx or, with
// format=pdf, as a PDF report
func (h *Handler) ExportTransactions(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}
	start, end, ok := timeRange(c)
	if !ok {
		return
	}

	entries, err := h.svc.ListTransactionLog(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sheet := export.TransactionsSheet("Transactions", entries)
	details := fmt.Sprintf("Exported %d ledger entries", len(entries))
	if format == formatPDF {
		h.sendPDF(c, "transactions", details, export.Report{
			Title:    "Capital Goods Transaction Log Report",
			Subtitle: rangeSubtitle(start, end),
			Sheet:    sheet,
		})
		return
	}
	h.sendWorkbook(c, "transactions", details, sheet)
}

func (h *Handler) ExportAllocations(c *gin.Context) {
	filter, ok := allocationFilter(c)
	if !ok {
		return
	}

	allocations, err := h.svc.ListAllocations(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.sendWorkbook(c, "allocations", fmt.Sprintf("Exported %d current allocations", len(allocations)),
		export.AllocationsSheet(allocations))
}

func (h *Handler) ExportActivity(c *gin.Context) {
	format, ok := exportFormat(c)
	if !ok {
		return
	}

	entries, err := h.svc.ListActivity(c.Request.Context(), 0)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sheet := export.ActivitySheet(entries)
	details := fmt.Sprintf("Exported %d activity entries", len(entries))
	if format == formatPDF {
		h.sendPDF(c, "activity_log", details, export.Report{
			Title: "General Activity Log Summary",
			Sheet: sheet,
		})
		return
	}
	h.sendWorkbook(c, "activity_log", details, sheet)
}

// ExportDatabase writes every table, users without password hashes, as one workbook
func (h *Handler) ExportDatabase(c *gin.Context) {
	ctx := c.Request.Context()
	actor := currentActor(c)

	assets, err := h.svc.ListAssets(ctx, models.AssetFilter{})
	if err != nil {
		h.respondError(c, err)
		return
	}
	categories, err := h.svc.ListCategories(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	employees, err := h.svc.ListEmployees(ctx, "")
	if err != nil {
		h.respondError(c, err)
		return
	}
	txns, err := h.svc.ListTransactionLog(ctx, nil, nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	users, err := h.svc.ListUsers(ctx, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	activity, err := h.svc.ListActivity(ctx, 0)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.sendWorkbook(c, "cg_database", "Exported full database",
		export.AssetsSheet(assets),
		export.CategoriesSheet(categories),
		export.EmployeesSheet(employees),
		export.TransactionsSheet("CGTransactions", txns),
		export.UsersSheet(users),
		export.ActivitySheet(activity),
	)
}

// sendWorkbook renders the sheets into memory first so a failure can
// still be reported as JSON, then records the export in the activity log
func (h *Handler) sendWorkbook(c *gin.Context, name, details string, sheets ...export.Sheet) {
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, sheets...); err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())

	h.svc.RecordExport(c.Request.Context(), currentActor(c), fmt.Sprintf("%s to %s", details, filename))
}

func (h *Handler) sendPDF(c *gin.Context, name, details string, report export.Report) {
	data, err := export.RenderPDF(report)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("%s_%s.pdf", name, time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, export.PDFContentType, data)

	h.svc.RecordExport(c.Request.Context(), currentActor(c), fmt.Sprintf("%s to %s", details, filename))
}

const (
	formatXLSX = "xlsx"
	formatPDF  = "pdf"
)

func exportFormat(c *gin.Context) (string, bool) {
	switch format := c.DefaultQuery("format", formatXLSX); format {
	case formatXLSX, formatPDF:
		return format, true
	default:
		badRequest(c, "Invalid format, expected xlsx or pdf")
		return "", false
	}
}

func rangeSubtitle(start, end *time.Time) string {
	const layout = "2006-01-02"
	switch {
	case start != nil && end != nil:
		return fmt.Sprintf("From %s to %s", start.Local().Format(layout), end.Local().Format(layout))
	case start != nil:
		return "From " + start.Local().Format(layout)
	case end != nil:
		return "Up to " + end.Local().Format(layout)
	default:
		return "All entries"
	}
}

func allocationFilter(c *gin.Context) (models.AllocationFilter, bool) {
	employeeID, ok := optionalIDQuery(c, "employeeId")
	if !ok {
		return models.AllocationFilter{}, false
	}
	categoryID, ok := optionalIDQuery(c, "categoryId")
	if !ok {
		return models.AllocationFilter{}, false
	}
	return models.AllocationFilter{EmployeeID: employeeID, CategoryID: categoryID}, true
}
