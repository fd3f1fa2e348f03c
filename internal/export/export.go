// Package export renders registry data as xlsx workbooks and PDF reports.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rongwang/cgtracker/internal/models"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the written workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

// Sheet is one worksheet: a header row followed by data rows
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// NewWorkbook builds a workbook with one worksheet per sheet, in order
func NewWorkbook(sheets ...Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook needs at least one sheet")
	}

	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", sheet.Name, err)
		}

		if err := writeSheet(f, sheet, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("write sheet %s: %w", sheet.Name, err)
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook builds the workbook and writes it to w
func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	f, err := NewWorkbook(sheets...)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	headers := make([]interface{}, len(sheet.Headers))
	for i, h := range sheet.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &headers); err != nil {
		return err
	}

	if len(sheet.Headers) > 0 {
		lastCol, err := excelize.ColumnNumberToName(len(sheet.Headers))
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.Name, "A1", lastCol+"1", headerStyle); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, "A", lastCol, 18); err != nil {
			return err
		}
	}

	for i, row := range sheet.Rows {
		cell := "A" + strconv.Itoa(i+2)
		values := row
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// AssetsSheet lists capital goods with their category names
func AssetsSheet(assets []models.CapitalGood) Sheet {
	rows := make([][]interface{}, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, []interface{}{
			a.ID, str(a.Code), a.Name, a.Description, string(a.Status),
			formatTime(a.AcquisitionDate), str(a.CategoryName),
		})
	}
	return Sheet{
		Name:    "CapitalGoods",
		Headers: []string{"ID", "Code", "Name", "Description", "Status", "Acquisition Date", "Category"},
		Rows:    rows,
	}
}

func CategoriesSheet(categories []models.Category) Sheet {
	rows := make([][]interface{}, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []interface{}{c.ID, c.Name})
	}
	return Sheet{Name: "Categories", Headers: []string{"ID", "Name"}, Rows: rows}
}

func EmployeesSheet(employees []models.Employee) Sheet {
	rows := make([][]interface{}, 0, len(employees))
	for _, e := range employees {
		rows = append(rows, []interface{}{e.ID, e.Name})
	}
	return Sheet{Name: "Employees", Headers: []string{"ID", "Name"}, Rows: rows}
}

// TransactionsSheet lists ledger entries; name is the worksheet name
func TransactionsSheet(name string, entries []models.TransactionLogEntry) Sheet {
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{
			e.ID, formatTime(e.Timestamp), str(e.AssetCode), e.AssetName,
			str(e.EmployeeName), string(e.Type), e.ConditionNotes, str(e.LoggedByUsername),
		})
	}
	return Sheet{
		Name:    name,
		Headers: []string{"ID", "Timestamp", "C.G. Code", "C.G. Name", "Employee", "Type", "Condition Notes", "Logged By"},
		Rows:    rows,
	}
}

// UsersSheet lists accounts without their password hashes
func UsersSheet(users []models.User) Sheet {
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{u.ID, u.Username, string(u.Role), formatTime(u.CreatedAt)})
	}
	return Sheet{Name: "Users", Headers: []string{"ID", "Username", "Role", "Created At"}, Rows: rows}
}

func ActivitySheet(entries []models.ActivityLogEntry) Sheet {
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{e.ID, formatTime(e.Timestamp), e.Username, e.Action, e.Details})
	}
	return Sheet{
		Name:    "ActivityLog",
		Headers: []string{"ID", "Timestamp", "User", "Action", "Details"},
		Rows:    rows,
	}
}

func AllocationsSheet(allocations []models.Allocation) Sheet {
	rows := make([][]interface{}, 0, len(allocations))
	for _, a := range allocations {
		rows = append(rows, []interface{}{
			str(a.EmployeeName), str(a.AssetCode), a.AssetName, str(a.CategoryName), formatTime(a.IssuedAt),
		})
	}
	return Sheet{
		Name:    "Allocations",
		Headers: []string{"Employee", "C.G. Code", "C.G. Name", "Category", "Issued At"},
		Rows:    rows,
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}
