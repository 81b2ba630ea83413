package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"dockflow/db"
	"dockflow/middleware"
	"dockflow/models"
	"dockflow/query"

	"github.com/xuri/excelize/v2"
)

type ExportHandler struct {
	db *db.FirestoreDB
}

func NewExportHandler(firestoreDB *db.FirestoreDB) *ExportHandler {
	return &ExportHandler{
		db: firestoreDB,
	}
}

// exportColumns is the fixed column mapping of the sheet export.
var exportColumns = []string{
	"Sheet ID",
	"Status",
	"Date",
	"Shift",
	"Destination",
	"Dock",
	"Supervisor",
	"Employee Code",
	"Driver",
	"Vehicle",
	"Staged Cases",
	"Loaded Cases",
	"Created At",
	"Completed At",
}

// ExportSheets generates an XLSX workbook from the filtered sheet list and
// streams it as an attachment. The same filter parameters as the list view
// apply.
func (h *ExportHandler) ExportSheets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	sheets, err := h.db.GetAllSheets()
	if err != nil {
		log.Printf("❌ Failed to get sheets: %v", err)
		writeError(w, "Failed to retrieve sheets", http.StatusInternalServerError)
		return
	}
	filtered := query.FilterSheets(sheets, sheetFilterFromQuery(r))
	query.SortSheets(filtered, query.ColCreatedAt, true)

	wb := excelize.NewFile()
	defer wb.Close()

	const sheetName = "Sheets"
	wb.SetSheetName(wb.GetSheetName(0), sheetName)

	for col, title := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			writeError(w, "Failed to build export", http.StatusInternalServerError)
			return
		}
		if err := wb.SetCellValue(sheetName, cell, title); err != nil {
			writeError(w, "Failed to build export", http.StatusInternalServerError)
			return
		}
	}

	for i, s := range filtered {
		row := i + 2
		values := []interface{}{
			s.SheetID,
			string(s.Status),
			s.Date,
			s.Shift,
			s.Destination,
			s.DockNumber,
			s.SupervisorName,
			s.EmployeeCode,
			s.DriverName,
			s.VehicleNumber,
			totalStaged(s),
			totalLoaded(s),
			s.CreatedAt.Format(time.RFC3339),
			formatTimePtr(s.CompletedAt),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			writeError(w, "Failed to build export", http.StatusInternalServerError)
			return
		}
		if err := wb.SetSheetRow(sheetName, cell, &values); err != nil {
			writeError(w, "Failed to build export", http.StatusInternalServerError)
			return
		}
	}

	filename := fmt.Sprintf("dockflow_sheets_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := wb.Write(w); err != nil {
		log.Printf("❌ Failed to write export: %v", err)
		return
	}

	recordAudit(h.db, user.UserID, "DATA_EXPORT",
		fmt.Sprintf("User '%s' exported %d sheets", user.Username, len(filtered)))
	log.Printf("📊 XLSX export by %s: %d sheets", user.Username, len(filtered))
}

func totalStaged(s models.Sheet) int {
	total := 0
	for _, item := range s.StagingItems {
		total += item.TTLCases
	}
	return total
}

func totalLoaded(s models.Sheet) int {
	total := 0
	for _, item := range s.LoadingItems {
		total += item.Loaded
	}
	return total
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
