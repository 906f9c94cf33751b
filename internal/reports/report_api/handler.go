package report_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"flowpass/internal/auth"
	"flowpass/internal/logger"
	"flowpass/internal/reports"
)

type Handler struct {
	ReportService *reports.Service
	Logger        *logger.Logger
}

func filterFromQuery(r *http.Request) reports.Filter {
	q := r.URL.Query()
	return reports.Filter{
		Timeframe:   q.Get("timeframe"),
		ProductType: q.Get("product_type"),
		Redeemed:    q.Get("redeemed"),
		Search:      q.Get("q"),
	}
}

// Orders returns the filtered working set with aggregates for the admin
// orders tab.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	report, err := h.ReportService.Orders(r.Context(), userID, filterFromQuery(r), time.Now())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Orders: %v", err))
		http.Error(w, "Failed to load orders", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// Export streams the filtered orders as a spreadsheet download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	now := time.Now()

	report, err := h.ReportService.Orders(r.Context(), userID, filterFromQuery(r), now)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Export: %v", err))
		http.Error(w, "Failed to load orders", http.StatusInternalServerError)
		return
	}

	file, err := reports.ExportOrders(report.Passes, report.Stores)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Export: %v", err))
		http.Error(w, "Failed to build export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.ExportFilename(now)))
	if err := file.Write(w); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Export: failed to write workbook: %v", err))
	}
}
