package reports

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"flowpass/internal/models"
)

const exportSheet = "Orders"

// UnknownVenue is reported for passes whose store was deleted after sale.
const UnknownVenue = "Unknown Venue"

var exportHeader = []interface{}{
	"Purchase Date", "Venue", "Product Type", "Pass Name", "Event Date",
	"Customer", "Email", "Units", "Total", "Service Fee", "Tip",
	"Redeem Date", "Status",
}

// ExportOrders renders one flattened row per pass, resolving the venue name
// by joining on the public store identifier.
func ExportOrders(passes []models.Pass, stores []models.Store) (*excelize.File, error) {
	venueNames := make(map[string]string, len(stores))
	for _, st := range stores {
		venueNames[st.StoreID] = st.Name
	}

	f := excelize.NewFile()
	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range passes {
		venue, ok := venueNames[p.StoreID]
		if !ok {
			venue = UnknownVenue
		}

		customer := orNA(p.CustomerName)
		email := orNA(p.CustomerEmail)

		redeemDate := "Not Redeemed"
		status := "Active"
		if p.UsedAt != nil {
			redeemDate = p.UsedAt.Format("1/2/2006 3:04:05 PM")
			status = "Redeemed"
		}

		row := []interface{}{
			p.CreatedAt.Format("1/2/2006 3:04:05 PM"),
			venue,
			p.ProductType,
			p.PassName,
			p.ExpiresAt.Format("1/2/2006"),
			customer,
			email,
			p.Quantity,
			fmt.Sprintf("$%.2f", p.TotalAmount),
			fmt.Sprintf("$%.2f", p.ServiceFee),
			fmt.Sprintf("$%.2f", p.TipAmount),
			redeemDate,
			status,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return f, nil
}

// ExportFilename matches the dashboard's download naming.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("orders_%s.xlsx", now.UTC().Format(time.RFC3339))
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
