package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExportInventorySummaryXlsx streams the reconciliation report as a
// spreadsheet.
func ExportInventorySummaryXlsx(ctx context.Context, w io.Writer) error {

	data, err := GetInventorySummaryReport(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet("Sheet1"); err != nil {
		return err
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "Sku")
	f.SetCellValue("Sheet1", "B1", "Name")
	f.SetCellValue("Sheet1", "C1", "OnHand")
	f.SetCellValue("Sheet1", "D1", "LedgerOnHand")
	f.SetCellValue("Sheet1", "E1", "DamagedQty")
	f.SetCellValue("Sheet1", "F1", "Consistent")

	// Add data
	for i, d := range data {
		f.SetCellValue("Sheet1", "A"+fmt.Sprint(i+2), d.ProductSku)
		f.SetCellValue("Sheet1", "B"+fmt.Sprint(i+2), d.ProductName)
		f.SetCellValue("Sheet1", "C"+fmt.Sprint(i+2), d.OnHand)
		f.SetCellValue("Sheet1", "D"+fmt.Sprint(i+2), d.LedgerOnHand)
		f.SetCellValue("Sheet1", "E"+fmt.Sprint(i+2), d.DamagedQty)
		f.SetCellValue("Sheet1", "F"+fmt.Sprint(i+2), d.Consistent)
	}

	return f.Write(w)
}
