package export

import (
	"fmt"

	"github.com/thereceipt/quickreceipt/internal/receipt"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
	"github.com/xuri/excelize/v2"
)

const itemsSheet = "Items"

// ItemsWorkbook renders the line items as an XLSX sheet with a total row
func ItemsWorkbook(items []receiptformat.Item, currency string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return nil, err
	}

	header := []interface{}{"Description", "Quantity", "Unit Price", "Line Total"}
	if err := f.SetSheetRow(itemsSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{it.Description, it.Quantity, it.UnitPrice, receipt.LineTotal(it).InexactFloat64()}
		if err := f.SetSheetRow(itemsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	totalRow := len(items) + 2
	if currency == "" {
		currency = "USD"
	}
	total := []interface{}{fmt.Sprintf("Total (%s)", currency), nil, nil, receipt.Total(items)}
	if err := f.SetSheetRow(itemsSheet, fmt.Sprintf("A%d", totalRow), &total); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(itemsSheet, "A1", "D1", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(itemsSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("A%d", totalRow), bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(itemsSheet, "C2", fmt.Sprintf("D%d", totalRow), money); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(itemsSheet, "A", "A", 32); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
