package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/thereceipt/quickreceipt/internal/money"
	"github.com/thereceipt/quickreceipt/internal/receipt"
	"github.com/thereceipt/quickreceipt/internal/shell"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

// itemColumns are the editable columns of the Items tab, left to right
var itemColumns = []struct {
	field string
	title string
	width int
}{
	{shell.FieldDescription, "Description", 0},
	{shell.FieldQuantity, "Qty", 5},
	{shell.FieldUnitPrice, "Price", 12},
}

const lineTotalWidth = 12

func itemValue(it receiptformat.Item, field string) string {
	switch field {
	case shell.FieldQuantity:
		return strconv.Itoa(it.Quantity)
	case shell.FieldUnitPrice:
		return strconv.FormatFloat(it.UnitPrice, 'f', -1, 64)
	default:
		return it.Description
	}
}

func (a *App) selectedItem() (receiptformat.Item, bool) {
	if a.itemCursor < 0 || a.itemCursor >= len(a.snap.Items) {
		return receiptformat.Item{}, false
	}
	return a.snap.Items[a.itemCursor], true
}

func (a *App) clampItemCursor() {
	if a.itemCursor >= len(a.snap.Items) {
		a.itemCursor = len(a.snap.Items) - 1
	}
	if a.itemCursor < 0 {
		a.itemCursor = 0
	}
}

func (a *App) renderItems(width int) string {
	currency := a.snap.Transaction.Currency
	if currency == "" {
		currency = shell.DefaultCurrency
	}

	descWidth := max(width-itemColumns[1].width-itemColumns[2].width-lineTotalWidth-8, 10)
	cell := func(s string, w int, right bool) string {
		s = Truncate(s, w)
		if right {
			return lipgloss.PlaceHorizontal(w, lipgloss.Right, s)
		}
		return lipgloss.PlaceHorizontal(w, lipgloss.Left, s)
	}

	var lines []string
	lines = append(lines, styleHeading.Render(fmt.Sprintf("Items (%d)", len(a.snap.Items))))
	lines = append(lines, styleColumnHeader.Render("  "+strings.Join([]string{
		cell(itemColumns[0].title, descWidth, false),
		cell(itemColumns[1].title, itemColumns[1].width, true),
		cell(itemColumns[2].title, itemColumns[2].width, true),
		cell("Total", lineTotalWidth, true),
	}, " ")))

	if len(a.snap.Items) == 0 {
		lines = append(lines, styleDim.Render("  No items. Press a to add one."))
	}

	for i, it := range a.snap.Items {
		cols := []string{
			cell(it.Description, descWidth, false),
			cell(strconv.Itoa(it.Quantity), itemColumns[1].width, true),
			cell(money.Format(it.UnitPrice, currency), itemColumns[2].width, true),
			cell(money.Format(receipt.LineTotal(it).InexactFloat64(), currency), lineTotalWidth, true),
		}
		if i != a.itemCursor {
			lines = append(lines, styleRow.Render(strings.Join(cols, " ")))
			continue
		}
		if a.editing {
			cols[a.itemColumn] = a.input.View()
		} else {
			cols[a.itemColumn] = lipgloss.NewStyle().Underline(true).Render(cols[a.itemColumn])
		}
		lines = append(lines, styleRowSelected.Render(strings.Join(cols, " ")))
	}

	lines = append(lines, "", styleBright.Bold(true).Render("  Total "+a.snap.FormattedTotal))
	return strings.Join(lines, "\n")
}
