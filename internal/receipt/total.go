package receipt

import (
	"github.com/shopspring/decimal"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

// Total returns the sum of quantity × unit price over items.
// Arithmetic is decimal so cent amounts add up exactly.
func Total(items []receiptformat.Item) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it))
	}
	return sum.InexactFloat64()
}

// LineTotal returns quantity × unit price for one line
func LineTotal(it receiptformat.Item) decimal.Decimal {
	return decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
}
