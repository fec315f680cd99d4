package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

func writeDraft(t *testing.T) string {
	t.Helper()
	d := &receiptformat.Draft{
		Version:  receiptformat.Version,
		Settings: receiptformat.CompanySettings{Name: "Acme", FooterMessage: "Thanks"},
		Transaction: receiptformat.TransactionDetails{
			CustomerName:  "John Doe",
			Date:          "2024-01-15",
			PaymentMethod: receiptformat.PaymentCard,
			Currency:      "USD",
		},
		Items: []receiptformat.Item{{ID: "1", Description: "Coffee", Quantity: 2, UnitPrice: 3.5}},
	}
	path := filepath.Join(t.TempDir(), "sale.receipt.json")
	require.NoError(t, d.SaveToFile(path))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-output", "stderr", "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "export", writeDraft(t), "--out", dir, "--xlsx")
	require.NoError(t, err)

	pdf := filepath.Join(dir, "Receipt-John-Doe-2024-01-15.pdf")
	assert.Contains(t, out, pdf)
	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	assert.FileExists(t, filepath.Join(dir, "items.xlsx"))
}

func TestShareCommand(t *testing.T) {
	out, err := execute(t, "share", writeDraft(t), "--out", t.TempDir())
	require.NoError(t, err)

	first := strings.SplitN(out, "\n", 2)[0]
	assert.True(t, strings.HasPrefix(first, "https://wa.me/?text=Hello%20John%20Doe%2C"), first)
	assert.Contains(t, out, "Receipt-John-Doe-2024-01-15.pdf")
}

func TestExportCommand_MissingDraft(t *testing.T) {
	_, err := execute(t, "export", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestPrintCommand_NoPrinter(t *testing.T) {
	_, err := execute(t, "print", writeDraft(t))
	assert.ErrorContains(t, err, "no printer configured")
}
