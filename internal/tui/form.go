package tui

import (
	"context"
	"strings"

	"github.com/thereceipt/quickreceipt/internal/shell"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

// formField is one editable line of the Form tab
type formField struct {
	label string
	get   func(shell.Snapshot) string
	set   func(ctx context.Context, sh *shell.Shell, value string) error
	// cycle fields step through fixed choices instead of taking text
	cycle bool
}

func settingsField(label string, get func(receiptformat.CompanySettings) string, put func(*receiptformat.CompanySettings, string)) formField {
	return formField{
		label: label,
		get:   func(s shell.Snapshot) string { return get(s.Settings) },
		set: func(ctx context.Context, sh *shell.Shell, v string) error {
			cs := sh.Settings()
			put(&cs, v)
			return sh.UpdateSettings(ctx, cs)
		},
	}
}

func transactionField(label string, get func(receiptformat.TransactionDetails) string, put func(*receiptformat.TransactionDetails, string)) formField {
	return formField{
		label: label,
		get:   func(s shell.Snapshot) string { return get(s.Transaction) },
		set: func(_ context.Context, sh *shell.Shell, v string) error {
			t := sh.Transaction()
			put(&t, v)
			return sh.UpdateTransaction(t)
		},
	}
}

var formFields = []formField{
	settingsField("Company name",
		func(c receiptformat.CompanySettings) string { return c.Name },
		func(c *receiptformat.CompanySettings, v string) { c.Name = v }),
	settingsField("Address",
		func(c receiptformat.CompanySettings) string { return c.Address },
		func(c *receiptformat.CompanySettings, v string) { c.Address = v }),
	settingsField("Phone",
		func(c receiptformat.CompanySettings) string { return c.Phone },
		func(c *receiptformat.CompanySettings, v string) { c.Phone = v }),
	settingsField("Footer message",
		func(c receiptformat.CompanySettings) string { return c.FooterMessage },
		func(c *receiptformat.CompanySettings, v string) { c.FooterMessage = v }),
	transactionField("Customer name",
		func(t receiptformat.TransactionDetails) string { return t.CustomerName },
		func(t *receiptformat.TransactionDetails, v string) { t.CustomerName = v }),
	transactionField("Date",
		func(t receiptformat.TransactionDetails) string { return t.Date },
		func(t *receiptformat.TransactionDetails, v string) { t.Date = v }),
	{
		label: "Payment method",
		get:   func(s shell.Snapshot) string { return string(s.Transaction.PaymentMethod) },
		set: func(_ context.Context, sh *shell.Shell, _ string) error {
			t := sh.Transaction()
			t.PaymentMethod = nextPayment(t.PaymentMethod)
			return sh.UpdateTransaction(t)
		},
		cycle: true,
	},
	transactionField("Currency",
		func(t receiptformat.TransactionDetails) string { return t.Currency },
		func(t *receiptformat.TransactionDetails, v string) { t.Currency = strings.ToUpper(strings.TrimSpace(v)) }),
}

func nextPayment(m receiptformat.PaymentMethod) receiptformat.PaymentMethod {
	methods := receiptformat.PaymentMethods
	for i, known := range methods {
		if known == m {
			return methods[(i+1)%len(methods)]
		}
	}
	return methods[0]
}

func (a *App) renderForm(width int) string {
	var lines []string
	lines = append(lines, styleHeading.Render("Receipt details"))

	for i, f := range formFields {
		focused := i == a.formCursor
		label := styleLabel.Render(f.label)
		if focused {
			label = styleLabelFocused.Render(f.label)
		}

		value := f.get(a.snap)
		if f.cycle {
			value = "< " + value + " >"
		}
		value = Truncate(value, max(width-4, 10))
		if focused && a.editing {
			value = a.input.View()
		}

		style := styleRow
		if focused && !a.editing {
			style = styleRowSelected
		}
		lines = append(lines, label, style.Render(value), "")
	}
	return strings.Join(lines, "\n")
}
