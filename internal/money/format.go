// Package money renders amounts as localized currency strings
package money

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// nbsp separates an ISO code prefix from the digits, as en-US formatting does
const nbsp = "\u00a0"

// en-US display symbols. Recognized codes missing here are shown by their ISO code.
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"CNY": "CN¥",
	"CAD": "CA$",
	"AUD": "A$",
	"NZD": "NZ$",
	"HKD": "HK$",
	"MXN": "MX$",
	"BRL": "R$",
	"KRW": "₩",
	"ILS": "₪",
	"VND": "₫",
	"TWD": "NT$",
	"PHP": "₱",
	"XAF": "FCFA",
	"XOF": "F CFA",
	"XCD": "EC$",
}

var printer = message.NewPrinter(language.AmericanEnglish)

// Format renders amount under the currency code.
// A well-formed but unassigned code is shown like a recognized code without a
// symbol. Anything else never fails: the result is "<code> <amount to 2 decimals>",
// with the raw code even when it is empty.
func Format(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Fallback(amount, code)
	}
	if err != nil {
		if wellFormed(code) {
			return withCode(amount, strings.ToUpper(code), 2)
		}
		return Fallback(amount, code)
	}

	scale, _ := currency.Standard.Rounding(unit)

	iso := unit.String()
	if sym, ok := symbols[iso]; ok {
		sign, digits := split(amount, scale)
		return sign + sym + digits
	}
	return withCode(amount, iso, scale)
}

// withCode prefixes the digits with the ISO code itself
func withCode(amount float64, iso string, scale int) string {
	sign, digits := split(amount, scale)
	return sign + iso + nbsp + digits
}

func split(amount float64, scale int) (string, string) {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign, printer.Sprint(number.Decimal(amount, number.Scale(scale)))
}

// wellFormed reports whether code has the shape of an ISO 4217 code,
// three ASCII letters, whether or not the code is assigned.
func wellFormed(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// Fallback is the plain rendering used for codes the formatter does not recognize
func Fallback(amount float64, code string) string {
	return code + " " + strconv.FormatFloat(amount, 'f', 2, 64)
}
