// Package receiptformat defines the receipt data model and the .receipt.json draft file format
package receiptformat

// Version is the only draft version this package reads and writes
const Version = "1.0"

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "Cash"
	PaymentTransfer PaymentMethod = "Bank Transfer"
	PaymentCard     PaymentMethod = "Card"
)

// PaymentMethods lists the accepted methods in display order
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentTransfer, PaymentCard}

// Valid reports whether m is one of the known methods
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// CompanySettings is the persisted header/footer information of the issuing company
type CompanySettings struct {
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	Phone         string  `json:"phone"`
	LogoURL       *string `json:"logoUrl"` // data URL, nil when no logo is set
	FooterMessage string  `json:"footerMessage"`
}

// HasLogo reports whether a logo reference is present
func (s CompanySettings) HasLogo() bool {
	return s.LogoURL != nil && *s.LogoURL != ""
}

// TransactionDetails holds the session-scoped details of the sale
type TransactionDetails struct {
	CustomerName  string        `json:"customerName"`
	Date          string        `json:"date"` // ISO 8601 calendar date, e.g. 2024-01-15
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Currency      string        `json:"currency"` // freeform, not validated
}

// Item is one line of the receipt
type Item struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Draft is the root structure of a .receipt.json file
type Draft struct {
	Version     string             `json:"version"`
	Settings    CompanySettings    `json:"settings"`
	Transaction TransactionDetails `json:"transaction"`
	Items       []Item             `json:"items"`
}
