// Package settings persists the company settings under a fixed key
package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

// DefaultKey is the storage key for the settings record
const DefaultKey = "receipt_settings"

// DefaultFooter is the footer used before the user sets one
const DefaultFooter = "Thank you for your business!"

// Store loads and saves company settings
type Store interface {
	// Load returns the stored settings, or Default() when missing or unreadable
	Load(ctx context.Context) receiptformat.CompanySettings
	Save(ctx context.Context, s receiptformat.CompanySettings) error
}

// Default returns the settings used when nothing is stored
func Default() receiptformat.CompanySettings {
	return receiptformat.CompanySettings{FooterMessage: DefaultFooter}
}

func decode(raw []byte) (receiptformat.CompanySettings, error) {
	var s receiptformat.CompanySettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return receiptformat.CompanySettings{}, fmt.Errorf("corrupt settings: %w", err)
	}
	return s, nil
}

func encode(s receiptformat.CompanySettings) ([]byte, error) {
	return json.Marshal(s)
}
