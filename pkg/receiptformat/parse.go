package receiptformat

import (
	"encoding/json"
	"fmt"
	"os"
)

// Parse parses a draft from a byte slice
func Parse(data []byte) (*Draft, error) {
	// Check the raw document first so schema errors point at the JSON, not at zero values
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft: %w", err)
	}

	// Drafts written before the payment method existed default to cash
	if draft.Transaction.PaymentMethod == "" {
		draft.Transaction.PaymentMethod = PaymentCash
	}
	if draft.Items == nil {
		draft.Items = []Item{}
	}

	if err := Validate(&draft); err != nil {
		return nil, err
	}

	return &draft, nil
}

// ParseFile parses a draft file from disk
func ParseFile(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft file: %w", err)
	}

	return Parse(data)
}

// ToJSON converts a Draft to JSON bytes
func (d *Draft) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// SaveToFile saves a Draft to a file
func (d *Draft) SaveToFile(path string) error {
	data, err := d.ToJSON()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
