package receiptformat

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidDraft wraps every validation failure
var ErrInvalidDraft = errors.New("invalid draft")

//go:embed draft_schema.json
var draftSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("draft.json", bytes.NewReader(draftSchema)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("draft.json")
	})
	return compiled, compileErr
}

func validateSchema(data []byte) error {
	sch, err := schema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	return nil
}

// Validate validates a Draft structure
func Validate(d *Draft) error {
	if d.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidDraft)
	}
	if d.Version != Version {
		return fmt.Errorf("%w: unsupported version: %s (expected %s)", ErrInvalidDraft, d.Version, Version)
	}

	if !d.Transaction.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidDraft, d.Transaction.PaymentMethod)
	}

	ids := make(map[string]bool, len(d.Items))
	for i, item := range d.Items {
		if item.ID == "" {
			return fmt.Errorf("%w: item[%d]: 'id' is required", ErrInvalidDraft, i)
		}
		if ids[item.ID] {
			return fmt.Errorf("%w: item[%d]: duplicate id '%s'", ErrInvalidDraft, i, item.ID)
		}
		ids[item.ID] = true

		if item.Quantity < 0 {
			return fmt.Errorf("%w: item[%d] '%s': quantity must not be negative", ErrInvalidDraft, i, item.ID)
		}
		if item.UnitPrice < 0 || math.IsNaN(item.UnitPrice) || math.IsInf(item.UnitPrice, 0) {
			return fmt.Errorf("%w: item[%d] '%s': unit price must be a finite non-negative number", ErrInvalidDraft, i, item.ID)
		}
	}

	return nil
}
