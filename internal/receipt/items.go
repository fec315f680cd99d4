// Package receipt holds the item-list operations and the derived total of a receipt
package receipt

import (
	"errors"

	"github.com/google/uuid"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

// ErrItemNotFound is returned when an operation targets an id that is not in the list
var ErrItemNotFound = errors.New("item not found")

// DefaultItems is the list a fresh session starts with
func DefaultItems() []receiptformat.Item {
	return []receiptformat.Item{
		{ID: uuid.NewString(), Description: "Product A", Quantity: 1, UnitPrice: 0},
	}
}

// AddItem returns a copy of items with a new blank line appended, and the new line.
// The new id is distinct from every id already in the list.
func AddItem(items []receiptformat.Item) ([]receiptformat.Item, receiptformat.Item) {
	taken := make(map[string]bool, len(items))
	for _, it := range items {
		taken[it.ID] = true
	}

	id := uuid.NewString()
	for taken[id] {
		id = uuid.NewString()
	}

	item := receiptformat.Item{ID: id, Quantity: 1}

	next := make([]receiptformat.Item, 0, len(items)+1)
	next = append(next, items...)
	next = append(next, item)
	return next, item
}

// UpdateItem returns a copy of items with fn applied to the line identified by id.
// fn cannot change the id.
func UpdateItem(items []receiptformat.Item, id string, fn func(*receiptformat.Item)) ([]receiptformat.Item, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, ErrItemNotFound
	}

	next := make([]receiptformat.Item, len(items))
	copy(next, items)

	fn(&next[idx])
	next[idx].ID = id

	return next, nil
}

// RemoveItem returns a copy of items without the line identified by id.
// The order of the remaining lines is kept.
func RemoveItem(items []receiptformat.Item, id string) ([]receiptformat.Item, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, ErrItemNotFound
	}

	next := make([]receiptformat.Item, 0, len(items)-1)
	next = append(next, items[:idx]...)
	next = append(next, items[idx+1:]...)
	return next, nil
}

// Find returns the line identified by id
func Find(items []receiptformat.Item, id string) (receiptformat.Item, bool) {
	idx := indexOf(items, id)
	if idx < 0 {
		return receiptformat.Item{}, false
	}
	return items[idx], true
}

func indexOf(items []receiptformat.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
