package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
)

func sampleItems() []receiptformat.Item {
	return []receiptformat.Item{
		{ID: "w", Description: "Widget", Quantity: 2, UnitPrice: 9.99},
		{ID: "g", Description: "Gadget", Quantity: 1, UnitPrice: 4.5},
	}
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 0.0, Total(nil))
	assert.Equal(t, 0.0, Total([]receiptformat.Item{}))
	assert.Equal(t, 24.48, Total(sampleItems()))

	zeroQty := []receiptformat.Item{{ID: "z", Quantity: 0, UnitPrice: 100}}
	assert.Equal(t, 0.0, Total(zeroQty))
}

func TestTotal_ManyCents(t *testing.T) {
	var items []receiptformat.Item
	for i := 0; i < 10; i++ {
		items, _ = AddItem(items)
		items[len(items)-1].UnitPrice = 0.1
	}
	assert.Equal(t, 1.0, Total(items))
}

func TestAddItem_NewIDIsUnique(t *testing.T) {
	items := sampleItems()
	before := append([]receiptformat.Item(nil), items...)

	next, added := AddItem(items)

	require.Len(t, next, 3)
	assert.Equal(t, before, items, "input must not be mutated")
	assert.Equal(t, added, next[2])
	assert.Equal(t, 1, added.Quantity)

	count := 0
	for _, it := range next {
		if it.ID == added.ID {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.NotEqual(t, "w", added.ID)
	assert.NotEqual(t, "g", added.ID)
}

func TestAddItem_Repeated(t *testing.T) {
	var items []receiptformat.Item
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		var it receiptformat.Item
		items, it = AddItem(items)
		assert.False(t, seen[it.ID])
		seen[it.ID] = true
	}
	assert.Len(t, items, 50)
}

func TestRemoveItem(t *testing.T) {
	items := append(sampleItems(), receiptformat.Item{ID: "h", Description: "Hat", Quantity: 3, UnitPrice: 1})

	next, err := RemoveItem(items, "g")
	require.NoError(t, err)

	assert.Equal(t, []receiptformat.Item{items[0], items[2]}, next)
	_, found := Find(next, "g")
	assert.False(t, found)
	assert.Len(t, items, 3, "input must not be mutated")
}

func TestRemoveItem_Unknown(t *testing.T) {
	items := sampleItems()
	next, err := RemoveItem(items, "nope")
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, items, next)
}

func TestUpdateItem(t *testing.T) {
	items := sampleItems()

	next, err := UpdateItem(items, "g", func(it *receiptformat.Item) {
		it.Quantity = 4
		it.ID = "hijack"
	})
	require.NoError(t, err)

	assert.Equal(t, "g", next[1].ID)
	assert.Equal(t, 4, next[1].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, items[0], next[0])

	_, err = UpdateItem(items, "nope", func(*receiptformat.Item) {})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDefaultItems(t *testing.T) {
	items := DefaultItems()
	require.Len(t, items, 1)
	assert.Equal(t, "Product A", items[0].Description)
	assert.NotEmpty(t, items[0].ID)
}

func TestCoercer_Quantity(t *testing.T) {
	c := Coercer{}
	cases := map[string]int{
		"3":    3,
		" 7 ":  7,
		"2.9":  2,
		"-4":   0,
		"":     0,
		"abc":  0,
		"NaN":  0,
		"Inf":  0,
		"1e99": 2147483647,
	}
	for in, want := range cases {
		assert.Equal(t, want, c.Quantity(in), "input %q", in)
	}
}

func TestCoercer_InvalidQuantityPolicy(t *testing.T) {
	c := Coercer{InvalidQuantity: 1}
	assert.Equal(t, 1, c.Quantity("x"))
	assert.Equal(t, 0, c.Quantity("-2"))
	assert.Equal(t, 0, Coercer{InvalidQuantity: -5}.Quantity("x"))
}

func TestCoercer_Price(t *testing.T) {
	c := Coercer{}
	assert.Equal(t, 9.99, c.Price("9.99"))
	assert.Equal(t, 0.0, c.Price("-1"))
	assert.Equal(t, 0.0, c.Price("1,50"))
	assert.Equal(t, 0.0, c.Price("NaN"))
	assert.Equal(t, 0.0, c.Price(""))
}
