package receipt

import (
	"math"
	"strconv"
	"strings"
)

// Coercer turns raw form keystrokes into the numbers an Item carries.
// Invalid input never produces NaN or a negative value.
type Coercer struct {
	// InvalidQuantity is used when the quantity text is not a number
	InvalidQuantity int
}

// Quantity parses a quantity field. Fractions are truncated and negatives clamp to zero.
func (c Coercer) Quantity(raw string) int {
	f, ok := parseFinite(raw)
	if !ok {
		return max(c.InvalidQuantity, 0)
	}

	q := math.Trunc(f)
	if q < 0 {
		return 0
	}
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(q)
}

// Price parses a unit price field
func (c Coercer) Price(raw string) float64 {
	f, ok := parseFinite(raw)
	if !ok || f < 0 {
		return 0
	}
	return f
}

func parseFinite(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
