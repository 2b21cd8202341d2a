package shared

import (
	"fmt"
	"math"
)

// ═══════════════════════════════════════════════════════════════════════════
// Percent Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percent represents a percentage with two decimal places of precision
// (the DECIMAL(5,2) columns in the schema).
type Percent float64

// NewPercent rounds a raw value to two decimal places.
func NewPercent(v float64) Percent {
	return Percent(math.Round(v*100) / 100)
}

// PercentOf computes part/total as a percentage rounded to two decimals.
// A zero total yields 0, never NaN.
func PercentOf(part, total int) Percent {
	if total <= 0 {
		return 0
	}
	return NewPercent(float64(part) / float64(total) * 100)
}

// Float64 returns the underlying float value.
func (p Percent) Float64() float64 {
	return float64(p)
}

// IsValid checks that the percentage is within [0, 100].
func (p Percent) IsValid() bool {
	return p >= 0 && p <= 100
}

// String returns the string representation, e.g. "66.67%".
func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}
