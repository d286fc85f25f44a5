package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantity is a fixed-precision exact decimal that must satisfy value >= 0.
type Quantity struct {
	value     decimal.Decimal
	precision uint8
}

// NewQuantity quantizes value to precision decimal places using half-up
// rounding. It panics if the resulting value is negative — callers that
// accept untrusted input should use NewQuantityChecked instead.
func NewQuantity(value decimal.Decimal, precision uint8) Quantity {
	q, err := NewQuantityChecked(value, precision)
	if err != nil {
		panic(err)
	}
	return q
}

// NewQuantityChecked is the fallible constructor used at system boundaries
// (such as the CLI's CSV loader) where a negative quantity is a user error
// rather than a programming error.
func NewQuantityChecked(value decimal.Decimal, precision uint8) (Quantity, error) {
	rounded := value.Round(int32(precision))
	if rounded.IsNegative() {
		return Quantity{}, fmt.Errorf("money: quantity must be >= 0, got %s", rounded.String())
	}
	return Quantity{value: rounded, precision: precision}, nil
}

func NewQuantityFromFloat(f float64, precision uint8) Quantity {
	return NewQuantity(decimal.NewFromFloat(f), precision)
}

func ZeroQuantity(precision uint8) Quantity {
	return Quantity{value: decimal.Zero, precision: precision}
}

func (q Quantity) Decimal() decimal.Decimal { return q.value }
func (q Quantity) Precision() uint8 { return q.precision }
func (q Quantity) String() string { return q.value.StringFixed(int32(q.precision)) }

func (q Quantity) Add(other Quantity) Quantity { return NewQuantity(q.value.Add(other.value), q.precision) }
func (q Quantity) Sub(other Quantity) Quantity { return NewQuantity(q.value.Sub(other.value), q.precision) }

func (q Quantity) GreaterThan(other Quantity) bool { return q.value.GreaterThan(other.value) }
func (q Quantity) GreaterThanOrEqual(o Quantity) bool { return q.value.GreaterThanOrEqual(o.value) }
func (q Quantity) LessThan(other Quantity) bool { return q.value.LessThan(other.value) }
func (q Quantity) LessThanOrEqual(other Quantity) bool { return q.value.LessThanOrEqual(other.value) }
func (q Quantity) Equal(other Quantity) bool { return q.value.Equal(other.value) }
func (q Quantity) IsZero() bool { return q.value.IsZero() }
func (q Quantity) IsPositive() bool { return q.value.IsPositive() }
