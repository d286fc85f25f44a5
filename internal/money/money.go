package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money pairs an exact decimal amount with its currency. Arithmetic between
// two Money values fails when the currencies differ — cross-currency
// conversion is not modeled anywhere in the kernel.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount.Round(int32(currency.Precision)), Currency: currency}
}

func NewMoneyFromFloat(f float64, currency Currency) Money {
	return NewMoney(decimal.NewFromFloat(f), currency)
}

func ZeroMoney(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(int32(m.Currency.Precision)), m.Currency.Code)
}

func (m Money) Add(other Money) (Money, error) {
	if !m.Currency.Equal(other.Currency) {
		return Money{}, fmt.Errorf("money: currency mismatch %s vs %s", m.Currency, other.Currency)
	}
	return NewMoney(m.Amount.Add(other.Amount), m.Currency), nil
}

func (m Money) Sub(other Money) (Money, error) {
	if !m.Currency.Equal(other.Currency) {
		return Money{}, fmt.Errorf("money: currency mismatch %s vs %s", m.Currency, other.Currency)
	}
	return NewMoney(m.Amount.Sub(other.Amount), m.Currency), nil
}

func (m Money) Negate() Money {
	return NewMoney(m.Amount.Neg(), m.Currency)
}

func (m Money) IsZero() bool { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// AccountBalance maintains the invariant Free = Total - Locked, all three
// denominated in the same currency.
type AccountBalance struct {
	Total  Money
	Locked Money
	Free   Money
}

// NewAccountBalance computes Free from Total and Locked, validating the
// currencies match.
func NewAccountBalance(total, locked Money) (AccountBalance, error) {
	free, err := total.Sub(locked)
	if err != nil {
		return AccountBalance{}, err
	}
	return AccountBalance{Total: total, Locked: locked, Free: free}, nil
}

// WithTotal returns a new balance with Total replaced and Free recomputed,
// preserving Locked.
func (b AccountBalance) WithTotal(total Money) (AccountBalance, error) {
	return NewAccountBalance(total, b.Locked)
}
