// Package account implements the Cash/Margin account variants, one per
// venue, holding balances per currency.
package account

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/shopspring/decimal"
)

// Kind discriminates Cash from Margin accounts.
type Kind uint8

const (
	Cash Kind = iota
	Margin
)

// Event records a balance-affecting mutation for the account's event log.
type Event struct {
	TsEvent    int64
	Currency   money.Currency
	DeltaTotal decimal.Decimal
	Reason     string
}

// Account owns the balances for one venue.
type Account struct {
	Id            ids.AccountId
	Kind          Kind
	Leverage      decimal.Decimal // only meaningful for Margin
	BaseCurrency  money.Currency
	Balances      map[string]money.AccountBalance // currency code -> balance
	Commissions   map[string]decimal.Decimal      // currency code -> cumulative commission paid
	Events        []Event
}

func NewCashAccount(id ids.AccountId, baseCurrency money.Currency) *Account {
	return &Account{
		Id:           id,
		Kind:         Cash,
		BaseCurrency: baseCurrency,
		Balances:     make(map[string]money.AccountBalance),
		Commissions:  make(map[string]decimal.Decimal),
	}
}

func NewMarginAccount(id ids.AccountId, baseCurrency money.Currency, leverage decimal.Decimal) *Account {
	a := NewCashAccount(id, baseCurrency)
	a.Kind = Margin
	a.Leverage = leverage
	return a
}

// Deposit seeds (or tops up) a starting balance in the given currency.
func (a *Account) Deposit(amount money.Money) error {
	existing, ok := a.Balances[amount.Currency.Code]
	if !ok {
		bal, err := money.NewAccountBalance(amount, money.ZeroMoney(amount.Currency))
		if err != nil {
			return err
		}
		a.Balances[amount.Currency.Code] = bal
		return nil
	}
	newTotal, err := existing.Total.Add(amount)
	if err != nil {
		return err
	}
	bal, err := existing.WithTotal(newTotal)
	if err != nil {
		return err
	}
	a.Balances[amount.Currency.Code] = bal
	return nil
}

// Balance returns the balance for a currency, or false if the account has
// never held that currency.
func (a *Account) Balance(currency money.Currency) (money.AccountBalance, bool) {
	b, ok := a.Balances[currency.Code]
	return b, ok
}

// ApplyFill settles one fill against the balance: new_total = old_total +
// signed_notional - commission_amount, then recompute free.
func (a *Account) ApplyFill(signedNotional decimal.Decimal, currency money.Currency, commission money.Money, tsEvent int64) error {
	existing, ok := a.Balances[currency.Code]
	if !ok {
		return fmt.Errorf("account %s: no balance held in currency %s", a.Id, currency)
	}
	newTotalAmount := existing.Total.Amount.Add(signedNotional).Sub(commission.Amount)
	newTotal := money.NewMoney(newTotalAmount, currency)
	bal, err := existing.WithTotal(newTotal)
	if err != nil {
		return err
	}
	a.Balances[currency.Code] = bal

	prev, ok := a.Commissions[commission.Currency.Code]
	if !ok {
		prev = decimal.Zero
	}
	a.Commissions[commission.Currency.Code] = prev.Add(commission.Amount)

	a.Events = append(a.Events, Event{
		TsEvent:    tsEvent,
		Currency:   currency,
		DeltaTotal: signedNotional.Sub(commission.Amount),
		Reason:     "fill",
	})
	return nil
}

// TotalValue returns the Total held in the account's base currency only —
// conversion of other currencies into the base is not modeled.
func (a *Account) TotalValue() money.Money {
	bal, ok := a.Balances[a.BaseCurrency.Code]
	if !ok {
		return money.ZeroMoney(a.BaseCurrency)
	}
	return bal.Total
}
