package instrument

import (
	"testing"
	"time"

	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/shopspring/decimal"
)

func testId() ids.InstrumentId {
	return ids.NewInstrumentId(ids.NewSymbol("AAPL"), ids.NewVenue("SIM"))
}

func testCommon() Common {
	return Common{
		Id:             testId(),
		QuoteCurrency:  money.USD,
		PricePrecision: 2,
		SizePrecision:  0,
		Multiplier:     decimal.NewFromInt(1),
	}
}

func TestCheckPriceRejectsMismatchedPrecision(t *testing.T) {
	instr := NewEquity(testCommon())
	if err := instr.CheckPrice(money.NewPriceFromFloat(100, 2)); err != nil {
		t.Fatalf("expected matching precision to pass, got %v", err)
	}
	if err := instr.CheckPrice(money.NewPriceFromFloat(100, 4)); err == nil {
		t.Fatal("expected a precision mismatch error")
	}
}

func TestCheckQuantityRejectsMismatchedPrecision(t *testing.T) {
	instr := NewEquity(testCommon())
	if err := instr.CheckQuantity(money.NewQuantityFromFloat(10, 0)); err != nil {
		t.Fatalf("expected matching precision to pass, got %v", err)
	}
	if err := instr.CheckQuantity(money.NewQuantityFromFloat(10, 2)); err == nil {
		t.Fatal("expected a precision mismatch error")
	}
}

func TestNotionalAppliesMultiplier(t *testing.T) {
	common := testCommon()
	common.Multiplier = decimal.NewFromInt(100)
	instr := NewFuturesContract(common, money.USD, time.Unix(0, 0))

	got := instr.Notional(money.NewPriceFromFloat(10, 2), money.NewQuantityFromFloat(2, 0))
	want := decimal.NewFromInt(10).Mul(decimal.NewFromInt(2)).Mul(decimal.NewFromInt(100))
	if !got.Equal(want) {
		t.Fatalf("Notional: got %s, want %s", got, want)
	}
}

func TestNotionalDefaultsMultiplierToOne(t *testing.T) {
	instr := NewEquity(Common{Id: testId(), QuoteCurrency: money.USD, PricePrecision: 2, SizePrecision: 0})
	got := instr.Notional(money.NewPriceFromFloat(10, 2), money.NewQuantityFromFloat(2, 0))
	if !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("Notional with zero multiplier: got %s, want 20", got)
	}
}

func TestVariantConstructorsSetKindAndSettlementCurrency(t *testing.T) {
	common := testCommon()

	eq := NewEquity(common)
	if eq.Kind != Equity || eq.SettlementCurrency != nil {
		t.Fatalf("NewEquity: unexpected fields %+v", eq)
	}

	cp := NewCurrencyPair(common, money.USDC)
	if cp.Kind != CurrencyPair || cp.SettlementCurrency == nil || !cp.SettlementCurrency.Equal(money.USDC) {
		t.Fatalf("NewCurrencyPair: unexpected fields %+v", cp)
	}

	perp := NewCryptoPerpetual(common, money.USDC)
	if perp.Kind != CryptoPerpetual || perp.SettlementCurrency == nil {
		t.Fatalf("NewCryptoPerpetual: unexpected fields %+v", perp)
	}

	expiry := time.Unix(1700000000, 0)
	fut := NewFuturesContract(common, money.USD, expiry)
	if fut.Kind != FuturesContract || fut.Expiry == nil || !fut.Expiry.Equal(expiry) {
		t.Fatalf("NewFuturesContract: unexpected fields %+v", fut)
	}

	strike := money.NewPriceFromFloat(150, 2)
	opt := NewOptionsContract(common, money.USD, expiry, strike, true)
	if opt.Kind != OptionsContract || opt.StrikePrice == nil || !opt.IsCall {
		t.Fatalf("NewOptionsContract: unexpected fields %+v", opt)
	}
}
