package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseRejectsNegative(t *testing.T) {
	if _, err := Parse("-5.00", USD); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseRoundsHalfUp(t *testing.T) {
	cases := map[string]int64{
		"1.005": 101,
		"1.004": 100,
		"1.015": 102,
		"0.125": 13,
	}
	for input, want := range cases {
		a, err := Parse(input, DOP)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if a.Units != want {
			t.Fatalf("parse %q: expected %d units, got %d", input, want, a.Units)
		}
	}
}

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	a := FromUnits(100, USD)
	b := FromUnits(100, DOP)
	if _, err := a.Add(b); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestMulDecimalRoundsOnce(t *testing.T) {
	a := FromUnits(1_000, USD) // 10.00
	rate := decimal.RequireFromString("58.005")
	got := a.MulDecimal(rate)
	// 10.00 x 58.005 = 580.05 exactly, no cumulative rounding.
	if got.Units != 58_005 {
		t.Fatalf("expected 58005 units, got %d", got.Units)
	}
}

func TestDivIntRejectsZero(t *testing.T) {
	a := FromUnits(100, DOP)
	if _, err := a.DivInt(0); err == nil {
		t.Fatal("expected error dividing by zero")
	}
}

func TestToHomeForeign(t *testing.T) {
	amount := FromUnits(50_000, USD) // 500.00 USD
	fee := FromUnits(1_000, USD)     // 10.00 USD
	rate := decimal.NewFromInt(58)
	conv, err := ToHome(amount, fee, rate, DOP)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if conv.Gross.Units != 2_900_000 {
		t.Fatalf("expected gross 2900000, got %d", conv.Gross.Units)
	}
	if conv.Net.Units != 2_842_000 {
		t.Fatalf("expected net 2842000, got %d", conv.Net.Units)
	}
	if conv.Net.Currency != DOP {
		t.Fatalf("expected DOP net, got %s", conv.Net.Currency)
	}
}

func TestToHomeDomesticIgnoresRate(t *testing.T) {
	amount := FromUnits(10_000, DOP)
	fee := FromUnits(250, DOP)
	conv, err := ToHome(amount, fee, decimal.Zero, DOP)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if conv.Gross.Units != 10_000 || conv.Net.Units != 9_750 {
		t.Fatalf("unexpected conversion %+v", conv)
	}
}

func TestToHomeRoundTripAtRateOne(t *testing.T) {
	amount := FromUnits(12_345, USD)
	conv, err := ToHome(amount, Zero(USD), decimal.NewFromInt(1), DOP)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if conv.Gross.Units != amount.Units || conv.Net.Units != amount.Units {
		t.Fatalf("rate-1 conversion changed the amount: %+v", conv)
	}
}

func TestToHomeRejectsNonPositiveRate(t *testing.T) {
	amount := FromUnits(100, USD)
	for _, rate := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		if _, err := ToHome(amount, Zero(USD), rate, DOP); !errors.Is(err, ErrInvalidExchangeRate) {
			t.Fatalf("rate %s: expected ErrInvalidExchangeRate, got %v", rate, err)
		}
	}
}
