package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidExchangeRate is returned when a foreign-currency conversion is
// attempted with a rate that is zero or negative.
var ErrInvalidExchangeRate = errors.New("money: invalid exchange rate")

// Conversion is the home-currency view of a single disbursement: the gross
// converted amount and the net amount after the bank/transaction fee.
type Conversion struct {
	Gross Amount
	Net   Amount
}

// ToHome converts a payment to the home currency. The fee is stated in the
// payment's own currency: for foreign payments both the amount and the fee are
// converted at the same rate, each rounded half up exactly once, and the net is
// the difference of the two rounded values (gross then net-of-fee, matching how
// disbursements are booked).
//
// For payments already in the home currency the rate is ignored and the fee is
// subtracted directly.
func ToHome(amount Amount, fee Amount, rate decimal.Decimal, home Currency) (Conversion, error) {
	if amount.Currency != fee.Currency {
		return Conversion{}, fmt.Errorf("%w: fee in %s for %s payment", ErrCurrencyMismatch, fee.Currency, amount.Currency)
	}
	if amount.Currency == home {
		net, err := amount.Sub(fee)
		if err != nil {
			return Conversion{}, err
		}
		return Conversion{Gross: amount, Net: net}, nil
	}
	if rate.Sign() <= 0 {
		return Conversion{}, fmt.Errorf("%w: %s", ErrInvalidExchangeRate, rate)
	}
	gross := Amount{Units: amount.MulDecimal(rate).Units, Currency: home}
	feeHome := Amount{Units: fee.MulDecimal(rate).Units, Currency: home}
	net, err := gross.Sub(feeHome)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{Gross: gross, Net: net}, nil
}
