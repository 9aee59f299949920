// Package amount turns a free-text donation amount such as "5$" or
// "20000VND" into a USD settlement amount.
package amount

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thaiminh0911/telefilm-bot/src/entities"
)

var (
	ErrInvalidFormat = errors.New("invalid amount format")
	ErrBelowMinimum  = errors.New("amount below minimum")
	ErrInvalidRate   = errors.New("invalid exchange rate")
)

var (
	MinUSD = decimal.RequireFromString("0.5")
	MinVND = decimal.NewFromInt(10000)
)

const (
	suffixUSD = "$"
	suffixVND = "VND"
)

// Input is a parsed amount in the currency the user typed.
type Input struct {
	Value    decimal.Decimal
	Currency entities.Currency
}

// NeedsRate reports whether settling the input requires an exchange rate.
func (in Input) NeedsRate() bool {
	return in.Currency != entities.CurrencyUSD
}

// Parse validates the suffix, the number and the per-currency minimum.
func Parse(raw string) (Input, error) {
	text := strings.TrimSpace(raw)

	var (
		number   string
		currency entities.Currency
		minimum  decimal.Decimal
	)
	switch {
	case strings.HasSuffix(text, suffixUSD):
		number = strings.TrimSuffix(text, suffixUSD)
		currency, minimum = entities.CurrencyUSD, MinUSD
	// "vnd" and "Vnd" are accepted as well as "VND".
	case len(text) >= len(suffixVND) && strings.EqualFold(text[len(text)-len(suffixVND):], suffixVND):
		number = text[:len(text)-len(suffixVND)]
		currency, minimum = entities.CurrencyVND, MinVND
	default:
		return Input{}, ErrInvalidFormat
	}

	value, err := decimal.NewFromString(strings.TrimSpace(number))
	if err != nil {
		return Input{}, ErrInvalidFormat
	}
	if value.LessThan(minimum) {
		return Input{Value: value, Currency: currency}, ErrBelowMinimum
	}

	return Input{Value: value, Currency: currency}, nil
}

// Settle converts the input to USD using rate (VND per USD). No rounding is
// applied here; the gateway request formats the total to cents.
func (in Input) Settle(rate decimal.Decimal) (decimal.Decimal, error) {
	if !in.NeedsRate() {
		return in.Value, nil
	}
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return in.Value.Div(rate), nil
}

// Resolve is the single-call form of Parse followed by Settle, for callers
// that already hold a rate. The settlement currency is always USD.
func Resolve(raw string, rate decimal.Decimal) (decimal.Decimal, entities.Currency, error) {
	in, err := Parse(raw)
	if err != nil {
		return decimal.Zero, "", err
	}
	value, err := in.Settle(rate)
	if err != nil {
		return decimal.Zero, "", err
	}
	return value, entities.CurrencyUSD, nil
}
