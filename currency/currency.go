// Package currency implements the two-currency conversion and formatting
// rules: amounts live in the primary currency, the secondary value is derived
// through a single mutable exchange rate.
package currency

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidRate = errors.New("exchange rate must be positive")

// symbols is the fixed display table. CNY and JPY share the yen sign;
// unknown codes render with no symbol at all.
var symbols = map[string]string{
	"CNY": "¥",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"HKD": "HK$",
	"CAD": "C$",
}

// Convert converts an amount at the given rate. No rounding happens here;
// stored values stay exact and rounding is applied only at display.
func Convert(amount, rate float64) float64 {
	return amount * rate
}

// Round2 rounds to two decimal places for display.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Symbol returns the display symbol for a currency code, or "" when the code
// is not in the table.
func Symbol(code string) string {
	return symbols[code]
}

// Format renders an amount with its currency symbol and two decimals.
func Format(amount float64, code string) string {
	return fmt.Sprintf("%s%.2f", symbols[code], amount)
}

// Pair is the user's primary/secondary currency pair with the rate currently
// in effect. The rate is mutated only by the rate updater or an explicit
// user edit.
type Pair struct {
	Primary    string
	Secondary  string
	Rate       float64
	LastUpdate *time.Time
}

// SetRate replaces the current rate. Non-positive or non-finite rates are
// rejected without mutating the pair.
func (p *Pair) SetRate(rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return ErrInvalidRate
	}
	p.Rate = rate
	return nil
}
