package money

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for ringgit amounts.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Amount is a ringgit value stored in sen (1 RM = 100 sen).
// Ledger entries use the sign: debits are negative, credits positive.
type Amount int64

// Zero is the zero amount
const Zero Amount = 0

// Max is the largest magnitude accepted for a single amount (RM 100 million).
const Max Amount = 100_000_000_00

// ErrOutOfRange is returned for amounts whose magnitude exceeds Max
var ErrOutOfRange = errors.New("amount out of range")

var maxDecimal = decimal.NewFromInt(int64(Max))

// FromSen wraps a raw sen value
func FromSen(sen int64) Amount {
	return Amount(sen)
}

// RM converts whole ringgit to an Amount
func RM(ringgit int64) Amount {
	return Amount(ringgit * 100)
}

// Parse converts a human-readable amount like "15", "15.5" or "RM 10.00" to sen.
// Values with more than two fractional digits are rounded to the nearest sen.
func Parse(s string) (Amount, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "RM")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0, fmt.Errorf("amount is required")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format: %q", s)
	}

	return FromDecimal(d)
}

// FromDecimal converts a decimal ringgit value to sen.
// Values beyond Max are rejected with ErrOutOfRange.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	sen := d.Mul(hundred).Round(0)
	if sen.Abs().GreaterThan(maxDecimal) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return Amount(sen.IntPart()), nil
}

// Decimal returns the amount as a decimal ringgit value
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// Sen returns the raw sen value
func (a Amount) Sen() int64 {
	return int64(a)
}

// String renders the amount with two fractional digits, e.g. "15.00"
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// Neg returns the negated amount
func (a Amount) Neg() Amount {
	return -a
}

// Abs returns the absolute amount
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Mul multiplies the amount by an integer quantity. A product beyond Max
// returns ErrOutOfRange.
func (a Amount) Mul(qty int64) (Amount, error) {
	if a == 0 || qty == 0 {
		return 0, nil
	}
	absQty := qty
	if absQty < 0 {
		absQty = -absQty
	}
	if absQty < 0 || a.Abs() > Max || int64(a.Abs()) > int64(Max)/absQty {
		return 0, ErrOutOfRange
	}
	return a * Amount(qty), nil
}

// InRange reports whether the magnitude of the amount is at most Max
func (a Amount) InRange() bool {
	return a >= -Max && a <= Max
}

// IsPositive reports whether the amount is greater than zero
func (a Amount) IsPositive() bool {
	return a > 0
}

// IsNegative reports whether the amount is below zero
func (a Amount) IsNegative() bool {
	return a < 0
}

// Sum adds amounts together
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// MarshalJSON renders the amount as a JSON number with two decimals
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	parsed, err := Parse(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Decode implements envconfig.Decoder so amounts can be configured as "15.00"
func (a *Amount) Decode(value string) error {
	parsed, err := Parse(value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
