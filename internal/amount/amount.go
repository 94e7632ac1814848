// Package amount encodes signed monetary values into fixed-width CFONB digit fields.
package amount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects how the sign of an amount is carried.
type Mode string

const (
	// Plain writes the magnitude only; the sign is implied by the record.
	Plain Mode = "plain"
	// Overpunch folds the sign into the last character of the field.
	Overpunch Mode = "overpunch"
)

// ParseMode parses "plain" or "overpunch" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Plain:
		return Plain, nil
	case Overpunch:
		return Overpunch, nil
	default:
		return "", fmt.Errorf("unknown amount encoding %q (want plain or overpunch)", s)
	}
}

var (
	// ErrOverflow is returned when a magnitude has more digits than the field holds.
	ErrOverflow = errors.New("amount overflow")
	// ErrInvalidField is returned when an encoded field cannot be decoded.
	ErrInvalidField = errors.New("invalid amount field")
)

// Substitution alphabets for the last digit, indexed by digit value.
var (
	creditPunch = [10]byte{'{', 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I'}
	debitPunch  = [10]byte{'}', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R'}
)

// Punch returns the overpunch character for an ASCII digit.
func Punch(digit byte, negative bool) byte {
	if digit < '0' || digit > '9' {
		panic(fmt.Sprintf("amount: not a digit: %q", digit))
	}
	if negative {
		return debitPunch[digit-'0']
	}
	return creditPunch[digit-'0']
}

// Unpunch reverses Punch across both alphabets.
func Unpunch(c byte) (digit byte, negative bool, ok bool) {
	for i := range creditPunch {
		if creditPunch[i] == c {
			return byte('0' + i), false, true
		}
		if debitPunch[i] == c {
			return byte('0' + i), true, true
		}
	}
	return 0, false, false
}

// Encode renders v as exactly width characters.
//
// The magnitude is scaled by 10^places and rounded half-up. Amounts whose scaled
// magnitude needs more than width digits fail with ErrOverflow; an amount is never
// truncated. In Overpunch mode the last digit is substituted from the credit alphabet
// when v >= 0 and from the debit alphabet when v < 0.
func Encode(v decimal.Decimal, places, width int, mode Mode) (string, error) {
	if places < 0 {
		return "", fmt.Errorf("invalid decimal places %d", places)
	}
	if width <= 0 {
		return "", fmt.Errorf("invalid amount width %d", width)
	}
	if mode != Plain && mode != Overpunch {
		return "", fmt.Errorf("unknown amount encoding %q", mode)
	}

	scaled := v.Abs().Shift(int32(places)).Round(0)
	digits := scaled.BigInt().String()
	if len(digits) > width {
		return "", fmt.Errorf("%w: %s needs %d digits, field holds %d", ErrOverflow, v.StringFixed(int32(places)), len(digits), width)
	}

	buf := []byte(strings.Repeat("0", width-len(digits)) + digits)
	if mode == Overpunch {
		last := len(buf) - 1
		buf[last] = Punch(buf[last], v.IsNegative())
	}
	return string(buf), nil
}

// Decode parses a field produced by Encode. Plain fields always decode as non-negative.
func Decode(field string, places int, mode Mode) (decimal.Decimal, error) {
	if field == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidField)
	}

	digits := []byte(field)
	negative := false
	switch mode {
	case Overpunch:
		last := len(digits) - 1
		d, neg, ok := Unpunch(digits[last])
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %q has no sign character", ErrInvalidField, field)
		}
		digits[last] = d
		negative = neg
	case Plain:
	default:
		return decimal.Zero, fmt.Errorf("unknown amount encoding %q", mode)
	}

	for _, c := range digits {
		if c < '0' || c > '9' {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidField, field)
		}
	}

	v, err := decimal.NewFromString(string(digits))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidField, field, err)
	}
	v = v.Shift(-int32(places))
	if negative {
		v = v.Neg()
	}
	return v, nil
}
