package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BalanceMode tells how a balance found in the export relates to the statement period.
type BalanceMode string

const (
	// BalanceOpening treats the exported balance as the start-of-period balance.
	BalanceOpening BalanceMode = "opening"
	// BalanceClosing treats the exported balance as the end-of-period balance.
	BalanceClosing BalanceMode = "closing"
)

// ParseBalanceMode parses "opening" or "closing" (case-insensitive).
func ParseBalanceMode(s string) (BalanceMode, error) {
	switch BalanceMode(strings.ToLower(strings.TrimSpace(s))) {
	case BalanceOpening:
		return BalanceOpening, nil
	case BalanceClosing:
		return BalanceClosing, nil
	default:
		return "", fmt.Errorf("unknown balance mode %q (want opening or closing)", s)
	}
}

// Statement is an ordered set of transactions with its starting balance.
type Statement struct {
	Opening      decimal.Decimal
	Transactions []Transaction
}

// Total returns the exact sum of all transaction amounts.
func (s Statement) Total() decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.Transactions {
		total = total.Add(t.Amount)
	}
	return total
}

// Closing returns Opening + Total.
func (s Statement) Closing() decimal.Decimal {
	return s.Opening.Add(s.Total())
}
