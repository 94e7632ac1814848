package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one normalized statement movement.
type Transaction struct {
	Date      time.Time
	Amount    decimal.Decimal // negative = debit, positive = credit
	Label     string
	Reference string
	Row       int // 1-based source row
}
