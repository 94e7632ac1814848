package model

// Identity is the account a statement belongs to, as written in every record header.
type Identity struct {
	BankCode      string // 5 digits
	BranchCode    string // 5 digits
	AccountNumber string // 11 characters
	Currency      string // ISO 4217, e.g. "EUR"
	DecimalPlaces int
}
