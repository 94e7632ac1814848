// Package account derives the account identity written in every record header, either
// from a French IBAN or from explicit bank, branch and account parameters.
package account

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/cfonb120/internal/model"
)

var (
	// ErrMalformedIBAN is returned for IBANs that are not French or not 27 characters long.
	ErrMalformedIBAN = errors.New("malformed IBAN")
	// ErrInvalidIdentity is returned for explicit parameters that cannot fill the header.
	ErrInvalidIdentity = errors.New("invalid account identity")
)

const (
	ibanLength  = 27
	ibanCountry = "FR"

	// DefaultCurrency is used when no currency is configured.
	DefaultCurrency = "EUR"
	// DefaultDecimalPlaces is the number of decimals of EUR amounts.
	DefaultDecimalPlaces = 2
)

// BBAN is the decomposed French basic bank account number.
type BBAN struct {
	BankCode      string
	BranchCode    string
	AccountNumber string
	Key           string
}

// ParseIBAN strips spaces, upper-cases and splits a French IBAN into its BBAN parts.
// The IBAN and RIB check digits are not verified.
func ParseIBAN(iban string) (BBAN, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(iban), ""))

	if !strings.HasPrefix(s, ibanCountry) {
		return BBAN{}, fmt.Errorf("%w: %q is not a French IBAN", ErrMalformedIBAN, iban)
	}
	if len(s) != ibanLength {
		return BBAN{}, fmt.Errorf("%w: %q has %d characters, want %d", ErrMalformedIBAN, iban, len(s), ibanLength)
	}

	b := BBAN{
		BankCode:      s[4:9],
		BranchCode:    s[9:14],
		AccountNumber: s[14:25],
		Key:           s[25:27],
	}
	if !isDigits(b.BankCode) || !isDigits(b.BranchCode) {
		return BBAN{}, fmt.Errorf("%w: %q bank and branch codes must be numeric", ErrMalformedIBAN, iban)
	}
	if !isAlnum(b.AccountNumber) || !isDigits(b.Key) {
		return BBAN{}, fmt.Errorf("%w: %q account number or key is not well formed", ErrMalformedIBAN, iban)
	}
	return b, nil
}

// FromIBAN builds an identity from an IBAN. An empty currency defaults to EUR.
func FromIBAN(iban, currency string, places int) (model.Identity, error) {
	b, err := ParseIBAN(iban)
	if err != nil {
		return model.Identity{}, err
	}
	id := model.Identity{
		BankCode:      b.BankCode,
		BranchCode:    b.BranchCode,
		AccountNumber: b.AccountNumber,
		Currency:      currency,
		DecimalPlaces: places,
	}
	return Normalize(id)
}

// Normalize upper-cases codes, defaults the currency and validates the result.
func Normalize(id model.Identity) (model.Identity, error) {
	id.BankCode = strings.TrimSpace(id.BankCode)
	id.BranchCode = strings.TrimSpace(id.BranchCode)
	id.AccountNumber = strings.ToUpper(strings.TrimSpace(id.AccountNumber))
	id.Currency = strings.ToUpper(strings.TrimSpace(id.Currency))
	if id.Currency == "" {
		id.Currency = DefaultCurrency
	}
	if err := Validate(id); err != nil {
		return model.Identity{}, err
	}
	return id, nil
}

// Validate checks that every header field fits its record slot.
func Validate(id model.Identity) error {
	if len(id.BankCode) != 5 || !isDigits(id.BankCode) {
		return fmt.Errorf("%w: bank code %q must be 5 digits", ErrInvalidIdentity, id.BankCode)
	}
	if len(id.BranchCode) != 5 || !isDigits(id.BranchCode) {
		return fmt.Errorf("%w: branch code %q must be 5 digits", ErrInvalidIdentity, id.BranchCode)
	}
	if id.AccountNumber == "" || len(id.AccountNumber) > 11 || !isAlnum(id.AccountNumber) {
		return fmt.Errorf("%w: account number %q must be 1 to 11 letters or digits", ErrInvalidIdentity, id.AccountNumber)
	}
	if len(id.Currency) != 3 || !isUpper(id.Currency) {
		return fmt.Errorf("%w: currency %q must be a 3-letter code", ErrInvalidIdentity, id.Currency)
	}
	if id.DecimalPlaces < 0 || id.DecimalPlaces > 9 {
		return fmt.Errorf("%w: decimal places %d out of range 0-9", ErrInvalidIdentity, id.DecimalPlaces)
	}
	return nil
}

// Resolve picks the IBAN when one is given, otherwise the explicit parameters.
func Resolve(iban string, explicit model.Identity) (model.Identity, error) {
	if strings.TrimSpace(iban) != "" {
		return FromIBAN(iban, explicit.Currency, explicit.DecimalPlaces)
	}
	return Normalize(explicit)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func isUpper(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
