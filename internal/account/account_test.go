package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cfonb120/internal/model"
)

func TestParseIBAN(t *testing.T) {
	b, err := ParseIBAN("FR76 3000 4022 3100 0101 7355 454")
	require.NoError(t, err)
	assert.Equal(t, BBAN{
		BankCode:      "30004",
		BranchCode:    "02231",
		AccountNumber: "00010173554",
		Key:           "54",
	}, b)
}

func TestParseIBAN_LowercaseAndLetters(t *testing.T) {
	b, err := ParseIBAN("fr1420041010050500013m02606")
	require.NoError(t, err)
	assert.Equal(t, "20041", b.BankCode)
	assert.Equal(t, "01005", b.BranchCode)
	assert.Equal(t, "0500013M026", b.AccountNumber)
	assert.Equal(t, "06", b.Key)
}

func TestParseIBAN_Malformed(t *testing.T) {
	tests := []struct {
		name string
		iban string
	}{
		{"empty", ""},
		{"not french", "DE89 3704 0044 0532 0130 00"},
		{"too short", "FR76 3000 4022 3100 0101 7355 45"},
		{"too long", "FR76 3000 4022 3100 0101 7355 4541"},
		{"letters in bank code", "FR76 3A00 4022 3100 0101 7355 454"},
		{"letters in key", "FR76 3000 4022 3100 0101 7355 4X4"},
		{"punctuation in account", "FR76 3000 4022 3100 0101-7355 454"},
	}
	for _, tt := range tests {
		_, err := ParseIBAN(tt.iban)
		assert.ErrorIs(t, err, ErrMalformedIBAN, tt.name)
	}
}

func TestFromIBAN_Defaults(t *testing.T) {
	id, err := FromIBAN("FR7630004022310001017355454", "", DefaultDecimalPlaces)
	require.NoError(t, err)
	assert.Equal(t, model.Identity{
		BankCode:      "30004",
		BranchCode:    "02231",
		AccountNumber: "00010173554",
		Currency:      "EUR",
		DecimalPlaces: 2,
	}, id)
}

func TestValidate(t *testing.T) {
	good := model.Identity{BankCode: "30004", BranchCode: "02231", AccountNumber: "00010173554", Currency: "EUR", DecimalPlaces: 2}
	require.NoError(t, Validate(good))

	tests := []struct {
		name   string
		mutate func(*model.Identity)
	}{
		{"short bank", func(id *model.Identity) { id.BankCode = "3000" }},
		{"alpha branch", func(id *model.Identity) { id.BranchCode = "0223A" }},
		{"empty account", func(id *model.Identity) { id.AccountNumber = "" }},
		{"long account", func(id *model.Identity) { id.AccountNumber = "000101735541" }},
		{"currency length", func(id *model.Identity) { id.Currency = "EURO" }},
		{"lower currency", func(id *model.Identity) { id.Currency = "eur" }},
		{"negative places", func(id *model.Identity) { id.DecimalPlaces = -1 }},
		{"too many places", func(id *model.Identity) { id.DecimalPlaces = 10 }},
	}
	for _, tt := range tests {
		id := good
		tt.mutate(&id)
		assert.ErrorIs(t, Validate(id), ErrInvalidIdentity, tt.name)
	}
}

func TestResolve(t *testing.T) {
	explicit := model.Identity{BankCode: "12345", BranchCode: "67890", AccountNumber: "abc123", Currency: "usd", DecimalPlaces: 2}

	id, err := Resolve("", explicit)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", id.AccountNumber)
	assert.Equal(t, "USD", id.Currency)

	id, err = Resolve("FR76 3000 4022 3100 0101 7355 454", explicit)
	require.NoError(t, err)
	assert.Equal(t, "30004", id.BankCode)
	assert.Equal(t, "USD", id.Currency, "currency is taken from the explicit parameters")

	_, err = Resolve("FR00", explicit)
	assert.ErrorIs(t, err, ErrMalformedIBAN)
}
