package enums

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Currency is the ISO 4217 code an item is priced in.
type Currency string

const CurrencyRUB Currency = "RUB"

// DefaultCurrency is applied when an item is imported without a currency.
const DefaultCurrency = CurrencyRUB

var currencyValidator = validator.New()

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether c is an ISO 4217 alphabetic code.
func (c Currency) IsValid() bool {
	return currencyValidator.Var(string(c), "required,iso4217") == nil
}

// ParseCurrency upper-cases and trims value, then accepts any ISO 4217 alphabetic code.
func ParseCurrency(value string) (Currency, error) {
	currency := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if !currency.IsValid() {
		return "", fmt.Errorf("invalid currency %q: expected an ISO 4217 code", value)
	}
	return currency, nil
}
