package up

import "github.com/shopspring/decimal"

// Money is an amount as reported by the Up API: a decimal string in
// major units alongside the equivalent integer count of base units
// (cents for AUD).
type Money struct {
	CurrencyCode     string
	Value            string
	ValueInBaseUnits int64
}

// Decimal parses the major-unit value string.
func (m Money) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(m.Value)
}

// Format renders the amount for display, e.g. "-15.00 AUD". Falls back
// to the raw value string if it does not parse.
func (m Money) Format() string {
	d, err := m.Decimal()
	if err != nil {
		return m.Value + " " + m.CurrencyCode
	}
	return d.StringFixed(2) + " " + m.CurrencyCode
}

// MoneyFromDecimal builds a Money from a major-unit decimal amount,
// deriving the base-unit count at two decimal places.
func MoneyFromDecimal(d decimal.Decimal, currencyCode string) Money {
	return Money{
		CurrencyCode:     currencyCode,
		Value:            d.StringFixed(2),
		ValueInBaseUnits: d.Shift(2).IntPart(),
	}
}
