// Package money formats amounts for display and generates mock prices.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts as locale-aware currency strings with exactly
// two decimal digits, e.g. "£1,234.50".
type Formatter struct {
	tag             language.Tag
	defaultCurrency string
}

func NewFormatter(locale, defaultCurrency string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{tag: tag, defaultCurrency: defaultCurrency}
}

func (f *Formatter) DefaultCurrency() string {
	return f.defaultCurrency
}

// Format renders amount in the given ISO 4217 currency. An unknown code is
// printed in place of the symbol.
func (f *Formatter) Format(amount decimal.Decimal, code string) string {
	p := message.NewPrinter(f.tag)

	symbol := code
	if unit, err := currency.ParseISO(code); err == nil {
		symbol = p.Sprint(currency.NarrowSymbol(unit))
	}

	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + symbol + p.Sprintf("%.2f", rounded.InexactFloat64())
}

// FormatDefault formats amount in the formatter's default currency.
func (f *Formatter) FormatDefault(amount decimal.Decimal) string {
	return f.Format(amount, f.defaultCurrency)
}
