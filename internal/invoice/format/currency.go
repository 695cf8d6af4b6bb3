package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

var leadingSymbols = map[string]struct{}{
	"$": {},
	"£": {},
	"€": {},
	"₹": {},
}

// Amount renders a grouped two-decimal amount, e.g. "12,500.00".
func Amount(amount decimal.Decimal) string {
	return printer.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2)))
}

// Currency renders an amount with the symbol configured for code. Dollar
// style symbols are prefixed directly; codes without a catalog entry and
// alphabetic symbols are separated by a space.
func Currency(amount decimal.Decimal, code string, catalog config.InvoicingConfig) string {
	formatted := Amount(amount)
	cur, ok := catalog.Currency(code)
	if !ok {
		return code + " " + formatted
	}
	if _, prefix := leadingSymbols[cur.Symbol]; prefix || strings.HasSuffix(cur.Symbol, "$") {
		return cur.Symbol + formatted
	}
	return cur.Symbol + " " + formatted
}
