// Package currency formats amounts in Chilean pesos, the only currency the
// storefront deals in. Prices are whole peso amounts with no minor units.
package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.MustParse("es-CL"))

// FormatCLP renders an amount like 13000 as "$13.000".
func FormatCLP(amount int) string {
	return printer.Sprintf("$%d", amount)
}
