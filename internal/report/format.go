package report

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders a whole-rupiah amount with Indonesian grouping,
// e.g. 3500000 → "Rp.3.500.000".
func FormatRupiah(amount float64) string {
	rounded := math.Round(amount)
	return "Rp." + idPrinter.Sprint(number.Decimal(rounded, number.MaxFractionDigits(0)))
}
