// Package rupiah formats integer rupiah amounts the way the back office shows them.
package rupiah

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

// Format renders 1250000 as "Rp1.250.000" and -5000 as "-Rp5.000".
func Format(amount int64) string {
	if amount < 0 {
		// -(amount+1) fits int64 even for math.MinInt64
		return "-Rp" + printer.Sprintf("%d", uint64(-(amount+1))+1)
	}
	return "Rp" + printer.Sprintf("%d", amount)
}
