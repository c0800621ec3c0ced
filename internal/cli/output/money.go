package output

import (
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatMoney formats amount in the ISO currency code for tag, e.g.
// "$ 150.000,50" for COP in Spanish. Unknown codes are printed as the code
// followed by the number.
func FormatMoney(amount float64, code string, tag language.Tag) string {
	p := message.NewPrinter(tag)
	num := p.Sprint(number.Decimal(amount, number.Scale(2)))

	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return strings.ToUpper(code) + " " + num
	}
	sym := p.Sprint(currency.NarrowSymbol(unit))
	return sym + " " + num
}

// FormatDate renders t as a short local date and time.
func FormatDate(t time.Time, tag language.Tag) string {
	if t.IsZero() {
		return "-"
	}
	base, _ := tag.Base()
	if base.String() == "en" {
		return t.Format("01/02/2006 15:04")
	}
	return t.Format("02/01/2006 15:04")
}
