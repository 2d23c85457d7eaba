package format

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FmtCurrency formats a major-unit amount. Whole amounts drop the decimals.
// Example: FmtCurrency(1599, "CNY") => "¥1,599"
func FmtCurrency(amount float64, currency string) string {
	symbol := currencySymbol(currency)
	neg := amount < 0
	amount = math.Abs(amount)
	var digits string
	if amount == math.Trunc(amount) {
		digits = printer.Sprint(number.Decimal(int64(amount)))
	} else {
		digits = printer.Sprint(number.Decimal(amount, number.Scale(2)))
	}
	if neg {
		return "-" + symbol + digits
	}
	return symbol + digits
}

func currencySymbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "CNY", "RMB", "JPY":
		return "¥"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "":
		return ""
	default:
		return strings.ToUpper(currency) + " "
	}
}

// PriceDisplay renders the "amount / period" label shown on plan cards.
func PriceDisplay(amount float64, currency, period string) string {
	out := FmtCurrency(amount, currency)
	if period = strings.TrimSpace(period); period != "" {
		out += " / " + period
	}
	return out
}

// FmtDate formats time in a locale-friendly short form.
func FmtDate(t time.Time, lang string) string {
	switch strings.ToLower(lang) {
	case "zh":
		return t.Format("2006年1月2日")
	default:
		return t.Format("Jan 2, 2006")
	}
}
