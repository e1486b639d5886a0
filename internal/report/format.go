// Package report turns a monthly breakdown into the revenue page view and
// into the single-page PDF export.
package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatEuro renders an amount the way it-IT locales print EUR, e.g. "1.234,56 €".
func FormatEuro(amount float64) string {
	return formatNumber(amount, 2) + " €"
}

// FormatPercent renders a 0..1 share with one decimal, e.g. "37,5%".
func FormatPercent(share float64) string {
	return formatNumber(share*100, 1) + "%"
}

func formatNumber(v float64, places int32) string {
	s := decimal.NewFromFloat(v).StringFixed(places)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}

	out := b.String()
	if neg && strings.Trim(out, "0.,") != "" {
		out = "-" + out
	}
	return out
}
