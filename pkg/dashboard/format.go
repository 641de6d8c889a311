package dashboard

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/seafoodai/seafood-terminal/pkg/dataset"
)

// FormatEuroPrice renders a unit price, e.g. "€12.50/kg".
func FormatEuroPrice(price float64, unit string) string {
	return "€" + toFixed(price, 2) + "/" + unit
}

// FormatUSD renders a dollar amount with two decimals, e.g. "$3.07".
func FormatUSD(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatPercent renders a signed percentage with one decimal, e.g. "+2.1%"
// or "-1.4%".
func FormatPercent(value float64) string {
	sign := ""
	if value >= 0 {
		sign = "+"
	}
	return sign + toFixed(value, 1) + "%"
}

// toFixed rounds the exact binary value of v to places decimals, half away
// from zero, keeping the sign of negative values that round to zero
// (1.005 -> "1.00", -0.04 -> "-0.0").
func toFixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	// 1074 fractional digits hold any float64 exactly.
	exact := decimal.RequireFromString(new(big.Float).SetFloat64(v).Text('f', 1074))
	s := exact.StringFixed(places)
	if v < 0 && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}

// FormatQuantity renders a number with thousands separators and at most
// three decimals, e.g. 12345.6789 -> "12,345.679".
func FormatQuantity(value float64) string {
	s := decimal.NewFromFloat(value).Round(3).String()

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// CleanSpeciesName turns an NMFS species name into a display name: "**"
// markers are dropped, comma-separated parts reversed and each word
// capitalized, e.g. "CRAB, SNOW" -> "Snow Crab".
func CleanSpeciesName(name string) string {
	parts := strings.Split(strings.ReplaceAll(name, "**", ""), ", ")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	words := strings.Split(strings.ToLower(strings.Join(parts, " ")), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// number reads a numeric field. Numbers encoded as strings are accepted;
// anything else reads as 0.
func number(r dataset.Record, field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	default:
		return 0
	}
}
