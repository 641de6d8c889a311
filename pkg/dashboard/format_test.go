package dashboard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCleanSpeciesName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "CRAB, SNOW", want: "Snow Crab"},
		{in: "SALMON, SOCKEYE", want: "Sockeye Salmon"},
		{in: "**HALIBUT, PACIFIC**", want: "Pacific Halibut"},
		{in: "COD, PACIFIC, GRAY", want: "Gray Pacific Cod"},
		{in: "POLLOCK", want: "Pollock"},
		{in: "SHRIMP, BROWN PINK", want: "Brown Pink Shrimp"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSpeciesName(tt.in))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+2.1%", FormatPercent(2.1))
	assert.Equal(t, "-1.4%", FormatPercent(-1.4))
	assert.Equal(t, "+0.0%", FormatPercent(0))
	assert.Equal(t, "+12.3%", FormatPercent(12.34))
	assert.Equal(t, "-0.0%", FormatPercent(-0.04))
	assert.Equal(t, "+0.1%", FormatPercent(0.05))
}

func TestFormatEuroPrice(t *testing.T) {
	assert.Equal(t, "€12.50/kg", FormatEuroPrice(12.5, "kg"))
	assert.Equal(t, "€4.85/lb", FormatEuroPrice(4.849, "lb"))
	assert.Equal(t, "€0.00/kg", FormatEuroPrice(0, "kg"))
	assert.Equal(t, "€1.00/kg", FormatEuroPrice(1.005, "kg"))
	assert.Equal(t, "€0.13/kg", FormatEuroPrice(0.125, "kg"))
	assert.Equal(t, "€2.67/lb", FormatEuroPrice(2.675, "lb"))
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$3.07", FormatUSD(decimal.RequireFromString("3.0666")))
	assert.Equal(t, "$0.00", FormatUSD(decimal.Zero))
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 999, want: "999"},
		{in: 1000, want: "1,000"},
		{in: 12345.6789, want: "12,345.679"},
		{in: 1234567.5, want: "1,234,567.5"},
		{in: -4321.25, want: "-4,321.25"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatQuantity(tt.in), "FormatQuantity(%v)", tt.in)
	}
}
