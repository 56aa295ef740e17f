package config

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Default sales tax rate (8.5%) when TAX_RATE is not set.
const defaultTaxRate = "0.085"

// GetTaxRate returns the configured sales tax rate as a decimal fraction
// (e.g. 0.085 for 8.5%). Invalid TAX_RATE values fall back to the default.
func GetTaxRate() decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv("TAX_RATE"))
	if raw == "" {
		raw = defaultTaxRate
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() {
		rate, _ = decimal.NewFromString(defaultTaxRate)
	}
	return rate
}

// GetCorsOrigins parses CORS_ORIGINS (comma separated) into a list.
func GetCorsOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		raw = "http://localhost:3000,http://localhost:5173"
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
