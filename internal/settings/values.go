package settings

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/tigearis/payroll-billing/internal/pricing"
)

// StringValue returns the string setting for key, or fallback when the key
// is unset or not a string.
func StringValue(key, fallback string) string {
	raw, ok := DBConfigValue(key)
	if !ok || len(raw) == 0 {
		return fallback
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return fallback
	}
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// IntValue returns the integer setting for key, or fallback when the key is
// unset or malformed. JSON numbers and numeric strings are both accepted.
func IntValue(key string, fallback int) int {
	raw, ok := DBConfigValue(key)
	if !ok || len(raw) == 0 {
		return fallback
	}
	var number int
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, errParse := strconv.Atoi(strings.TrimSpace(text)); errParse == nil {
			return parsed
		}
	}
	return fallback
}

// Float64Value returns the float setting for key, or fallback when the key
// is unset or malformed.
func Float64Value(key string, fallback float64) float64 {
	raw, ok := DBConfigValue(key)
	if !ok || len(raw) == 0 {
		return fallback
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, errParse := strconv.ParseFloat(strings.TrimSpace(text), 64); errParse == nil {
			return parsed
		}
	}
	return fallback
}

// TimeValue returns the RFC 3339 time setting for key, or fallback when the
// key is unset or malformed.
func TimeValue(key string, fallback time.Time) time.Time {
	raw, ok := DBConfigValue(key)
	if !ok || len(raw) == 0 {
		return fallback
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return fallback
	}
	parsed, errParse := time.Parse(time.RFC3339, strings.TrimSpace(text))
	if errParse != nil {
		return fallback
	}
	return parsed.UTC()
}

// PromoWindow returns the configured new-client promo window, falling back
// to the stock window when either bound is unset.
func PromoWindow() (time.Time, time.Time) {
	defaultFrom, defaultUntil := pricing.DefaultPromoWindow()
	from := TimeValue(NewClientPromoFromKey, defaultFrom)
	until := TimeValue(NewClientPromoUntilKey, defaultUntil)
	return from, until
}
