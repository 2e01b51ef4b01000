package settings

import (
	"encoding/json"
	"testing"
	"time"
)

func storeTestValues(t *testing.T, values map[string]json.RawMessage) {
	t.Helper()
	StoreDBConfig(time.Now(), values)
	t.Cleanup(func() {
		StoreDBConfig(time.Time{}, map[string]json.RawMessage{})
	})
}

func TestIntValueAcceptsNumbersAndStrings(t *testing.T) {
	storeTestValues(t, map[string]json.RawMessage{
		"AS_NUMBER": json.RawMessage(`45`),
		"AS_STRING": json.RawMessage(`"90"`),
		"GARBAGE":   json.RawMessage(`{"nope": true}`),
	})

	if got := IntValue("AS_NUMBER", 1); got != 45 {
		t.Fatalf("number: got %d", got)
	}
	if got := IntValue("AS_STRING", 1); got != 90 {
		t.Fatalf("string: got %d", got)
	}
	if got := IntValue("GARBAGE", 7); got != 7 {
		t.Fatalf("garbage fallback: got %d", got)
	}
	if got := IntValue("MISSING", 7); got != 7 {
		t.Fatalf("missing fallback: got %d", got)
	}
}

func TestStringValueFallsBackOnBlank(t *testing.T) {
	storeTestValues(t, map[string]json.RawMessage{
		SiteNameKey: json.RawMessage(`"  "`),
	})
	if got := StringValue(SiteNameKey, DefaultSiteName); got != DefaultSiteName {
		t.Fatalf("blank should fall back, got %q", got)
	}
}

func TestPromoWindowOverride(t *testing.T) {
	storeTestValues(t, map[string]json.RawMessage{
		NewClientPromoFromKey:  json.RawMessage(`"2025-01-01T00:00:00Z"`),
		NewClientPromoUntilKey: json.RawMessage(`"2025-06-30T23:59:59Z"`),
	})

	from, until := PromoWindow()
	if from.Year() != 2025 || from.Month() != time.January {
		t.Fatalf("from not overridden: %v", from)
	}
	if until.Year() != 2025 || until.Month() != time.June {
		t.Fatalf("until not overridden: %v", until)
	}
}

func TestPromoWindowDefaults(t *testing.T) {
	storeTestValues(t, map[string]json.RawMessage{})

	from, until := PromoWindow()
	if from.IsZero() || until.IsZero() {
		t.Fatalf("default window should be bounded: %v .. %v", from, until)
	}
	if !until.After(from) {
		t.Fatalf("window inverted: %v .. %v", from, until)
	}
}
