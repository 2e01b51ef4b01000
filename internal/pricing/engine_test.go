package pricing

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

var testClock = func() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	from, until := DefaultPromoWindow()
	return NewEngine(NewDefaultRuleStore(from, until)).WithClock(testClock)
}

func TestPremiumVolumeDiscountsStack(t *testing.T) {
	engine := newTestEngine(t)

	service := Service{ID: "payroll-processing", DefaultRate: 100}
	ctx := PricingContext{
		ServiceID:  service.ID,
		Quantity:   25,
		ClientTier: TierPremium,
	}

	result := engine.CalculatePrice(service, ctx, nil)

	// Premium (priority 8) applies before medium volume (priority 6):
	// 100 -> 92 -> 82.8. Both stack; there is no single winner.
	if len(result.AppliedRules) != 2 {
		t.Fatalf("expected 2 applied rules, got %d: %+v", len(result.AppliedRules), result.AppliedRules)
	}
	if result.AppliedRules[0].RuleID != DefaultRulePremiumTier {
		t.Fatalf("expected premium rule first, got %s", result.AppliedRules[0].RuleID)
	}
	if result.AppliedRules[1].RuleID != DefaultRuleVolumeMedium {
		t.Fatalf("expected medium volume rule second, got %s", result.AppliedRules[1].RuleID)
	}
	if result.FinalRate != 82.8 {
		t.Fatalf("expected final rate 82.8, got %v", result.FinalRate)
	}
	if result.TotalAmount != 2070 {
		t.Fatalf("expected total 2070, got %v", result.TotalAmount)
	}
	if result.Metadata.Warnings != nil {
		t.Fatalf("expected nil warnings, got %v", result.Metadata.Warnings)
	}
}

func TestLargeVolumeUnderDiscountCap(t *testing.T) {
	engine := newTestEngine(t)

	service := Service{ID: "timesheets", DefaultRate: 50}
	result := engine.CalculatePrice(service, PricingContext{ServiceID: service.ID, Quantity: 60}, nil)

	// 15% of 50 is 7.5 per unit, well under the 100 cap.
	if result.FinalRate != 42.5 {
		t.Fatalf("expected final rate 42.5, got %v", result.FinalRate)
	}
	if len(result.AppliedRules) != 1 || result.AppliedRules[0].RuleID != DefaultRuleVolumeLarge {
		t.Fatalf("expected only the large volume rule, got %+v", result.AppliedRules)
	}
	if result.Metadata.Warnings != nil {
		t.Fatalf("expected no cap warning, got %v", result.Metadata.Warnings)
	}
}

func TestNewClientPromoWithinWindow(t *testing.T) {
	engine := newTestEngine(t)

	service := Service{ID: "managed-payroll", DefaultRate: 1000}
	billingDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	isNew := true
	ctx := PricingContext{
		ServiceID:   service.ID,
		Quantity:    1,
		BillingDate: &billingDate,
		IsNewClient: &isNew,
	}

	result := engine.CalculatePrice(service, ctx, nil)
	if result.FinalRate != 850 {
		t.Fatalf("expected final rate 850, got %v", result.FinalRate)
	}
	if result.DiscountAmount != 150 {
		t.Fatalf("expected discount 150, got %v", result.DiscountAmount)
	}
}

func TestNewClientPromoOutsideWindow(t *testing.T) {
	engine := newTestEngine(t)

	service := Service{ID: "managed-payroll", DefaultRate: 1000}
	billingDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	isNew := true
	ctx := PricingContext{
		ServiceID:   service.ID,
		Quantity:    1,
		BillingDate: &billingDate,
		IsNewClient: &isNew,
	}

	result := engine.CalculatePrice(service, ctx, nil)
	if result.FinalRate != 1000 {
		t.Fatalf("expected undiscounted rate outside promo window, got %v", result.FinalRate)
	}
	if len(result.AppliedRules) != 0 {
		t.Fatalf("expected no applied rules, got %+v", result.AppliedRules)
	}
}

func TestNewClientDiscountCapped(t *testing.T) {
	engine := newTestEngine(t)

	service := Service{ID: "managed-payroll", DefaultRate: 2000}
	billingDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	isNew := true
	ctx := PricingContext{
		ServiceID:   service.ID,
		Quantity:    1,
		BillingDate: &billingDate,
		IsNewClient: &isNew,
	}

	// 15% of 2000 is 300; the cap holds the discount to 200.
	result := engine.CalculatePrice(service, ctx, nil)
	if result.FinalRate != 1800 {
		t.Fatalf("expected capped final rate 1800, got %v", result.FinalRate)
	}
	if len(result.AppliedRules) != 1 || result.AppliedRules[0].Adjustment != 200 {
		t.Fatalf("expected adjustment capped at 200, got %+v", result.AppliedRules)
	}
	if len(result.Metadata.Warnings) != 1 || !strings.Contains(result.Metadata.Warnings[0], "discount capped") {
		t.Fatalf("expected discount capped warning, got %v", result.Metadata.Warnings)
	}
}

func TestPerRuleMinRateFloor(t *testing.T) {
	store := NewRuleStore()
	store.AddRule("svc", PricingRule{
		ID:        "steep",
		ServiceID: "svc",
		RuleName:  "Steep discount with floor",
		RuleType:  RuleTypeCustom,
		Priority:  5,
		Pricing: RulePricing{
			AdjustmentType: AdjustPercentageDiscount,
			Value:          80,
			MinRate:        floatPtr(30),
		},
		IsActive: true,
	})
	engine := NewEngine(store).WithClock(testClock)

	result := engine.CalculatePrice(Service{ID: "svc", DefaultRate: 100}, PricingContext{ServiceID: "svc", Quantity: 1}, nil)
	if result.FinalRate != 30 {
		t.Fatalf("expected floored rate 30, got %v", result.FinalRate)
	}
	found := false
	for _, w := range result.Metadata.Warnings {
		if strings.Contains(w, "minimum floor") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected minimum floor warning, got %v", result.Metadata.Warnings)
	}
}

func TestCrossRuleFloorFromUnappliedRule(t *testing.T) {
	// A rule can contribute its floor without ever firing: here the floor
	// carrier is an unrecognized adjustment type (a no-op), but its MinRate
	// still bounds the final rate.
	store := NewRuleStore()
	store.AddRule("svc", PricingRule{
		ID:        "deep-discount",
		ServiceID: "svc",
		RuleName:  "Deep discount",
		RuleType:  RuleTypeCustom,
		Priority:  9,
		Pricing:   RulePricing{AdjustmentType: AdjustPercentageDiscount, Value: 90},
		IsActive:  true,
	})
	store.AddRule("svc", PricingRule{
		ID:        "floor-only",
		ServiceID: "svc",
		RuleName:  "Floor carrier",
		RuleType:  RuleTypeCustom,
		Priority:  1,
		Pricing:   RulePricing{AdjustmentType: "unknown_type", MinRate: floatPtr(25)},
		IsActive:  true,
	})
	engine := NewEngine(store).WithClock(testClock)

	result := engine.CalculatePrice(Service{ID: "svc", DefaultRate: 100}, PricingContext{ServiceID: "svc", Quantity: 1}, nil)
	if result.FinalRate != 25 {
		t.Fatalf("expected cross-rule floor 25, got %v", result.FinalRate)
	}
	if len(result.AppliedRules) != 1 || result.AppliedRules[0].RuleID != "deep-discount" {
		t.Fatalf("expected only the discount rule applied, got %+v", result.AppliedRules)
	}
	found := false
	for _, w := range result.Metadata.Warnings {
		if strings.Contains(w, "minimum floor") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected minimum floor warning, got %v", result.Metadata.Warnings)
	}
}

func TestFixedDiscountClampsAtZero(t *testing.T) {
	store := NewRuleStore()
	store.AddRule("svc", PricingRule{
		ID:        "huge-fixed",
		ServiceID: "svc",
		RuleName:  "Oversized fixed discount",
		RuleType:  RuleTypeCustom,
		Priority:  5,
		Pricing:   RulePricing{AdjustmentType: AdjustFixedDiscount, Value: 500},
		IsActive:  true,
	})
	engine := NewEngine(store).WithClock(testClock)

	result := engine.CalculatePrice(Service{ID: "svc", DefaultRate: 40}, PricingContext{ServiceID: "svc", Quantity: 3}, nil)
	if result.FinalRate != 0 {
		t.Fatalf("expected rate clamped at 0, got %v", result.FinalRate)
	}
	// The recorded adjustment keeps the nominal pre-clamp value.
	if len(result.AppliedRules) != 1 || result.AppliedRules[0].Adjustment != 500 {
		t.Fatalf("expected nominal adjustment 500, got %+v", result.AppliedRules)
	}
}

func TestMarkupRecordsNegativeAdjustment(t *testing.T) {
	store := NewRuleStore()
	store.AddRule("svc", PricingRule{
		ID:        "peak-markup",
		ServiceID: "svc",
		RuleName:  "Peak season markup",
		RuleType:  RuleTypeSeasonal,
		Priority:  5,
		Conditions: RuleConditions{
			SeasonalPeriods: []SeasonalPeriod{SeasonPeak},
		},
		Pricing:  RulePricing{AdjustmentType: AdjustMarkup, Value: 10},
		IsActive: true,
	})
	engine := NewEngine(store).WithClock(testClock)

	ctx := PricingContext{ServiceID: "svc", Quantity: 2, SeasonalPeriod: SeasonPeak}
	result := engine.CalculatePrice(Service{ID: "svc", DefaultRate: 100}, ctx, nil)
	if result.FinalRate != 110 {
		t.Fatalf("expected marked-up rate 110, got %v", result.FinalRate)
	}
	if result.AppliedRules[0].Adjustment != -10 {
		t.Fatalf("expected adjustment -10, got %v", result.AppliedRules[0].Adjustment)
	}
	if result.DiscountAmount != -20 {
		t.Fatalf("expected negative discount amount -20, got %v", result.DiscountAmount)
	}
}

func TestTierRatePicksBreakpointNotInterpolation(t *testing.T) {
	store := NewRuleStore()
	store.AddRule("svc", PricingRule{
		ID:        "tiered",
		ServiceID: "svc",
		RuleName:  "Tiered unit rate",
		RuleType:  RuleTypeVolumeDiscount,
		Priority:  5,
		Pricing: RulePricing{
			AdjustmentType: AdjustTierRate,
			TierRates: []TierRate{
				{MinQuantity: 1, Rate: 90},
				{MinQuantity: 10, Rate: 80},
				{MinQuantity: 100, Rate: 65},
			},
		},
		IsActive: true,
	})
	engine := NewEngine(store).WithClock(testClock)
	service := Service{ID: "svc", DefaultRate: 100}

	cases := []struct {
		quantity float64
		want     float64
	}{
		{quantity: 1, want: 90},
		{quantity: 9, want: 90},
		{quantity: 10, want: 80},
		{quantity: 99, want: 80},
		{quantity: 100, want: 65},
		{quantity: 5000, want: 65},
	}
	for _, tc := range cases {
		result := engine.CalculatePrice(service, PricingContext{ServiceID: "svc", Quantity: tc.quantity}, nil)
		if result.FinalRate != tc.want {
			t.Fatalf("quantity %v: expected rate %v, got %v", tc.quantity, tc.want, result.FinalRate)
		}
	}
}

func TestTierRateBelowAllBreakpointsIsNoOp(t *testing.T) {
	store := NewRuleStore()
	store.AddRule("svc", PricingRule{
		ID:        "tiered",
		ServiceID: "svc",
		RuleName:  "Tiered unit rate",
		RuleType:  RuleTypeVolumeDiscount,
		Priority:  5,
		Pricing: RulePricing{
			AdjustmentType: AdjustTierRate,
			TierRates:      []TierRate{{MinQuantity: 10, Rate: 80}},
		},
		IsActive: true,
	})
	engine := NewEngine(store).WithClock(testClock)

	result := engine.CalculatePrice(Service{ID: "svc", DefaultRate: 100}, PricingContext{ServiceID: "svc", Quantity: 3}, nil)
	if result.FinalRate != 100 || len(result.AppliedRules) != 0 {
		t.Fatalf("expected no-op below all breakpoints, got %+v", result)
	}
}

func TestUnrecognizedAdjustmentTypeIsNoOp(t *testing.T) {
	store := NewRuleStore()
	store.AddRule("svc", PricingRule{
		ID:        "mystery",
		ServiceID: "svc",
		RuleName:  "Unknown adjustment",
		RuleType:  RuleTypeCustom,
		Priority:  5,
		Pricing:   RulePricing{AdjustmentType: "reverse_auction", Value: 50},
		IsActive:  true,
	})
	engine := NewEngine(store).WithClock(testClock)

	result := engine.CalculatePrice(Service{ID: "svc", DefaultRate: 100}, PricingContext{ServiceID: "svc", Quantity: 1}, nil)
	if result.FinalRate != 100 || len(result.AppliedRules) != 0 || result.Metadata.Warnings != nil {
		t.Fatalf("expected silent no-op, got %+v", result)
	}
}

func TestEmployeeCountBoundsAsymmetry(t *testing.T) {
	base := PricingRule{
		ServiceID: "svc",
		RuleType:  RuleTypeCustom,
		Priority:  5,
		Pricing:   RulePricing{AdjustmentType: AdjustPercentageDiscount, Value: 10},
		IsActive:  true,
	}

	minRule := base
	minRule.ID = "min-bound"
	minRule.Conditions = RuleConditions{MinEmployeeCount: intPtr(10)}

	maxRule := base
	maxRule.ID = "max-bound"
	maxRule.Conditions = RuleConditions{MaxEmployeeCount: intPtr(100)}

	ctx := PricingContext{ServiceID: "svc", Quantity: 1}
	at := testClock()

	// Missing employee count fails a min bound but passes a max-only bound.
	if ruleApplies(minRule, ctx, at) {
		t.Fatal("min bound should fail when employee count is missing")
	}
	if !ruleApplies(maxRule, ctx, at) {
		t.Fatal("max-only bound should pass when employee count is missing")
	}

	count := 50
	ctx.EmployeeCount = &count
	if !ruleApplies(minRule, ctx, at) || !ruleApplies(maxRule, ctx, at) {
		t.Fatal("both bounds should pass for an in-range employee count")
	}
}

func TestRequiredServicesCondition(t *testing.T) {
	rule := PricingRule{
		ID:        "bundle-addon",
		ServiceID: "addon",
		RuleType:  RuleTypeBundle,
		Priority:  5,
		Conditions: RuleConditions{
			RequiredServices: []string{"payroll-processing"},
		},
		Pricing:  RulePricing{AdjustmentType: AdjustPercentageDiscount, Value: 20},
		IsActive: true,
	}
	at := testClock()

	ctx := PricingContext{ServiceID: "addon", Quantity: 1}
	if ruleApplies(rule, ctx, at) {
		t.Fatal("rule should be inapplicable without existing services")
	}
	ctx.ExistingServices = []string{"timesheets"}
	if ruleApplies(rule, ctx, at) {
		t.Fatal("rule should be inapplicable when the required service is absent")
	}
	ctx.ExistingServices = []string{"timesheets", "payroll-processing"}
	if !ruleApplies(rule, ctx, at) {
		t.Fatal("rule should apply when all required services are present")
	}
}

func TestExplicitFalseNewClientCondition(t *testing.T) {
	rule := PricingRule{
		ID:         "loyalty",
		ServiceID:  GlobalServiceID,
		RuleType:   RuleTypeLoyalty,
		Priority:   5,
		Conditions: RuleConditions{IsNewClient: boolPtr(false)},
		Pricing:    RulePricing{AdjustmentType: AdjustPercentageDiscount, Value: 3},
		IsActive:   true,
	}
	at := testClock()

	// An unset context flag never matches an explicit condition, even false.
	if ruleApplies(rule, PricingContext{Quantity: 1}, at) {
		t.Fatal("unset context flag should not satisfy an explicit condition")
	}
	isNew := false
	if !ruleApplies(rule, PricingContext{Quantity: 1, IsNewClient: &isNew}, at) {
		t.Fatal("explicit false should match an explicit false condition")
	}
	isNew = true
	if ruleApplies(rule, PricingContext{Quantity: 1, IsNewClient: &isNew}, at) {
		t.Fatal("true should not match an explicit false condition")
	}
}

func TestInactiveRuleNeverApplies(t *testing.T) {
	rule := PricingRule{
		ID:        "off",
		ServiceID: "svc",
		Priority:  5,
		Pricing:   RulePricing{AdjustmentType: AdjustPercentageDiscount, Value: 50},
	}
	if ruleApplies(rule, PricingContext{Quantity: 1}, testClock()) {
		t.Fatal("inactive rule should never apply")
	}
}

func TestDeterminism(t *testing.T) {
	engine := newTestEngine(t)
	service := Service{ID: "payroll-processing", DefaultRate: 100}
	ctx := PricingContext{ServiceID: service.ID, Quantity: 25, ClientTier: TierEnterprise}

	first := engine.CalculatePrice(service, ctx, nil)
	second := engine.CalculatePrice(service, ctx, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results under a fixed clock:\n%+v\n%+v", first, second)
	}
}

func TestZeroDefaultRateGuardsDivision(t *testing.T) {
	engine := newTestEngine(t)
	result := engine.CalculatePrice(Service{ID: "free", DefaultRate: 0}, PricingContext{ServiceID: "free", Quantity: 10}, nil)
	if result.DiscountPercentage != 0 {
		t.Fatalf("expected discount percentage 0 for a zero rate, got %v", result.DiscountPercentage)
	}
}

func TestCustomRulesAreNotPersisted(t *testing.T) {
	engine := newTestEngine(t)
	service := Service{ID: "svc", DefaultRate: 100}
	custom := []PricingRule{{
		ID:        "one-off",
		ServiceID: "svc",
		RuleName:  "Negotiated discount",
		RuleType:  RuleTypeCustom,
		Priority:  20,
		Pricing:   RulePricing{AdjustmentType: AdjustPercentageDiscount, Value: 50},
		IsActive:  true,
	}}

	with := engine.CalculatePrice(service, PricingContext{ServiceID: "svc", Quantity: 1}, custom)
	if with.FinalRate != 50 {
		t.Fatalf("expected custom rule to fire, got %v", with.FinalRate)
	}
	without := engine.CalculatePrice(service, PricingContext{ServiceID: "svc", Quantity: 1}, nil)
	if without.FinalRate != 100 {
		t.Fatalf("custom rule leaked into the store: rate %v", without.FinalRate)
	}
}

func TestBundlePriceWithFlatDiscount(t *testing.T) {
	engine := NewEngine(NewRuleStore()).WithClock(testClock)

	items := []BundleItem{
		{Service: Service{ID: "a", DefaultRate: 100}, Quantity: 1},
		{Service: Service{ID: "b", DefaultRate: 200}, Quantity: 1},
	}
	result := engine.CalculateBundlePrice(items, PricingContext{ClientID: "client-1"}, 10)

	if result.TotalOriginal != 300 {
		t.Fatalf("expected total original 300, got %v", result.TotalOriginal)
	}
	if result.TotalFinal != 270 {
		t.Fatalf("expected total final 270, got %v", result.TotalFinal)
	}
	if result.TotalSavings != 30 {
		t.Fatalf("expected savings 30, got %v", result.TotalSavings)
	}
}

func TestBundleAdditivityWithoutDiscount(t *testing.T) {
	engine := newTestEngine(t)

	items := []BundleItem{
		{Service: Service{ID: "a", DefaultRate: 100}, Quantity: 25},
		{Service: Service{ID: "b", DefaultRate: 50}, Quantity: 60},
	}
	ctx := PricingContext{ClientID: "client-1", ClientTier: TierPremium}
	bundle := engine.CalculateBundlePrice(items, ctx, 0)

	var sum float64
	for _, part := range bundle.Services {
		sum += part.Result.TotalAmount
	}
	if bundle.TotalFinal != round2(sum) {
		t.Fatalf("expected bundle total %v to equal per-service sum %v", bundle.TotalFinal, round2(sum))
	}
}

func TestBundleExposesSiblingServices(t *testing.T) {
	store := NewRuleStore()
	store.AddRule("addon", PricingRule{
		ID:        "bundle-addon",
		ServiceID: "addon",
		RuleName:  "Add-on bundle discount",
		RuleType:  RuleTypeBundle,
		Priority:  5,
		Conditions: RuleConditions{
			RequiredServices: []string{"core"},
		},
		Pricing:  RulePricing{AdjustmentType: AdjustPercentageDiscount, Value: 25},
		IsActive: true,
	})
	engine := NewEngine(store).WithClock(testClock)

	items := []BundleItem{
		{Service: Service{ID: "core", DefaultRate: 100}, Quantity: 1},
		{Service: Service{ID: "addon", DefaultRate: 40}, Quantity: 1},
	}
	bundle := engine.CalculateBundlePrice(items, PricingContext{ClientID: "client-1"}, 0)

	// The add-on sees "core" as a sibling, so its bundle rule fires.
	if bundle.TotalFinal != 130 {
		t.Fatalf("expected 100 + 30 = 130, got %v", bundle.TotalFinal)
	}
}

func TestRecommendationsAreReserved(t *testing.T) {
	engine := newTestEngine(t)
	recs := engine.PricingRecommendations("client-1", []string{"a"}, PricingContext{})
	if len(recs.Recommendations) != 0 || len(recs.BundleOpportunities) != 0 {
		t.Fatalf("expected empty reserved results, got %+v", recs)
	}
}

func TestStoreAddRemove(t *testing.T) {
	store := NewRuleStore()
	rule := PricingRule{ID: "r1", ServiceID: "svc", IsActive: true,
		Pricing: RulePricing{AdjustmentType: AdjustPercentageDiscount, Value: 5}}
	store.AddRule("svc", rule)

	if got := store.ServiceRules("svc"); len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("expected stored rule, got %+v", got)
	}
	if store.RemoveRule("svc", "missing") {
		t.Fatal("removing an unknown rule should report false")
	}
	if !store.RemoveRule("svc", "r1") {
		t.Fatal("removing an existing rule should report true")
	}
	if got := store.ServiceRules("svc"); got != nil {
		t.Fatalf("expected empty bucket after removal, got %+v", got)
	}
}

func intPtr(v int) *int { return &v }
