package pricing

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Engine evaluates pricing rules against purchase contexts. It performs no
// I/O and keeps no state beyond the injected rule store; a single instance
// is safe to share for the life of the process as long as store mutations
// are serialized by the caller.
type Engine struct {
	store *RuleStore
	// now supplies the evaluation clock; tests override it to pin rule
	// validity windows.
	now func() time.Time
}

// NewEngine constructs an engine over the given rule store.
func NewEngine(store *RuleStore) *Engine {
	if store == nil {
		store = NewRuleStore()
	}
	return &Engine{store: store, now: time.Now}
}

// WithClock returns the engine with a replacement time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// Store exposes the underlying rule store for bulk inspection.
func (e *Engine) Store() *RuleStore { return e.store }

// AddCustomRule persists an ad-hoc rule under serviceID for later calls.
func (e *Engine) AddCustomRule(serviceID string, rule PricingRule) {
	e.store.AddRule(serviceID, rule)
}

// RemoveRule deletes a stored rule and reports whether it existed.
func (e *Engine) RemoveRule(serviceID, ruleID string) bool {
	return e.store.RemoveRule(serviceID, ruleID)
}

// ServiceRules returns the rules stored for serviceID.
func (e *Engine) ServiceRules(serviceID string) []PricingRule {
	return e.store.ServiceRules(serviceID)
}

// evaluationTime resolves the instant used for rule validity windows: the
// context billing date when present, the engine clock otherwise.
func (e *Engine) evaluationTime(ctx PricingContext) time.Time {
	if ctx.BillingDate != nil {
		return *ctx.BillingDate
	}
	return e.now()
}

// CalculatePrice evaluates every applicable rule against the context and
// folds their effects over the service default rate, highest priority first.
// Every qualifying rule stacks; there is no single-winner lock. customRules
// are considered alongside stored rules but never persisted.
//
// The engine does not validate inputs: a zero or negative quantity, or a
// context missing facts that stored rules require, produces whatever the
// arithmetic yields. Callers wanting strict validation must validate first.
func (e *Engine) CalculatePrice(service Service, ctx PricingContext, customRules []PricingRule) PricingResult {
	at := e.evaluationTime(ctx)

	candidates := e.store.candidatesFor(service.ID)
	candidates = append(candidates, customRules...)

	applicable := make([]PricingRule, 0, len(candidates))
	for _, rule := range candidates {
		if ruleApplies(rule, ctx, at) {
			applicable = append(applicable, rule)
		}
	}
	// Stable keeps encounter order for equal priorities, which keeps
	// results deterministic across calls.
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Priority > applicable[j].Priority
	})

	currentRate := service.DefaultRate
	var applied []AppliedRule
	var warnings []string
	for _, rule := range applicable {
		out := applyRule(rule, currentRate, ctx)
		if !out.adjusted || out.newRate == currentRate {
			continue
		}
		applied = append(applied, AppliedRule{
			RuleID:     rule.ID,
			RuleName:   rule.RuleName,
			RuleType:   rule.RuleType,
			Adjustment: round2(out.adjustment),
			RateAfter:  round2(out.newRate),
		})
		currentRate = out.newRate
		warnings = append(warnings, out.warnings...)
	}

	// Cross-rule safety net: the lowest positive floor declared by any
	// applicable rule bounds the final rate, applied rules or not.
	if floor, ok := lowestFloor(applicable); ok && currentRate < floor {
		currentRate = floor
		warnings = append(warnings, fmt.Sprintf("final rate raised to minimum floor %.2f", floor))
	}

	discountPct := 0.0
	if service.DefaultRate != 0 {
		discountPct = (service.DefaultRate - currentRate) / service.DefaultRate * 100
	}

	return PricingResult{
		OriginalRate:       service.DefaultRate,
		FinalRate:          round2(currentRate),
		TotalAmount:        round2(currentRate * ctx.Quantity),
		DiscountAmount:     round2((service.DefaultRate - currentRate) * ctx.Quantity),
		DiscountPercentage: round2(discountPct),
		AppliedRules:       applied,
		Metadata: ResultMetadata{
			CalculationDate: e.now().UTC(),
			Context:         ctx,
			Warnings:        warnings,
		},
	}
}

// CalculateBundlePrice prices each service in the bundle with the sibling
// services visible as existing subscriptions, then applies an optional flat
// percentage discount to the combined total. TotalSavings can go negative
// when markup rules outweigh discounts; that is accepted, not guarded.
func (e *Engine) CalculateBundlePrice(items []BundleItem, ctx PricingContext, bundleDiscount float64) BundleResult {
	bundleIDs := make([]string, 0, len(items))
	for _, item := range items {
		bundleIDs = append(bundleIDs, item.Service.ID)
	}

	result := BundleResult{BundleDiscount: bundleDiscount}
	for _, item := range items {
		itemCtx := ctx
		itemCtx.ServiceID = item.Service.ID
		itemCtx.Quantity = item.Quantity
		itemCtx.ExistingServices = bundleIDs

		priced := e.CalculatePrice(item.Service, itemCtx, nil)
		result.Services = append(result.Services, BundleServiceResult{
			ServiceID: item.Service.ID,
			Quantity:  item.Quantity,
			Result:    priced,
		})
		result.TotalOriginal += item.Service.DefaultRate * item.Quantity
		result.TotalFinal += priced.TotalAmount
	}

	if bundleDiscount > 0 {
		result.TotalFinal -= result.TotalFinal * bundleDiscount / 100
	}
	result.TotalOriginal = round2(result.TotalOriginal)
	result.TotalFinal = round2(result.TotalFinal)
	result.TotalSavings = round2(result.TotalOriginal - result.TotalFinal)
	return result
}

// PricingRecommendations is a reserved interface for future rule mining.
// It currently returns empty result sets.
func (e *Engine) PricingRecommendations(clientID string, serviceIDs []string, ctx PricingContext) Recommendations {
	_ = clientID
	_ = serviceIDs
	_ = ctx
	return Recommendations{
		Recommendations:     []Recommendation{},
		BundleOpportunities: []BundleOpportunity{},
	}
}

// lowestFloor returns the minimum positive MinRate declared across rules.
func lowestFloor(rules []PricingRule) (float64, bool) {
	floor := 0.0
	found := false
	for _, rule := range rules {
		mr := rule.Pricing.MinRate
		if mr == nil || *mr <= 0 {
			continue
		}
		if !found || *mr < floor {
			floor = *mr
			found = true
		}
	}
	return floor, found
}

// round2 rounds to two decimal places. Rounding happens at output only;
// intermediate fold arithmetic stays full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
