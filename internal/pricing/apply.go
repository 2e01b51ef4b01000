package pricing

import (
	"fmt"
	"slices"
	"time"
)

// ruleApplies reports whether every declared condition of the rule is
// satisfied by the context at the given evaluation time. A condition that is
// not set places no constraint on its dimension.
func ruleApplies(rule PricingRule, ctx PricingContext, at time.Time) bool {
	if !rule.IsActive {
		return false
	}
	if rule.EffectiveFrom != nil && at.Before(*rule.EffectiveFrom) {
		return false
	}
	if rule.EffectiveUntil != nil && at.After(*rule.EffectiveUntil) {
		return false
	}

	c := rule.Conditions
	if c.MinQuantity != nil && ctx.Quantity < *c.MinQuantity {
		return false
	}
	if c.MaxQuantity != nil && ctx.Quantity > *c.MaxQuantity {
		return false
	}
	if len(c.ClientTiers) > 0 && !slices.Contains(c.ClientTiers, ctx.ClientTier) {
		return false
	}
	if c.MinContractLength != nil && (ctx.ContractLength == nil || *ctx.ContractLength < *c.MinContractLength) {
		return false
	}
	if c.MinEmployeeCount != nil && (ctx.EmployeeCount == nil || *ctx.EmployeeCount < *c.MinEmployeeCount) {
		return false
	}
	// A missing employee count fails the min bound above but passes a
	// max-only bound. Asymmetric on purpose: matches observed behavior of
	// the billing configuration this engine replaces.
	if c.MaxEmployeeCount != nil && ctx.EmployeeCount != nil && *ctx.EmployeeCount > *c.MaxEmployeeCount {
		return false
	}
	if len(c.RequiredServices) > 0 {
		for _, id := range c.RequiredServices {
			if !slices.Contains(ctx.ExistingServices, id) {
				return false
			}
		}
	}
	if len(c.SeasonalPeriods) > 0 && !slices.Contains(c.SeasonalPeriods, ctx.SeasonalPeriod) {
		return false
	}
	if c.IsNewClient != nil && (ctx.IsNewClient == nil || *ctx.IsNewClient != *c.IsNewClient) {
		return false
	}
	if c.MinMonthlyPayrolls != nil && (ctx.MonthlyPayrollCount == nil || *ctx.MonthlyPayrollCount < *c.MinMonthlyPayrolls) {
		return false
	}
	return true
}

// applyOutcome is the raw effect of one rule on the running rate.
type applyOutcome struct {
	newRate    float64
	adjustment float64
	adjusted   bool
	warnings   []string
}

// applyRule computes the effect of a rule's pricing on currentRate.
// A positive adjustment is a discount; markups yield a negative adjustment.
// Unrecognized adjustment types are a silent no-op.
func applyRule(rule PricingRule, currentRate float64, ctx PricingContext) applyOutcome {
	p := rule.Pricing
	var newRate, adjustment float64

	switch p.AdjustmentType {
	case AdjustPercentageDiscount:
		adjustment = currentRate * p.Value / 100
		newRate = currentRate - adjustment
		if newRate < 0 {
			newRate = 0
		}
	case AdjustFixedDiscount:
		// Adjustment records the nominal discount even when the rate
		// clamps at zero.
		adjustment = p.Value
		newRate = currentRate - p.Value
		if newRate < 0 {
			newRate = 0
		}
	case AdjustFixedRate:
		newRate = p.Value
		adjustment = currentRate - p.Value
	case AdjustMarkup:
		markup := currentRate * p.Value / 100
		newRate = currentRate + markup
		adjustment = -markup
	case AdjustTierRate:
		tier, ok := selectTierRate(p.TierRates, ctx.Quantity)
		if !ok {
			return applyOutcome{newRate: currentRate}
		}
		newRate = tier.Rate
		adjustment = currentRate - tier.Rate
	default:
		return applyOutcome{newRate: currentRate}
	}

	var warnings []string
	if p.MaxDiscount != nil && adjustment > *p.MaxDiscount {
		adjustment = *p.MaxDiscount
		newRate = currentRate - adjustment
		warnings = append(warnings, fmt.Sprintf("discount capped at %.2f for rule %q", *p.MaxDiscount, rule.RuleName))
	}
	if p.MinRate != nil && newRate < *p.MinRate {
		newRate = *p.MinRate
		adjustment = currentRate - newRate
		warnings = append(warnings, fmt.Sprintf("rate raised to minimum floor %.2f for rule %q", *p.MinRate, rule.RuleName))
	}

	return applyOutcome{newRate: newRate, adjustment: adjustment, adjusted: true, warnings: warnings}
}

// selectTierRate picks the highest breakpoint whose MinQuantity does not
// exceed quantity. Rates never interpolate between breakpoints.
func selectTierRate(tiers []TierRate, quantity float64) (TierRate, bool) {
	best := TierRate{}
	found := false
	for _, tier := range tiers {
		if tier.MinQuantity > quantity {
			continue
		}
		if !found || tier.MinQuantity >= best.MinQuantity {
			best = tier
			found = true
		}
	}
	return best, found
}
