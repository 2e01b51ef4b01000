package pricing

import "time"

// Default rule IDs. Stable identifiers so persisted copies and in-memory
// seeds stay interchangeable.
const (
	DefaultRuleVolumeSmall  = "default-volume-small"
	DefaultRuleVolumeMedium = "default-volume-medium"
	DefaultRuleVolumeLarge  = "default-volume-large"
	DefaultRulePremiumTier  = "default-tier-premium"
	DefaultRuleEnterprise   = "default-tier-enterprise"
	DefaultRuleNewClient    = "default-new-client"
)

// DefaultRules returns the built-in global pricing rules. promoFrom and
// promoUntil bound the new-client promo window; a zero value leaves that
// bound open.
func DefaultRules(promoFrom, promoUntil time.Time) []PricingRule {
	var from, until *time.Time
	if !promoFrom.IsZero() {
		f := promoFrom
		from = &f
	}
	if !promoUntil.IsZero() {
		u := promoUntil
		until = &u
	}

	return []PricingRule{
		{
			ID:        DefaultRuleEnterprise,
			ServiceID: GlobalServiceID,
			RuleName:  "Enterprise tier discount",
			RuleType:  RuleTypeClientTier,
			Priority:  10,
			Conditions: RuleConditions{
				ClientTiers: []ClientTier{TierEnterprise},
			},
			Pricing: RulePricing{
				AdjustmentType: AdjustPercentageDiscount,
				Value:          12,
			},
			IsActive: true,
		},
		{
			ID:        DefaultRuleNewClient,
			ServiceID: GlobalServiceID,
			RuleName:  "New client welcome discount",
			RuleType:  RuleTypeNewClient,
			Priority:  9,
			Conditions: RuleConditions{
				IsNewClient: boolPtr(true),
			},
			Pricing: RulePricing{
				AdjustmentType: AdjustPercentageDiscount,
				Value:          15,
				MaxDiscount:    floatPtr(200),
			},
			EffectiveFrom:  from,
			EffectiveUntil: until,
			IsActive:       true,
		},
		{
			ID:        DefaultRulePremiumTier,
			ServiceID: GlobalServiceID,
			RuleName:  "Premium tier discount",
			RuleType:  RuleTypeClientTier,
			Priority:  8,
			Conditions: RuleConditions{
				ClientTiers: []ClientTier{TierPremium},
			},
			Pricing: RulePricing{
				AdjustmentType: AdjustPercentageDiscount,
				Value:          8,
			},
			IsActive: true,
		},
		{
			ID:        DefaultRuleVolumeLarge,
			ServiceID: GlobalServiceID,
			RuleName:  "Large volume discount",
			RuleType:  RuleTypeVolumeDiscount,
			Priority:  7,
			Conditions: RuleConditions{
				MinQuantity: floatPtr(50),
			},
			Pricing: RulePricing{
				AdjustmentType: AdjustPercentageDiscount,
				Value:          15,
				MaxDiscount:    floatPtr(100),
			},
			IsActive: true,
		},
		{
			ID:        DefaultRuleVolumeMedium,
			ServiceID: GlobalServiceID,
			RuleName:  "Medium volume discount",
			RuleType:  RuleTypeVolumeDiscount,
			Priority:  6,
			Conditions: RuleConditions{
				MinQuantity: floatPtr(20),
				MaxQuantity: floatPtr(49),
			},
			Pricing: RulePricing{
				AdjustmentType: AdjustPercentageDiscount,
				Value:          10,
			},
			IsActive: true,
		},
		{
			ID:        DefaultRuleVolumeSmall,
			ServiceID: GlobalServiceID,
			RuleName:  "Small volume discount",
			RuleType:  RuleTypeVolumeDiscount,
			Priority:  5,
			Conditions: RuleConditions{
				MinQuantity: floatPtr(5),
				MaxQuantity: floatPtr(19),
			},
			Pricing: RulePricing{
				AdjustmentType: AdjustPercentageDiscount,
				Value:          5,
			},
			IsActive: true,
		},
	}
}

// DefaultPromoWindow is the fallback new-client promo window used when no
// window is configured.
func DefaultPromoWindow() (time.Time, time.Time) {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
}

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }
