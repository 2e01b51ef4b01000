package pricing

import "time"

// GlobalServiceID is the sentinel service ID for rules that apply to every service.
const GlobalServiceID = "all"

// ClientTier classifies a client's size and value for rule matching.
type ClientTier string

// Client tiers recognized by tier-based rules.
const (
	TierStandard   ClientTier = "standard"
	TierPremium    ClientTier = "premium"
	TierEnterprise ClientTier = "enterprise"
)

// SeasonalPeriod marks the billing season of a purchase.
type SeasonalPeriod string

// Seasonal periods recognized by seasonal rules.
const (
	SeasonPeak     SeasonalPeriod = "peak"
	SeasonOffPeak  SeasonalPeriod = "off-peak"
	SeasonStandard SeasonalPeriod = "standard"
)

// RuleType categorizes pricing rules by the policy they express.
type RuleType string

// Rule types.
const (
	RuleTypeVolumeDiscount RuleType = "volume_discount"
	RuleTypeClientTier     RuleType = "client_tier"
	RuleTypeContractLength RuleType = "contract_length"
	RuleTypeSeasonal       RuleType = "seasonal"
	RuleTypeBundle         RuleType = "bundle"
	RuleTypeNewClient      RuleType = "new_client"
	RuleTypeLoyalty        RuleType = "loyalty"
	RuleTypeCustom         RuleType = "custom"
)

// AdjustmentType selects how a rule's pricing effect changes the rate.
type AdjustmentType string

// Adjustment types. Unrecognized values are treated as a no-op.
const (
	AdjustPercentageDiscount AdjustmentType = "percentage_discount"
	AdjustFixedDiscount      AdjustmentType = "fixed_discount"
	AdjustFixedRate          AdjustmentType = "fixed_rate"
	AdjustMarkup             AdjustmentType = "markup"
	AdjustTierRate           AdjustmentType = "tier_rate"
)

// Service identifies a sellable unit and its undiscounted unit price.
type Service struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	DefaultRate float64 `json:"default_rate"`
}

// PricingContext carries the purchase-time facts used to decide which rules
// apply and how they affect price. Optional facts are pointers so an absent
// fact is distinguishable from a zero value; the engine never mutates it.
type PricingContext struct {
	ServiceID           string         `json:"service_id"`
	ClientID            string         `json:"client_id"`
	Quantity            float64        `json:"quantity"`
	BillingDate         *time.Time     `json:"billing_date,omitempty"`
	ContractLength      *int           `json:"contract_length,omitempty"`
	ClientTier          ClientTier     `json:"client_tier,omitempty"`
	EmployeeCount       *int           `json:"employee_count,omitempty"`
	MonthlyPayrollCount *int           `json:"monthly_payroll_count,omitempty"`
	ExistingServices    []string       `json:"existing_services,omitempty"`
	IsNewClient         *bool          `json:"is_new_client,omitempty"`
	SeasonalPeriod      SeasonalPeriod `json:"seasonal_period,omitempty"`
}

// RuleConditions is an open-ended set of optional predicates. A nil or empty
// field means "no constraint on that dimension".
type RuleConditions struct {
	MinQuantity        *float64         `json:"min_quantity,omitempty"`
	MaxQuantity        *float64         `json:"max_quantity,omitempty"`
	ClientTiers        []ClientTier     `json:"client_tiers,omitempty"`
	MinContractLength  *int             `json:"min_contract_length,omitempty"`
	MinEmployeeCount   *int             `json:"min_employee_count,omitempty"`
	MaxEmployeeCount   *int             `json:"max_employee_count,omitempty"`
	RequiredServices   []string         `json:"required_services,omitempty"`
	SeasonalPeriods    []SeasonalPeriod `json:"seasonal_periods,omitempty"`
	IsNewClient        *bool            `json:"is_new_client,omitempty"`
	MinMonthlyPayrolls *int             `json:"min_monthly_payrolls,omitempty"`

	// CustomCondition is a reserved extension point (a JSON path expression).
	// It is carried through storage and transport but never evaluated.
	CustomCondition string `json:"custom_condition,omitempty"`
}

// TierRate is one quantity breakpoint of a tier_rate adjustment.
type TierRate struct {
	MinQuantity float64 `json:"min_quantity"`
	Rate        float64 `json:"rate"`
}

// RulePricing describes a rule's effect on the rate.
type RulePricing struct {
	AdjustmentType AdjustmentType `json:"adjustment_type"`
	Value          float64        `json:"value"`
	MaxDiscount    *float64       `json:"max_discount,omitempty"`
	MinRate        *float64       `json:"min_rate,omitempty"`
	TierRates      []TierRate     `json:"tier_rates,omitempty"`
}

// PricingRule is the declarative unit of pricing policy.
type PricingRule struct {
	ID             string         `json:"id"`
	ServiceID      string         `json:"service_id"`
	RuleName       string         `json:"rule_name"`
	RuleType       RuleType       `json:"rule_type"`
	Priority       int            `json:"priority"`
	Conditions     RuleConditions `json:"conditions"`
	Pricing        RulePricing    `json:"pricing"`
	EffectiveFrom  *time.Time     `json:"effective_from,omitempty"`
	EffectiveUntil *time.Time     `json:"effective_until,omitempty"`
	IsActive       bool           `json:"is_active"`
}

// AppliedRule records one rule that fired during a calculation.
// A positive adjustment is a discount; markups record a negative adjustment.
type AppliedRule struct {
	RuleID     string   `json:"rule_id"`
	RuleName   string   `json:"rule_name"`
	RuleType   RuleType `json:"rule_type"`
	Adjustment float64  `json:"adjustment"`
	RateAfter  float64  `json:"rate_after"`
}

// ResultMetadata captures when and against what context a result was computed.
// Warnings is nil, not empty, when nothing noteworthy happened.
type ResultMetadata struct {
	CalculationDate time.Time      `json:"calculation_date"`
	Context         PricingContext `json:"context"`
	Warnings        []string       `json:"warnings,omitempty"`
}

// PricingResult is the output of a price calculation. It is a pure computed
// value; the engine never caches or persists it.
type PricingResult struct {
	OriginalRate       float64        `json:"original_rate"`
	FinalRate          float64        `json:"final_rate"`
	TotalAmount        float64        `json:"total_amount"`
	DiscountAmount     float64        `json:"discount_amount"`
	DiscountPercentage float64        `json:"discount_percentage"`
	AppliedRules       []AppliedRule  `json:"applied_rules"`
	Metadata           ResultMetadata `json:"metadata"`
}

// BundleItem pairs a service with the quantity being bundled.
type BundleItem struct {
	Service  Service `json:"service"`
	Quantity float64 `json:"quantity"`
}

// BundleServiceResult is the per-service outcome within a bundle calculation.
type BundleServiceResult struct {
	ServiceID string        `json:"service_id"`
	Quantity  float64       `json:"quantity"`
	Result    PricingResult `json:"result"`
}

// BundleResult aggregates per-service prices plus an optional flat bundle
// discount applied to the combined total.
type BundleResult struct {
	Services       []BundleServiceResult `json:"services"`
	BundleDiscount float64               `json:"bundle_discount"`
	TotalOriginal  float64               `json:"total_original"`
	TotalFinal     float64               `json:"total_final"`
	TotalSavings   float64               `json:"total_savings"`
}

// Recommendation suggests a pricing rule or plan change for a client.
type Recommendation struct {
	ServiceID        string  `json:"service_id"`
	RuleName         string  `json:"rule_name"`
	Reason           string  `json:"reason"`
	EstimatedSavings float64 `json:"estimated_savings"`
}

// BundleOpportunity suggests services that would be better priced together.
type BundleOpportunity struct {
	ServiceIDs  []string `json:"service_ids"`
	Description string   `json:"description"`
}

// Recommendations is the output contract of the recommendation interface.
type Recommendations struct {
	Recommendations     []Recommendation    `json:"recommendations"`
	BundleOpportunities []BundleOpportunity `json:"bundle_opportunities"`
}
