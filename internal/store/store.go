// Package store bridges persisted pricing rules and the in-memory engine.
package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/pricing"
)

// ToEngineRule converts a persisted rule row into an engine rule.
func ToEngineRule(row *models.PricingRule) (pricing.PricingRule, error) {
	rule := pricing.PricingRule{
		ID:             row.RuleID,
		ServiceID:      row.ServiceID,
		RuleName:       row.RuleName,
		RuleType:       pricing.RuleType(row.RuleType),
		Priority:       row.Priority,
		EffectiveFrom:  row.EffectiveFrom,
		EffectiveUntil: row.EffectiveUntil,
		IsActive:       row.IsActive,
	}
	if len(row.Conditions) > 0 {
		if err := json.Unmarshal(row.Conditions, &rule.Conditions); err != nil {
			return pricing.PricingRule{}, fmt.Errorf("store: decode conditions for rule %s: %w", row.RuleID, err)
		}
	}
	if len(row.Pricing) > 0 {
		if err := json.Unmarshal(row.Pricing, &rule.Pricing); err != nil {
			return pricing.PricingRule{}, fmt.Errorf("store: decode pricing for rule %s: %w", row.RuleID, err)
		}
	}
	return rule, nil
}

// FromEngineRule converts an engine rule into a persisted rule row.
func FromEngineRule(rule pricing.PricingRule) (models.PricingRule, error) {
	conditions, errCond := json.Marshal(rule.Conditions)
	if errCond != nil {
		return models.PricingRule{}, fmt.Errorf("store: encode conditions for rule %s: %w", rule.ID, errCond)
	}
	pricingJSON, errPricing := json.Marshal(rule.Pricing)
	if errPricing != nil {
		return models.PricingRule{}, fmt.Errorf("store: encode pricing for rule %s: %w", rule.ID, errPricing)
	}
	return models.PricingRule{
		RuleID:         rule.ID,
		ServiceID:      rule.ServiceID,
		RuleName:       rule.RuleName,
		RuleType:       string(rule.RuleType),
		Priority:       rule.Priority,
		Conditions:     datatypes.JSON(conditions),
		Pricing:        datatypes.JSON(pricingJSON),
		EffectiveFrom:  rule.EffectiveFrom,
		EffectiveUntil: rule.EffectiveUntil,
		IsActive:       rule.IsActive,
	}, nil
}

// LoadRuleStore builds a fresh rule store from every persisted rule row.
// Rows that fail to decode are skipped so one bad row cannot take the
// engine down with it.
func LoadRuleStore(conn *gorm.DB) (*pricing.RuleStore, []error) {
	var rows []models.PricingRule
	if errFind := conn.Order("id asc").Find(&rows).Error; errFind != nil {
		return nil, []error{fmt.Errorf("store: load rules: %w", errFind)}
	}

	ruleStore := pricing.NewRuleStore()
	var decodeErrs []error
	for i := range rows {
		rule, errConvert := ToEngineRule(&rows[i])
		if errConvert != nil {
			decodeErrs = append(decodeErrs, errConvert)
			continue
		}
		ruleStore.AddRule(rule.ServiceID, rule)
	}
	return ruleStore, decodeErrs
}

// ToEngineService converts a persisted service row into an engine service.
func ToEngineService(row *models.Service) pricing.Service {
	return pricing.Service{
		ID:          row.ServiceID,
		Name:        row.Name,
		DefaultRate: row.DefaultRate,
	}
}
