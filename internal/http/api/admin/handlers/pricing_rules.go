package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/pricing"
	"github.com/tigearis/payroll-billing/internal/refresh"
)

// PricingRuleHandler manages admin CRUD endpoints for pricing rules.
type PricingRuleHandler struct {
	db    *gorm.DB
	rules *refresh.Manager
}

// NewPricingRuleHandler constructs a pricing rule handler.
func NewPricingRuleHandler(db *gorm.DB, rules *refresh.Manager) *PricingRuleHandler {
	return &PricingRuleHandler{db: db, rules: rules}
}

// createPricingRuleRequest captures the payload for creating a pricing rule.
type createPricingRuleRequest struct {
	RuleID         string                 `json:"rule_id"`
	ServiceID      string                 `json:"service_id"`
	RuleName       string                 `json:"rule_name"`
	RuleType       string                 `json:"rule_type"`
	Priority       int                    `json:"priority"`
	Conditions     pricing.RuleConditions `json:"conditions"`
	Pricing        pricing.RulePricing    `json:"pricing"`
	EffectiveFrom  *time.Time             `json:"effective_from"`
	EffectiveUntil *time.Time             `json:"effective_until"`
	IsActive       *bool                  `json:"is_active"`
}

// validRuleTypes enumerates accepted rule_type values.
var validRuleTypes = map[pricing.RuleType]struct{}{
	pricing.RuleTypeVolumeDiscount: {},
	pricing.RuleTypeClientTier:     {},
	pricing.RuleTypeContractLength: {},
	pricing.RuleTypeSeasonal:       {},
	pricing.RuleTypeBundle:         {},
	pricing.RuleTypeNewClient:      {},
	pricing.RuleTypeLoyalty:        {},
	pricing.RuleTypeCustom:         {},
}

// validAdjustmentTypes enumerates accepted pricing.adjustment_type values.
var validAdjustmentTypes = map[pricing.AdjustmentType]struct{}{
	pricing.AdjustPercentageDiscount: {},
	pricing.AdjustFixedDiscount:      {},
	pricing.AdjustFixedRate:          {},
	pricing.AdjustMarkup:             {},
	pricing.AdjustTierRate:           {},
}

// Create validates input and inserts a pricing rule.
func (h *PricingRuleHandler) Create(c *gin.Context) {
	var body createPricingRuleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ruleID := strings.TrimSpace(body.RuleID)
	if ruleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rule_id is required"})
		return
	}
	ruleName := strings.TrimSpace(body.RuleName)
	if ruleName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rule_name is required"})
		return
	}
	serviceID := strings.TrimSpace(body.ServiceID)
	if serviceID == "" {
		serviceID = pricing.GlobalServiceID
	}
	if _, ok := validRuleTypes[pricing.RuleType(body.RuleType)]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown rule_type"})
		return
	}
	if errPricing := validateRulePricing(body.Pricing); errPricing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errPricing.Error()})
		return
	}
	if body.EffectiveFrom != nil && body.EffectiveUntil != nil && body.EffectiveUntil.Before(*body.EffectiveFrom) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "effective_until must be after effective_from"})
		return
	}

	var exists models.PricingRule
	if errCheck := h.db.WithContext(c.Request.Context()).Where("rule_id = ?", ruleID).First(&exists).Error; errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "rule_id already exists"})
		return
	}

	conditionsJSON, errCond := json.Marshal(body.Conditions)
	if errCond != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conditions"})
		return
	}
	pricingJSON, errEffect := json.Marshal(body.Pricing)
	if errEffect != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pricing"})
		return
	}

	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	now := time.Now().UTC()
	rule := models.PricingRule{
		RuleID:         ruleID,
		ServiceID:      serviceID,
		RuleName:       ruleName,
		RuleType:       body.RuleType,
		Priority:       body.Priority,
		Conditions:     datatypes.JSON(conditionsJSON),
		Pricing:        datatypes.JSON(pricingJSON),
		EffectiveFrom:  body.EffectiveFrom,
		EffectiveUntil: body.EffectiveUntil,
		IsActive:       isActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&rule).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create pricing rule failed"})
		return
	}
	h.reloadRules(c)
	c.JSON(http.StatusCreated, h.formatRule(&rule))
}

// List returns pricing rules filtered by query parameters.
func (h *PricingRuleHandler) List(c *gin.Context) {
	var (
		serviceIDQ = strings.TrimSpace(c.Query("service_id"))
		ruleTypeQ  = strings.TrimSpace(c.Query("rule_type"))
		isActiveQ  = strings.TrimSpace(c.Query("is_active"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.PricingRule{})
	if serviceIDQ != "" {
		q = q.Where("service_id = ?", serviceIDQ)
	}
	if ruleTypeQ != "" {
		q = q.Where("rule_type = ?", ruleTypeQ)
	}
	if isActiveQ != "" {
		if isActiveQ == "true" || isActiveQ == "1" {
			q = q.Where("is_active = ?", true)
		} else if isActiveQ == "false" || isActiveQ == "0" {
			q = q.Where("is_active = ?", false)
		}
	}

	var rows []models.PricingRule
	if errFind := q.Order("priority DESC, rule_id ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list pricing rules failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, h.formatRule(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"pricing_rules": out})
}

// Get fetches a pricing rule by its rule ID.
func (h *PricingRuleHandler) Get(c *gin.Context) {
	ruleID := strings.TrimSpace(c.Param("id"))
	if ruleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var rule models.PricingRule
	if errFind := h.db.WithContext(c.Request.Context()).Where("rule_id = ?", ruleID).First(&rule).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, h.formatRule(&rule))
}

// updatePricingRuleRequest captures optional fields for rule updates.
type updatePricingRuleRequest struct {
	ServiceID      *string                 `json:"service_id"`
	RuleName       *string                 `json:"rule_name"`
	RuleType       *string                 `json:"rule_type"`
	Priority       *int                    `json:"priority"`
	Conditions     *pricing.RuleConditions `json:"conditions"`
	Pricing        *pricing.RulePricing    `json:"pricing"`
	EffectiveFrom  *time.Time              `json:"effective_from"`
	EffectiveUntil *time.Time              `json:"effective_until"`
	IsActive       *bool                   `json:"is_active"`
}

// Update validates and applies pricing rule changes.
func (h *PricingRuleHandler) Update(c *gin.Context) {
	ruleID := strings.TrimSpace(c.Param("id"))
	if ruleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updatePricingRuleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.PricingRule
	if errFind := h.db.WithContext(c.Request.Context()).Where("rule_id = ?", ruleID).First(&existing).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	now := time.Now().UTC()
	updates := map[string]any{"updated_at": now}

	if body.ServiceID != nil {
		value := strings.TrimSpace(*body.ServiceID)
		if value == "" {
			value = pricing.GlobalServiceID
		}
		updates["service_id"] = value
	}
	if body.RuleName != nil {
		value := strings.TrimSpace(*body.RuleName)
		if value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rule_name cannot be empty"})
			return
		}
		updates["rule_name"] = value
	}
	if body.RuleType != nil {
		if _, ok := validRuleTypes[pricing.RuleType(*body.RuleType)]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown rule_type"})
			return
		}
		updates["rule_type"] = *body.RuleType
	}
	if body.Priority != nil {
		updates["priority"] = *body.Priority
	}
	if body.Conditions != nil {
		conditionsJSON, errCond := json.Marshal(body.Conditions)
		if errCond != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conditions"})
			return
		}
		updates["conditions"] = datatypes.JSON(conditionsJSON)
	}
	if body.Pricing != nil {
		if errPricing := validateRulePricing(*body.Pricing); errPricing != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errPricing.Error()})
			return
		}
		pricingJSON, errEffect := json.Marshal(body.Pricing)
		if errEffect != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pricing"})
			return
		}
		updates["pricing"] = datatypes.JSON(pricingJSON)
	}
	if body.EffectiveFrom != nil {
		updates["effective_from"] = body.EffectiveFrom
	}
	if body.EffectiveUntil != nil {
		updates["effective_until"] = body.EffectiveUntil
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.PricingRule{}).
		Where("rule_id = ?", ruleID).
		Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.reloadRules(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes a pricing rule by its rule ID.
func (h *PricingRuleHandler) Delete(c *gin.Context) {
	ruleID := strings.TrimSpace(c.Param("id"))
	if ruleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Where("rule_id = ?", ruleID).Delete(&models.PricingRule{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.reloadRules(c)
	c.Status(http.StatusNoContent)
}

// setActiveRequest captures the active flag for toggling a rule.
type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetEnabled toggles the active state for a pricing rule.
func (h *PricingRuleHandler) SetEnabled(c *gin.Context) {
	ruleID := strings.TrimSpace(c.Param("id"))
	if ruleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body setActiveRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	now := time.Now().UTC()
	res := h.db.WithContext(c.Request.Context()).Model(&models.PricingRule{}).
		Where("rule_id = ?", ruleID).
		Updates(map[string]any{"is_active": body.IsActive, "updated_at": now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.reloadRules(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// reloadRules swaps in a fresh engine snapshot after a rule mutation.
func (h *PricingRuleHandler) reloadRules(c *gin.Context) {
	if h.rules == nil {
		return
	}
	_ = h.rules.Reload(c.Request.Context())
}

// validateRulePricing checks the rate effect payload.
func validateRulePricing(p pricing.RulePricing) error {
	if _, ok := validAdjustmentTypes[p.AdjustmentType]; !ok {
		return errors.New("unknown pricing.adjustment_type")
	}
	if p.AdjustmentType == pricing.AdjustTierRate && len(p.TierRates) == 0 {
		return errors.New("pricing.tier_rates is required for tier_rate adjustment")
	}
	if p.MaxDiscount != nil && *p.MaxDiscount < 0 {
		return errors.New("pricing.max_discount cannot be negative")
	}
	if p.MinRate != nil && *p.MinRate < 0 {
		return errors.New("pricing.min_rate cannot be negative")
	}
	return nil
}

// formatRule converts a pricing rule row into a response payload.
func (h *PricingRuleHandler) formatRule(rule *models.PricingRule) gin.H {
	var conditions pricing.RuleConditions
	_ = json.Unmarshal(rule.Conditions, &conditions)
	var effect pricing.RulePricing
	_ = json.Unmarshal(rule.Pricing, &effect)

	return gin.H{
		"rule_id":         rule.RuleID,
		"service_id":      rule.ServiceID,
		"rule_name":       rule.RuleName,
		"rule_type":       rule.RuleType,
		"priority":        rule.Priority,
		"conditions":      conditions,
		"pricing":         effect,
		"effective_from":  rule.EffectiveFrom,
		"effective_until": rule.EffectiveUntil,
		"is_active":       rule.IsActive,
		"created_at":      rule.CreatedAt,
		"updated_at":      rule.UpdatedAt,
	}
}
