package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/pricing"
	"github.com/tigearis/payroll-billing/internal/settings"
	"github.com/tigearis/payroll-billing/internal/store"
)

// Migrate runs schema migrations and seeds baseline data.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.Setting{},
		&models.Service{},
		&models.Client{},
		&models.PricingRule{},
		&models.QuoteLog{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	if errSeedRules := seedDefaultRules(conn); errSeedRules != nil {
		return errSeedRules
	}
	if errSeedServices := seedDefaultServices(conn); errSeedServices != nil {
		return errSeedServices
	}
	return nil
}

// seedDefaultRules inserts the stock pricing policies when the rules
// table is empty. Existing rows always win so operator edits survive
// restarts.
func seedDefaultRules(conn *gorm.DB) error {
	var count int64
	if errCount := conn.Model(&models.PricingRule{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count pricing rules: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	// The promo window honors NEW_CLIENT_PROMO_FROM/UNTIL settings rows,
	// so pick up any values written before the first migration.
	if errRefresh := settings.RefreshDBConfigSnapshot(context.Background(), conn); errRefresh != nil {
		return fmt.Errorf("db: refresh settings: %w", errRefresh)
	}
	promoFrom, promoUntil := settings.PromoWindow()
	for _, rule := range pricing.DefaultRules(promoFrom, promoUntil) {
		row, errConvert := store.FromEngineRule(rule)
		if errConvert != nil {
			return errConvert
		}
		if errCreate := conn.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("db: seed rule %s: %w", rule.ID, errCreate)
		}
	}
	return nil
}

// seedDefaultServices inserts the starter service catalog when the
// services table is empty.
func seedDefaultServices(conn *gorm.DB) error {
	var count int64
	if errCount := conn.Model(&models.Service{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count services: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	for _, service := range defaultServices() {
		if errCreate := conn.Create(&service).Error; errCreate != nil {
			return fmt.Errorf("db: seed service %s: %w", service.ServiceID, errCreate)
		}
	}
	return nil
}

// defaultServices returns the starter catalog of billable services.
func defaultServices() []models.Service {
	return []models.Service{
		{
			ServiceID:   "payroll-processing",
			Name:        "Payroll Processing",
			Category:    "processing",
			Description: "Per-payslip payroll run processing.",
			DefaultRate: 12.50,
			BillingUnit: "payslip",
			IsActive:    true,
		},
		{
			ServiceID:   "payroll-setup",
			Name:        "Payroll Setup",
			Category:    "onboarding",
			Description: "One-off onboarding and payroll system configuration.",
			DefaultRate: 1500,
			BillingUnit: "engagement",
			IsActive:    true,
		},
		{
			ServiceID:   "compliance-review",
			Name:        "Compliance Review",
			Category:    "advisory",
			Description: "Quarterly award and superannuation compliance review.",
			DefaultRate: 450,
			BillingUnit: "review",
			IsActive:    true,
		},
		{
			ServiceID:   "tax-filing",
			Name:        "Tax Filing",
			Category:    "lodgement",
			Description: "Periodic tax lodgement preparation and submission.",
			DefaultRate: 320,
			BillingUnit: "lodgement",
			IsActive:    true,
		},
	}
}
